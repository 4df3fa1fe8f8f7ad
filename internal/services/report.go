package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/models"
)

const (
	topProductsLimit    = 10
	lowStockLimit       = 10
	recentInvoicesLimit = 5
)

// ReportService aggregates completed invoices by completion time.
type ReportService struct {
	db                *gorm.DB
	now               func() time.Time
	lowStockThreshold int
}

func NewReportService(db *gorm.DB, lowStockThreshold int) *ReportService {
	return &ReportService{db: db, now: time.Now, lowStockThreshold: lowStockThreshold}
}

func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// DefaultRange is the last 30 days up to today.
func (s *ReportService) DefaultRange() (from, to time.Time) {
	to = startOfDay(s.now().UTC())
	return to.AddDate(0, 0, -30), to
}

type totalsRow struct {
	TotalSales    float64
	TotalTax      float64
	TotalDiscount float64
	InvoiceCount  int64
}

// Sales reports on invoices completed between the start of from and the end
// of to.
func (s *ReportService) Sales(ctx context.Context, from, to time.Time) (*dto.SalesReport, error) {
	start, end := startOfDay(from), startOfDay(to).AddDate(0, 0, 1)

	row, err := s.totals(ctx, start, end)
	if err != nil {
		return nil, err
	}

	top := []dto.TopProduct{}
	err = s.db.WithContext(ctx).Table("invoice_items AS ii").
		Select("ii.product_id, p.name AS product_name, COALESCE(p.barcode, '') AS barcode, "+
			"SUM(ii.quantity) AS total_quantity, SUM(ii.line_total) AS total_revenue").
		Joins("JOIN invoices i ON i.id = ii.invoice_id").
		Joins("JOIN products p ON p.id = ii.product_id").
		Where("i.status = ? AND i.completed_at >= ? AND i.completed_at < ?", models.InvoiceStatusCompleted, start, end).
		Group("ii.product_id, p.name, p.barcode").
		Order("total_quantity DESC").
		Limit(topProductsLimit).
		Scan(&top).Error
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	for i := range top {
		top[i].TotalRevenue = models.Money(models.Dec(top[i].TotalRevenue))
	}

	return &dto.SalesReport{
		From:          start,
		To:            startOfDay(to),
		TotalSales:    models.Money(models.Dec(row.TotalSales)),
		TotalTax:      models.Money(models.Dec(row.TotalTax)),
		TotalDiscount: models.Money(models.Dec(row.TotalDiscount)),
		InvoiceCount:  row.InvoiceCount,
		TopProducts:   top,
	}, nil
}

func (s *ReportService) totals(ctx context.Context, start, end time.Time) (totalsRow, error) {
	var row totalsRow
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("COALESCE(SUM(total_amount), 0) AS total_sales, COALESCE(SUM(total_tax), 0) AS total_tax, "+
			"COALESCE(SUM(discount_amount), 0) AS total_discount, COUNT(*) AS invoice_count").
		Where("status = ? AND completed_at >= ? AND completed_at < ?", models.InvoiceStatusCompleted, start, end).
		Scan(&row).Error
	if err != nil {
		return row, fmt.Errorf("sales totals: %w", err)
	}
	return row, nil
}

func (s *ReportService) period(ctx context.Context, start, end time.Time) (dto.PeriodSummary, error) {
	row, err := s.totals(ctx, start, end)
	if err != nil {
		return dto.PeriodSummary{}, err
	}
	return dto.PeriodSummary{TotalSales: models.Money(models.Dec(row.TotalSales)), InvoiceCount: row.InvoiceCount}, nil
}

// Dashboard summarizes today, the current week (from Monday) and month.
func (s *ReportService) Dashboard(ctx context.Context) (*dto.Dashboard, error) {
	now := s.now().UTC()
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	var d dto.Dashboard
	var err error
	if d.Today, err = s.period(ctx, today, tomorrow); err != nil {
		return nil, err
	}
	if d.Week, err = s.period(ctx, weekStart, tomorrow); err != nil {
		return nil, err
	}
	if d.Month, err = s.period(ctx, monthStart, tomorrow); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Product{}).Where("is_active = ?", true).Count(&d.ProductCount).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	var low []models.Product
	err = db.Where("is_active = ? AND stock_qty < ?", true, s.lowStockThreshold).
		Order("stock_qty ASC").Limit(lowStockLimit).Find(&low).Error
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	d.LowStock = make([]dto.LowStockProduct, len(low))
	for i, p := range low {
		d.LowStock[i] = dto.LowStockProduct{ID: p.ID, Name: p.Name, Barcode: p.BarcodeValue(), StockQty: p.StockQty, Price: p.Price}
	}

	var recent []models.Invoice
	err = db.Where("status = ?", models.InvoiceStatusCompleted).
		Order("completed_at DESC").Order("id DESC").Limit(recentInvoicesLimit).Find(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("recent invoices: %w", err)
	}
	d.RecentInvoices = make([]dto.RecentInvoice, len(recent))
	for i, inv := range recent {
		d.RecentInvoices[i] = dto.RecentInvoice{
			ID:            inv.ID,
			InvoiceNumber: inv.Number(),
			Status:        string(inv.Status),
			TotalAmount:   inv.TotalAmount,
			CompletedAt:   inv.CompletedAt,
		}
	}
	return &d, nil
}
