package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/scanpos/internal/models"
	"github.com/diewo77/scanpos/validation"
)

// InvoiceService owns the invoice lifecycle: draft creation, item
// mutations, completion with stock decrement, and deletion.
type InvoiceService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db, now: time.Now}
}

// WithClock replaces the time source used for numbering and completion.
func (s *InvoiceService) WithClock(now func() time.Time) *InvoiceService {
	s.now = now
	return s
}

// AddItemInput selects a product by id or by barcode.
type AddItemInput struct {
	ProductID uint
	Barcode   string
	Quantity  int
}

// InvoiceFilter narrows List. From and To are inclusive calendar days.
type InvoiceFilter struct {
	Status   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// InvoiceRow is an invoice with its line count, as listed.
type InvoiceRow struct {
	models.Invoice
	ItemsCount int
}

// Create opens a new draft for the cashier.
func (s *InvoiceService) Create(ctx context.Context, userID uint) (*models.Invoice, error) {
	inv := &models.Invoice{UserID: userID, Status: models.InvoiceStatusDraft}
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// Get loads an invoice with its items and their products.
func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return &inv, nil
}

// List returns invoices newest first.
func (s *InvoiceService) List(ctx context.Context, f InvoiceFilter) ([]InvoiceRow, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Invoice{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", startOfDay(*f.From))
	}
	if f.To != nil {
		q = q.Where("created_at < ?", startOfDay(*f.To).AddDate(0, 0, 1))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	var invoices []models.Invoice
	err := q.Order("created_at DESC").Order("id DESC").
		Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}

	counts, err := s.itemCounts(ctx, invoices)
	if err != nil {
		return nil, 0, err
	}
	rows := make([]InvoiceRow, len(invoices))
	for i, inv := range invoices {
		rows[i] = InvoiceRow{Invoice: inv, ItemsCount: counts[inv.ID]}
	}
	return rows, total, nil
}

func (s *InvoiceService) itemCounts(ctx context.Context, invoices []models.Invoice) (map[uint]int, error) {
	counts := make(map[uint]int, len(invoices))
	if len(invoices) == 0 {
		return counts, nil
	}
	ids := make([]uint, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}
	var rows []struct {
		InvoiceID uint
		N         int
	}
	err := s.db.WithContext(ctx).Model(&models.InvoiceItem{}).
		Select("invoice_id, COUNT(*) AS n").
		Where("invoice_id IN ?", ids).
		Group("invoice_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count invoice items: %w", err)
	}
	for _, r := range rows {
		counts[r.InvoiceID] = r.N
	}
	return counts, nil
}

// AddItem adds a product to a draft. A product already on the invoice has
// its line quantity increased instead; created reports which case happened.
func (s *InvoiceService) AddItem(ctx context.Context, invoiceID uint, in AddItemInput) (item *models.InvoiceItem, created bool, err error) {
	v := validation.Violations{}
	validation.PositiveInt("quantity", in.Quantity, v)
	if in.ProductID == 0 && in.Barcode == "" {
		v["product_id"] = "required"
	}
	if !v.Empty() {
		return nil, false, invalid(v)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := loadDraft(tx, invoiceID)
		if err != nil {
			return err
		}
		product, err := findSellableProduct(tx, in)
		if err != nil {
			return err
		}

		var line models.InvoiceItem
		res := tx.Where("invoice_id = ? AND product_id = ?", inv.ID, product.ID).Limit(1).Find(&line)
		if res.Error != nil {
			return fmt.Errorf("find invoice line: %w", res.Error)
		}
		created = res.RowsAffected == 0

		qty := in.Quantity
		if !created {
			qty += line.Quantity
		}
		if product.StockQty < qty {
			return insufficientStock(product.Name, product.StockQty)
		}

		if created {
			line = models.InvoiceItem{
				InvoiceID:  inv.ID,
				ProductID:  product.ID,
				UnitPrice:  product.Price,
				TaxPercent: product.TaxPercent,
			}
		}
		line.Quantity = qty
		line.CalculateLineTotals()
		if err := tx.Save(&line).Error; err != nil {
			return fmt.Errorf("save invoice line: %w", err)
		}
		line.Product = product
		item = &line
		return recalculate(tx, inv)
	})
	if err != nil {
		return nil, false, err
	}
	return item, created, nil
}

// UpdateItem sets a line quantity. A quantity of zero or less removes the
// line, in which case removed is true and item is nil.
func (s *InvoiceService) UpdateItem(ctx context.Context, invoiceID, itemID uint, quantity int) (item *models.InvoiceItem, removed bool, err error) {
	if quantity <= 0 {
		return nil, true, s.DeleteItem(ctx, invoiceID, itemID)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := loadDraft(tx, invoiceID)
		if err != nil {
			return err
		}
		line, err := loadLine(tx, inv.ID, itemID)
		if err != nil {
			return err
		}
		if line.Product == nil {
			return ErrProductNotFound
		}
		if line.Product.StockQty < quantity {
			return insufficientStock(line.Product.Name, line.Product.StockQty)
		}
		line.Quantity = quantity
		line.CalculateLineTotals()
		if err := tx.Omit("Product").Save(line).Error; err != nil {
			return fmt.Errorf("save invoice line: %w", err)
		}
		item = line
		return recalculate(tx, inv)
	})
	if err != nil {
		return nil, false, err
	}
	return item, false, nil
}

// DeleteItem removes a line from a draft.
func (s *InvoiceService) DeleteItem(ctx context.Context, invoiceID, itemID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := loadDraft(tx, invoiceID)
		if err != nil {
			return err
		}
		line, err := loadLine(tx, inv.ID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.InvoiceItem{}, line.ID).Error; err != nil {
			return fmt.Errorf("delete invoice line: %w", err)
		}
		return recalculate(tx, inv)
	})
}

// Complete finalizes a draft: stock is checked and decremented for every
// line, the discount is applied, and the invoice gets its number.
func (s *InvoiceService) Complete(ctx context.Context, invoiceID uint, discount float64) (*models.Invoice, error) {
	v := validation.Violations{}
	validation.NonNegativeFloat("discount_amount", discount, v)
	if !v.Empty() {
		return nil, invalid(v)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := loadDraft(tx, invoiceID)
		if err != nil {
			return err
		}
		if err := tx.Preload("Product").Where("invoice_id = ?", inv.ID).Find(&inv.Items).Error; err != nil {
			return fmt.Errorf("load invoice lines: %w", err)
		}
		if len(inv.Items) == 0 {
			return ErrEmptyInvoice
		}

		for _, line := range inv.Items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_qty >= ?", line.ProductID, line.Quantity).
				UpdateColumn("stock_qty", gorm.Expr("stock_qty - ?", line.Quantity))
			if res.Error != nil {
				return fmt.Errorf("decrement stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				name, avail := "product", 0
				if line.Product != nil {
					name, avail = line.Product.Name, line.Product.StockQty
				}
				return insufficientStock(name, avail)
			}
		}

		inv.DiscountAmount = discount
		inv.Recalculate()
		if inv.TotalAmount < 0 {
			return ErrDiscountTooLarge
		}

		now := s.now().UTC()
		number, err := models.GenerateInvoiceNumber(tx, now)
		if err != nil {
			return fmt.Errorf("generate invoice number: %w", err)
		}
		return tx.Model(&models.Invoice{ID: inv.ID}).Updates(map[string]any{
			"status":          models.InvoiceStatusCompleted,
			"invoice_number":  number,
			"discount_amount": inv.DiscountAmount,
			"subtotal_amount": inv.SubtotalAmount,
			"total_tax":       inv.TotalTax,
			"total_amount":    inv.TotalAmount,
			"completed_at":    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, invoiceID)
}

// Delete removes an invoice and its lines. Deleting a completed invoice puts
// its quantities back into stock.
func (s *InvoiceService) Delete(ctx context.Context, invoiceID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.Preload("Items").First(&inv, invoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvoiceNotFound
			}
			return fmt.Errorf("load invoice: %w", err)
		}
		if inv.IsCompleted() {
			for _, line := range inv.Items {
				err := tx.Model(&models.Product{}).Where("id = ?", line.ProductID).
					UpdateColumn("stock_qty", gorm.Expr("stock_qty + ?", line.Quantity)).Error
				if err != nil {
					return fmt.Errorf("restore stock: %w", err)
				}
			}
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("delete invoice lines: %w", err)
		}
		if err := tx.Delete(&models.Invoice{}, inv.ID).Error; err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		return nil
	})
}

func loadDraft(tx *gorm.DB, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := tx.First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("load invoice: %w", err)
	}
	if !inv.CanEdit() {
		return nil, ErrInvoiceNotDraft
	}
	return &inv, nil
}

func loadLine(tx *gorm.DB, invoiceID, itemID uint) (*models.InvoiceItem, error) {
	var line models.InvoiceItem
	err := tx.Preload("Product").Where("invoice_id = ?", invoiceID).First(&line, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice line: %w", err)
	}
	return &line, nil
}

func findSellableProduct(tx *gorm.DB, in AddItemInput) (*models.Product, error) {
	var product models.Product
	var err error
	if in.ProductID != 0 {
		err = tx.First(&product, in.ProductID).Error
	} else {
		err = tx.Where("barcode = ? AND is_active = ?", in.Barcode, true).First(&product).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}
	return &product, nil
}

// recalculate refreshes the stored totals of a draft from its lines.
func recalculate(tx *gorm.DB, inv *models.Invoice) error {
	if err := tx.Where("invoice_id = ?", inv.ID).Find(&inv.Items).Error; err != nil {
		return fmt.Errorf("load invoice lines: %w", err)
	}
	inv.Recalculate()
	return tx.Model(&models.Invoice{ID: inv.ID}).Updates(map[string]any{
		"subtotal_amount": inv.SubtotalAmount,
		"total_tax":       inv.TotalTax,
		"total_amount":    inv.TotalAmount,
	}).Error
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
