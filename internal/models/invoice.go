package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusCompleted InvoiceStatus = "completed"
)

// Invoice is a sale. It is created as a draft by a cashier, filled with
// items, and completed exactly once.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the cashier who opened the invoice.
	UserID uint  `gorm:"index;not null" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"-"`

	// InvoiceNumber is assigned on completion.
	InvoiceNumber *string       `gorm:"size:50;uniqueIndex" json:"invoice_number"`
	Status        InvoiceStatus `gorm:"size:20;not null;index" json:"status"`

	SubtotalAmount float64 `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal_amount"`
	TotalTax       float64 `gorm:"type:decimal(12,2);not null;default:0" json:"total_tax"`
	DiscountAmount float64 `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	TotalAmount    float64 `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`

	CompletedAt *time.Time `gorm:"index" json:"completed_at"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// GetUserID implements policy.Ownable.
func (i *Invoice) GetUserID() uint { return i.UserID }

func (i *Invoice) IsDraft() bool     { return i.Status == InvoiceStatusDraft }
func (i *Invoice) IsCompleted() bool { return i.Status == InvoiceStatusCompleted }

// CanEdit reports whether items may still be added, changed or removed.
func (i *Invoice) CanEdit() bool { return i.IsDraft() }

// Number returns the invoice number or "" for drafts.
func (i *Invoice) Number() string {
	if i.InvoiceNumber == nil {
		return ""
	}
	return *i.InvoiceNumber
}

// Recalculate sets the invoice totals from its loaded items and discount.
func (i *Invoice) Recalculate() {
	subtotal, tax := decimal.Zero, decimal.Zero
	for _, it := range i.Items {
		subtotal = subtotal.Add(Dec(it.LineSubtotal))
		tax = tax.Add(Dec(it.LineTax))
	}
	i.SubtotalAmount = Money(subtotal)
	i.TotalTax = Money(tax)
	i.TotalAmount = Money(subtotal.Add(tax).Sub(Dec(i.DiscountAmount)))
}

// InvoiceItem is one product line of an invoice. Price and tax are copied
// from the product when the line is created.
type InvoiceItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InvoiceID uint     `gorm:"index;not null" json:"invoice_id"`
	ProductID uint     `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"-"`

	Quantity     int     `gorm:"not null" json:"quantity"`
	UnitPrice    float64 `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TaxPercent   float64 `gorm:"type:decimal(5,2);not null" json:"tax_percent"`
	LineSubtotal float64 `gorm:"type:decimal(12,2);not null" json:"line_subtotal"`
	LineTax      float64 `gorm:"type:decimal(12,2);not null" json:"line_tax"`
	LineTotal    float64 `gorm:"type:decimal(12,2);not null" json:"line_total"`
}

// CalculateLineTotals derives the line amounts from quantity, price and tax.
func (item *InvoiceItem) CalculateLineTotals() {
	subtotal := Dec(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
	tax := subtotal.Mul(Dec(item.TaxPercent)).Div(hundred)
	item.LineSubtotal = Money(subtotal)
	item.LineTax = Money(tax)
	item.LineTotal = Money(subtotal.Add(tax))
}

// ProductName returns the name of the preloaded product, if any.
func (item *InvoiceItem) ProductName() string {
	if item.Product == nil {
		return ""
	}
	return item.Product.Name
}

const invoiceNumberPrefix = "INV-"

// GenerateInvoiceNumber returns the next number for the given day.
// Format: INV-YYYYMMDD-NNNN (e.g., INV-20240501-0007)
func GenerateInvoiceNumber(db *gorm.DB, day time.Time) (string, error) {
	prefix := invoiceNumberPrefix + day.Format("20060102") + "-"

	var last Invoice
	err := db.Model(&Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		// Longer suffixes sort first once a day passes 9999 invoices.
		Order("LENGTH(invoice_number) DESC, invoice_number DESC").
		Limit(1).
		Find(&last).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if n := last.Number(); n != "" {
		prev, err := strconv.Atoi(strings.TrimPrefix(n, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed invoice number %q: %w", n, err)
		}
		seq = prev + 1
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}
