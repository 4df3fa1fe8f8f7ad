package models

import "time"

// Product is a sellable article. Products are never hard-deleted, they are
// deactivated so that past invoice lines keep their reference.
type Product struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Name       string    `gorm:"size:200;not null;index" json:"name"`
	Barcode    *string   `gorm:"size:100;uniqueIndex" json:"barcode"`
	Price      float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	TaxPercent float64   `gorm:"type:decimal(5,2);not null" json:"tax_percent"`
	StockQty   int       `gorm:"not null" json:"stock_qty"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
}

// BarcodeValue returns the barcode or "" when none is set.
func (p *Product) BarcodeValue() string {
	if p.Barcode == nil {
		return ""
	}
	return *p.Barcode
}

// PriceWithTax returns the unit price including tax.
func (p *Product) PriceWithTax() float64 {
	price := Dec(p.Price)
	return Money(price.Add(price.Mul(Dec(p.TaxPercent)).Div(hundred)))
}
