package billing

import (
	"github.com/shopspring/decimal"

	"github.com/diewo77/scanpos/internal/dto"
)

// Totals is what a billing screen shows under the item list.
type Totals struct {
	Subtotal   float64
	Tax        float64
	Discount   float64
	GrandTotal float64
	Quantity   int
}

// ComputeDisplayTotals sums the store-computed line amounts and applies the
// discount. The result is for display between store round trips only; the
// invoice totals returned by the store are authoritative.
func ComputeDisplayTotals(items []dto.InvoiceItem, discount float64) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	qty := 0
	for _, it := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(it.LineSubtotal))
		tax = tax.Add(decimal.NewFromFloat(it.LineTax))
		qty += it.Quantity
	}
	d := decimal.NewFromFloat(discount)
	return Totals{
		Subtotal:   subtotal.Round(2).InexactFloat64(),
		Tax:        tax.Round(2).InexactFloat64(),
		Discount:   d.Round(2).InexactFloat64(),
		GrandTotal: subtotal.Add(tax).Sub(d).Round(2).InexactFloat64(),
		Quantity:   qty,
	}
}
