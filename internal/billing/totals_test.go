package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diewo77/scanpos/internal/dto"
)

func TestComputeDisplayTotals(t *testing.T) {
	tests := []struct {
		name     string
		items    []dto.InvoiceItem
		discount float64
		want     Totals
	}{
		{
			name: "two lines with discount",
			items: []dto.InvoiceItem{
				{LineSubtotal: 100, LineTax: 5, Quantity: 2},
				{LineSubtotal: 50, LineTax: 2.5, Quantity: 1},
			},
			discount: 10,
			want:     Totals{Subtotal: 150, Tax: 7.5, Discount: 10, GrandTotal: 147.5, Quantity: 3},
		},
		{
			name: "empty",
			want: Totals{},
		},
		{
			name: "cents do not drift",
			items: []dto.InvoiceItem{
				{LineSubtotal: 0.1, LineTax: 0.01, Quantity: 1},
				{LineSubtotal: 0.2, LineTax: 0.02, Quantity: 1},
			},
			want: Totals{Subtotal: 0.3, Tax: 0.03, GrandTotal: 0.33, Quantity: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeDisplayTotals(tt.items, tt.discount))
		})
	}
}
