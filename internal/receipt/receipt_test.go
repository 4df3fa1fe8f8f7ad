package receipt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/scanpos/internal/dto"
)

func completedInvoice() dto.Invoice {
	at := time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)
	return dto.Invoice{
		ID:             3,
		InvoiceNumber:  "INV-20240105-0003",
		Status:         dto.StatusCompleted,
		SubtotalAmount: 150,
		TotalTax:       7.5,
		DiscountAmount: 10,
		TotalAmount:    147.5,
		CompletedAt:    &at,
		Items: []dto.InvoiceItem{
			{ProductName: "Coffee <Beans>", Quantity: 2, UnitPrice: 50, TaxPercent: 5, LineTotal: 105},
			{ProductName: "Tea", Quantity: 1, UnitPrice: 50, TaxPercent: 5, LineTotal: 52.5},
		},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Data{StoreName: "Corner Shop", Cashier: "Alice", Currency: "$", Invoice: completedInvoice()})
	require.NoError(t, err)

	out := buf.String()
	for _, want := range []string{
		"Corner Shop",
		"INV-20240105-0003",
		"Cashier: Alice",
		"Coffee &lt;Beans&gt;",
		"$105.00",
		"$52.50",
		"-$10.00",
		"$147.50",
		"(5%)",
		"Thank you for your purchase",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderWithoutDiscount(t *testing.T) {
	inv := completedInvoice()
	inv.DiscountAmount = 0
	inv.TotalAmount = 157.5

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Data{Invoice: inv}))

	assert.NotContains(t, buf.String(), "Discount")
	assert.Contains(t, buf.String(), "ScanPOS")
	assert.True(t, strings.Contains(buf.String(), "157.50"))
}

func TestRenderRejectsDraft(t *testing.T) {
	inv := completedInvoice()
	inv.Status = dto.StatusDraft

	err := Render(&bytes.Buffer{}, Data{Invoice: inv})
	assert.ErrorIs(t, err, ErrNotCompleted)
}
