package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/scanpos/internal/db/dbtest"
	"github.com/diewo77/scanpos/internal/models"
)

func TestReportService_SalesAndDashboard(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	// Wednesday.
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	invoices := NewInvoiceService(db).WithClock(clock)
	reports := NewReportService(db, 10).WithClock(clock)
	cashier := seedUser(t, db, "cashier@scanpos.test", models.RoleCashier)
	coffee := seedProduct(t, db, "Coffee", "c1", 10, 10, 50)
	soap := seedProduct(t, db, "Soap", "", 2, 0, 12)

	sell := func(discount float64, lines map[uint]int) {
		t.Helper()
		inv, err := invoices.Create(ctx, cashier.ID)
		require.NoError(t, err)
		for pid, qty := range lines {
			_, _, err := invoices.AddItem(ctx, inv.ID, AddItemInput{ProductID: pid, Quantity: qty})
			require.NoError(t, err)
		}
		_, err = invoices.Complete(ctx, inv.ID, discount)
		require.NoError(t, err)
	}

	sell(0, map[uint]int{coffee.ID: 1, soap.ID: 4}) // 10 + 1 tax + 8 = 19
	sell(2, map[uint]int{coffee.ID: 2})             // 20 + 2 tax - 2 = 20

	// A sale from the previous week (Monday is May 13).
	now = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	sell(0, map[uint]int{soap.ID: 1})
	now = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	// A draft never counts.
	draft, err := invoices.Create(ctx, cashier.ID)
	require.NoError(t, err)
	_, _, err = invoices.AddItem(ctx, draft.ID, AddItemInput{ProductID: coffee.ID, Quantity: 5})
	require.NoError(t, err)

	day := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	report, err := reports.Sales(ctx, day, day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.InvoiceCount)
	assert.Equal(t, 39.0, report.TotalSales)
	assert.Equal(t, 3.0, report.TotalTax)
	assert.Equal(t, 2.0, report.TotalDiscount)
	require.Len(t, report.TopProducts, 2)
	assert.Equal(t, "Soap", report.TopProducts[0].ProductName)
	assert.Equal(t, int64(4), report.TopProducts[0].TotalQuantity)
	assert.Equal(t, "Coffee", report.TopProducts[1].ProductName)
	assert.Equal(t, int64(3), report.TopProducts[1].TotalQuantity)
	assert.Equal(t, 33.0, report.TopProducts[1].TotalRevenue)

	dash, err := reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dash.Today.InvoiceCount)
	assert.Equal(t, 39.0, dash.Today.TotalSales)
	assert.Equal(t, int64(2), dash.Week.InvoiceCount)
	assert.Equal(t, int64(3), dash.Month.InvoiceCount)
	assert.Equal(t, int64(2), dash.ProductCount)
	require.Len(t, dash.LowStock, 1)
	assert.Equal(t, "Soap", dash.LowStock[0].Name)
	assert.Equal(t, 7, dash.LowStock[0].StockQty)
	require.Len(t, dash.RecentInvoices, 3)
	assert.Equal(t, "INV-20240515-0002", dash.RecentInvoices[0].InvoiceNumber)

	from, to := reports.DefaultRange()
	assert.Equal(t, day, to)
	assert.Equal(t, day.AddDate(0, 0, -30), from)
}
