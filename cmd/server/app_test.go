package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/scanpos/auth"
	"github.com/diewo77/scanpos/internal/billing"
	"github.com/diewo77/scanpos/internal/client"
	"github.com/diewo77/scanpos/internal/db"
	"github.com/diewo77/scanpos/internal/db/dbtest"
	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/policy"
	"github.com/diewo77/scanpos/internal/scan"
)

const (
	milk  = "4006381333931"
	bread = "4012345678901"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	conn := dbtest.Open(t)
	require.NoError(t, db.Seed(conn, db.SeedOptions{
		AdminName:     "Admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin-secret",
		Demo:          true,
	}))
	issuer := auth.NewIssuer("test-secret", time.Hour, 10*time.Minute)
	rc := policy.NewRouterConfig(conn, issuer, policy.RouterOptions{})
	srv := httptest.NewServer(NewApp(conn, rc, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server, email, password string) *client.Client {
	t.Helper()
	c := client.New(srv.URL, client.NewCredentials())
	_, err := c.Login(context.Background(), email, password)
	require.NoError(t, err)
	return c
}

func newCashier(t *testing.T, srv *httptest.Server, admin *client.Client, email string) *client.Client {
	t.Helper()
	_, err := admin.CreateUser(context.Background(), dto.UserRequest{
		Name: "Cashier", Email: email, Password: "cashier-secret", Role: string(policy.RoleCashier),
	})
	require.NoError(t, err)
	return login(t, srv, email, "cashier-secret")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/products")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	c := client.New(srv.URL, client.NewCredentials())
	_, err = c.Login(context.Background(), "admin@example.com", "wrong-password")
	assert.ErrorIs(t, err, client.ErrClient)
}

func TestCashierPermissions(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	admin := login(t, srv, "admin@example.com", "admin-secret")
	cashier := newCashier(t, srv, admin, "cashier@example.com")

	list, err := cashier.ListProducts(ctx, client.ListQuery{})
	require.NoError(t, err)
	assert.NotEmpty(t, list.Products)

	_, err = cashier.CreateProduct(ctx, dto.ProductRequest{Name: "Tea", Price: 2})
	assert.ErrorIs(t, err, client.ErrClient)
	assert.True(t, client.HasCode(err, "forbidden"))

	_, err = cashier.ListUsers(ctx, client.ListQuery{})
	assert.True(t, client.HasCode(err, "forbidden"))

	// Cashiers cannot touch invoices opened by someone else.
	inv, err := admin.CreateInvoice(ctx)
	require.NoError(t, err)
	_, err = cashier.AddItem(ctx, inv.ID, dto.AddItemRequest{Barcode: milk, Quantity: 1})
	assert.True(t, client.HasCode(err, "forbidden"))
}

func TestBillingSessionAgainstStore(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	admin := login(t, srv, "admin@example.com", "admin-secret")
	cashier := newCashier(t, srv, admin, "cashier@example.com")

	sess := billing.NewSession(cashier, billing.WithPollInterval(50*time.Millisecond))
	t.Cleanup(sess.Close)

	item, err := sess.AddScanned(ctx, milk)
	require.NoError(t, err)
	assert.Equal(t, "Whole Milk 1L", item.ProductName)

	require.NoError(t, sess.AddItem(ctx, billing.ByBarcode(bread), 2))
	require.NoError(t, sess.AddItem(ctx, billing.ByBarcode(milk), 1))
	assert.True(t, sess.Polling())

	items := sess.Items()
	require.Len(t, items, 2)
	inv, _ := sess.Invoice()
	assert.InDelta(t, inv.TotalAmount, sess.DisplayTotals().GrandTotal, 0.01)
	assert.Equal(t, 4, sess.DisplayTotals().Quantity)

	err = sess.AddItem(ctx, billing.ByBarcode("0000000000000"), 1)
	assert.ErrorIs(t, err, billing.ErrProductNotFound)

	done, err := sess.Complete(ctx, 0.5)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCompleted, done.Status)
	assert.NotEmpty(t, done.InvoiceNumber)
	assert.InDelta(t, inv.TotalAmount-0.5, done.TotalAmount, 0.001)
	assert.False(t, sess.Polling())

	err = sess.AddItem(ctx, billing.ByBarcode(milk), 1)
	assert.ErrorIs(t, err, billing.ErrInvoiceCompleted)
}

func TestScanTokenScope(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	admin := login(t, srv, "admin@example.com", "admin-secret")
	cashier := newCashier(t, srv, admin, "cashier@example.com")

	sess := billing.NewSession(cashier, billing.WithPollInterval(20*time.Millisecond))
	t.Cleanup(sess.Close)
	id, err := sess.EnsureInvoice(ctx)
	require.NoError(t, err)

	tok, err := cashier.ScanToken(ctx, id)
	require.NoError(t, err)
	link, err := scan.ParseLink(scan.Link{BaseURL: "https://pos.example.com", InvoiceID: tok.InvoiceID, Token: tok.Token}.String())
	require.NoError(t, err)

	creds := client.NewCredentials()
	creds.SetScan(link.Token, tok.ExpiresAt, link.InvoiceID)
	phone := client.New(srv.URL, creds)

	linked := scan.NewLinkedInvoice(phone, link.InvoiceID)
	_, err = linked.Check(ctx)
	require.NoError(t, err)
	_, err = linked.AddScanned(ctx, milk)
	require.NoError(t, err)

	// The owner picks the phone's item up by polling.
	assert.Eventually(t, func() bool { return len(sess.Items()) == 1 }, 2*time.Second, 20*time.Millisecond)

	_, err = phone.ListProducts(ctx, client.ListQuery{})
	assert.True(t, client.HasCode(err, "forbidden"))
	_, err = phone.CompleteInvoice(ctx, id, 0)
	assert.True(t, client.HasCode(err, "forbidden"))

	other, err := cashier.CreateInvoice(ctx)
	require.NoError(t, err)
	_, err = phone.GetInvoice(ctx, other.ID)
	assert.True(t, client.HasCode(err, "forbidden"))
}

func TestAdminCatalogAndReports(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	admin := login(t, srv, "admin@example.com", "admin-secret")

	p, err := admin.CreateProduct(ctx, dto.ProductRequest{Name: "Green Tea", Barcode: "9990001", Price: 4, TaxPercent: 10, StockQty: 30})
	require.NoError(t, err)

	found, err := admin.ProductByBarcode(ctx, "9990001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	price := 5.0
	updated, err := admin.UpdateProduct(ctx, p.ID, dto.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 5.0, updated.Price)
	assert.Equal(t, "Green Tea", updated.Name)

	_, err = admin.CreateProduct(ctx, dto.ProductRequest{Name: "Copy", Barcode: "9990001", Price: 1})
	assert.True(t, client.HasCode(err, "barcode_exists"))

	sess := billing.NewSession(admin, billing.WithPollInterval(time.Hour))
	t.Cleanup(sess.Close)
	require.NoError(t, sess.AddItem(ctx, billing.ByProduct(p.ID), 2))
	done, err := sess.Complete(ctx, 0)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, done.TotalAmount, 0.001)

	require.NoError(t, admin.DeleteProduct(ctx, p.ID))
	next := billing.NewSession(admin, billing.WithPollInterval(time.Hour))
	t.Cleanup(next.Close)
	err = next.AddItem(ctx, billing.ByBarcode("9990001"), 1)
	assert.ErrorIs(t, err, billing.ErrProductNotFound)

	report, err := admin.SalesReport(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.InvoiceCount)
	assert.InDelta(t, 11.0, report.TotalSales, 0.001)
	require.NotEmpty(t, report.TopProducts)
	assert.Equal(t, "Green Tea", report.TopProducts[0].ProductName)

	dash, err := admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dash.Today.InvoiceCount)
	require.Len(t, dash.RecentInvoices, 1)
	assert.Equal(t, done.InvoiceNumber, dash.RecentInvoices[0].InvoiceNumber)

	_, err = admin.CreateUser(ctx, dto.UserRequest{Name: "Dup", Email: "admin@example.com", Password: "secret-pass", Role: "cashier"})
	assert.True(t, client.HasCode(err, "email_exists"))
}
