package client

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/scanpos/internal/dto"
)

const dayLayout = "2006-01-02"

// InvoiceQuery filters ListInvoices. Zero values are not sent.
type InvoiceQuery struct {
	Status   string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

func (c *Client) ListInvoices(ctx context.Context, q InvoiceQuery) (*dto.InvoiceList, error) {
	params := pageQuery(q.Page, q.PageSize)
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if !q.From.IsZero() {
		params.Set("from", q.From.Format(dayLayout))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.Format(dayLayout))
	}
	var out dto.InvoiceList
	if err := c.do(ctx, http.MethodGet, "/api/invoices", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateInvoice(ctx context.Context) (*dto.Invoice, error) {
	var out dto.InvoiceResponse
	if err := c.do(ctx, http.MethodPost, "/api/invoices", nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out.Invoice, nil
}

// GetInvoice returns the invoice with its items.
func (c *Client) GetInvoice(ctx context.Context, id uint) (*dto.Invoice, error) {
	var out dto.InvoiceResponse
	if err := c.do(ctx, http.MethodGet, idPath("/api/invoices/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Invoice, nil
}

func (c *Client) DeleteInvoice(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/invoices/%d", id), nil, nil, nil)
}

// AddItem adds a product by id or barcode. Adding a product already on the
// invoice grows that line.
func (c *Client) AddItem(ctx context.Context, invoiceID uint, req dto.AddItemRequest) (*dto.ItemResponse, error) {
	var out dto.ItemResponse
	if err := c.do(ctx, http.MethodPost, idPath("/api/invoices/%d/items", invoiceID), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateItem sets a line quantity. The response has no item when the store
// removed the line.
func (c *Client) UpdateItem(ctx context.Context, invoiceID, itemID uint, quantity int) (*dto.ItemResponse, error) {
	var out dto.ItemResponse
	req := dto.UpdateItemRequest{Quantity: &quantity}
	if err := c.do(ctx, http.MethodPut, idPath("/api/invoices/%d/items/%d", invoiceID, itemID), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteItem(ctx context.Context, invoiceID, itemID uint) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/invoices/%d/items/%d", invoiceID, itemID), nil, nil, nil)
}

// CompleteInvoice finalizes a draft and returns it numbered, with items.
func (c *Client) CompleteInvoice(ctx context.Context, id uint, discount float64) (*dto.Invoice, error) {
	var out dto.InvoiceResponse
	req := dto.CompleteRequest{DiscountAmount: discount}
	if err := c.do(ctx, http.MethodPost, idPath("/api/invoices/%d/complete", id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Invoice, nil
}

// ScanToken asks for a token that lets another device scan into the draft.
func (c *Client) ScanToken(ctx context.Context, invoiceID uint) (*dto.ScanTokenResponse, error) {
	var out dto.ScanTokenResponse
	if err := c.do(ctx, http.MethodPost, idPath("/api/invoices/%d/scan-token", invoiceID), nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
