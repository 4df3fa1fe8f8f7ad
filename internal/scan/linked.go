package scan

import (
	"context"
	"fmt"

	"github.com/diewo77/scanpos/internal/billing"
	"github.com/diewo77/scanpos/internal/dto"
)

// LinkedStore is what a second scanning device may call with a scan token.
type LinkedStore interface {
	GetInvoice(ctx context.Context, id uint) (*dto.Invoice, error)
	AddItem(ctx context.Context, invoiceID uint, req dto.AddItemRequest) (*dto.ItemResponse, error)
}

// LinkedInvoice adds scanned items straight to an invoice owned by another
// session. The owner picks the changes up by polling.
type LinkedInvoice struct {
	store LinkedStore
	id    uint
}

func NewLinkedInvoice(store LinkedStore, invoiceID uint) *LinkedInvoice {
	return &LinkedInvoice{store: store, id: invoiceID}
}

func (l *LinkedInvoice) ID() uint { return l.id }

// Check loads the invoice and fails with billing.ErrInvoiceCompleted when it
// no longer accepts items.
func (l *LinkedInvoice) Check(ctx context.Context) (*dto.Invoice, error) {
	inv, err := l.store.GetInvoice(ctx, l.id)
	if err != nil {
		return nil, billing.Classify(err)
	}
	if !inv.IsDraft() {
		return inv, fmt.Errorf("%w: invoice %d is %s", billing.ErrInvoiceCompleted, inv.ID, inv.Status)
	}
	return inv, nil
}

func (l *LinkedInvoice) AddScanned(ctx context.Context, barcode string) (dto.InvoiceItem, error) {
	resp, err := l.store.AddItem(ctx, l.id, dto.AddItemRequest{Barcode: barcode, Quantity: 1})
	if err != nil {
		return dto.InvoiceItem{}, billing.Classify(err)
	}
	if resp.Item == nil {
		return dto.InvoiceItem{Barcode: barcode}, nil
	}
	return *resp.Item, nil
}
