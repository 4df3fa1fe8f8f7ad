package billing

import (
	"errors"
	"fmt"

	"github.com/diewo77/scanpos/internal/client"
)

var (
	ErrStoreUnavailable = errors.New("billing: store unavailable")
	ErrProductNotFound  = errors.New("billing: product not found")
	ErrItemNotFound     = errors.New("billing: item not found")
	ErrValidation       = errors.New("billing: invalid input")
	ErrEmptyInvoice     = errors.New("billing: invoice has no items")
	ErrInvoiceCompleted = errors.New("billing: invoice is completed")
	ErrNoInvoice        = errors.New("billing: no invoice yet")
	ErrSessionClosed    = errors.New("billing: session closed")
)

// storeCodes maps store error codes to session errors.
var storeCodes = map[string]error{
	"product_not_found": ErrProductNotFound,
	"product_inactive":  ErrProductNotFound,
	"item_not_found":    ErrItemNotFound,
	"invoice_not_draft": ErrInvoiceCompleted,
	"empty_invoice":     ErrEmptyInvoice,
	"validation_failed": ErrValidation,
}

// Classify keeps the store error in the chain and adds the matching session
// error when the store code has one.
func Classify(err error) error {
	var e *client.Error
	if errors.As(err, &e) {
		if sentinel, ok := storeCodes[e.Code]; ok {
			return fmt.Errorf("%w: %w", sentinel, err)
		}
	}
	return err
}
