package services

import (
	"fmt"

	"github.com/diewo77/scanpos/validation"
)

// Kind classifies a service error for transport mapping.
type Kind int

const (
	KindInvalid Kind = iota + 1
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

// Error is a business rule violation. Code is stable and machine-readable,
// Message is shown to users as is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  validation.Violations
}

func (e *Error) Error() string { return e.Message }

// Is matches errors with the same code, so errors built with a custom
// message still match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrInvoiceNotFound = newError(KindNotFound, "invoice_not_found", "Invoice not found")
	ErrItemNotFound    = newError(KindNotFound, "item_not_found", "Item not found")
	ErrProductNotFound = newError(KindNotFound, "product_not_found", "Product not found")
	ErrUserNotFound    = newError(KindNotFound, "user_not_found", "User not found")

	ErrInvoiceNotDraft    = newError(KindInvalid, "invoice_not_draft", "Invoice is not in draft status")
	ErrEmptyInvoice       = newError(KindInvalid, "empty_invoice", "Cannot complete an invoice without items")
	ErrProductInactive    = newError(KindInvalid, "product_inactive", "Product is not active")
	ErrInsufficientStock  = newError(KindInvalid, "insufficient_stock", "Insufficient stock")
	ErrDiscountTooLarge   = newError(KindInvalid, "discount_too_large", "Discount exceeds the invoice total")
	ErrSelfModification   = newError(KindInvalid, "self_modification", "You cannot modify your own account this way")
	ErrValidation         = newError(KindInvalid, "validation_failed", "Validation failed")
	ErrBarcodeExists      = newError(KindConflict, "barcode_exists", "Barcode already exists")
	ErrEmailExists        = newError(KindConflict, "email_exists", "Email already exists")
	ErrUserHasInvoices    = newError(KindConflict, "user_has_invoices", "User has invoices, deactivate the account instead")
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid_credentials", "Invalid email or password")
	ErrAccountDisabled    = newError(KindForbidden, "account_disabled", "Account is disabled")
)

func invalid(fields validation.Violations) *Error {
	return &Error{Kind: KindInvalid, Code: ErrValidation.Code, Message: ErrValidation.Message, Fields: fields}
}

func insufficientStock(productName string, available int) *Error {
	return &Error{
		Kind:    KindInvalid,
		Code:    ErrInsufficientStock.Code,
		Message: fmt.Sprintf("Insufficient stock for %s. Available: %d", productName, available),
	}
}

func selfModification(msg string) *Error {
	return &Error{Kind: KindInvalid, Code: ErrSelfModification.Code, Message: msg}
}
