// Package receipt renders a printable HTML receipt for an invoice.
package receipt

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/scanpos/internal/dto"
)

//go:embed templates/*.html
var templates embed.FS

var ErrNotCompleted = errors.New("receipt: invoice is not completed")

// Data is the template input.
type Data struct {
	StoreName string
	Cashier   string
	Footer    string
	Currency  string
	Invoice   dto.Invoice
}

var tpl = template.Must(template.New("receipt.html").Funcs(Funcs("")).ParseFS(templates, "templates/receipt.html"))

// Funcs returns the helpers available to receipt templates.
func Funcs(currency string) template.FuncMap {
	return template.FuncMap{
		"money": func(v float64) string {
			return currency + decimal.NewFromFloat(v).StringFixed(2)
		},
		"percent": func(v float64) string {
			return decimal.NewFromFloat(v).String() + "%"
		},
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04")
		},
	}
}

// Render writes the receipt of a completed invoice.
func Render(w io.Writer, d Data) error {
	if d.Invoice.Status != dto.StatusCompleted {
		return fmt.Errorf("%w: status %s", ErrNotCompleted, d.Invoice.Status)
	}
	if d.StoreName == "" {
		d.StoreName = "ScanPOS"
	}
	if d.Footer == "" {
		d.Footer = "Thank you for your purchase"
	}
	t, err := tpl.Clone()
	if err != nil {
		return err
	}
	if err := t.Funcs(Funcs(d.Currency)).Execute(w, d); err != nil {
		return fmt.Errorf("receipt: render: %w", err)
	}
	return nil
}
