package scan

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const scanRoute = "/#!/scan"

var ErrInvalidLink = errors.New("scan: invalid link")

// Link is the address a phone opens to scan into a draft invoice:
// <base>/#!/scan?invoice=<id>&token=<scan token>.
type Link struct {
	BaseURL   string
	InvoiceID uint
	Token     string
}

func (l Link) String() string {
	q := url.Values{}
	q.Set("invoice", strconv.FormatUint(uint64(l.InvoiceID), 10))
	q.Set("token", l.Token)
	return strings.TrimRight(l.BaseURL, "/") + scanRoute + "?" + q.Encode()
}

// ParseLink is the inverse of Link.String.
func ParseLink(raw string) (Link, error) {
	base, query, ok := strings.Cut(strings.TrimSpace(raw), scanRoute+"?")
	if !ok {
		return Link{}, fmt.Errorf("%w: no scan route in %q", ErrInvalidLink, raw)
	}
	q, err := url.ParseQuery(query)
	if err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	id, err := strconv.ParseUint(q.Get("invoice"), 10, 64)
	if err != nil || id == 0 {
		return Link{}, fmt.Errorf("%w: invoice %q", ErrInvalidLink, q.Get("invoice"))
	}
	token := q.Get("token")
	if token == "" {
		return Link{}, fmt.Errorf("%w: missing token", ErrInvalidLink)
	}
	return Link{BaseURL: base, InvoiceID: uint(id), Token: token}, nil
}

// WriteQR renders the link as a size x size PNG QR code with high error
// correction.
func (l Link) WriteQR(w io.Writer, size int) error {
	code, err := qr.Encode(l.String(), qr.H, qr.Auto)
	if err != nil {
		return fmt.Errorf("scan: encode qr: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return fmt.Errorf("scan: scale qr: %w", err)
	}
	if err := png.Encode(w, scaled); err != nil {
		return fmt.Errorf("scan: write png: %w", err)
	}
	return nil
}

// QRCode returns the PNG bytes of WriteQR.
func (l Link) QRCode(size int) ([]byte, error) {
	var buf bytes.Buffer
	if err := l.WriteQR(&buf, size); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
