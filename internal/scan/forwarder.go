package scan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/diewo77/scanpos/internal/billing"
	"github.com/diewo77/scanpos/internal/client"
	"github.com/diewo77/scanpos/internal/dto"
)

// RecentLimit is how many successful scans a Forwarder remembers.
const RecentLimit = 5

// ItemAdder adds one unit of a scanned product to an invoice.
// *billing.Session and *LinkedInvoice implement it.
type ItemAdder interface {
	AddScanned(ctx context.Context, barcode string) (dto.InvoiceItem, error)
}

// Scan is one successfully added code.
type Scan struct {
	Code string
	Item dto.InvoiceItem
	At   time.Time
}

// Outcome reports what happened to one decoded code.
type Outcome struct {
	Scan
	Suppressed bool
	Err        error
}

type Forwarder struct {
	adder    ItemAdder
	debounce *Debouncer
	now      func() time.Time
	onResult func(Outcome)
	log      zerolog.Logger

	mu     sync.Mutex
	recent []Scan
}

type ForwarderOption func(*Forwarder)

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) ForwarderOption {
	return func(f *Forwarder) { f.debounce = NewDebouncer(d) }
}

// WithClock replaces time.Now for the cooldown and scan timestamps.
func WithClock(now func() time.Time) ForwarderOption {
	return func(f *Forwarder) { f.now = now }
}

// WithResultHandler receives every outcome, suppressed codes included.
func WithResultHandler(fn func(Outcome)) ForwarderOption {
	return func(f *Forwarder) { f.onResult = fn }
}

func WithLogger(l zerolog.Logger) ForwarderOption {
	return func(f *Forwarder) { f.log = l }
}

func NewForwarder(adder ItemAdder, opts ...ForwarderOption) *Forwarder {
	f := &Forwarder{
		adder:    adder,
		debounce: NewDebouncer(DefaultCooldown),
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.debounce.WithClock(f.now)
	return f
}

// Handle forwards one decoded code unless it is blank or still cooling down.
func (f *Forwarder) Handle(ctx context.Context, code string) Outcome {
	code = strings.TrimSpace(code)
	out := Outcome{Scan: Scan{Code: code, At: f.now()}}
	switch {
	case code == "":
		out.Suppressed = true
	case !f.debounce.Allow(code):
		out.Suppressed = true
		f.log.Debug().Str("code", code).Msg("duplicate scan suppressed")
	default:
		out.Item, out.Err = f.adder.AddScanned(ctx, code)
		if out.Err == nil {
			f.debounce.Record(code)
			f.remember(out.Scan)
			f.log.Info().Str("code", code).Str("product", out.Item.ProductName).Msg("scan added")
		} else {
			f.log.Warn().Err(out.Err).Str("code", code).Msg("scan rejected")
		}
	}
	if f.onResult != nil {
		f.onResult(out)
	}
	return out
}

// Run forwards codes until the channel is closed, ctx is done or the invoice
// can no longer take items. A closed channel returns nil.
func (f *Forwarder) Run(ctx context.Context, codes <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case code, ok := <-codes:
			if !ok {
				return nil
			}
			if out := f.Handle(ctx, code); out.Err != nil && Terminal(out.Err) {
				return out.Err
			}
		}
	}
}

// Terminal reports whether err means no later scan can succeed.
func Terminal(err error) bool {
	return errors.Is(err, billing.ErrInvoiceCompleted) ||
		errors.Is(err, billing.ErrSessionClosed) ||
		errors.Is(err, client.ErrAuthExpired)
}

func (f *Forwarder) remember(s Scan) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recent = append([]Scan{s}, f.recent...)
	if len(f.recent) > RecentLimit {
		f.recent = f.recent[:RecentLimit]
	}
}

// Recent returns the latest successful scans, newest first.
func (f *Forwarder) Recent() []Scan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Scan(nil), f.recent...)
}
