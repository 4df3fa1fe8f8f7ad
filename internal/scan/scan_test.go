package scan

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/scanpos/internal/billing"
	"github.com/diewo77/scanpos/internal/client"
	"github.com/diewo77/scanpos/internal/dto"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingAdder struct {
	mu    sync.Mutex
	codes []string
	fail  map[string]error
}

func (a *recordingAdder) AddScanned(ctx context.Context, code string) (dto.InvoiceItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.codes = append(a.codes, code)
	if err := a.fail[code]; err != nil {
		return dto.InvoiceItem{}, err
	}
	return dto.InvoiceItem{Barcode: code, ProductName: "product " + code, Quantity: 1}, nil
}

func (a *recordingAdder) calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.codes...)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)}
}

func TestForwarderCooldown(t *testing.T) {
	clock := newClock()
	adder := &recordingAdder{}
	f := NewForwarder(adder, WithClock(clock.Now))
	ctx := context.Background()

	assert.False(t, f.Handle(ctx, "111").Suppressed)
	clock.Advance(time.Second)
	assert.True(t, f.Handle(ctx, "111").Suppressed)
	clock.Advance(999 * time.Millisecond)
	assert.True(t, f.Handle(ctx, "111").Suppressed)
	assert.Equal(t, []string{"111"}, adder.calls())

	clock.Advance(time.Millisecond)
	assert.False(t, f.Handle(ctx, "111").Suppressed)
	assert.Equal(t, []string{"111", "111"}, adder.calls())
}

func TestForwarderDifferentCodePasses(t *testing.T) {
	clock := newClock()
	adder := &recordingAdder{}
	f := NewForwarder(adder, WithClock(clock.Now))
	ctx := context.Background()

	f.Handle(ctx, "111")
	f.Handle(ctx, "222")
	f.Handle(ctx, "111")

	assert.Equal(t, []string{"111", "222", "111"}, adder.calls())
}

func TestForwarderFailedAddDoesNotStartCooldown(t *testing.T) {
	clock := newClock()
	adder := &recordingAdder{fail: map[string]error{"999": billing.ErrProductNotFound}}
	var outcomes []Outcome
	f := NewForwarder(adder, WithClock(clock.Now), WithResultHandler(func(o Outcome) { outcomes = append(outcomes, o) }))
	ctx := context.Background()

	out := f.Handle(ctx, "999")
	assert.ErrorIs(t, out.Err, billing.ErrProductNotFound)
	f.Handle(ctx, "999")

	assert.Len(t, adder.calls(), 2)
	assert.Len(t, outcomes, 2)
	assert.Empty(t, f.Recent())
}

func TestForwarderIgnoresBlankCodes(t *testing.T) {
	adder := &recordingAdder{}
	f := NewForwarder(adder)

	assert.True(t, f.Handle(context.Background(), "  \n").Suppressed)
	assert.Empty(t, adder.calls())
}

func TestForwarderKeepsFiveRecentScans(t *testing.T) {
	adder := &recordingAdder{}
	f := NewForwarder(adder)
	for _, code := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		f.Handle(context.Background(), code)
	}

	recent := f.Recent()
	require.Len(t, recent, RecentLimit)
	assert.Equal(t, "7", recent[0].Code)
	assert.Equal(t, "3", recent[4].Code)
	assert.Equal(t, "product 7", recent[0].Item.ProductName)
}

func TestForwarderRun(t *testing.T) {
	t.Run("drains until the channel closes", func(t *testing.T) {
		adder := &recordingAdder{}
		f := NewForwarder(adder, WithCooldown(time.Hour))
		codes := make(chan string, 4)
		codes <- "111"
		codes <- "111"
		codes <- "222"
		close(codes)

		require.NoError(t, f.Run(context.Background(), codes))
		assert.Equal(t, []string{"111", "222"}, adder.calls())
	})

	t.Run("stops when the invoice is completed", func(t *testing.T) {
		adder := &recordingAdder{fail: map[string]error{"222": billing.ErrInvoiceCompleted}}
		f := NewForwarder(adder)
		codes := make(chan string, 3)
		codes <- "111"
		codes <- "222"
		codes <- "333"

		err := f.Run(context.Background(), codes)
		assert.ErrorIs(t, err, billing.ErrInvoiceCompleted)
		assert.Equal(t, []string{"111", "222"}, adder.calls())
	})

	t.Run("keeps going on unknown products", func(t *testing.T) {
		adder := &recordingAdder{fail: map[string]error{"999": billing.ErrProductNotFound}}
		f := NewForwarder(adder)
		codes := make(chan string, 2)
		codes <- "999"
		codes <- "111"
		close(codes)

		require.NoError(t, f.Run(context.Background(), codes))
		assert.Len(t, adder.calls(), 2)
	})

	t.Run("stops with the context", func(t *testing.T) {
		f := NewForwarder(&recordingAdder{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, f.Run(ctx, make(chan string)), context.Canceled)
	})
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(billing.ErrInvoiceCompleted))
	assert.True(t, Terminal(billing.ErrSessionClosed))
	assert.True(t, Terminal(&client.Error{Kind: client.KindAuthExpired}))
	assert.False(t, Terminal(billing.ErrProductNotFound))
	assert.False(t, Terminal(&client.Error{Kind: client.KindNetworkUnavailable}))
}

func TestDebouncer(t *testing.T) {
	clock := newClock()
	d := NewDebouncer(0).WithClock(clock.Now)

	assert.True(t, d.Allow("a"))
	d.Record("a")
	assert.False(t, d.Allow("a"))
	assert.True(t, d.Allow("b"))
	clock.Advance(DefaultCooldown)
	assert.True(t, d.Allow("a"))
}

func TestLink(t *testing.T) {
	l := Link{BaseURL: "https://pos.example.com/", InvoiceID: 12, Token: "abc.def-ghi"}

	raw := l.String()
	assert.Equal(t, "https://pos.example.com/#!/scan?invoice=12&token=abc.def-ghi", raw)

	parsed, err := ParseLink(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://pos.example.com", parsed.BaseURL)
	assert.Equal(t, uint(12), parsed.InvoiceID)
	assert.Equal(t, "abc.def-ghi", parsed.Token)

	for _, bad := range []string{
		"https://pos.example.com/",
		"https://pos.example.com/#!/scan?invoice=x&token=t",
		"https://pos.example.com/#!/scan?invoice=0&token=t",
		"https://pos.example.com/#!/scan?invoice=3",
	} {
		_, err := ParseLink(bad)
		assert.ErrorIs(t, err, ErrInvalidLink, bad)
	}
}

func TestLinkQRCode(t *testing.T) {
	l := Link{BaseURL: "http://localhost:8080", InvoiceID: 5, Token: "tok"}

	data, err := l.QRCode(256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

type linkedStore struct {
	inv *dto.Invoice
	err error
}

func (s *linkedStore) GetInvoice(ctx context.Context, id uint) (*dto.Invoice, error) {
	if s.inv == nil || s.inv.ID != id {
		return nil, &client.Error{Kind: client.KindClientError, Status: http.StatusNotFound, Code: "invoice_not_found"}
	}
	return s.inv, nil
}

func (s *linkedStore) AddItem(ctx context.Context, invoiceID uint, req dto.AddItemRequest) (*dto.ItemResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ItemResponse{Item: &dto.InvoiceItem{Barcode: req.Barcode, ProductName: "Tea", Quantity: req.Quantity}}, nil
}

func TestLinkedInvoice(t *testing.T) {
	ctx := context.Background()
	store := &linkedStore{inv: &dto.Invoice{ID: 3, Status: dto.StatusDraft}}
	l := NewLinkedInvoice(store, 3)

	_, err := l.Check(ctx)
	require.NoError(t, err)

	item, err := l.AddScanned(ctx, "222")
	require.NoError(t, err)
	assert.Equal(t, "Tea", item.ProductName)
	assert.Equal(t, 1, item.Quantity)

	store.err = &client.Error{Kind: client.KindClientError, Status: http.StatusBadRequest, Code: "invoice_not_draft"}
	_, err = l.AddScanned(ctx, "222")
	assert.ErrorIs(t, err, billing.ErrInvoiceCompleted)
	assert.True(t, Terminal(err))

	store.inv.Status = dto.StatusCompleted
	_, err = l.Check(ctx)
	assert.ErrorIs(t, err, billing.ErrInvoiceCompleted)

	_, err = NewLinkedInvoice(store, 99).Check(ctx)
	assert.True(t, errors.Is(err, client.ErrClient))
}
