// Package billing drives one draft invoice from the first scanned item to
// completion and keeps a local mirror of it in sync with the store.
package billing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/diewo77/scanpos/internal/client"
	"github.com/diewo77/scanpos/internal/dto"
)

// DefaultPollInterval is how often a draft is re-read from the store.
const DefaultPollInterval = 2 * time.Second

// InvoiceStore is the part of the store API a Session uses.
// *client.Client implements it.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context) (*dto.Invoice, error)
	GetInvoice(ctx context.Context, id uint) (*dto.Invoice, error)
	AddItem(ctx context.Context, invoiceID uint, req dto.AddItemRequest) (*dto.ItemResponse, error)
	UpdateItem(ctx context.Context, invoiceID, itemID uint, quantity int) (*dto.ItemResponse, error)
	DeleteItem(ctx context.Context, invoiceID, itemID uint) error
	CompleteInvoice(ctx context.Context, id uint, discount float64) (*dto.Invoice, error)
}

// Selector picks the product to add, by id or by barcode.
type Selector struct {
	ProductID uint
	Barcode   string
}

func ByProduct(id uint) Selector { return Selector{ProductID: id} }

func ByBarcode(code string) Selector { return Selector{Barcode: strings.TrimSpace(code)} }

func (s Selector) valid() bool {
	return (s.ProductID != 0) != (s.Barcode != "")
}

func (s Selector) String() string {
	if s.Barcode != "" {
		return "barcode " + s.Barcode
	}
	return fmt.Sprintf("product %d", s.ProductID)
}

type Option func(*Session)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRemoveConfirmer sets the question asked before a quantity of zero or
// less removes a line. Without it removals are confirmed.
func WithRemoveConfirmer(fn func(item dto.InvoiceItem) bool) Option {
	return func(s *Session) { s.confirmRemove = fn }
}

// WithOnRefresh registers a callback that receives a copy of the invoice
// every time the local mirror changes. It runs without the session lock
// held and may call back into the session.
func WithOnRefresh(fn func(dto.Invoice)) Option {
	return func(s *Session) { s.onRefresh = fn }
}

// WithPollErrorHandler receives errors from background refreshes.
func WithPollErrorHandler(fn func(error)) Option {
	return func(s *Session) { s.onPollError = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session owns one invoice. The invoice is created on the first AddItem,
// polled while it is a draft and frozen once completed. All methods are
// safe for concurrent use; they run one at a time. Background refreshes
// never overwrite a newer local state.
type Session struct {
	store         InvoiceStore
	interval      time.Duration
	confirmRemove func(dto.InvoiceItem) bool
	onRefresh     func(dto.Invoice)
	onPollError   func(error)
	log           zerolog.Logger

	mu       sync.Mutex
	invoice  *dto.Invoice
	discount float64
	poller   *Poller
	pollGen  int
	version  int
	closed   bool

	// pollers holds every started poller by generation until its goroutine
	// is known to have exited, stopped ones included.
	pollers map[int]*Poller
	// inCallback marks generations whose goroutine is running a callback.
	inCallback map[int]bool
}

func NewSession(store InvoiceStore, opts ...Option) *Session {
	s := &Session{
		store:         store,
		interval:      DefaultPollInterval,
		confirmRemove: func(dto.InvoiceItem) bool { return true },
		log:           zerolog.Nop(),
		pollers:       map[int]*Poller{},
		inCallback:    map[int]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resume attaches a new session to an existing invoice. Drafts are polled,
// completed invoices are read only.
func Resume(ctx context.Context, store InvoiceStore, id uint, opts ...Option) (*Session, error) {
	s := NewSession(store, opts...)
	inv, err := store.GetInvoice(ctx, id)
	if err != nil {
		return nil, Classify(err)
	}
	s.mu.Lock()
	snap := s.adoptLocked(inv)
	if inv.IsDraft() {
		s.startPollingLocked()
	}
	s.mu.Unlock()
	s.notify(snap)
	return s, nil
}

// EnsureInvoice returns the session invoice id, creating the invoice on the
// first call. A failed create leaves the session without an invoice.
func (s *Session) EnsureInvoice(ctx context.Context) (uint, error) {
	s.mu.Lock()
	id, snap, err := s.ensureLocked(ctx)
	s.mu.Unlock()
	s.notify(snap)
	return id, err
}

func (s *Session) ensureLocked(ctx context.Context) (uint, *dto.Invoice, error) {
	if s.closed {
		return 0, nil, ErrSessionClosed
	}
	if s.invoice != nil {
		return s.invoice.ID, nil, nil
	}
	inv, err := s.store.CreateInvoice(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	snap := s.adoptLocked(inv)
	s.log.Info().Uint("invoice_id", inv.ID).Msg("draft invoice created")
	if inv.IsDraft() {
		s.startPollingLocked()
	}
	return inv.ID, snap, nil
}

// AddItem adds quantity units of the selected product and re-reads the whole
// invoice from the store.
func (s *Session) AddItem(ctx context.Context, sel Selector, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if !sel.valid() {
		return fmt.Errorf("%w: select a product id or a barcode", ErrValidation)
	}

	s.mu.Lock()
	snap, err := s.addItemLocked(ctx, sel, quantity)
	s.mu.Unlock()
	s.notify(snap)
	return err
}

func (s *Session) addItemLocked(ctx context.Context, sel Selector, quantity int) (*dto.Invoice, error) {
	if err := s.mutableLocked(); err != nil {
		return nil, err
	}
	id, created, err := s.ensureLocked(ctx)
	if err != nil {
		return nil, err
	}
	_, err = s.store.AddItem(ctx, id, dto.AddItemRequest{
		ProductID: sel.ProductID,
		Barcode:   sel.Barcode,
		Quantity:  quantity,
	})
	if err != nil {
		s.log.Debug().Err(err).Stringer("selector", sel).Msg("add item failed")
		if created != nil {
			return created, Classify(err)
		}
		return nil, Classify(err)
	}
	return s.resyncLocked(ctx)
}

// AddScanned adds one unit of the product with the scanned barcode and
// returns its line.
func (s *Session) AddScanned(ctx context.Context, barcode string) (dto.InvoiceItem, error) {
	sel := ByBarcode(barcode)
	if err := s.AddItem(ctx, sel, 1); err != nil {
		return dto.InvoiceItem{}, err
	}
	for _, it := range s.Items() {
		if it.Barcode == sel.Barcode {
			return it, nil
		}
	}
	return dto.InvoiceItem{Barcode: sel.Barcode}, nil
}

// UpdateItemQuantity sets a line quantity. A quantity of zero or less asks
// the remove confirmer first; when it declines, the invoice is re-read so
// the displayed quantity goes back to the stored one.
func (s *Session) UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	if quantity <= 0 {
		item, err := s.lineForRemoval(itemID)
		if err != nil {
			return err
		}
		if !s.confirmRemove(item) {
			return s.Refresh(ctx)
		}
	}

	s.mu.Lock()
	snap, err := s.updateLocked(ctx, itemID, quantity)
	s.mu.Unlock()
	s.notify(snap)
	return err
}

func (s *Session) lineForRemoval(itemID uint) (dto.InvoiceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return dto.InvoiceItem{}, err
	}
	for _, it := range s.invoice.Items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return dto.InvoiceItem{ID: itemID}, nil
}

func (s *Session) updateLocked(ctx context.Context, itemID uint, quantity int) (*dto.Invoice, error) {
	if err := s.editableLocked(); err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateItem(ctx, s.invoice.ID, itemID, quantity); err != nil {
		return nil, Classify(err)
	}
	return s.resyncLocked(ctx)
}

// DeleteItem removes a line and re-reads the invoice.
func (s *Session) DeleteItem(ctx context.Context, itemID uint) error {
	s.mu.Lock()
	snap, err := s.deleteLocked(ctx, itemID)
	s.mu.Unlock()
	s.notify(snap)
	return err
}

func (s *Session) deleteLocked(ctx context.Context, itemID uint) (*dto.Invoice, error) {
	if err := s.editableLocked(); err != nil {
		return nil, err
	}
	if err := s.store.DeleteItem(ctx, s.invoice.ID, itemID); err != nil {
		return nil, Classify(err)
	}
	return s.resyncLocked(ctx)
}

// Complete finalizes the invoice with the given discount. On success the
// numbered invoice replaces the local one and polling stops for good.
func (s *Session) Complete(ctx context.Context, discount float64) (dto.Invoice, error) {
	s.mu.Lock()
	snap, err := s.completeLocked(ctx, discount)
	s.mu.Unlock()
	s.notify(snap)
	if err != nil {
		return dto.Invoice{}, err
	}
	return *snap, nil
}

func (s *Session) completeLocked(ctx context.Context, discount float64) (*dto.Invoice, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.invoice != nil && !s.invoice.IsDraft() {
		return nil, ErrInvoiceCompleted
	}
	if s.invoice == nil || len(s.invoice.Items) == 0 {
		return nil, ErrEmptyInvoice
	}
	if discount < 0 {
		return nil, fmt.Errorf("%w: discount must not be negative", ErrValidation)
	}
	done, err := s.store.CompleteInvoice(ctx, s.invoice.ID, discount)
	if err != nil {
		return nil, Classify(err)
	}
	s.discount = done.DiscountAmount
	snap := s.adoptLocked(done)
	s.log.Info().
		Uint("invoice_id", done.ID).
		Str("invoice_number", done.InvoiceNumber).
		Float64("total", done.TotalAmount).
		Msg("invoice completed")
	return snap, nil
}

// Refresh re-reads the invoice from the store.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	snap, err := s.refreshLocked(ctx)
	s.mu.Unlock()
	s.notify(snap)
	return err
}

func (s *Session) refreshLocked(ctx context.Context) (*dto.Invoice, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.invoice == nil {
		return nil, ErrNoInvoice
	}
	return s.resyncLocked(ctx)
}

func (s *Session) resyncLocked(ctx context.Context) (*dto.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, s.invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("billing: refresh invoice %d: %w", s.invoice.ID, Classify(err))
	}
	return s.adoptLocked(inv), nil
}

// adoptLocked makes inv the local mirror and returns a copy for callbacks.
// A non-draft invoice stops polling.
func (s *Session) adoptLocked(inv *dto.Invoice) *dto.Invoice {
	s.invoice = inv
	s.version++
	if !inv.IsDraft() {
		s.stopPollingLocked()
	}
	return copyInvoice(inv)
}

func (s *Session) mutableLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.invoice != nil && !s.invoice.IsDraft() {
		return ErrInvoiceCompleted
	}
	return nil
}

func (s *Session) editableLocked() error {
	if err := s.mutableLocked(); err != nil {
		return err
	}
	if s.invoice == nil {
		return ErrNoInvoice
	}
	return nil
}

func (s *Session) startPollingLocked() {
	if s.poller != nil {
		return
	}
	for gen, p := range s.pollers {
		select {
		case <-p.Done():
			delete(s.pollers, gen)
		default:
		}
	}
	s.pollGen++
	gen := s.pollGen
	s.poller = StartPoller(context.Background(), s.interval, func(ctx context.Context) bool {
		return s.poll(ctx, gen)
	})
	s.pollers[gen] = s.poller
}

func (s *Session) stopPollingLocked() {
	if s.poller == nil {
		return
	}
	s.poller.Stop()
	s.poller = nil
}

// poll is one background refresh. The store is called without the lock
// held; the result is dropped if the session changed in the meantime. It
// reports whether polling continues.
func (s *Session) poll(ctx context.Context, gen int) bool {
	s.mu.Lock()
	if !s.pollingLocked(gen) {
		s.mu.Unlock()
		return false
	}
	id, version := s.invoice.ID, s.version
	s.mu.Unlock()

	inv, err := s.store.GetInvoice(ctx, id)

	s.mu.Lock()
	if !s.pollingLocked(gen) || ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	if err != nil {
		stop := errors.Is(err, client.ErrAuthExpired)
		if stop {
			s.stopPollingLocked()
		}
		s.log.Warn().Err(err).Bool("stopped", stop).Msg("invoice poll failed")
		s.unlockAndCall(gen, func() {
			if s.onPollError != nil {
				s.onPollError(Classify(err))
			}
		})
		return !stop
	}
	if s.version != version {
		s.mu.Unlock()
		return true
	}
	snap := s.adoptLocked(inv)
	if !inv.IsDraft() {
		s.log.Info().Uint("invoice_id", inv.ID).Str("status", inv.Status).Msg("invoice finalized elsewhere")
	}
	s.unlockAndCall(gen, func() { s.notify(snap) })
	return inv.IsDraft()
}

// unlockAndCall releases the lock and runs fn on the poll goroutine of gen.
// Close does not wait for a goroutine that is inside fn, so fn may close the
// session.
func (s *Session) unlockAndCall(gen int, fn func()) {
	s.inCallback[gen] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inCallback, gen)
		s.mu.Unlock()
	}()
	fn()
}

func (s *Session) pollingLocked(gen int) bool {
	return !s.closed && s.pollGen == gen && s.poller != nil && s.invoice != nil && s.invoice.IsDraft()
}

// Close stops polling and waits for every poll goroutine to exit, including
// ones stopped earlier by completion that may still be inside the store. A
// goroutine that called Close from a callback is not waited for; it makes
// no further store calls. Later calls fail with ErrSessionClosed. Close is
// idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.poller = nil
	var wait []*Poller
	for gen, p := range s.pollers {
		p.Stop()
		if s.inCallback[gen] {
			continue
		}
		wait = append(wait, p)
		delete(s.pollers, gen)
	}
	s.mu.Unlock()

	for _, p := range wait {
		p.Wait()
	}
}

// Invoice returns a copy of the local invoice, if one exists.
func (s *Session) Invoice() (dto.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invoice == nil {
		return dto.Invoice{}, false
	}
	return *copyInvoice(s.invoice), true
}

func (s *Session) Items() []dto.InvoiceItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invoice == nil {
		return nil
	}
	return slices.Clone(s.invoice.Items)
}

// SetDiscount sets the discount used by DisplayTotals before completion.
func (s *Session) SetDiscount(discount float64) error {
	if discount < 0 {
		return fmt.Errorf("%w: discount must not be negative", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invoice != nil && !s.invoice.IsDraft() {
		return ErrInvoiceCompleted
	}
	s.discount = discount
	return nil
}

func (s *Session) Discount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discount
}

// DisplayTotals computes totals over the local items and discount.
func (s *Session) DisplayTotals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []dto.InvoiceItem
	if s.invoice != nil {
		items = s.invoice.Items
	}
	return ComputeDisplayTotals(items, s.discount)
}

// Polling reports whether the background refresh is running.
func (s *Session) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poller != nil
}

func (s *Session) notify(snap *dto.Invoice) {
	if snap != nil && s.onRefresh != nil {
		s.onRefresh(*snap)
	}
}

func copyInvoice(inv *dto.Invoice) *dto.Invoice {
	cp := *inv
	cp.Items = slices.Clone(inv.Items)
	return &cp
}
