package billing_test

import (
	"context"
	"net/http"
	"slices"
	"sync"

	"github.com/diewo77/scanpos/internal/client"
	"github.com/diewo77/scanpos/internal/dto"
)

// memStore is an in-memory InvoiceStore that computes totals the way the
// store does.
type memStore struct {
	mu       sync.Mutex
	products map[uint]dto.Product
	inv      *dto.Invoice
	nextItem uint
	calls    map[string]int

	createErr error
	getErr    error
}

func newMemStore() *memStore {
	return &memStore{
		products: map[uint]dto.Product{
			1: {ID: 1, Name: "Coffee", Barcode: "111", Price: 50, TaxPercent: 5, StockQty: 100, IsActive: true},
			2: {ID: 2, Name: "Tea", Barcode: "222", Price: 20, TaxPercent: 10, StockQty: 100, IsActive: true},
		},
		calls: map[string]int{},
	}
}

func notFound(code string) error {
	return &client.Error{Kind: client.KindClientError, Status: http.StatusNotFound, Code: code, Message: "not found"}
}

func (m *memStore) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *memStore) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *memStore) setGetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

func (m *memStore) snapshot() dto.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyLocked()
}

func (m *memStore) copyLocked() dto.Invoice {
	cp := *m.inv
	cp.Items = slices.Clone(m.inv.Items)
	cp.ItemsCount = len(cp.Items)
	return cp
}

func (m *memStore) recalcLocked() {
	var sub, tax float64
	for i := range m.inv.Items {
		it := &m.inv.Items[i]
		it.LineSubtotal = float64(it.Quantity) * it.UnitPrice
		it.LineTax = it.LineSubtotal * it.TaxPercent / 100
		it.LineTotal = it.LineSubtotal + it.LineTax
		sub += it.LineSubtotal
		tax += it.LineTax
	}
	m.inv.SubtotalAmount = sub
	m.inv.TotalTax = tax
	m.inv.TotalAmount = sub + tax - m.inv.DiscountAmount
}

func (m *memStore) CreateInvoice(ctx context.Context) (*dto.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["create"]++
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.inv = &dto.Invoice{ID: 42, Status: dto.StatusDraft, UserID: 1}
	cp := m.copyLocked()
	return &cp, nil
}

func (m *memStore) GetInvoice(ctx context.Context, id uint) (*dto.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["get"]++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.inv == nil || m.inv.ID != id {
		return nil, notFound("invoice_not_found")
	}
	cp := m.copyLocked()
	return &cp, nil
}

func (m *memStore) AddItem(ctx context.Context, invoiceID uint, req dto.AddItemRequest) (*dto.ItemResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["add"]++
	return m.addLocked(req)
}

func (m *memStore) addLocked(req dto.AddItemRequest) (*dto.ItemResponse, error) {
	var product *dto.Product
	for _, p := range m.products {
		if (req.ProductID != 0 && p.ID == req.ProductID) || (req.Barcode != "" && p.Barcode == req.Barcode) {
			product = &p
		}
	}
	if product == nil {
		return nil, notFound("product_not_found")
	}
	if m.inv.Status != dto.StatusDraft {
		return nil, &client.Error{Kind: client.KindClientError, Status: http.StatusBadRequest, Code: "invoice_not_draft"}
	}
	for i := range m.inv.Items {
		if m.inv.Items[i].ProductID == product.ID {
			m.inv.Items[i].Quantity += req.Quantity
			m.recalcLocked()
			it := m.inv.Items[i]
			return &dto.ItemResponse{Message: "Item quantity updated", Item: &it}, nil
		}
	}
	m.nextItem++
	m.inv.Items = append(m.inv.Items, dto.InvoiceItem{
		ID:          m.nextItem,
		ProductID:   product.ID,
		ProductName: product.Name,
		Barcode:     product.Barcode,
		Quantity:    req.Quantity,
		UnitPrice:   product.Price,
		TaxPercent:  product.TaxPercent,
	})
	m.recalcLocked()
	it := m.inv.Items[len(m.inv.Items)-1]
	return &dto.ItemResponse{Message: "Item added", Item: &it}, nil
}

func (m *memStore) UpdateItem(ctx context.Context, invoiceID, itemID uint, quantity int) (*dto.ItemResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["update"]++
	for i := range m.inv.Items {
		if m.inv.Items[i].ID != itemID {
			continue
		}
		if quantity <= 0 {
			m.inv.Items = slices.Delete(m.inv.Items, i, i+1)
			m.recalcLocked()
			return &dto.ItemResponse{Message: "Item removed"}, nil
		}
		m.inv.Items[i].Quantity = quantity
		m.recalcLocked()
		it := m.inv.Items[i]
		return &dto.ItemResponse{Message: "Item updated", Item: &it}, nil
	}
	return nil, notFound("item_not_found")
}

func (m *memStore) DeleteItem(ctx context.Context, invoiceID, itemID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["delete"]++
	for i := range m.inv.Items {
		if m.inv.Items[i].ID == itemID {
			m.inv.Items = slices.Delete(m.inv.Items, i, i+1)
			m.recalcLocked()
			return nil
		}
	}
	return notFound("item_not_found")
}

func (m *memStore) CompleteInvoice(ctx context.Context, id uint, discount float64) (*dto.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["complete"]++
	m.completeLocked(discount)
	cp := m.copyLocked()
	return &cp, nil
}

func (m *memStore) completeLocked(discount float64) {
	m.inv.Status = dto.StatusCompleted
	m.inv.InvoiceNumber = "INV-20240105-0001"
	m.inv.DiscountAmount = discount
	m.recalcLocked()
}

// externalAdd is a second device scanning into the same invoice.
func (m *memStore) externalAdd(barcode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, _ = m.addLocked(dto.AddItemRequest{Barcode: barcode, Quantity: 1})
}

func (m *memStore) externalComplete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeLocked(0)
}
