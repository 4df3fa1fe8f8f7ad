package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/diewo77/scanpos/auth"
	"github.com/diewo77/scanpos/gate"
	"github.com/diewo77/scanpos/httpx"
	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/models"
	"github.com/diewo77/scanpos/internal/services"
)

// Authorizer checks the request user against a loaded resource.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
}

const dateLayout = "2006-01-02"

type InvoiceHandler struct {
	invoices *services.InvoiceService
	authz    Authorizer
	tokens   TokenIssuer
}

func NewInvoiceHandler(invoices *services.InvoiceService, authz Authorizer, tokens TokenIssuer) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, authz: authz, tokens: tokens}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size := httpx.Page(r)
	q := r.URL.Query()
	filter := services.InvoiceFilter{Status: q.Get("status"), Page: page, PageSize: size}
	var err error
	if filter.From, err = parseDay(q.Get("from")); err != nil {
		badRequest(w, err)
		return
	}
	if filter.To, err = parseDay(q.Get("to")); err != nil {
		badRequest(w, err)
		return
	}

	rows, total, err := h.invoices.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := dto.InvoiceList{
		Invoices: make([]dto.Invoice, len(rows)),
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    httpx.Pages(total, size),
	}
	for i := range rows {
		inv := toInvoice(&rows[i].Invoice)
		inv.ItemsCount = rows[i].ItemsCount
		out.Invoices[i] = inv
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	inv, err := h.invoices.Create(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dto.InvoiceResponse{Invoice: toInvoice(inv)})
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, dto.InvoiceResponse{Invoice: toInvoice(inv)})
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if err := h.invoices.Delete(r.Context(), inv.ID); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.MessageResponse{Message: "Invoice deleted"})
}

// AddItem answers 201 for a new line and 200 when an existing line grew.
func (h *InvoiceHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var req dto.AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	item, created, err := h.invoices.AddItem(r.Context(), inv.ID, services.AddItemInput{
		ProductID: req.ProductID,
		Barcode:   req.Barcode,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := toItem(item)
	if created {
		httpx.JSON(w, http.StatusCreated, dto.ItemResponse{Message: "Item added", Item: &out})
		return
	}
	httpx.JSON(w, http.StatusOK, dto.ItemResponse{Message: "Item quantity updated", Item: &out})
}

// UpdateItem sets a line quantity; zero or less removes the line.
func (h *InvoiceHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	itemID, err := httpx.PathID(r, "item_id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var req dto.UpdateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Quantity == nil {
		httpx.JSONInvalid(w, "Quantity is required", map[string]string{"quantity": "required"})
		return
	}
	item, removed, err := h.invoices.UpdateItem(r.Context(), inv.ID, itemID, *req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if removed {
		httpx.JSON(w, http.StatusOK, dto.ItemResponse{Message: "Item removed"})
		return
	}
	out := toItem(item)
	httpx.JSON(w, http.StatusOK, dto.ItemResponse{Message: "Item updated", Item: &out})
}

func (h *InvoiceHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	itemID, err := httpx.PathID(r, "item_id")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := h.invoices.DeleteItem(r.Context(), inv.ID, itemID); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dto.ItemResponse{Message: "Item removed"})
}

func (h *InvoiceHandler) Complete(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionComplete)
	if !ok {
		return
	}
	var req dto.CompleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		badRequest(w, err)
		return
	}
	done, err := h.invoices.Complete(r.Context(), inv.ID, req.DiscountAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dto.InvoiceResponse{Invoice: toInvoice(done)})
}

// ScanToken issues a short-lived token that lets a second device add items
// to this draft only.
func (h *InvoiceHandler) ScanToken(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	if !inv.CanEdit() {
		writeError(w, r, services.ErrInvoiceNotDraft)
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	token, exp, err := h.tokens.IssueScan(claims.UserID, claims.Role, inv.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dto.ScanTokenResponse{InvoiceID: inv.ID, Token: token, ExpiresAt: exp})
}

// load resolves the {id} invoice, enforces scan-token scope and authorizes
// action against it. It writes the error response itself.
func (h *InvoiceHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.Invoice, bool) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return nil, false
	}
	if c, ok := auth.ClaimsFromContext(r.Context()); ok && c.IsScanScoped() && c.InvoiceID != id {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", "Scan token belongs to another invoice")
		return nil, false
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if err := h.authz.Authorize(r.Context(), action, "invoice", inv); err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return inv, true
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return &t, nil
}
