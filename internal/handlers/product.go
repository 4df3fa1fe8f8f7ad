package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/scanpos/httpx"
	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/services"
)

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size := httpx.Page(r)
	q := r.URL.Query()
	showInactive := q.Get("show_inactive") == "true" || q.Get("show_inactive") == "1"

	products, total, err := h.products.List(r.Context(), services.ProductFilter{
		Search:       q.Get("search"),
		ShowInactive: showInactive,
		Page:         page,
		PageSize:     size,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := dto.ProductList{
		Products: make([]dto.Product, len(products)),
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    httpx.Pages(total, size),
	}
	for i := range products {
		out.Products[i] = toProduct(&products[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dto.ProductResponse{Product: toProduct(p)})
}

func (h *ProductHandler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("barcode"))
	p, err := h.products.GetByBarcode(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dto.ProductResponse{Product: toProduct(p)})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	p, err := h.products.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dto.ProductResponse{Product: toProduct(p)})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var patch dto.ProductPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		badRequest(w, err)
		return
	}
	p, err := h.products.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dto.ProductResponse{Product: toProduct(p)})
}

// Delete deactivates the product.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := h.products.Deactivate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.MessageResponse{Message: "Product deactivated"})
}
