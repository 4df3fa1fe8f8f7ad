package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/diewo77/scanpos/internal/dto"
)

// ListQuery pages and searches products and users.
type ListQuery struct {
	Search       string
	ShowInactive bool
	Page         int
	PageSize     int
}

func (q ListQuery) values() url.Values {
	v := pageQuery(q.Page, q.PageSize)
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.ShowInactive {
		v.Set("show_inactive", "true")
	}
	return v
}

func (c *Client) ListProducts(ctx context.Context, q ListQuery) (*dto.ProductList, error) {
	var out dto.ProductList
	if err := c.do(ctx, http.MethodGet, "/api/products", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id uint) (*dto.Product, error) {
	var out dto.ProductResponse
	if err := c.do(ctx, http.MethodGet, idPath("/api/products/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// ProductByBarcode looks up an active product.
func (c *Client) ProductByBarcode(ctx context.Context, barcode string) (*dto.Product, error) {
	var out dto.ProductResponse
	path := "/api/products/by-barcode/" + url.PathEscape(barcode)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

func (c *Client) CreateProduct(ctx context.Context, req dto.ProductRequest) (*dto.Product, error) {
	var out dto.ProductResponse
	if err := c.do(ctx, http.MethodPost, "/api/products", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id uint, patch dto.ProductPatch) (*dto.Product, error) {
	var out dto.ProductResponse
	if err := c.do(ctx, http.MethodPut, idPath("/api/products/%d", id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// DeleteProduct deactivates the product.
func (c *Client) DeleteProduct(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/products/%d", id), nil, nil, nil)
}

func (c *Client) ListUsers(ctx context.Context, q ListQuery) (*dto.UserList, error) {
	var out dto.UserList
	if err := c.do(ctx, http.MethodGet, "/api/users", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, id uint) (*dto.User, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodGet, idPath("/api/users/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) CreateUser(ctx context.Context, req dto.UserRequest) (*dto.User, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodPost, "/api/users", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) UpdateUser(ctx context.Context, id uint, patch dto.UserPatch) (*dto.User, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodPut, idPath("/api/users/%d", id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/users/%d", id), nil, nil, nil)
}
