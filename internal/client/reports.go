package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/diewo77/scanpos/internal/dto"
)

// SalesReport reads the sales summary. Zero times use the store defaults.
func (c *Client) SalesReport(ctx context.Context, from, to time.Time) (*dto.SalesReport, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format(dayLayout))
	}
	if !to.IsZero() {
		q.Set("to", to.Format(dayLayout))
	}
	var out dto.SalesReport
	if err := c.do(ctx, http.MethodGet, "/api/reports/sales", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Dashboard(ctx context.Context) (*dto.Dashboard, error) {
	var out dto.Dashboard
	if err := c.do(ctx, http.MethodGet, "/api/reports/dashboard", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
