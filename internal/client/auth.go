package client

import (
	"context"
	"net/http"

	"github.com/diewo77/scanpos/internal/dto"
)

// Login exchanges email and password for a token and stores it in the
// client's credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	req := dto.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	user := out.User
	c.creds.Set(out.AccessToken, out.ExpiresAt, &user)
	return &out, nil
}

// Logout forgets the token. Tokens are stateless, the store is not called.
func (c *Client) Logout() { c.creds.Clear() }

func (c *Client) Me(ctx context.Context) (*dto.User, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Health checks that the store answers and reaches its database.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}
