package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/diewo77/scanpos/internal/dto"
)

// Credentials holds the bearer token used by a Client. It is shared by
// everything that talks to the store on behalf of one login and is cleared
// when the store rejects the token.
type Credentials struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	user      *dto.User
	invoiceID uint
	onClear   []func()
}

func NewCredentials() *Credentials { return &Credentials{} }

// Set replaces the token. user may be nil for scan tokens.
func (c *Credentials) Set(token string, expiresAt time.Time, user *dto.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = expiresAt
	c.user = user
	c.invoiceID = 0
}

// SetScan stores a token that is bound to one invoice.
func (c *Credentials) SetScan(token string, expiresAt time.Time, invoiceID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = expiresAt
	c.user = nil
	c.invoiceID = invoiceID
}

func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Credentials) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt
}

// User returns the logged in user, if the token came from a login.
func (c *Credentials) User() (dto.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return dto.User{}, false
	}
	return *c.user, true
}

// InvoiceID is the invoice a scan token is bound to, or zero.
func (c *Credentials) InvoiceID() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invoiceID
}

// Valid reports whether a token is held and not yet expired at now.
func (c *Credentials) Valid(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return false
	}
	return c.expiresAt.IsZero() || now.Before(c.expiresAt)
}

// OnClear registers fn to run after the credentials are cleared.
func (c *Credentials) OnClear(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClear = append(c.onClear, fn)
}

// Clear drops the token and notifies OnClear listeners. Clearing empty
// credentials is a no-op.
func (c *Credentials) Clear() {
	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return
	}
	c.token = ""
	c.expiresAt = time.Time{}
	c.user = nil
	c.invoiceID = 0
	listeners := append([]func(){}, c.onClear...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

type storedCredentials struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *dto.User `json:"user,omitempty"`
	InvoiceID uint      `json:"invoice_id,omitempty"`
}

// LoadCredentials reads credentials saved by Save. A missing file yields
// empty credentials.
func LoadCredentials(path string) (*Credentials, error) {
	c := NewCredentials()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var s storedCredentials
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode credentials %s: %w", path, err)
	}
	c.token = s.Token
	c.expiresAt = s.ExpiresAt
	c.user = s.User
	c.invoiceID = s.InvoiceID
	return c, nil
}

// Save writes the credentials to path, readable by the owner only. Empty
// credentials remove the file.
func (c *Credentials) Save(path string) error {
	c.mu.RLock()
	s := storedCredentials{Token: c.token, ExpiresAt: c.expiresAt, User: c.user, InvoiceID: c.invoiceID}
	c.mu.RUnlock()

	if s.Token == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove credentials: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
