// Package auth issues and verifies bearer tokens and carries the
// authenticated identity through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/diewo77/scanpos/httpx"
)

type ctxKey string

const claimsCtxKey = ctxKey("claims")

const bearerPrefix = "Bearer "

var (
	ErrMissingToken = errors.New("auth: missing bearer token")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Claims is the JWT payload. A non-zero InvoiceID marks a scan token that is
// only valid for adding items to, and reading, that one invoice.
type Claims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	InvoiceID uint   `json:"invoice_id,omitempty"`
	jwt.RegisteredClaims
}

// IsScanScoped reports whether the token is restricted to one invoice.
func (c *Claims) IsScanScoped() bool { return c.InvoiceID != 0 }

// Issuer signs and parses HS256 tokens.
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	scanTTL time.Duration
	now     func() time.Time
}

// NewIssuer creates an issuer. ttl applies to login tokens, scanTTL to
// invoice-scoped scan tokens.
func NewIssuer(secret string, ttl, scanTTL time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, scanTTL: scanTTL, now: time.Now}
}

// Issue returns a login token for the user.
func (i *Issuer) Issue(userID uint, role string) (string, time.Time, error) {
	return i.sign(Claims{UserID: userID, Role: role}, i.ttl)
}

// IssueScan returns a token bound to a single invoice.
func (i *Issuer) IssueScan(userID uint, role string, invoiceID uint) (string, time.Time, error) {
	if invoiceID == 0 {
		return "", time.Time{}, errors.New("auth: scan token requires an invoice id")
	}
	return i.sign(Claims{UserID: userID, Role: role, InvoiceID: invoiceID}, i.scanTTL)
}

func (i *Issuer) sign(c Claims, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(ttl)
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(c.UserID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates a token string and returns its claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: no user", ErrInvalidToken)
	}
	return claims, nil
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, bearerPrefix) {
		return "", ErrMissingToken
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}

// WithClaims stores claims in the context.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, c)
}

// ClaimsFromContext returns the claims attached by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey).(*Claims)
	return c, ok && c != nil
}

// UserIDFromContext extracts the authenticated user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	return c.UserID, true
}

// UserVerifier reports whether the user behind a valid token may still act
// (exists and is active).
type UserVerifier func(ctx context.Context, userID uint) bool

// Authenticator wires an Issuer and an optional UserVerifier into middleware.
type Authenticator struct {
	Issuer *Issuer
	Verify UserVerifier
}

// Middleware attaches claims to the request context when a valid bearer
// token is present. It never rejects a request on its own.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, err := BearerToken(r); err == nil {
			if claims, err := a.Issuer.Parse(tok); err == nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests without valid claims, or whose user no longer
// passes the verifier, with 401 JSON.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok || (a.Verify != nil && !a.Verify(r.Context(), uid)) {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RejectScanScoped refuses scan tokens on routes outside the scan flow.
func RejectScanScoped(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := ClaimsFromContext(r.Context()); ok && c.IsScanScoped() {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", "Scan tokens are limited to adding items")
			return
		}
		next.ServeHTTP(w, r)
	})
}
