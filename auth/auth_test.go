package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("test-secret", 2*time.Hour, 30*time.Minute)

	tok, exp, err := iss.Issue(7, "cashier")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), exp, 5*time.Second)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "cashier", claims.Role)
	assert.False(t, claims.IsScanScoped())
	assert.Equal(t, "7", claims.Subject)
}

func TestIssuer_ScanToken(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour, 10*time.Minute)

	tok, _, err := iss.IssueScan(3, "cashier", 42)
	require.NoError(t, err)
	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.True(t, claims.IsScanScoped())
	assert.Equal(t, uint(42), claims.InvoiceID)

	_, _, err = iss.IssueScan(3, "cashier", 0)
	assert.Error(t, err)
}

func TestIssuer_RejectsBadTokens(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour, time.Minute)
	other := NewIssuer("other-secret", time.Hour, time.Minute)

	foreign, _, err := other.Issue(1, "admin")
	require.NoError(t, err)
	_, err = iss.Parse(foreign)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	expired := NewIssuer("test-secret", time.Hour, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	old, _, err := expired.Issue(1, "admin")
	require.NoError(t, err)
	_, err = iss.Parse(old)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = iss.Parse("garbage")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestAuthenticator_RequireAuth(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour, time.Minute)
	active := map[uint]bool{1: true, 2: false}
	a := &Authenticator{Issuer: iss, Verify: func(_ context.Context, id uint) bool { return active[id] }}

	h := a.Middleware(a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := UserIDFromContext(r.Context())
		assert.Equal(t, uint(1), uid)
		w.WriteHeader(http.StatusNoContent)
	})))

	tok1, _, _ := iss.Issue(1, "admin")
	tok2, _, _ := iss.Issue(2, "cashier")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + tok1, http.StatusNoContent},
		{"inactive user", "Bearer " + tok2, http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
