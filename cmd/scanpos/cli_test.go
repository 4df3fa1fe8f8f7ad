package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/scanpos/gate"
	"github.com/diewo77/scanpos/internal/billing"
	"github.com/diewo77/scanpos/internal/client"
	"github.com/diewo77/scanpos/internal/config"
	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/policy"
)

func TestParseHelpers(t *testing.T) {
	id, err := parseID("12")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := parseID(bad)
		assert.ErrorIs(t, err, errUsage, bad)
	}

	day, err := parseDay("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), day)

	day, err = parseDay("")
	require.NoError(t, err)
	assert.True(t, day.IsZero())

	_, err = parseDay("05/01/2024")
	assert.ErrorIs(t, err, errUsage)

	assert.Equal(t, "147.50", money(147.5))
	assert.Equal(t, "0.30", money(0.1+0.2))
}

func TestRequire(t *testing.T) {
	a := &app{creds: client.NewCredentials()}
	assert.ErrorIs(t, a.require(policy.ResourceInvoice, gate.ActionCreate), errNotLoggedIn)

	a.creds.Set("tok", time.Now().Add(time.Hour), &dto.User{ID: 2, Role: "cashier"})
	assert.NoError(t, a.require(policy.ResourceInvoice, gate.ActionCreate))
	assert.ErrorIs(t, a.require(policy.ResourceProduct, gate.ActionDelete), errPermissionDenied)

	a.creds.Set("tok", time.Now().Add(time.Hour), &dto.User{ID: 1, Role: "admin"})
	assert.NoError(t, a.require(policy.ResourceProduct, gate.ActionDelete))
}

func TestRunUsage(t *testing.T) {
	cfg := config.ClientConfig{CredentialsPath: filepath.Join(t.TempDir(), "creds.json")}
	var out, errw bytes.Buffer

	err := run(context.Background(), cfg, nil, nil, &out, &errw)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, errw.String(), "usage: scanpos")

	err = run(context.Background(), cfg, []string{"frobnicate"}, nil, &out, &errw)
	assert.ErrorIs(t, err, errUsage)

	err = run(context.Background(), cfg, []string{"bill"}, nil, &out, &errw)
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{billing.ErrEmptyInvoice, "Cannot complete an invoice without items, add at least one product"},
		{billing.ErrInvoiceCompleted, "This invoice is already completed"},
		{billing.ErrProductNotFound, "Product not found"},
		{&client.Error{Kind: client.KindNetworkUnavailable}, "Unable to connect to the store, check your connection"},
		{&client.Error{Kind: client.KindAuthExpired}, "Session expired, please log in again"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describe(tt.err))
	}
}
