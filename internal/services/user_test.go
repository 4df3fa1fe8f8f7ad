package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/scanpos/internal/db/dbtest"
	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/models"
)

func TestUserService_CreateAndAuthenticate(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := NewUserService(db)

	u, err := svc.Create(ctx, dto.UserRequest{Name: "Ann", Email: "Ann@Scanpos.test", Password: "secret1", Role: "cashier"})
	require.NoError(t, err)
	assert.Equal(t, "ann@scanpos.test", u.Email)
	assert.True(t, u.IsActive)

	_, err = svc.Create(ctx, dto.UserRequest{Name: "Ann 2", Email: "ann@scanpos.test", Password: "secret1", Role: "cashier"})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = svc.Create(ctx, dto.UserRequest{Name: "Bob", Email: "bob@scanpos.test", Password: "secret1", Role: "manager"})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := svc.Authenticate(ctx, "ANN@scanpos.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ann@scanpos.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@scanpos.test", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Update(ctx, 999, u.ID, dto.UserPatch{IsActive: ptr(false)})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "ann@scanpos.test", "secret1")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestUserService_SelfProtection(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := NewUserService(db)
	admin := seedUser(t, db, "admin@scanpos.test", models.RoleAdmin)
	other := seedUser(t, db, "other@scanpos.test", models.RoleCashier)

	_, err := svc.Update(ctx, admin.ID, admin.ID, dto.UserPatch{Role: ptr("cashier")})
	assert.ErrorIs(t, err, ErrSelfModification)
	_, err = svc.Update(ctx, admin.ID, admin.ID, dto.UserPatch{IsActive: ptr(false)})
	assert.ErrorIs(t, err, ErrSelfModification)
	assert.ErrorIs(t, svc.Delete(ctx, admin.ID, admin.ID), ErrSelfModification)

	renamed, err := svc.Update(ctx, admin.ID, admin.ID, dto.UserPatch{Name: ptr("Boss")})
	require.NoError(t, err)
	assert.Equal(t, "Boss", renamed.Name)

	_, err = svc.Update(ctx, admin.ID, other.ID, dto.UserPatch{Email: ptr("admin@scanpos.test")})
	assert.ErrorIs(t, err, ErrEmailExists)

	promoted, err := svc.Update(ctx, admin.ID, other.ID, dto.UserPatch{Role: ptr("admin")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)
}

func TestUserService_DeleteRefusesUsersWithInvoices(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := NewUserService(db)
	admin := seedUser(t, db, "admin@scanpos.test", models.RoleAdmin)
	seller := seedUser(t, db, "seller@scanpos.test", models.RoleCashier)
	idle := seedUser(t, db, "idle@scanpos.test", models.RoleCashier)

	_, err := NewInvoiceService(db).Create(ctx, seller.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, admin.ID, seller.ID), ErrUserHasInvoices)
	require.NoError(t, svc.Delete(ctx, admin.ID, idle.ID))
	_, err = svc.Get(ctx, idle.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	users, total, err := svc.List(ctx, UserFilter{Search: "seller", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, seller.ID, users[0].ID)
}
