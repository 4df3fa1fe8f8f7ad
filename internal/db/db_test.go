package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/diewo77/scanpos/internal/config"
	"github.com/diewo77/scanpos/internal/models"
)

func TestOpenMigrateSeed(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver:     DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}
	conn, err := Open(context.Background(), cfg, false, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))

	opts := SeedOptions{AdminName: "Admin", AdminEmail: "admin@scanpos.com", AdminPassword: "admin123", Demo: true}
	require.NoError(t, Seed(conn, opts))
	require.NoError(t, Seed(conn, opts), "seeding twice must be a no-op")

	var admins []models.User
	require.NoError(t, conn.Where("email = ?", opts.AdminEmail).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, models.RoleAdmin, admins[0].Role)
	assert.True(t, admins[0].IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].Password), []byte("admin123")))

	var products int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&products).Error)
	assert.Equal(t, int64(len(demoProducts)), products)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"}, false, zerolog.Nop())
	assert.Error(t, err)
}
