package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/scanpos/internal/models"
)

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Invoice{},
		&models.InvoiceItem{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
