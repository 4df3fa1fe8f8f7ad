package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/diewo77/scanpos/internal/models"
)

func seedProduct(t *testing.T, db *gorm.DB, name, barcode string, price, tax float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, TaxPercent: tax, StockQty: stock, IsActive: true}
	if barcode != "" {
		p.Barcode = &barcode
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Password: "x", Role: role, IsActive: true}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}
