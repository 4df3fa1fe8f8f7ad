package db

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/scanpos/internal/models"
)

// SeedOptions controls what Seed inserts.
type SeedOptions struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	// Demo adds a handful of products so a fresh install can bill right away.
	Demo bool
}

// Seed is idempotent: rows that already exist (by email or barcode) are kept
// untouched.
func Seed(db *gorm.DB, opts SeedOptions) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := seedAdmin(tx, opts); err != nil {
			return err
		}
		if opts.Demo {
			return seedProducts(tx)
		}
		return nil
	})
}

func seedAdmin(tx *gorm.DB, opts SeedOptions) error {
	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return nil
	}
	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", opts.AdminEmail).Count(&count).Error; err != nil {
		return fmt.Errorf("look up admin: %w", err)
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Name:     opts.AdminName,
		Email:    opts.AdminEmail,
		Password: string(hash),
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := tx.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

var demoProducts = []struct {
	name     string
	barcode  string
	price    float64
	tax      float64
	stockQty int
}{
	{"Whole Milk 1L", "4006381333931", 1.29, 5, 120},
	{"Sourdough Bread", "4012345678901", 3.50, 5, 40},
	{"Mineral Water 1.5L", "5449000000996", 0.89, 5, 200},
	{"Ground Coffee 500g", "8711000530085", 7.99, 12, 25},
	{"Dish Soap", "8001090207123", 2.49, 18, 8},
}

func seedProducts(tx *gorm.DB) error {
	for _, p := range demoProducts {
		barcode := p.barcode
		product := models.Product{
			Name:       p.name,
			Barcode:    &barcode,
			Price:      p.price,
			TaxPercent: p.tax,
			StockQty:   p.stockQty,
			IsActive:   true,
		}
		if err := tx.Where("barcode = ?", barcode).FirstOrCreate(&product).Error; err != nil {
			return fmt.Errorf("seed product %s: %w", p.name, err)
		}
	}
	return nil
}
