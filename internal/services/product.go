package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/models"
	"github.com/diewo77/scanpos/validation"
)

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// ProductFilter narrows List. Search matches name or barcode.
type ProductFilter struct {
	Search       string
	ShowInactive bool
	Page         int
	PageSize     int
}

func (s *ProductService) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if !f.ShowInactive {
		q = q.Where("is_active = ?", true)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(barcode) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	var products []models.Product
	err := q.Order("name ASC").Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// GetByBarcode only finds active products.
func (s *ProductService) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where("barcode = ? AND is_active = ?", barcode, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product by barcode: %w", err)
	}
	return &p, nil
}

func (s *ProductService) Create(ctx context.Context, in dto.ProductRequest) (*models.Product, error) {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validateProductNumbers(in.Price, in.TaxPercent, in.StockQty, v)
	if !v.Empty() {
		return nil, invalid(v)
	}

	p := &models.Product{
		Name:       strings.TrimSpace(in.Name),
		Barcode:    normalizeBarcode(in.Barcode),
		Price:      in.Price,
		TaxPercent: in.TaxPercent,
		StockQty:   in.StockQty,
		IsActive:   in.IsActive == nil || *in.IsActive,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureBarcodeFree(tx, p.Barcode, 0); err != nil {
			return err
		}
		return tx.Create(p).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies a partial change.
func (s *ProductService) Update(ctx context.Context, id uint, patch dto.ProductPatch) (*models.Product, error) {
	var out *models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("load product: %w", err)
		}
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Barcode != nil {
			p.Barcode = normalizeBarcode(*patch.Barcode)
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.TaxPercent != nil {
			p.TaxPercent = *patch.TaxPercent
		}
		if patch.StockQty != nil {
			p.StockQty = *patch.StockQty
		}
		if patch.IsActive != nil {
			p.IsActive = *patch.IsActive
		}

		v := validation.Violations{}
		validation.Required("name", p.Name, v)
		validateProductNumbers(p.Price, p.TaxPercent, p.StockQty, v)
		if !v.Empty() {
			return invalid(v)
		}
		if err := ensureBarcodeFree(tx, p.Barcode, p.ID); err != nil {
			return err
		}
		if err := tx.Save(&p).Error; err != nil {
			return fmt.Errorf("save product: %w", err)
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate hides a product from sale. Invoice lines keep referencing it.
func (s *ProductService) Deactivate(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("deactivate product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func validateProductNumbers(price, tax float64, stock int, v validation.Violations) {
	validation.PositiveFloat("price", price, v)
	validation.RangeFloat("tax_percent", tax, 0, 100, v)
	validation.NonNegativeInt("stock_qty", stock, v)
}

func normalizeBarcode(code string) *string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return &code
}

func ensureBarcodeFree(tx *gorm.DB, barcode *string, selfID uint) error {
	if barcode == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Product{}).Where("barcode = ? AND id <> ?", *barcode, selfID).Count(&count).Error; err != nil {
		return fmt.Errorf("check barcode: %w", err)
	}
	if count > 0 {
		return ErrBarcodeExists
	}
	return nil
}
