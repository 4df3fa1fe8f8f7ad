package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/models"
	"github.com/diewo77/scanpos/validation"
)

const minPasswordLength = 6

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UserFilter struct {
	Search   string
	Page     int
	PageSize int
}

// Authenticate checks an email/password pair. Disabled accounts are refused
// even with a correct password.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return &u, nil
}

func (s *UserService) List(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var users []models.User
	err := q.Order("name ASC").Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

func (s *UserService) Create(ctx context.Context, in dto.UserRequest) (*models.User, error) {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	validation.Required("password", in.Password, v)
	validation.MinLength("password", in.Password, minPasswordLength, v)
	validation.OneOf("role", in.Role, models.Roles, v)
	if !v.Empty() {
		return nil, invalid(v)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    normalizeEmail(in.Email),
		Password: string(hash),
		Role:     in.Role,
		IsActive: in.IsActive == nil || *in.IsActive,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailFree(tx, u.Email, 0); err != nil {
			return err
		}
		return tx.Create(u).Error
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Update applies a partial change made by actorID. Users cannot change their
// own role or deactivate themselves.
func (s *UserService) Update(ctx context.Context, actorID, id uint, patch dto.UserPatch) (*models.User, error) {
	var out *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}

		v := validation.Violations{}
		if patch.Name != nil {
			u.Name = strings.TrimSpace(*patch.Name)
			validation.Required("name", u.Name, v)
		}
		if patch.Email != nil {
			u.Email = normalizeEmail(*patch.Email)
			validation.Required("email", u.Email, v)
			validation.Email("email", u.Email, v)
		}
		if patch.Role != nil {
			validation.OneOf("role", *patch.Role, models.Roles, v)
			if actorID == u.ID && *patch.Role != u.Role {
				return selfModification("You cannot change your own role")
			}
			u.Role = *patch.Role
		}
		if patch.IsActive != nil {
			if actorID == u.ID && !*patch.IsActive {
				return selfModification("You cannot deactivate your own account")
			}
			u.IsActive = *patch.IsActive
		}
		if patch.Password != nil && *patch.Password != "" {
			validation.MinLength("password", *patch.Password, minPasswordLength, v)
			if v.Empty() {
				hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
				if err != nil {
					return fmt.Errorf("hash password: %w", err)
				}
				u.Password = string(hash)
			}
		}
		if !v.Empty() {
			return invalid(v)
		}
		if err := ensureEmailFree(tx, u.Email, u.ID); err != nil {
			return err
		}
		if err := tx.Save(&u).Error; err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		out = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a user without invoices. Users who sold something must be
// deactivated instead so their invoices keep an owner.
func (s *UserService) Delete(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return selfModification("You cannot delete your own account")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		var invoices int64
		if err := tx.Model(&models.Invoice{}).Where("user_id = ?", id).Count(&invoices).Error; err != nil {
			return fmt.Errorf("count user invoices: %w", err)
		}
		if invoices > 0 {
			return ErrUserHasInvoices
		}
		return tx.Delete(&models.User{}, id).Error
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ensureEmailFree(tx *gorm.DB, email string, selfID uint) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, selfID).Count(&count).Error; err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return ErrEmailExists
	}
	return nil
}
