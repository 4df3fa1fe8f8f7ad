package policy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/diewo77/scanpos/gate"
	"github.com/diewo77/scanpos/internal/models"
)

// DBRoleResolver maps a user id to the profile of the user's role.
// Unknown and deactivated users resolve to no profile.
type DBRoleResolver struct {
	DB *gorm.DB
}

func NewDBRoleResolver(db *gorm.DB) *DBRoleResolver {
	return &DBRoleResolver{DB: db}
}

func (r *DBRoleResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Select("id", "role", "is_active").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	return ProfileFor(Role(user.Role)), nil
}
