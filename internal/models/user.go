package models

import "time"

// Role names stored on users.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Roles lists the accepted role values.
var Roles = []string{RoleAdmin, RoleCashier}

// User is a person allowed to log into the POS.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:120;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Role      string    `gorm:"size:20;not null" json:"role"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
