package models

import (
	"fmt"
	"time"

	"github.com/erp/pos-backend/internal/domain/identity"
	"gorm.io/gorm"
)

// UserModel maps the users table. Product rows reference it only to show
// who created them; the password column holds an opaque hash.
type UserModel struct {
	ID        int64         `gorm:"primaryKey;autoIncrement"`
	Username  string        `gorm:"type:varchar(50);not null;uniqueIndex:idx_users_username"`
	Email     string        `gorm:"type:varchar(100);not null;uniqueIndex:idx_users_email"`
	Password  string        `gorm:"type:varchar(255);not null"`
	FirstName string        `gorm:"type:varchar(50);not null"`
	LastName  string        `gorm:"type:varchar(50);not null"`
	Phone     *string       `gorm:"type:varchar(20)"`
	Role      identity.Role `gorm:"type:varchar(20);not null;default:'cashier'"`
	IsActive  bool          `gorm:"not null;default:true"`
	LastLogin *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// BeforeSave rejects roles outside the known set
func (u *UserModel) BeforeSave(*gorm.DB) error {
	if !u.Role.IsValid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}
