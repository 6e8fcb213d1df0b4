package models

import (
	"time"

	"github.com/google/uuid"
)

// UserTypeCustomer is assigned to every self-registered account.
const UserTypeCustomer = "CUSTOMER"

// User represents the canonical identity entity. ID and timestamps are
// assigned explicitly by the users repository.
type User struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email               string     `gorm:"column:email;type:varchar(255);not null;uniqueIndex:users_email_active_key,where:is_deleted = false"`
	PasswordHash        string     `gorm:"column:password_hash;not null"`
	FullName            string     `gorm:"column:full_name;type:varchar(150);not null"`
	PhoneNumber         *string    `gorm:"column:phone_number;type:varchar(15)"`
	IsActive            bool       `gorm:"column:is_active;not null;default:true"`
	IsDeleted           bool       `gorm:"column:is_deleted;not null;default:false"`
	UserType            string     `gorm:"column:user_type;type:varchar(20);not null;default:CUSTOMER"`
	FailedLoginAttempts int        `gorm:"column:failed_login_attempts;not null;default:0"`
	LastLoginAt         *time.Time `gorm:"column:last_login_at"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (User) TableName() string {
	return "users"
}
