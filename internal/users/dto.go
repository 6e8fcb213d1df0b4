package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plutocart/user-service/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	IsActive    bool       `json:"is_active"`
	UserType    string     `json:"user_type"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
// A nil ID is replaced with a fresh UUID.
type CreateUserDTO struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	PhoneNumber  *string
	IsActive     bool
	UserType     string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		IsActive:    u.IsActive,
		UserType:    u.UserType,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel(now time.Time) *models.User {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	userType := strings.TrimSpace(c.UserType)
	if userType == "" {
		userType = models.UserTypeCustomer
	}

	return &models.User{
		ID:           id,
		Email:        Normalize(c.Email),
		PasswordHash: c.PasswordHash,
		FullName:     strings.TrimSpace(c.FullName),
		PhoneNumber:  c.PhoneNumber,
		IsActive:     c.IsActive,
		IsDeleted:    false,
		UserType:     userType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Normalize trims and lowercases an email so lookups and uniqueness are case-insensitive.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
