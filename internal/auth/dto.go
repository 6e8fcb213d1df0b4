package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/plutocart/user-service/internal/users"
)

// TokenTypeBearer is echoed to clients in token responses.
const TokenTypeBearer = "Bearer"

// RegisterRequest is the payload accepted by the registration endpoint.
type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,max=255,email"`
	Password    string  `json:"password" validate:"required,password"`
	FullName    string  `json:"full_name" validate:"notblank,max=150"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,max=15"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = users.Normalize(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
}

// LoginRequest captures the user credentials sent to the login endpoint.
// Username is the account email.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Username = users.Normalize(r.Username)
}

// RefreshRequest carries a refresh token in the body; the cookie is used when it is empty.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegistrationResult is returned after a successful registration.
type RegistrationResult struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PhoneNumber  *string   `json:"phone_number"`
	IsActive     bool      `json:"is_active"`
	UserType     string    `json:"user_type"`
	CreatedAt    time.Time `json:"created_at"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// LoginResult contains the tokens and identity produced by a successful login.
type LoginResult struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
