package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/plutocart/user-service/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

var (
	// ErrInvalidToken covers tampered, malformed or mistyped tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for authentic tokens past their exp.
	ErrTokenExpired = errors.New("token expired")
)

// Manager issues and validates HS256 tokens.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Option func(*Manager)

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(cfg config.JWTConfig, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	accessTTL := cfg.AccessTokenTTL()
	if accessTTL <= 0 {
		return nil, fmt.Errorf("jwt expiration minutes must be positive")
	}
	refreshTTL := cfg.RefreshTokenTTL()
	if refreshTTL <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", refreshTTL, accessTTL)
	}

	m := &Manager{
		secret:     []byte(cfg.Secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// AccessTTL is reported to clients as expires_in.
func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// IssueAccess mints a signed access token for the user.
func (m *Manager) IssueAccess(userID uuid.UUID, email string) (string, error) {
	return m.issue(userID, email, TokenTypeAccess, m.accessTTL)
}

// IssueRefresh mints a signed refresh token for the user.
func (m *Manager) IssueRefresh(userID uuid.UUID, email string) (string, error) {
	return m.issue(userID, email, TokenTypeRefresh, m.refreshTTL)
}

func (m *Manager) issue(userID uuid.UUID, email string, tokenType TokenType, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("email is required")
	}

	now := m.now()
	claims := Claims{
		UserID: userID.String(),
		Email:  email,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// Validate checks signature and claim structure. Expiry is deliberately not
// enforced here; use IsExpired or the typed validators for that.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
	)
	_, err := parser.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return m.secret, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := checkStructure(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func checkStructure(claims *Claims) error {
	switch {
	case strings.TrimSpace(claims.Subject) == "":
		return fmt.Errorf("%w: missing sub", ErrInvalidToken)
	case strings.TrimSpace(claims.ID) == "":
		return fmt.Errorf("%w: missing jti", ErrInvalidToken)
	case claims.IssuedAt == nil:
		return fmt.Errorf("%w: missing iat", ErrInvalidToken)
	case claims.ExpiresAt == nil:
		return fmt.Errorf("%w: missing exp", ErrInvalidToken)
	case !claims.Type.IsValid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidToken, claims.Type)
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return fmt.Errorf("%w: malformed id", ErrInvalidToken)
	}
	return nil
}

// IsExpired is true for any token that fails validation or whose exp has passed.
func (m *Manager) IsExpired(tokenString string) bool {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return true
	}
	return m.expired(claims)
}

func (m *Manager) expired(claims *Claims) bool {
	return !claims.ExpiresAt.Time.After(m.now())
}

// ExtractEmail returns the sub claim of an authentic token.
func (m *Manager) ExtractEmail(tokenString string) (string, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractUserID returns the id claim of an authentic token.
func (m *Manager) ExtractUserID(tokenString string) (uuid.UUID, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(claims.UserID), nil
}

// ValidateAccess accepts only unexpired access tokens.
func (m *Manager) ValidateAccess(tokenString string) (*Claims, error) {
	return m.validateTyped(tokenString, TokenTypeAccess)
}

// ValidateRefresh accepts only unexpired refresh tokens.
func (m *Manager) ValidateRefresh(tokenString string) (*Claims, error) {
	return m.validateTyped(tokenString, TokenTypeRefresh)
}

func (m *Manager) validateTyped(tokenString string, want TokenType) (*Claims, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: expected %s token, got %s", ErrInvalidToken, want, claims.Type)
	}
	if m.expired(claims) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}
