package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/plutocart/user-service/pkg/config"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestManager(t *testing.T) (*Manager, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m, err := NewManager(config.JWTConfig{
		Secret:                 "test-secret",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60 * 24 * 7,
	}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, clock
}

func TestIssueAndValidateAccessToken(t *testing.T) {
	m, clock := newTestManager(t)
	userID := uuid.New()

	token, err := m.IssueAccess(userID, "a@x.com")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "a@x.com" || claims.Email != "a@x.com" {
		t.Fatalf("unexpected subject/email %q/%q", claims.Subject, claims.Email)
	}
	if claims.UserID != userID.String() {
		t.Fatalf("expected id %s, got %s", userID, claims.UserID)
	}
	if claims.Type != TokenTypeAccess {
		t.Fatalf("expected access type, got %s", claims.Type)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}
	if !claims.IssuedAt.Time.Equal(clock.now) {
		t.Fatalf("unexpected iat %s", claims.IssuedAt.Time)
	}
	if !claims.ExpiresAt.Time.Equal(clock.now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected exp %s", claims.ExpiresAt.Time)
	}

	if _, err := m.ValidateAccess(token); err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if email, err := m.ExtractEmail(token); err != nil || email != "a@x.com" {
		t.Fatalf("extract email: %q %v", email, err)
	}
	if id, err := m.ExtractUserID(token); err != nil || id != userID {
		t.Fatalf("extract user id: %s %v", id, err)
	}
}

func TestIssueRefreshTokenLifetime(t *testing.T) {
	m, clock := newTestManager(t)

	token, err := m.IssueRefresh(uuid.New(), "a@x.com")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	claims, err := m.ValidateRefresh(token)
	if err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
	if !claims.ExpiresAt.Time.Equal(clock.now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected refresh exp %s", claims.ExpiresAt.Time)
	}
}

func TestTokensAreUnique(t *testing.T) {
	m, _ := newTestManager(t)
	userID := uuid.New()

	first, _ := m.IssueAccess(userID, "a@x.com")
	second, _ := m.IssueAccess(userID, "a@x.com")
	if first == second {
		t.Fatal("expected distinct tokens via jti")
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	m, _ := newTestManager(t)
	token, _ := m.IssueAccess(uuid.New(), "a@x.com")

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := strings.Join([]string{parts[0], parts[1], string(sig)}, ".")

	if _, err := m.Validate(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if !m.IsExpired(tampered) {
		t.Fatal("tampered token should report expired")
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	m, clock := newTestManager(t)
	other, err := NewManager(config.JWTConfig{
		Secret:                 "other-secret",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, _ := other.IssueAccess(uuid.New(), "a@x.com")

	if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsMalformedInput(t *testing.T) {
	m, _ := newTestManager(t)
	for _, input := range []string{"", "   ", "not.a.jwt", "abc"} {
		if _, err := m.Validate(input); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", input, err)
		}
	}
}

func TestValidateRejectsUnsignedToken(t *testing.T) {
	m, clock := newTestManager(t)
	claims := Claims{
		UserID: uuid.NewString(),
		Email:  "a@x.com",
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a@x.com",
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(clock.now),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRequiresClaims(t *testing.T) {
	m, clock := newTestManager(t)
	base := func() Claims {
		return Claims{
			UserID: uuid.NewString(),
			Email:  "a@x.com",
			Type:   TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "a@x.com",
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(clock.now),
				ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
			},
		}
	}

	cases := map[string]func(*Claims){
		"missing sub": func(c *Claims) { c.Subject = "" },
		"missing jti": func(c *Claims) { c.ID = "" },
		"missing iat": func(c *Claims) { c.IssuedAt = nil },
		"missing exp": func(c *Claims) { c.ExpiresAt = nil },
		"bad type":    func(c *Claims) { c.Type = "session" },
		"bad id":      func(c *Claims) { c.UserID = "not-a-uuid" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			claims := base()
			mutate(&claims)
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
			if err != nil {
				t.Fatalf("sign: %v", err)
			}
			if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestExpiredTokenStillValidates(t *testing.T) {
	m, clock := newTestManager(t)
	token, _ := m.IssueAccess(uuid.New(), "a@x.com")

	if m.IsExpired(token) {
		t.Fatal("fresh token should not be expired")
	}

	clock.now = clock.now.Add(15 * time.Minute)

	if !m.IsExpired(token) {
		t.Fatal("token at exp should be expired")
	}
	if _, err := m.Validate(token); err != nil {
		t.Fatalf("validate should ignore expiry, got %v", err)
	}
	if _, err := m.ValidateAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if errors.Is(ErrTokenExpired, ErrInvalidToken) {
		t.Fatal("expired and invalid must stay distinguishable")
	}
}

func TestTypedValidationRejectsWrongType(t *testing.T) {
	m, _ := newTestManager(t)
	userID := uuid.New()
	access, _ := m.IssueAccess(userID, "a@x.com")
	refresh, _ := m.IssueRefresh(userID, "a@x.com")

	if _, err := m.ValidateRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
	if _, err := m.ValidateAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
}

func TestIssueRequiresIdentity(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.IssueAccess(uuid.Nil, "a@x.com"); err == nil {
		t.Fatal("expected error for nil user id")
	}
	if _, err := m.IssueRefresh(uuid.New(), " "); err == nil {
		t.Fatal("expected error for blank email")
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := map[string]config.JWTConfig{
		"empty secret":        {Secret: " ", ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60},
		"zero access ttl":     {Secret: "s", ExpirationMinutes: 0, RefreshTokenTTLMinutes: 60},
		"refresh not longer":  {Secret: "s", ExpirationMinutes: 60, RefreshTokenTTLMinutes: 60},
		"negative refresh tl": {Secret: "s", ExpirationMinutes: 15, RefreshTokenTTLMinutes: -1},
	}
	for name, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
