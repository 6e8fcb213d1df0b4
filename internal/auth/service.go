package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/plutocart/user-service/internal/users"
	pkgAuth "github.com/plutocart/user-service/pkg/auth"
	"github.com/plutocart/user-service/pkg/config"
	"github.com/plutocart/user-service/pkg/db/models"
	pkgerrors "github.com/plutocart/user-service/pkg/errors"
	"github.com/plutocart/user-service/pkg/events"
	"github.com/plutocart/user-service/pkg/logger"
	"github.com/plutocart/user-service/pkg/metrics"
	"github.com/plutocart/user-service/pkg/redis"
	"github.com/plutocart/user-service/pkg/security"
)

const (
	invalidCredentialsMessage = "Username or Password Incorrect"
	invalidRefreshMessage     = "invalid refresh token"
	expiredRefreshMessage     = "refresh token expired"
)

// Service defines the behavior needed by the users controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegistrationResult, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type userDirectory interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordLoginFailure(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, at time.Time) error
}

type tokenIssuer interface {
	IssueAccess(userID uuid.UUID, email string) (string, error)
	IssueRefresh(userID uuid.UUID, email string) (string, error)
	ValidateRefresh(token string) (*pkgAuth.Claims, error)
	AccessTTL() time.Duration
}

// RegistrationGuard serializes concurrent registrations for one email.
type RegistrationGuard interface {
	AcquireRegistrationGuard(ctx context.Context, email string, ttl time.Duration) (*redis.Guard, bool, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
// Guard, Events, Metrics and Logger are optional.
type ServiceParams struct {
	Users          userDirectory
	Tokens         tokenIssuer
	Guard          RegistrationGuard
	Events         events.Publisher
	PasswordConfig config.PasswordConfig
	AuthConfig     config.AuthConfig
	Metrics        *metrics.AuthMetrics
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	users       userDirectory
	tokens      tokenIssuer
	guard       RegistrationGuard
	events      events.Publisher
	passwordCfg config.PasswordConfig
	authCfg     config.AuthConfig
	metrics     *metrics.AuthMetrics
	logg        *logger.Logger
	now         func() time.Time
	decoyHash   string
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "auth", Output: io.Discard})
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	// Unknown emails are verified against this hash so both failure paths cost the same.
	decoy, err := security.HashPassword(uuid.NewString(), params.PasswordConfig)
	if err != nil {
		return nil, fmt.Errorf("prepare decoy hash: %w", err)
	}

	return &service{
		users:       params.Users,
		tokens:      params.Tokens,
		guard:       params.Guard,
		events:      params.Events,
		passwordCfg: params.PasswordConfig,
		authCfg:     params.AuthConfig,
		metrics:     params.Metrics,
		logg:        logg,
		now:         now,
		decoyHash:   decoy,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*RegistrationResult, error) {
	result, err := s.register(ctx, req)
	s.metrics.Observe(metrics.OperationRegister, outcomeFor(err))
	return result, err
}

func (s *service) register(ctx context.Context, req RegisterRequest) (*RegistrationResult, error) {
	email := users.Normalize(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	fullName := strings.TrimSpace(req.FullName)

	release, err := s.acquireGuard(ctx, email)
	if err != nil {
		return nil, err
	}
	defer release()

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}
	if exists {
		return nil, userExists(email)
	}

	started := time.Now()
	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	s.metrics.ObserveHashDuration(time.Since(started))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		PhoneNumber:  normalizePhone(req.PhoneNumber),
		IsActive:     true,
		UserType:     models.UserTypeCustomer,
	})
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			return nil, userExists(email)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	access, refresh, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user registered")
	s.publish(ctx, events.NewUserRegistered(user.ID, user.Email, user.UserType, s.now()))

	return &RegistrationResult{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		PhoneNumber:  user.PhoneNumber,
		IsActive:     user.IsActive,
		UserType:     user.UserType,
		CreatedAt:    user.CreatedAt,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// acquireGuard returns a release func that is always safe to call. A guard
// outage never blocks registration.
func (s *service) acquireGuard(ctx context.Context, email string) (func(), error) {
	noop := func() {}
	if s.guard == nil || s.authCfg.RegistrationGuardTTL <= 0 {
		return noop, nil
	}
	guard, acquired, err := s.guard.AcquireRegistrationGuard(ctx, email, s.authCfg.RegistrationGuardTTL)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "registration guard unavailable")
		return noop, nil
	}
	if !acquired {
		// the other attempt may still fail, so no account is implied
		return noop, pkgerrors.New(pkgerrors.CodeConflict, "registration already in progress for this email")
	}
	return func() {
		// the request context may already be cancelled
		if err := guard.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "registration guard release failed")
		}
	}, nil
}

// publish is best effort: the account already exists, so a broker outage is
// logged and the registration still succeeds.
func (s *service) publish(ctx context.Context, event events.UserEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"error": err.Error(), "event_type": string(event.Type)})
		s.logg.Warn(ctx, "user event publish failed")
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	result, err := s.login(ctx, req)
	s.metrics.Observe(metrics.OperationLogin, outcomeFor(err))
	return result, err
}

func (s *service) login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	if err := s.recordLogin(ctx, user); err != nil {
		return nil, err
	}
	s.maybeUpgradeHash(ctx, user, req.Password)

	access, refresh, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		ID:           user.ID,
		Username:     user.Email,
		FullName:     user.FullName,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *service) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	email := users.Normalize(username)
	if email == "" {
		return nil, invalidCredentials()
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			security.VerifyPassword(password, s.decoyHash)
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		s.recordFailure(ctx, user)
		return nil, invalidCredentials()
	}
	if !user.IsActive {
		return nil, invalidCredentials()
	}
	return user, nil
}

func (s *service) recordLogin(ctx context.Context, user *models.User) error {
	if !s.authCfg.TrackLoginActivity {
		return nil
	}
	now := s.now()
	if err := s.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	user.FailedLoginAttempts = 0
	user.UpdatedAt = now
	return nil
}

func (s *service) recordFailure(ctx context.Context, user *models.User) {
	if !s.authCfg.TrackLoginActivity {
		return
	}
	if err := s.users.RecordLoginFailure(ctx, user.ID, s.now()); err != nil {
		ctx = s.logg.WithUserID(ctx, user.ID.String())
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "record login failure")
	}
}

// maybeUpgradeHash replaces a legacy bcrypt hash once the plaintext is known to match.
func (s *service) maybeUpgradeHash(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.PasswordHash) {
		return
	}
	ctx = s.logg.WithUserID(ctx, user.ID.String())
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "rehash legacy password")
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash, s.now()); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "store upgraded password hash")
		return
	}
	user.PasswordHash = hash
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	pair, err := s.refresh(ctx, refreshToken)
	s.metrics.Observe(metrics.OperationRefresh, outcomeFor(err))
	return pair, err
}

func (s *service) refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, pkgAuth.ErrTokenExpired) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidToken, err, expiredRefreshMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidToken, err, invalidRefreshMessage)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidToken, err, invalidRefreshMessage)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidToken, invalidRefreshMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if !user.IsActive || user.Email != claims.Subject {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidToken, invalidRefreshMessage)
	}

	access, err := s.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue access token")
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return users.FromModel(user), nil
}

func (s *service) issuePair(user *models.User) (string, string, error) {
	access, err := s.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue access token")
	}
	refresh, err := s.tokens.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue refresh token")
	}
	return access, refresh, nil
}

func userExists(email string) error {
	return pkgerrors.New(pkgerrors.CodeUserAlreadyExists, fmt.Sprintf("User with Email %s already exists", email))
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
}

func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*phone)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func outcomeFor(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return metrics.OutcomeError
	}
	switch typed.Code() {
	case pkgerrors.CodeUserAlreadyExists:
		return metrics.OutcomeUserExists
	case pkgerrors.CodeInvalidCredentials:
		return metrics.OutcomeInvalidCredentials
	case pkgerrors.CodeInvalidToken:
		return metrics.OutcomeInvalidToken
	default:
		return metrics.OutcomeError
	}
}
