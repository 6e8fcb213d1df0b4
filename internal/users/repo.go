package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plutocart/user-service/pkg/db"
	"github.com/plutocart/user-service/pkg/db/models"
	"gorm.io/gorm"
)

const emailUniqueConstraint = "users_email_active_key"

var (
	// ErrNotFound is returned when no live user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when a live user already owns the email.
	ErrEmailTaken = errors.New("email already registered")
)

// Repository exposes user-related persistence operations. Soft-deleted rows
// are invisible to every read.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *Repository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("is_deleted = ?", false)
}

// ExistsByEmail reports whether a live user owns the email.
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return existsByEmail(r.live(ctx), Normalize(email))
}

func existsByEmail(q *gorm.DB, email string) (bool, error) {
	var count int64
	if err := q.Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByEmail retrieves the live user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.live(ctx).Where("email = ?", Normalize(email)).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByID loads a live user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.live(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Create inserts a new user and returns the persisted model. The existence
// check and the insert share a transaction; the partial unique index settles
// any race between concurrent registrations.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel(r.now())
	if user.Email == "" {
		return nil, fmt.Errorf("email is required")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := existsByEmail(tx.Model(&models.User{}).Where("is_deleted = ?", false), user.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		return tx.Select("*").Create(user).Error
	})
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, ErrEmailTaken), db.IsUniqueViolation(err, emailUniqueConstraint):
		return nil, ErrEmailTaken
	default:
		return nil, err
	}
}

// RecordLoginSuccess stamps last_login_at and clears the failure counter.
func (r *Repository) RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, map[string]any{
		"last_login_at":         at,
		"failed_login_attempts": 0,
		"updated_at":            at,
	})
}

// RecordLoginFailure bumps the failure counter.
func (r *Repository) RecordLoginFailure(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, map[string]any{
		"failed_login_attempts": gorm.Expr("failed_login_attempts + ?", 1),
		"updated_at":            at,
	})
}

// UpdatePasswordHash replaces the stored hash, used to upgrade legacy bcrypt hashes.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	return r.update(ctx, id, map[string]any{
		"password_hash": hash,
		"updated_at":    at,
	})
}

func (r *Repository) update(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	res := r.live(ctx).Where("id = ?", id).UpdateColumns(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
