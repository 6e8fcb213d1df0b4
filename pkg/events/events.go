package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names a user lifecycle event.
type Type string

const (
	TypeUserRegistered Type = "user.registered"
)

// UserEvent is the JSON payload published for user lifecycle changes. It never
// carries credentials.
type UserEvent struct {
	ID         string    `json:"event_id"`
	Type       Type      `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	UserType   string    `json:"user_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers user events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event UserEvent) error
}

// NewUserRegistered builds the event emitted after an account is created.
func NewUserRegistered(userID uuid.UUID, email, userType string, at time.Time) UserEvent {
	return UserEvent{
		ID:         uuid.NewString(),
		Type:       TypeUserRegistered,
		UserID:     userID,
		Email:      email,
		UserType:   userType,
		OccurredAt: at.UTC(),
	}
}
