package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BusinessRepository manages the tenant row and its business-level settings.
// Every owner-facing query carries the owner in its predicate so a row owned
// by another tenant is indistinguishable from a missing one (ErrNotFound),
// and so the ownership check and the write are a single atomic statement.
type BusinessRepository interface {
	Create(ctx context.Context, b *Business) error
	GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*Business, error)
	UpdateVoiceSettings(ctx context.Context, businessID, ownerUserID uuid.UUID, settings VoiceSettings, updatedAt time.Time) error
	UpdateConversationRules(ctx context.Context, businessID, ownerUserID uuid.UUID, rules ConversationRules, updatedAt time.Time) error
}

// PhoneNumberRepository manages phone rows and their setting overrides.
// Owner-facing operations join through businesses on owner_user_id.
type PhoneNumberRepository interface {
	Create(ctx context.Context, p *PhoneNumber) error
	GetByIDAndOwner(ctx context.Context, phoneID, ownerUserID uuid.UUID) (*PhoneNumber, error)
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*PhoneNumber, error)
	UpdateVoiceSettings(ctx context.Context, phoneID, ownerUserID uuid.UUID, settings VoiceSettings, updatedAt time.Time) error
	UpdateConversationRules(ctx context.Context, phoneID, ownerUserID uuid.UUID, rules ConversationRules, updatedAt time.Time) error
	UpdateOperatingHours(ctx context.Context, phoneID, ownerUserID uuid.UUID, hours []OperatingHours, updatedAt time.Time) error
	// SetPrimary clears the previous primary and marks phoneID in one
	// transaction, keeping the at-most-one-primary invariant.
	SetPrimary(ctx context.Context, phoneID, ownerUserID uuid.UUID) (*PhoneNumber, error)

	// GetByID is the agent-side pull; agents are trusted internal consumers
	// and address phones directly.
	GetByID(ctx context.Context, phoneID uuid.UUID) (*PhoneNumber, error)
}
