package domain

import (
	"time"

	"github.com/google/uuid"
)

// Business is the tenant unit. Its settings are the defaults for every phone
// number that does not carry an override of its own.
type Business struct {
	ID          uuid.UUID `json:"id"`
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	Name        string    `json:"name"`
	Timezone    string    `json:"timezone"`

	// Nullable in storage; nil means "use the documented defaults".
	VoiceSettings     *VoiceSettings     `json:"voice_settings,omitempty"`
	ConversationRules *ConversationRules `json:"conversation_rules,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBusiness creates a Business with implicit default settings (stored as
// null until first mutated).
func NewBusiness(id uuid.UUID, ownerUserID uuid.UUID, name string, timezone string) *Business {
	now := time.Now().UTC()
	if timezone == "" {
		timezone = "America/New_York"
	}
	return &Business{
		ID:          id,
		OwnerUserID: ownerUserID,
		Name:        name,
		Timezone:    timezone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// EffectiveVoiceSettings returns stored settings or the defaults.
func (b *Business) EffectiveVoiceSettings() VoiceSettings {
	if b.VoiceSettings != nil {
		return *b.VoiceSettings
	}
	return DefaultVoiceSettings()
}

// EffectiveConversationRules returns stored rules or the defaults.
func (b *Business) EffectiveConversationRules() ConversationRules {
	if b.ConversationRules != nil {
		return *b.ConversationRules
	}
	return DefaultConversationRules()
}
