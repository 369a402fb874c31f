package domain

import (
	"time"

	"github.com/google/uuid"
)

// PhoneNumberStatus is the lifecycle state of a provisioned number.
type PhoneNumberStatus string

const (
	PhoneStatusActive    PhoneNumberStatus = "active"
	PhoneStatusSuspended PhoneNumberStatus = "suspended"
	PhoneStatusReleased  PhoneNumberStatus = "released"
)

// PhoneNumber belongs to exactly one Business and may override the business
// settings at phone granularity. At most one number per business is primary.
type PhoneNumber struct {
	ID          uuid.UUID         `json:"id"`
	BusinessID  uuid.UUID         `json:"business_id"`
	PhoneNumber string            `json:"phone_number"` // E.164
	DisplayName string            `json:"display_name"`
	Timezone    string            `json:"timezone"`
	Status      PhoneNumberStatus `json:"status"`
	IsPrimary   bool              `json:"is_primary"`

	// Nullable overrides; nil falls back to the business (or hard) defaults.
	VoiceSettings     *VoiceSettings     `json:"voice_settings,omitempty"`
	ConversationRules *ConversationRules `json:"conversation_rules,omitempty"`
	OperatingHours    []OperatingHours   `json:"operating_hours"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPhoneNumber creates an active, non-primary number with no overrides.
func NewPhoneNumber(id uuid.UUID, businessID uuid.UUID, number, displayName, timezone string) *PhoneNumber {
	now := time.Now().UTC()
	if timezone == "" {
		timezone = "America/New_York"
	}
	return &PhoneNumber{
		ID:          id,
		BusinessID:  businessID,
		PhoneNumber: number,
		DisplayName: displayName,
		Timezone:    timezone,
		Status:      PhoneStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// EffectiveVoiceSettings returns the phone override or the defaults.
func (p *PhoneNumber) EffectiveVoiceSettings() VoiceSettings {
	if p.VoiceSettings != nil {
		return *p.VoiceSettings
	}
	return DefaultVoiceSettings()
}

// EffectiveConversationRules returns the phone override or the defaults.
func (p *PhoneNumber) EffectiveConversationRules() ConversationRules {
	if p.ConversationRules != nil {
		return *p.ConversationRules
	}
	return DefaultConversationRules()
}

// AgentConfig is the full snapshot a voice agent pulls on connect.
type AgentConfig struct {
	PhoneID           uuid.UUID         `json:"phoneId"`
	BusinessID        uuid.UUID         `json:"businessId"`
	PhoneNumber       string            `json:"phoneNumber"`
	DisplayName       string            `json:"displayName"`
	Timezone          string            `json:"timezone"`
	IsActive          bool              `json:"isActive"`
	IsPrimary         bool              `json:"isPrimary"`
	VoiceSettings     VoiceSettings     `json:"voiceSettings"`
	ConversationRules ConversationRules `json:"conversationRules"`
	OperatingHours    []OperatingHours  `json:"operatingHours"`
}

// ToAgentConfig flattens the phone into the agent snapshot format.
func (p *PhoneNumber) ToAgentConfig() AgentConfig {
	hours := p.OperatingHours
	if hours == nil {
		hours = []OperatingHours{}
	}
	return AgentConfig{
		PhoneID:           p.ID,
		BusinessID:        p.BusinessID,
		PhoneNumber:       p.PhoneNumber,
		DisplayName:       p.DisplayName,
		Timezone:          p.Timezone,
		IsActive:          p.Status == PhoneStatusActive,
		IsPrimary:         p.IsPrimary,
		VoiceSettings:     p.EffectiveVoiceSettings(),
		ConversationRules: p.EffectiveConversationRules(),
		OperatingHours:    hours,
	}
}
