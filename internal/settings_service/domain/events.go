package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names the settings change carried by a ChangeEvent. Subscribers
// register callbacks per kind.
type EventKind string

const (
	EventVoiceSettingsUpdated          EventKind = "voice_settings_updated"
	EventConversationRulesUpdated      EventKind = "conversation_rules_updated"
	EventPhoneVoiceSettingsUpdated     EventKind = "phone_voice_settings_updated"
	EventPhoneConversationRulesUpdated EventKind = "phone_conversation_rules_updated"
	EventPhoneOperatingHoursUpdated    EventKind = "phone_operating_hours_updated"
	EventPrimaryPhoneChanged           EventKind = "primary_phone_changed"
	EventConfigAppliedConfirmation     EventKind = "config_applied_confirmation"
)

// EventPayload carries the changed value plus enough addressing for a
// listener subscribed at business granularity to attribute phone-level
// changes to their originating phone.
type EventPayload struct {
	BusinessID uuid.UUID  `json:"businessId"`
	PhoneID    *uuid.UUID `json:"phoneId,omitempty"`

	Settings       *VoiceSettings     `json:"settings,omitempty"`
	Rules          *ConversationRules `json:"rules,omitempty"`
	OperatingHours []OperatingHours   `json:"operatingHours,omitempty"`
	Timezone       string             `json:"timezone,omitempty"`

	// Applied-confirmation fields, set only for EventConfigAppliedConfirmation.
	ConfigType string     `json:"configType,omitempty"`
	AgentID    string     `json:"agentId,omitempty"`
	AppliedAt  *time.Time `json:"appliedAt,omitempty"`
}

// ChangeEvent is the wire message on a scope channel. It is ephemeral:
// created at the moment of a successful mutation, never persisted, gone once
// delivered. A subscriber offline during a publish permanently misses it and
// reconciles through a connect-time pull instead.
type ChangeEvent struct {
	ScopeType      ScopeType    `json:"scopeType"`
	ScopeID        uuid.UUID    `json:"scopeId"`
	Kind           EventKind    `json:"kind"`
	Payload        EventPayload `json:"payload"`
	Timestamp      time.Time    `json:"timestamp"`
	RequiresReload bool         `json:"requiresReload"`
}

// NewChangeEvent stamps the event with the current UTC time and the
// hot-reload marker every settings mutation carries.
func NewChangeEvent(scopeType ScopeType, scopeID uuid.UUID, kind EventKind, payload EventPayload) ChangeEvent {
	return ChangeEvent{
		ScopeType:      scopeType,
		ScopeID:        scopeID,
		Kind:           kind,
		Payload:        payload,
		Timestamp:      time.Now().UTC(),
		RequiresReload: true,
	}
}
