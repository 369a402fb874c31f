package domain

import (
	"time"
)

// DefaultVoiceID is the synthesis voice every business starts with.
const DefaultVoiceID = "kdmDKE6EkgrWrrykO9Qt"

// validVoiceIDs is the fixed allow-list of synthesis voices. Speed, pitch and
// style exist in the synthesis provider but are not runtime-configurable;
// the voice ID is the only agent-affecting voice field.
var validVoiceIDs = map[string]string{
	"kdmDKE6EkgrWrrykO9Qt": "Emma",
	"pNInz6obpgDQGcFmaJgB": "Adam",
	"EXAVITQu4vr4xnSDxMaL": "Bella",
	"ErXwobaYiN019PkySvjV": "Antoni",
	"MF3mGyEYCl7XYWbV9V6O": "Elli",
	"TxGEqnHWrfWFTfGW9XjX": "Josh",
}

// IsValidVoiceID reports whether id is in the voice allow-list.
func IsValidVoiceID(id string) bool {
	_, ok := validVoiceIDs[id]
	return ok
}

// VoiceSettings configures the synthesis voice of the receptionist agent.
type VoiceSettings struct {
	VoiceID string `json:"voiceId"`
}

// DefaultVoiceSettings returns the documented hard defaults.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{VoiceID: DefaultVoiceID}
}

// VoiceSettingsPatch is a partial update; nil fields are left unchanged.
type VoiceSettingsPatch struct {
	VoiceID *string `json:"voiceId,omitempty"`
}

// Validate checks every provided field. Returns a *ValidationError naming the
// offending field, or nil.
func (p VoiceSettingsPatch) Validate() error {
	if p.VoiceID != nil && !IsValidVoiceID(*p.VoiceID) {
		return newValidationError("voiceId", "Invalid voice ID")
	}
	return nil
}

// Merge overlays the provided fields of p onto s and returns the result.
func (s VoiceSettings) Merge(p VoiceSettingsPatch) VoiceSettings {
	if p.VoiceID != nil {
		s.VoiceID = *p.VoiceID
	}
	return s
}

// ConversationRules configures booking behaviour of the receptionist agent.
type ConversationRules struct {
	AllowMultipleServices bool `json:"allowMultipleServices"`
	AllowCancellations    bool `json:"allowCancellations"`
	AllowRescheduling     bool `json:"allowRescheduling"`
	NoShowBlockEnabled    bool `json:"noShowBlockEnabled"`
	NoShowThreshold       int  `json:"noShowThreshold"`
}

// DefaultConversationRules returns the documented hard defaults.
func DefaultConversationRules() ConversationRules {
	return ConversationRules{
		AllowMultipleServices: true,
		AllowCancellations:    true,
		AllowRescheduling:     true,
		NoShowBlockEnabled:    false,
		NoShowThreshold:       3,
	}
}

// ConversationRulesPatch is a partial update; nil fields are left unchanged.
// Pointer-to-bool fields keep "not provided" distinct from "set to false" and
// make non-boolean JSON values a decode error rather than a silent coercion.
type ConversationRulesPatch struct {
	AllowMultipleServices *bool `json:"allowMultipleServices,omitempty"`
	AllowCancellations    *bool `json:"allowCancellations,omitempty"`
	AllowRescheduling     *bool `json:"allowRescheduling,omitempty"`
	NoShowBlockEnabled    *bool `json:"noShowBlockEnabled,omitempty"`
	NoShowThreshold       *int  `json:"noShowThreshold,omitempty"`
}

// Validate checks every provided field. The update is all-or-nothing: a single
// bad field rejects the whole patch.
func (p ConversationRulesPatch) Validate() error {
	if p.NoShowThreshold != nil && (*p.NoShowThreshold < 1 || *p.NoShowThreshold > 10) {
		return newValidationError("noShowThreshold", "No-show threshold must be between 1 and 10")
	}
	return nil
}

// Merge overlays the provided fields of p onto r and returns the result.
func (r ConversationRules) Merge(p ConversationRulesPatch) ConversationRules {
	if p.AllowMultipleServices != nil {
		r.AllowMultipleServices = *p.AllowMultipleServices
	}
	if p.AllowCancellations != nil {
		r.AllowCancellations = *p.AllowCancellations
	}
	if p.AllowRescheduling != nil {
		r.AllowRescheduling = *p.AllowRescheduling
	}
	if p.NoShowBlockEnabled != nil {
		r.NoShowBlockEnabled = *p.NoShowBlockEnabled
	}
	if p.NoShowThreshold != nil {
		r.NoShowThreshold = *p.NoShowThreshold
	}
	return r
}

// OperatingHours describes one day's open window for a phone line.
type OperatingHours struct {
	DayOfWeek int    `json:"dayOfWeek"` // 0 (Sunday) .. 6 (Saturday)
	OpenTime  string `json:"openTime"`  // HH:MM
	CloseTime string `json:"closeTime"` // HH:MM
	IsClosed  bool   `json:"isClosed"`
}

// Validate checks day and time formats.
func (h OperatingHours) Validate() error {
	if h.DayOfWeek < 0 || h.DayOfWeek > 6 {
		return newValidationError("dayOfWeek", "Day of week must be between 0 and 6")
	}
	if h.IsClosed {
		return nil
	}
	if _, err := time.Parse("15:04", h.OpenTime); err != nil {
		return newValidationError("openTime", "Open time must be in HH:MM format")
	}
	if _, err := time.Parse("15:04", h.CloseTime); err != nil {
		return newValidationError("closeTime", "Close time must be in HH:MM format")
	}
	return nil
}

// ValidateOperatingHours validates a full replacement list.
func ValidateOperatingHours(hours []OperatingHours) error {
	for _, h := range hours {
		if err := h.Validate(); err != nil {
			return err
		}
	}
	return nil
}
