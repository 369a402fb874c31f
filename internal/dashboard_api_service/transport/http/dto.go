package http

import (
	"time"

	"github.com/voxdesk/golang_services/internal/settings_service/domain"
)

// --- Auth DTOs ---

type RegisterRequestDTO struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	Name         string `json:"name" validate:"required,min=1,max=255"`
	BusinessName string `json:"businessName" validate:"required,min=1,max=255"`
}

type RegisterResponseDTO struct {
	Success    bool   `json:"success"`
	UserID     string `json:"userId"`
	BusinessID string `json:"businessId"`
}

type LoginRequestDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponseDTO struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// --- Settings DTOs ---

// Partial update bodies map straight onto the domain patch types; pointer
// fields keep "absent" distinct from a zero value, and a non-boolean value
// for a rules flag fails JSON decoding outright.

type UpdateVoiceSettingsRequestDTO struct {
	VoiceID *string `json:"voiceId,omitempty"`
}

func (d UpdateVoiceSettingsRequestDTO) toPatch() domain.VoiceSettingsPatch {
	return domain.VoiceSettingsPatch{VoiceID: d.VoiceID}
}

type UpdateConversationRulesRequestDTO struct {
	AllowMultipleServices *bool `json:"allowMultipleServices,omitempty"`
	AllowCancellations    *bool `json:"allowCancellations,omitempty"`
	AllowRescheduling     *bool `json:"allowRescheduling,omitempty"`
	NoShowBlockEnabled    *bool `json:"noShowBlockEnabled,omitempty"`
	NoShowThreshold       *int  `json:"noShowThreshold,omitempty"`
}

func (d UpdateConversationRulesRequestDTO) toPatch() domain.ConversationRulesPatch {
	return domain.ConversationRulesPatch{
		AllowMultipleServices: d.AllowMultipleServices,
		AllowCancellations:    d.AllowCancellations,
		AllowRescheduling:     d.AllowRescheduling,
		NoShowBlockEnabled:    d.NoShowBlockEnabled,
		NoShowThreshold:       d.NoShowThreshold,
	}
}

type OperatingHoursDTO struct {
	DayOfWeek int    `json:"dayOfWeek"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
	IsClosed  bool   `json:"isClosed"`
}

type ReplaceOperatingHoursRequestDTO struct {
	OperatingHours []OperatingHoursDTO `json:"operatingHours" validate:"required,dive"`
}

func (d ReplaceOperatingHoursRequestDTO) toDomain() []domain.OperatingHours {
	hours := make([]domain.OperatingHours, 0, len(d.OperatingHours))
	for _, h := range d.OperatingHours {
		hours = append(hours, domain.OperatingHours{
			DayOfWeek: h.DayOfWeek,
			OpenTime:  h.OpenTime,
			CloseTime: h.CloseTime,
			IsClosed:  h.IsClosed,
		})
	}
	return hours
}

// --- Response shapes ---

// SettingsResponseDTO is the GET shape.
type SettingsResponseDTO struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	PhoneID string `json:"phoneId,omitempty"`
}

// UpdateResponseDTO is the PATCH/PUT shape; RealTimeUpdate reports whether
// the change-event publish went out (the durable write succeeded either way).
type UpdateResponseDTO struct {
	Success        bool   `json:"success"`
	Data           any    `json:"data"`
	Message        string `json:"message"`
	RealTimeUpdate bool   `json:"realTimeUpdate"`
	PhoneID        string `json:"phoneId,omitempty"`
}

// PhoneNumberResponseDTO is the list-item shape.
type PhoneNumberResponseDTO struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"businessId"`
	PhoneNumber string    `json:"phoneNumber"`
	DisplayName string    `json:"displayName"`
	Timezone    string    `json:"timezone"`
	Status      string    `json:"status"`
	IsPrimary   bool      `json:"isPrimary"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toPhoneNumberDTO(p *domain.PhoneNumber) PhoneNumberResponseDTO {
	return PhoneNumberResponseDTO{
		ID:          p.ID.String(),
		BusinessID:  p.BusinessID.String(),
		PhoneNumber: p.PhoneNumber,
		DisplayName: p.DisplayName,
		Timezone:    p.Timezone,
		Status:      string(p.Status),
		IsPrimary:   p.IsPrimary,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type ListPhoneNumbersResponseDTO struct {
	Success bool                     `json:"success"`
	Data    []PhoneNumberResponseDTO `json:"data"`
}
