package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/voxdesk/golang_services/internal/dashboard_api_service/middleware"
	settingsapp "github.com/voxdesk/golang_services/internal/settings_service/app"
)

// PhoneSettingsHandler serves the per-phone settings endpoints. Ownership is
// enforced in the storage predicates; a phone owned by another tenant 404s
// exactly like a phone that does not exist.
type PhoneSettingsHandler struct {
	settings *settingsapp.Application
	logger   *slog.Logger
	validate *validator.Validate
}

func NewPhoneSettingsHandler(settings *settingsapp.Application, logger *slog.Logger, validate *validator.Validate) *PhoneSettingsHandler {
	return &PhoneSettingsHandler{settings: settings, logger: logger, validate: validate}
}

func (h *PhoneSettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/phone-numbers", h.ListPhoneNumbers)
	r.Get("/phone-numbers/{phoneID}/voice-settings", h.GetVoiceSettings)
	r.Patch("/phone-numbers/{phoneID}/voice-settings", h.UpdateVoiceSettings)
	r.Get("/phone-numbers/{phoneID}/conversation-rules", h.GetConversationRules)
	r.Patch("/phone-numbers/{phoneID}/conversation-rules", h.UpdateConversationRules)
	r.Get("/phone-numbers/{phoneID}/operating-hours", h.GetOperatingHours)
	r.Put("/phone-numbers/{phoneID}/operating-hours", h.ReplaceOperatingHours)
	r.Post("/phone-numbers/{phoneID}/set-primary", h.SetPrimary)
	r.Get("/phone-numbers/{phoneID}/agent-config", h.GetAgentConfig)
}

func (h *PhoneSettingsHandler) phoneID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "phoneID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid phone ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *PhoneSettingsHandler) ListPhoneNumbers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	phones, err := h.settings.ListPhones(r.Context(), user.ID)
	if err != nil {
		respondWithDomainError(w, err, "Phone numbers not found")
		return
	}
	dtos := make([]PhoneNumberResponseDTO, 0, len(phones))
	for _, p := range phones {
		dtos = append(dtos, toPhoneNumberDTO(p))
	}
	respondWithJSON(w, http.StatusOK, ListPhoneNumbersResponseDTO{Success: true, Data: dtos})
}

func (h *PhoneSettingsHandler) GetVoiceSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	phoneID, ok := h.phoneID(w, r)
	if !ok {
		return
	}

	settings, err := h.settings.GetPhoneVoiceSettings(r.Context(), user.ID, phoneID)
	if err != nil {
		respondWithDomainError(w, err, "Phone number not found")
		return
	}
	respondWithJSON(w, http.StatusOK, SettingsResponseDTO{Success: true, Data: settings, PhoneID: phoneID.String()})
}

func (h *PhoneSettingsHandler) UpdateVoiceSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	phoneID, ok := h.phoneID(w, r)
	if !ok {
		return
	}

	var reqDTO UpdateVoiceSettingsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	settings, realTime, err := h.settings.UpdatePhoneVoiceSettings(r.Context(), user.ID, phoneID, reqDTO.toPatch())
	if err != nil {
		respondWithDomainError(w, err, "Phone number not found")
		return
	}
	respondWithJSON(w, http.StatusOK, UpdateResponseDTO{
		Success:        true,
		Data:           settings,
		Message:        "Voice settings updated",
		RealTimeUpdate: realTime,
		PhoneID:        phoneID.String(),
	})
}

func (h *PhoneSettingsHandler) GetConversationRules(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	phoneID, ok := h.phoneID(w, r)
	if !ok {
		return
	}

	rules, err := h.settings.GetPhoneConversationRules(r.Context(), user.ID, phoneID)
	if err != nil {
		respondWithDomainError(w, err, "Phone number not found")
		return
	}
	respondWithJSON(w, http.StatusOK, SettingsResponseDTO{Success: true, Data: rules, PhoneID: phoneID.String()})
}

func (h *PhoneSettingsHandler) UpdateConversationRules(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	phoneID, ok := h.phoneID(w, r)
	if !ok {
		return
	}

	var reqDTO UpdateConversationRulesRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	rules, realTime, err := h.settings.UpdatePhoneConversationRules(r.Context(), user.ID, phoneID, reqDTO.toPatch())
	if err != nil {
		respondWithDomainError(w, err, "Phone number not found")
		return
	}
	respondWithJSON(w, http.StatusOK, UpdateResponseDTO{
		Success:        true,
		Data:           rules,
		Message:        "Conversation rules updated",
		RealTimeUpdate: realTime,
		PhoneID:        phoneID.String(),
	})
}

func (h *PhoneSettingsHandler) GetOperatingHours(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	phoneID, ok := h.phoneID(w, r)
	if !ok {
		return
	}

	hours, timezone, err := h.settings.GetPhoneOperatingHours(r.Context(), user.ID, phoneID)
	if err != nil {
		respondWithDomainError(w, err, "Phone number not found")
		return
	}
	respondWithJSON(w, http.StatusOK, SettingsResponseDTO{
		Success: true,
		Data:    map[string]any{"operatingHours": hours, "timezone": timezone},
		PhoneID: phoneID.String(),
	})
}

func (h *PhoneSettingsHandler) ReplaceOperatingHours(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	phoneID, ok := h.phoneID(w, r)
	if !ok {
		return
	}

	var reqDTO ReplaceOperatingHoursRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Operating hours are required")
		return
	}

	hours, realTime, err := h.settings.ReplaceOperatingHours(r.Context(), user.ID, phoneID, reqDTO.toDomain())
	if err != nil {
		respondWithDomainError(w, err, "Phone number not found")
		return
	}
	respondWithJSON(w, http.StatusOK, UpdateResponseDTO{
		Success:        true,
		Data:           map[string]any{"operatingHours": hours},
		Message:        "Operating hours updated",
		RealTimeUpdate: realTime,
		PhoneID:        phoneID.String(),
	})
}

func (h *PhoneSettingsHandler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	phoneID, ok := h.phoneID(w, r)
	if !ok {
		return
	}

	phone, realTime, err := h.settings.SetPrimaryPhone(r.Context(), user.ID, phoneID)
	if err != nil {
		respondWithDomainError(w, err, "Phone number not found")
		return
	}
	respondWithJSON(w, http.StatusOK, UpdateResponseDTO{
		Success:        true,
		Data:           toPhoneNumberDTO(phone),
		Message:        "Primary phone number updated",
		RealTimeUpdate: realTime,
		PhoneID:        phoneID.String(),
	})
}

func (h *PhoneSettingsHandler) GetAgentConfig(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	phoneID, ok := h.phoneID(w, r)
	if !ok {
		return
	}

	config, err := h.settings.GetAgentConfig(r.Context(), user.ID, phoneID)
	if err != nil {
		respondWithDomainError(w, err, "Phone number not found")
		return
	}
	respondWithJSON(w, http.StatusOK, SettingsResponseDTO{Success: true, Data: config, PhoneID: phoneID.String()})
}
