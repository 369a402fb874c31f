package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voxdesk/golang_services/internal/dashboard_api_service/middleware"
	settingsapp "github.com/voxdesk/golang_services/internal/settings_service/app"
)

// BusinessSettingsHandler serves the business-level voice settings and
// conversation rules endpoints.
type BusinessSettingsHandler struct {
	settings *settingsapp.Application
	logger   *slog.Logger
}

func NewBusinessSettingsHandler(settings *settingsapp.Application, logger *slog.Logger) *BusinessSettingsHandler {
	return &BusinessSettingsHandler{settings: settings, logger: logger}
}

func (h *BusinessSettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/business/voice-settings", h.GetVoiceSettings)
	r.Patch("/business/voice-settings", h.UpdateVoiceSettings)
	r.Get("/business/conversation-rules", h.GetConversationRules)
	r.Patch("/business/conversation-rules", h.UpdateConversationRules)
}

func (h *BusinessSettingsHandler) GetVoiceSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	settings, err := h.settings.GetBusinessVoiceSettings(r.Context(), user.ID)
	if err != nil {
		respondWithDomainError(w, err, "Business profile not found")
		return
	}
	respondWithJSON(w, http.StatusOK, SettingsResponseDTO{Success: true, Data: settings})
}

func (h *BusinessSettingsHandler) UpdateVoiceSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var reqDTO UpdateVoiceSettingsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	settings, realTime, err := h.settings.UpdateBusinessVoiceSettings(r.Context(), user.ID, reqDTO.toPatch())
	if err != nil {
		respondWithDomainError(w, err, "Business profile not found")
		return
	}
	respondWithJSON(w, http.StatusOK, UpdateResponseDTO{
		Success:        true,
		Data:           settings,
		Message:        "Voice settings updated",
		RealTimeUpdate: realTime,
	})
}

func (h *BusinessSettingsHandler) GetConversationRules(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	rules, err := h.settings.GetBusinessConversationRules(r.Context(), user.ID)
	if err != nil {
		respondWithDomainError(w, err, "Business profile not found")
		return
	}
	respondWithJSON(w, http.StatusOK, SettingsResponseDTO{Success: true, Data: rules})
}

func (h *BusinessSettingsHandler) UpdateConversationRules(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var reqDTO UpdateConversationRulesRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	rules, realTime, err := h.settings.UpdateBusinessConversationRules(r.Context(), user.ID, reqDTO.toPatch())
	if err != nil {
		respondWithDomainError(w, err, "Business profile not found")
		return
	}
	respondWithJSON(w, http.StatusOK, UpdateResponseDTO{
		Success:        true,
		Data:           rules,
		Message:        "Conversation rules updated",
		RealTimeUpdate: realTime,
	})
}
