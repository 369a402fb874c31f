package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	accountapp "github.com/voxdesk/golang_services/internal/account_service/app"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	auth     *accountapp.AuthService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAuthHandler(auth *accountapp.AuthService, logger *slog.Logger, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger, validate: validate}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reqDTO RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	user, business, err := h.auth.Register(r.Context(), reqDTO.Email, reqDTO.Password, reqDTO.Name, reqDTO.BusinessName)
	if err != nil {
		if errors.Is(err, accountapp.ErrEmailExists) {
			respondWithError(w, http.StatusConflict, "Email already registered")
			return
		}
		h.logger.ErrorContext(r.Context(), "Registration failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusCreated, RegisterResponseDTO{
		Success:    true,
		UserID:     user.ID.String(),
		BusinessID: business.ID.String(),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var reqDTO LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	token, expiresAt, err := h.auth.Login(r.Context(), reqDTO.Email, reqDTO.Password)
	if err != nil {
		if errors.Is(err, accountapp.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.logger.ErrorContext(r.Context(), "Login failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponseDTO{AccessToken: token, ExpiresAt: expiresAt})
}
