package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"newsmarker/internal/core"
)

// Handler provides authentication HTTP handlers
type Handler struct {
	service *Service
	logger  *core.Logger
}

// NewHandler creates a new authentication handler
func NewHandler(service *Service, logger *core.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterHandler handles POST /auth/register
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.HandleError(w, core.NewInvalidInputError("Invalid request body", err))
		return
	}
	if err := core.ValidateStruct(req); err != nil {
		core.HandleError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			core.HandleError(w, core.NewAlreadyExistsError("An account with this email already exists", err))
			return
		}
		h.logger.WithContext(r.Context()).Error("Registration failed", "error", err)
		core.HandleError(w, core.NewInternalError("Registration failed", err))
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user, "Account created")
}

// LoginHandler handles POST /auth/login
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.HandleError(w, core.NewInvalidInputError("Invalid request body", err))
		return
	}
	if err := core.ValidateStruct(req); err != nil {
		core.HandleError(w, err)
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.HandleError(w, core.NewUnauthenticatedError("Invalid email or password"))
			return
		}
		h.logger.WithContext(r.Context()).Error("Authentication error", "error", err)
		core.HandleError(w, core.NewInternalError("Authentication failed", err))
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user, "")
}

// MeHandler handles GET /auth/me
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			core.HandleError(w, core.NewNotFoundError("Profile not found", err))
			return
		}
		h.logger.WithContext(r.Context()).WithUser(userID).Error("Failed to load profile", "error", err)
		core.HandleError(w, core.NewInternalError("Failed to load profile", err))
		return
	}

	core.WriteSuccess(w, http.StatusOK, user, "")
}

func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *User, message string) {
	token, err := h.service.CreateAuthenticationToken(user)
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to create token", "error", err)
		core.HandleError(w, core.NewInternalError("Failed to create token", err))
		return
	}

	core.WriteSuccess(w, status, AuthResponse{User: user, Token: token}, message)
}
