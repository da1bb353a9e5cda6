package handler

import (
	"net/http"

	"club-api/internal/container"
	"club-api/internal/domain"
	"club-api/internal/middleware"
	"club-api/internal/service"
	"club-api/pkg/logger"
)

// AuthHandler handles registration, login and the current user
type AuthHandler struct {
	auth   service.AuthService
	logger *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(container *container.Container) *AuthHandler {
	return &AuthHandler{
		auth:   container.GetAuthService(),
		logger: container.GetLogger(),
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	req.ClientIP = middleware.ClientIP(r)
	resp, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.GetUser(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
