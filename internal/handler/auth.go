package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/librarydesk/internal/security/middleware"
	"github.com/aryan0dhankhar/librarydesk/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// LoginRequest carries an email or library id plus password
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.logger.Info("registration failed", slog.String("library_id", req.LibraryID), slog.String("reason", err.Error()))
		writeError(w, h.logger, err)
		return
	}

	resp := toUserResponse(user)
	resp.ID = 0
	writeSuccess(w, "User registered successfully", resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, "Login successful", result)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeFailure(w, http.StatusUnauthorized, middleware.MsgUnauthorized)
		return
	}

	user, err := h.authService.Me(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, "Profile fetched successfully", toUserResponse(user))
}
