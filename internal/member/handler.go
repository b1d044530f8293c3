package member

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// LoginService is the surface the HTTP layer needs from the login flow.
type LoginService interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (*VerifiedLogin, error)
}

// Handler exposes the login endpoints.
type Handler struct {
	svc    LoginService
	logger *zap.SugaredLogger
}

func NewHandler(svc LoginService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type initiateLoginRequest struct {
	Email string `json:"email"`
}

type verifyLoginRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type verifyLoginResponse struct {
	Success  bool     `json:"success"`
	Token    string   `json:"token"`
	Projects []string `json:"projects"`
}

// InitiateLogin handles POST /api/auth/initiate-login.
func (h *Handler) InitiateLogin(w http.ResponseWriter, r *http.Request) {
	var req initiateLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Success: false, Message: "invalid request body"})
		return
	}

	switch err := h.svc.Issue(r.Context(), req.Email); {
	case err == nil:
		writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "Verification code sent to email"})
	case errors.Is(err, ErrInvalidEmail):
		writeJSON(w, http.StatusBadRequest, statusResponse{Success: false, Message: "Valid email address is required"})
	default:
		h.logger.Errorw("login initiation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Success: false, Message: "Failed to initiate login"})
	}
}

// VerifyLogin handles POST /api/auth/verify-login.
func (h *Handler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	var req verifyLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Success: false, Message: "invalid request body"})
		return
	}

	result, err := h.svc.Verify(r.Context(), req.Email, req.Code)
	switch {
	case err == nil:
		projects := result.Projects
		if projects == nil {
			projects = []string{}
		}
		writeJSON(w, http.StatusOK, verifyLoginResponse{Success: true, Token: result.Token, Projects: projects})
	case errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrInvalidEmail):
		writeJSON(w, http.StatusBadRequest, statusResponse{Success: false, Message: "Valid email and code are required"})
	case errors.Is(err, ErrInvalidOrExpired):
		writeJSON(w, http.StatusUnauthorized, statusResponse{Success: false, Message: "Invalid or expired code"})
	default:
		h.logger.Errorw("login verification failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Success: false, Message: "Login verification failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
