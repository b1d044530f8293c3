package application

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/phoenix-club/membership-core/internal/application/entity"
)

// IntakeService is the surface the HTTP layer needs.
type IntakeService interface {
	Submit(ctx context.Context, in *SubmitInput) (*entity.Application, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Application, error)
}

// Handler exposes application submit/list endpoints.
type Handler struct {
	svc    IntakeService
	logger *zap.SugaredLogger
}

func NewHandler(svc IntakeService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type submitRequest struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	School          string `json:"school"`
	Class           string `json:"class"`
	Birthdate       string `json:"birthdate"`
	Phone           string `json:"phone"`
	DiscordUsername string `json:"discord_username"`
	StudentID       string `json:"student_id"`
	Superpowers     string `json:"superpowers"`
}

type submitResponse struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Application *entity.Application `json:"application,omitempty"`
}

type listResponse struct {
	Success bool                  `json:"success"`
	Data    []*entity.Application `json:"data"`
}

// Submit handles POST /api/applications/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, submitResponse{Success: false, Message: "request body is missing"})
		return
	}

	app, err := h.svc.Submit(r.Context(), &SubmitInput{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		School:          req.School,
		Class:           req.Class,
		Birthdate:       req.Birthdate,
		Phone:           req.Phone,
		DiscordUsername: req.DiscordUsername,
		StudentID:       req.StudentID,
		Superpowers:     req.Superpowers,
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, submitResponse{Success: false, Message: verr.Error()})
			return
		}
		h.logger.Errorw("application submit failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, submitResponse{Success: false, Message: "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{
		Success:     true,
		Message:     "Application submitted successfully",
		Application: app,
	})
}

// List handles GET /api/applications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	apps, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Errorw("application list failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, submitResponse{Success: false, Message: "failed to retrieve applications"})
		return
	}
	if apps == nil {
		apps = []*entity.Application{}
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Data: apps})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
