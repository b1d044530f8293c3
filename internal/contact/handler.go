package contact

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/phoenix-club/membership-core/internal/contact/entity"
	"github.com/phoenix-club/membership-core/pkg/utilities"
)

// Store is the persistence surface for contact submissions.
type Store interface {
	Create(ctx context.Context, s *entity.Submission) error
	List(ctx context.Context, limit, offset int) ([]*entity.Submission, error)
}

// Handler exposes contact submit/list endpoints. The flow is thin enough
// that it talks to the store directly.
type Handler struct {
	store  Store
	logger *zap.SugaredLogger
}

func NewHandler(store Store, logger *zap.SugaredLogger) *Handler {
	return &Handler{store: store, logger: logger}
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type listResponse struct {
	Success bool                 `json:"success"`
	Data    []*entity.Submission `json:"data"`
}

// Submit handles POST /api/contact/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Success: false, Message: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Success: false, Message: "name, email and message are required"})
		return
	}

	sub := &entity.Submission{
		ID:      utilities.NewKSUID(),
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Message: req.Message,
	}
	if err := h.store.Create(r.Context(), sub); err != nil {
		h.logger.Errorw("contact submit failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Success: false, Message: "failed to submit message"})
		return
	}
	writeJSON(w, http.StatusCreated, statusResponse{Success: true, Message: "Message received"})
}

// List handles GET /api/contact.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	subs, err := h.store.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Errorw("contact list failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Success: false, Message: "failed to retrieve messages"})
		return
	}
	if subs == nil {
		subs = []*entity.Submission{}
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Data: subs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
