package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phoenix-club/membership-core/internal/application/entity"
	"github.com/phoenix-club/membership-core/pkg/utilities"
)

// Store is the persistence surface the application flow depends on.
type Store interface {
	Create(ctx context.Context, a *entity.Application) error
	List(ctx context.Context, limit, offset int) ([]*entity.Application, error)
}

// Webhook is the outbound notification for newly submitted applications.
type Webhook interface {
	NotifyNewApplication(ctx context.Context, app *entity.Application) error
}

// ValidationError reports which required fields were missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// SubmitInput is the raw application payload before validation.
type SubmitInput struct {
	Email           string
	FirstName       string
	LastName        string
	School          string
	Class           string
	Birthdate       string
	Phone           string
	DiscordUsername string
	StudentID       string
	Superpowers     string
}

// Service handles application intake.
type Service struct {
	store   Store
	webhook Webhook
	logger  *zap.SugaredLogger
}

func NewService(store Store, webhook Webhook, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, webhook: webhook, logger: logger}
}

// Submit validates, persists and announces one application. The webhook
// runs after the row is committed; a delivery failure does not fail the
// submission.
func (s *Service) Submit(ctx context.Context, in *SubmitInput) (*entity.Application, error) {
	required := []struct {
		name, value string
	}{
		{"email", in.Email},
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"school", in.School},
		{"class", in.Class},
		{"birthdate", in.Birthdate},
		{"phone", in.Phone},
		{"discord_username", in.DiscordUsername},
		{"student_id", in.StudentID},
		{"superpowers", in.Superpowers},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	birthdate, err := time.Parse(time.DateOnly, in.Birthdate)
	if err != nil {
		return nil, &ValidationError{Fields: []string{"birthdate"}}
	}

	app := &entity.Application{
		ID:              utilities.NewKSUID(),
		Email:           strings.TrimSpace(in.Email),
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		School:          strings.TrimSpace(in.School),
		Class:           strings.TrimSpace(in.Class),
		Birthdate:       birthdate,
		Phone:           strings.TrimSpace(in.Phone),
		DiscordUsername: strings.TrimSpace(in.DiscordUsername),
		StudentID:       strings.TrimSpace(in.StudentID),
		Superpowers:     in.Superpowers,
		CreatedAt:       time.Now(),
	}
	if err := s.store.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("store application: %w", err)
	}

	if err := s.webhook.NotifyNewApplication(ctx, app); err != nil {
		s.logger.Warnw("application webhook delivery failed", "application_id", app.ID, "error", err)
	}
	return app, nil
}

// List returns applications newest first with a bounded page size.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*entity.Application, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}
