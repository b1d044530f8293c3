package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phoenix-club/membership-core/internal/application/entity"
)

type fakeAppStore struct {
	created []*entity.Application
	err     error
}

func (s *fakeAppStore) Create(_ context.Context, a *entity.Application) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, a)
	return nil
}

func (s *fakeAppStore) List(context.Context, int, int) ([]*entity.Application, error) {
	return s.created, nil
}

type fakeWebhook struct {
	notified []*entity.Application
	err      error
}

func (w *fakeWebhook) NotifyNewApplication(_ context.Context, a *entity.Application) error {
	if w.err != nil {
		return w.err
	}
	w.notified = append(w.notified, a)
	return nil
}

func validInput() *SubmitInput {
	return &SubmitInput{
		Email:           "a@b.com",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		School:          "Example High",
		Class:           "11A",
		Birthdate:       "2008-03-14",
		Phone:           "+3612345678",
		DiscordUsername: "ada#0001",
		StudentID:       "S-123",
		Superpowers:     "math",
	}
}

func TestSubmitMissingFields(t *testing.T) {
	store := &fakeAppStore{}
	svc := NewService(store, &fakeWebhook{}, zap.NewNop().Sugar())

	in := validInput()
	in.Email = ""
	in.Phone = ""
	_, err := svc.Submit(context.Background(), in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"email", "phone"}, verr.Fields)
	assert.Empty(t, store.created, "nothing persisted on validation failure")
}

func TestSubmitRejectsBadBirthdate(t *testing.T) {
	svc := NewService(&fakeAppStore{}, &fakeWebhook{}, zap.NewNop().Sugar())
	in := validInput()
	in.Birthdate = "14/03/2008"

	_, err := svc.Submit(context.Background(), in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"birthdate"}, verr.Fields)
}

func TestSubmitPersistsThenNotifies(t *testing.T) {
	store := &fakeAppStore{}
	webhook := &fakeWebhook{}
	svc := NewService(store, webhook, zap.NewNop().Sugar())

	app, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, app.ID)
	require.Len(t, store.created, 1)
	require.Len(t, webhook.notified, 1)
	assert.Same(t, store.created[0], webhook.notified[0])
}

func TestSubmitToleratesWebhookFailure(t *testing.T) {
	store := &fakeAppStore{}
	webhook := &fakeWebhook{err: errors.New("discord down")}
	svc := NewService(store, webhook, zap.NewNop().Sugar())

	app, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err, "submission succeeds even when the webhook fails")
	assert.Len(t, store.created, 1)
	assert.NotEmpty(t, app.ID)
}

func TestSubmitStoreFailure(t *testing.T) {
	store := &fakeAppStore{err: errors.New("db down")}
	webhook := &fakeWebhook{}
	svc := NewService(store, webhook, zap.NewNop().Sugar())

	_, err := svc.Submit(context.Background(), validInput())
	require.Error(t, err)
	assert.Empty(t, webhook.notified, "no notification without a persisted row")
}
