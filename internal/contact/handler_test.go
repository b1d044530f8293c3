package contact

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phoenix-club/membership-core/internal/contact/entity"
)

type fakeContactStore struct {
	created []*entity.Submission
}

func (s *fakeContactStore) Create(_ context.Context, sub *entity.Submission) error {
	s.created = append(s.created, sub)
	return nil
}

func (s *fakeContactStore) List(context.Context, int, int) ([]*entity.Submission, error) {
	return s.created, nil
}

func TestSubmitStoresMessage(t *testing.T) {
	store := &fakeContactStore{}
	h := NewHandler(store, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodPost, "/api/contact/submit",
		strings.NewReader(`{"name":"Ada","email":"a@b.com","message":"hello"}`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	assert.NotEmpty(t, store.created[0].ID)
	assert.Equal(t, "hello", store.created[0].Message)
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	store := &fakeContactStore{}
	h := NewHandler(store, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodPost, "/api/contact/submit",
		strings.NewReader(`{"name":"Ada"}`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.created)
}

func TestListReturnsSubmissions(t *testing.T) {
	store := &fakeContactStore{created: []*entity.Submission{
		{ID: "abc", Name: "Ada", Email: "a@b.com", Message: "hello"},
	}}
	h := NewHandler(store, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "abc", resp.Data[0].ID)
}
