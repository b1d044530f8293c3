package member

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phoenix-club/membership-core/internal/member/entity"
	"github.com/phoenix-club/membership-core/internal/token"
)

type storedMember struct {
	id       int64
	code     string
	expires  time.Time
	projects string
}

// fakeStore mimics the compare-and-clear semantics of the real repo.
type fakeStore struct {
	mu         sync.Mutex
	rows       map[string]*storedMember
	nextID     int64
	upserts    int
	consumeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]*storedMember{}}
}

func (s *fakeStore) UpsertLoginCode(_ context.Context, email, code string, expiresAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	m, ok := s.rows[email]
	if !ok {
		s.nextID++
		m = &storedMember{id: s.nextID, projects: "[]"}
		s.rows[email] = m
	}
	m.code = code
	m.expires = expiresAt
	return m.id, nil
}

func (s *fakeStore) ConsumeLoginCode(_ context.Context, email, code string, now time.Time) (*entity.LoginView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumeErr != nil {
		return nil, s.consumeErr
	}
	m, ok := s.rows[email]
	if !ok || m.code == "" || m.code != code || !m.expires.After(now) {
		return nil, sql.ErrNoRows
	}
	m.code = ""
	m.expires = time.Time{}
	return &entity.LoginView{ID: m.id, Email: email, Role: "member", ProjectsRaw: m.projects}, nil
}

func (s *fakeStore) stored(email string) *storedMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[email]
}

type fakeNotifier struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (n *fakeNotifier) SendLoginCode(_ context.Context, _, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.codes = append(n.codes, code)
	return nil
}

func (n *fakeNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.codes) == 0 {
		return ""
	}
	return n.codes[len(n.codes)-1]
}

func newTestService(t *testing.T, store Store, notifier Notifier, cfg Config) *Service {
	t.Helper()
	issuer, err := token.NewIssuer(token.Config{Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)
	return NewService(store, notifier, issuer, cfg, zap.NewNop().Sugar())
}

func TestIssueRejectsInvalidEmail(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(t, store, notifier, Config{})

	err := svc.Issue(context.Background(), "not-an-email")
	require.ErrorIs(t, err, ErrInvalidEmail)
	assert.Zero(t, store.upserts, "no store mutation on invalid email")
	assert.Empty(t, notifier.codes, "no delivery on invalid email")
}

func TestIssueStoresAndDeliversCode(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(t, store, notifier, Config{CodeDigits: 6, CodeTTL: 15 * time.Minute})

	before := time.Now()
	require.NoError(t, svc.Issue(context.Background(), "a@b.com"))

	m := store.stored("a@b.com")
	require.NotNil(t, m)
	assert.Len(t, m.code, 6)
	for _, c := range m.code {
		assert.True(t, c >= '0' && c <= '9', "code must be numeric")
	}
	assert.Equal(t, m.code, notifier.last(), "delivered code matches stored code")

	ttl := m.expires.Sub(before)
	assert.InDelta(t, (15 * time.Minute).Seconds(), ttl.Seconds(), 5)
}

func TestIssueNormalizesEmailCase(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &fakeNotifier{}, Config{})

	require.NoError(t, svc.Issue(context.Background(), "  A@B.Com "))
	assert.NotNil(t, store.stored("a@b.com"))
}

func TestReissueInvalidatesPriorCode(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(t, store, notifier, Config{})

	require.NoError(t, svc.Issue(context.Background(), "a@b.com"))
	first := notifier.last()
	require.NoError(t, svc.Issue(context.Background(), "a@b.com"))
	second := notifier.last()

	assert.Equal(t, second, store.stored("a@b.com").code, "last-issued code is the stored one")
	if first != second {
		_, err := svc.Verify(context.Background(), "a@b.com", first)
		assert.ErrorIs(t, err, ErrInvalidOrExpired, "the replaced code must no longer verify")
	}
	result, err := svc.Verify(context.Background(), "a@b.com", second)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestVerifySingleUse(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(t, store, notifier, Config{})

	require.NoError(t, svc.Issue(context.Background(), "a@b.com"))
	code := notifier.last()

	result, err := svc.Verify(context.Background(), "a@b.com", code)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, []string{}, result.Projects)
	assert.Empty(t, store.stored("a@b.com").code, "code cleared after use")

	_, err = svc.Verify(context.Background(), "a@b.com", code)
	assert.ErrorIs(t, err, ErrInvalidOrExpired, "a consumed code cannot be replayed")
}

func TestVerifyExpiredCode(t *testing.T) {
	store := newFakeStore()
	store.rows["a@b.com"] = &storedMember{id: 1, code: "123456", expires: time.Now().Add(-time.Minute), projects: "[]"}
	svc := newTestService(t, store, &fakeNotifier{}, Config{})

	_, err := svc.Verify(context.Background(), "a@b.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestVerifyUnknownEmailIndistinguishable(t *testing.T) {
	store := newFakeStore()
	store.rows["a@b.com"] = &storedMember{id: 1, code: "123456", expires: time.Now().Add(time.Minute), projects: "[]"}
	svc := newTestService(t, store, &fakeNotifier{}, Config{})

	_, unknownErr := svc.Verify(context.Background(), "unknown@x.com", "123456")
	_, wrongErr := svc.Verify(context.Background(), "a@b.com", "000000")
	assert.ErrorIs(t, unknownErr, ErrInvalidOrExpired)
	assert.Equal(t, wrongErr, unknownErr, "unknown email and wrong code share one error shape")
}

func TestVerifyRejectsMissingInputs(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &fakeNotifier{}, Config{})

	_, err := svc.Verify(context.Background(), "a@b.com", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.Verify(context.Background(), "not-an-email", "123456")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestVerifyStoreFailureFailsClosed(t *testing.T) {
	store := newFakeStore()
	store.rows["a@b.com"] = &storedMember{id: 1, code: "123456", expires: time.Now().Add(time.Minute), projects: "[]"}
	store.consumeErr = errors.New("connection reset")
	svc := newTestService(t, store, &fakeNotifier{}, Config{})

	result, err := svc.Verify(context.Background(), "a@b.com", "123456")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidOrExpired, "store failure is not the client-visible mismatch error")
	assert.Nil(t, result, "no credential on store failure")
}

func TestVerifyDecodesProjects(t *testing.T) {
	store := newFakeStore()
	store.rows["a@b.com"] = &storedMember{
		id: 7, code: "654321", expires: time.Now().Add(time.Minute),
		projects: `["site-v2","sticker-drop"]`,
	}
	svc := newTestService(t, store, &fakeNotifier{}, Config{})

	result, err := svc.Verify(context.Background(), "a@b.com", "654321")
	require.NoError(t, err)
	assert.Equal(t, []string{"site-v2", "sticker-drop"}, result.Projects)
}

func TestIssueDeliveryFailureLenient(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	svc := newTestService(t, store, notifier, Config{})

	require.NoError(t, svc.Issue(context.Background(), "a@b.com"), "lenient policy reports success")
	m := store.stored("a@b.com")
	require.NotNil(t, m)
	assert.NotEmpty(t, m.code, "stored code survives delivery failure")

	_, err := svc.Verify(context.Background(), "a@b.com", m.code)
	assert.NoError(t, err, "undelivered code is still usable")
}

func TestIssueDeliveryFailureStrict(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	svc := newTestService(t, store, notifier, Config{StrictDelivery: true})

	err := svc.Issue(context.Background(), "a@b.com")
	require.Error(t, err)
	m := store.stored("a@b.com")
	require.NotNil(t, m)
	assert.NotEmpty(t, m.code, "store write is never rolled back on delivery failure")
}
