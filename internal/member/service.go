package member

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phoenix-club/membership-core/internal/member/entity"
)

// Store is the member persistence surface the login flow depends on.
type Store interface {
	UpsertLoginCode(ctx context.Context, email, code string, expiresAt time.Time) (int64, error)
	ConsumeLoginCode(ctx context.Context, email, code string, now time.Time) (*entity.LoginView, error)
}

// Notifier delivers login codes out of band. Delivery runs after the
// store write and outside any transaction; a stalled notifier never holds
// a store operation open.
type Notifier interface {
	SendLoginCode(ctx context.Context, email, code string) error
}

// TokenIssuer signs the session credential returned on a verified login.
type TokenIssuer interface {
	Issue(subjectID int64) (string, error)
}

var (
	ErrInvalidEmail     = errors.New("valid email address is required")
	ErrInvalidRequest   = errors.New("valid email and code are required")
	ErrInvalidOrExpired = errors.New("invalid or expired code")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Config holds the login-code knobs.
type Config struct {
	CodeDigits int
	CodeTTL    time.Duration
	// StrictDelivery makes Issue surface notifier failures. The stored
	// code stays valid either way; the store write is never rolled back
	// on delivery failure.
	StrictDelivery bool
}

// ConfigFromEnv reads login config from environment variables.
func ConfigFromEnv() Config {
	cfg := Config{CodeDigits: 6, CodeTTL: 15 * time.Minute}
	if v := os.Getenv("LOGIN_CODE_DIGITS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CodeDigits = n
		}
	}
	if v := os.Getenv("LOGIN_CODE_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CodeTTL = time.Duration(n) * time.Minute
		}
	}
	cfg.StrictDelivery = os.Getenv("LOGIN_CODE_STRICT_DELIVERY") == "1"
	return cfg
}

// Service orchestrates the one-time-code login flow: issuance on one
// side, verification and token exchange on the other.
type Service struct {
	store    Store
	notifier Notifier
	tokens   TokenIssuer
	cfg      Config
	logger   *zap.SugaredLogger
}

func NewService(store Store, notifier Notifier, tokens TokenIssuer, cfg Config, logger *zap.SugaredLogger) *Service {
	if cfg.CodeDigits <= 0 {
		cfg.CodeDigits = 6
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 15 * time.Minute
	}
	return &Service{store: store, notifier: notifier, tokens: tokens, cfg: cfg, logger: logger}
}

// Issue generates a fresh numeric code for the email, stores it with its
// expiry and triggers delivery. A prior outstanding code for the address
// is invalidated by the overwrite.
func (s *Service) Issue(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}

	code, err := generateCode(s.cfg.CodeDigits)
	if err != nil {
		return fmt.Errorf("generate login code: %w", err)
	}
	expiresAt := time.Now().Add(s.cfg.CodeTTL)

	id, err := s.store.UpsertLoginCode(ctx, email, code, expiresAt)
	if err != nil {
		return fmt.Errorf("store login code: %w", err)
	}

	if err := s.notifier.SendLoginCode(ctx, email, code); err != nil {
		if s.cfg.StrictDelivery {
			return fmt.Errorf("deliver login code: %w", err)
		}
		// The stored code remains valid until expiry; a resend or the
		// original code can still complete the login.
		s.logger.Warnw("login code delivery failed", "member_id", id, "error", err)
	}
	return nil
}

// VerifiedLogin is the successful outcome of a code verification.
type VerifiedLogin struct {
	Token    string
	Projects []string
}

// Verify checks a submitted code and exchanges it for a session token.
// Match, expiry check and clearing happen in one atomic store operation,
// so a code can never be replayed and never matched after a concurrent
// re-issue overwrote it. Wrong code, expired code and unknown email all
// surface as ErrInvalidOrExpired.
func (s *Service) Verify(ctx context.Context, email, code string) (*VerifiedLogin, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if code == "" || !emailPattern.MatchString(email) {
		return nil, ErrInvalidRequest
	}

	view, err := s.store.ConsumeLoginCode(ctx, email, code, time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidOrExpired
		}
		return nil, fmt.Errorf("consume login code: %w", err)
	}

	// Fail closed: the code is already cleared, but no credential leaves
	// this function unless signing succeeds.
	token, err := s.tokens.Issue(view.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	return &VerifiedLogin{Token: token, Projects: view.Projects()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateCode draws a uniform fixed-width numeric code from crypto/rand,
// leading zeros preserved.
func generateCode(digits int) (string, error) {
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
