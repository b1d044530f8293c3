package token

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds session-token settings.
type Config struct {
	Secret string
	TTL    time.Duration
}

// ConfigFromEnv reads the signing secret and lifetime from env vars.
func ConfigFromEnv() Config {
	cfg := Config{Secret: os.Getenv("JWT_SECRET"), TTL: time.Hour}
	if v := os.Getenv("SESSION_TOKEN_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TTL = time.Duration(n) * time.Minute
		}
	}
	return cfg
}

// Issuer signs short-lived session credentials binding a member identity.
// Stateless; verification is the consumer's concern.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session signing secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Issuer{secret: []byte(cfg.Secret), ttl: cfg.TTL}, nil
}

// Issue signs a session token for the given member id.
func (i *Issuer) Issue(subjectID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(subjectID, 10),
		"iat": now.Unix(),
		"exp": now.Add(i.ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(i.secret)
}
