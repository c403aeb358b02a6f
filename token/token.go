package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned for any credential that cannot be accepted:
// malformed, expired, wrongly signed, or missing claims. Callers fail closed
// on it; the distinction between causes is never surfaced.
var ErrInvalid = errors.New("persistent credential not accepted")

// Config tunes the codec.
type Config struct {
	// Validity is how long an issued credential stays valid.
	Validity time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Manager issues and parses persistent credentials.
type Manager struct {
	validity time.Duration
	now      func() time.Time
}

type persistClaims struct {
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// NewManager creates a credential Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Validity <= 0 {
		return nil, errors.New("invalid validity configuration")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{validity: cfg.Validity, now: now}, nil
}

// Issue mints a credential for username carrying fingerprint, signed with
// key. It returns the encoded token and its expiry.
func (m *Manager) Issue(key []byte, username, fingerprint string) (string, time.Time, error) {
	if len(key) == 0 {
		return "", time.Time{}, errors.New("empty signing key")
	}
	if username == "" || fingerprint == "" {
		return "", time.Time{}, errors.New("username and fingerprint are required")
	}

	issued := m.now()
	expires := issued.Add(m.validity)
	claims := persistClaims{
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return raw, expires, nil
}

// Parse validates raw against key and returns the embedded username and
// fingerprint. Every failure maps to [ErrInvalid].
func (m *Manager) Parse(key []byte, raw string) (username, fingerprint string, err error) {
	if len(key) == 0 || raw == "" {
		return "", "", ErrInvalid
	}

	claims := &persistClaims{}
	_, err = jwt.ParseWithClaims(
		raw,
		claims,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", "", ErrInvalid
	}
	if claims.Subject == "" || claims.Fingerprint == "" {
		return "", "", ErrInvalid
	}
	return claims.Subject, claims.Fingerprint, nil
}
