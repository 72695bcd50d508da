// Package exporttoken issues stateless, time-limited capability tokens that
// grant access to one resource's export without a session.
//
// A token is an HS256 JWT whose subject is the resource id, whose "st" claim is
// a digest of the resource's current state and whose audience is the signer's
// salt. The signing key is derived with HKDF from the application secret and
// that salt, so tokens from signers with different salts never verify against
// each other. A state change silently invalidates issued tokens.
//
// The window is enforced from "iat" by the verifier, so shortening it also
// shortens tokens already handed out.
package exporttoken

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// ExportApplicantsSalt separates applicant export tokens from every other signer.
const ExportApplicantsSalt = "practica.ExportApplicantToken"

const keyInfo = "practica export token v1"

type Signer interface {
	Sign(id, state string, ts time.Time) (string, error)
	Verify(id, state, token string) bool
}

// Resource is anything a token can be issued for.
type Resource interface {
	ExportID() string
	ExportState() string
}

type claims struct {
	State string `json:"st"`
	jwt.RegisteredClaims
}

type HMACSigner struct {
	key      []byte
	audience string
	window   time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

var _ Signer = (*HMACSigner)(nil)

type Option func(*HMACSigner)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *HMACSigner) { s.now = now }
}

// NewHMACSigner derives a signing key from secret and salt. Tokens verify
// for window after they were issued.
func NewHMACSigner(secret []byte, salt string, window time.Duration, opts ...Option) (*HMACSigner, error) {
	if len(secret) == 0 {
		return nil, errors.New("exporttoken: empty secret")
	}
	if salt == "" {
		return nil, errors.New("exporttoken: empty salt")
	}
	if window <= 0 {
		return nil, fmt.Errorf("exporttoken: window must be positive, got %s", window)
	}

	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, []byte(salt), []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("exporttoken: derive key: %w", err)
	}

	s := &HMACSigner{key: key, audience: salt, window: window, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(salt),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	return s, nil
}

func stateDigest(state string) string {
	sum := sha256.Sum256([]byte(state))
	return hex.EncodeToString(sum[:16])
}

func (s *HMACSigner) claims(id, state string, ts time.Time) claims {
	return claims{
		State: stateDigest(state),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id,
			Audience: jwt.ClaimStrings{s.audience},
			IssuedAt: jwt.NewNumericDate(ts),
		},
	}
}

// Sign returns the token for (id, state) issued at ts.
func (s *HMACSigner) Sign(id, state string, ts time.Time) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, s.claims(id, state, ts)).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("exporttoken: sign: %w", err)
	}
	return token, nil
}

// Verify accepts token if it was signed for (id, state) no longer than the
// window ago and not in the future.
func (s *HMACSigner) Verify(id, state, token string) bool {
	var c claims
	parsed, err := s.parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil || !parsed.Valid {
		return false
	}
	if c.Subject != id || c.IssuedAt == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(c.State), []byte(stateDigest(state))) != 1 {
		return false
	}

	age := s.now().Sub(c.IssuedAt.Time)
	return age >= 0 && age <= s.window
}

func (s *HMACSigner) Window() time.Duration {
	return s.window
}

// Issue signs r as of now.
func Issue(s Signer, r Resource, now time.Time) (string, error) {
	return s.Sign(r.ExportID(), r.ExportState(), now)
}

// Check verifies token against r's current state.
func Check(s Signer, r Resource, token string) bool {
	return s.Verify(r.ExportID(), r.ExportState(), token)
}
