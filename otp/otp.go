// Package otp issues and checks the one-time numeric codes used to prove
// control of an email address.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"time"
)

const (
	// DefaultTTL is how long an issued code stays valid.
	DefaultTTL = 10 * time.Minute

	codeFloor = 100000
	codeSpan  = 900000
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Secret is what gets persisted for an issued code: never the code itself.
type Secret struct {
	Digest string
	Expiry time.Time
}

type Service struct {
	clock  Clock
	ttl    time.Duration
	random io.Reader
}

type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithRandom replaces the entropy source. Tests only.
func WithRandom(r io.Reader) Option {
	return func(s *Service) { s.random = r }
}

func NewService(opts ...Option) *Service {
	s := &Service{clock: SystemClock{}, ttl: DefaultTTL, random: rand.Reader}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) TTL() time.Duration { return s.ttl }

// Generate draws a uniformly distributed six digit code.
func (s *Service) Generate() (string, error) {
	n, err := rand.Int(s.random, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("otp: generate: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeFloor), nil
}

// Issue digests code and stamps its expiry.
func (s *Service) Issue(code string) Secret {
	return Secret{Digest: Digest(code), Expiry: s.clock.Now().Add(s.ttl)}
}

// Verify is true iff code digests to digest and the expiry has not been reached.
func (s *Service) Verify(code, digest string, expiry time.Time) bool {
	if code == "" || digest == "" || expiry.IsZero() {
		return false
	}
	if !s.clock.Now().Before(expiry) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Digest(code)), []byte(digest)) == 1
}

// IssuedWithin reports whether the secret expiring at expiry was issued less
// than d ago.
func (s *Service) IssuedWithin(expiry time.Time, d time.Duration) bool {
	if expiry.IsZero() {
		return false
	}
	return s.clock.Now().Before(expiry.Add(d - s.ttl))
}

// Digest is the hex SHA-256 of code.
func Digest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
