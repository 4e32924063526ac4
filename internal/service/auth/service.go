package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Typed authentication failures. Callers branch on these with errors.Is;
// the raw cause never reaches a response body.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenMalformed     = errors.New("token malformed")
	ErrUnknownSubject     = errors.New("unknown subject")
)

// Service issues and validates HS256-signed bearer tokens against a static
// credential store. The signing secret is fixed for the process lifetime
// and there is no revocation: compromise mitigation is the short TTL.
type Service struct {
	users  map[string]string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates an auth service over the given credential store.
func New(users map[string]string, secret string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue returns a signed token for valid credentials, embedding the username
// as subject and expiry = now + TTL.
func (s *Service) Issue(username, password string) (string, error) {
	stored, ok := s.users[username]
	if !ok {
		// compare against a dummy to keep timing independent of membership
		subtle.ConstantTimeCompare([]byte(password), []byte(password))
		return "", ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature and expiry and returns the embedded subject.
// Expiry on a correctly signed token reports ErrTokenExpired; any structural
// or signature problem reports ErrTokenMalformed; a valid token whose subject
// left the credential store reports ErrUnknownSubject.
func (s *Service) Validate(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	if _, ok := s.users[claims.Subject]; !ok {
		return "", ErrUnknownSubject
	}
	return claims.Subject, nil
}
