// Package tokens issues and verifies bearer tokens.
//
// Locally issued tokens are HS256 JWTs carrying the configured issuer. Google
// ID tokens are RS256 JWTs verified against Google's published key set. The
// issuer claim decides which verification path a token takes.
package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/postboard/apiv1/utils"
)

type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// Identity is the subject resolved from a verified token.
type Identity struct {
	Subject  string
	Email    string
	Provider Provider
}

// Claims of a locally issued token. ID duplicates Subject for clients that
// read the id claim.
type Claims struct {
	Email string `json:"email"`
	ID    string `json:"id"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	google *GoogleVerifier
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithGoogle enables verification of Google ID tokens. Without it they are
// rejected.
func WithGoogle(g *GoogleVerifier) Option {
	return func(m *Manager) {
		m.google = g
	}
}

// NewManager signs with secret. An empty issuer or non-positive ttl falls back
// to utils.DEFAULT_TOKEN_ISSUER and utils.ACCESS_TOKEN_DURATION.
func NewManager(secret []byte, issuer string, ttl time.Duration, opts ...Option) *Manager {
	if issuer == "" {
		issuer = utils.DEFAULT_TOKEN_ISSUER
	}
	if ttl <= 0 {
		ttl = utils.ACCESS_TOKEN_DURATION
	}
	m := &Manager{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Google() *GoogleVerifier {
	return m.google
}

func (m *Manager) Issue(subjectID, email string) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		ID:    subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

func (m *Manager) Verify(ctx context.Context, tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, utils.ErrInvalidToken
	}

	unverified := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, unverified); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", utils.ErrInvalidToken, err)
	}

	switch {
	case unverified.Issuer == m.issuer:
		return m.verifyLocal(tokenString)
	case isGoogleIssuer(unverified.Issuer):
		if m.google == nil {
			return Identity{}, fmt.Errorf("%w: google tokens are not accepted", utils.ErrInvalidToken)
		}
		claims, err := m.google.Verify(ctx, tokenString)
		if err != nil {
			return Identity{}, err
		}
		return Identity{Subject: claims.Subject, Email: claims.Email, Provider: ProviderGoogle}, nil
	default:
		return Identity{}, fmt.Errorf("%w: unknown issuer %q", utils.ErrInvalidToken, unverified.Issuer)
	}
}

func (m *Manager) verifyLocal(tokenString string) (Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", utils.ErrInvalidToken, err)
	}

	subject := claims.ID
	if subject == "" {
		subject = claims.Subject
	}
	if subject == "" {
		return Identity{}, fmt.Errorf("%w: no subject", utils.ErrInvalidToken)
	}
	return Identity{Subject: subject, Email: claims.Email, Provider: ProviderLocal}, nil
}
