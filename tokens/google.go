package tokens

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/postboard/apiv1/utils"
	"golang.org/x/sync/singleflight"
)

const DefaultGoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// ErrKeySetUnavailable means the signing keys could not be fetched. It says
// nothing about the token itself.
var ErrKeySetUnavailable = errors.New("key set unavailable")

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

func isGoogleIssuer(iss string) bool {
	for _, g := range googleIssuers {
		if iss == g {
			return true
		}
	}
	return false
}

// KeySet resolves RSA public keys by key id.
type KeySet interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

type GoogleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

type GoogleVerifier struct {
	clientID string
	keys     KeySet
	now      func() time.Time
}

func NewGoogleVerifier(clientID string, keys KeySet, opts ...GoogleOption) *GoogleVerifier {
	g := &GoogleVerifier{clientID: clientID, keys: keys, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type GoogleOption func(*GoogleVerifier)

func WithGoogleClock(now func() time.Time) GoogleOption {
	return func(g *GoogleVerifier) {
		g.now = now
	}
}

// Verify checks signature, audience, issuer and expiry of a Google ID token.
func (g *GoogleVerifier) Verify(ctx context.Context, tokenString string) (*GoogleClaims, error) {
	claims := &GoogleClaims{}
	var keyErr error
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, err := g.keys.Key(ctx, kid)
		keyErr = err
		return key, err
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(g.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		if errors.Is(keyErr, ErrKeySetUnavailable) {
			return nil, fmt.Errorf("verify google token: %w", keyErr)
		}
		return nil, fmt.Errorf("%w: %w", utils.ErrInvalidToken, err)
	}
	if !isGoogleIssuer(claims.Issuer) {
		return nil, fmt.Errorf("%w: issuer %q", utils.ErrInvalidToken, claims.Issuer)
	}
	return claims, nil
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is a KeySet fetched over HTTP and cached for the max-age the server
// announces.
type JWKS struct {
	url    string
	client *http.Client
	now    func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	fetchedAt time.Time
}

const (
	defaultJWKSMaxAge   = time.Hour
	minJWKSRefreshDelay = time.Minute
)

// NewJWKS fetches keys from url, or from Google's key set when url is empty.
func NewJWKS(url string, client *http.Client) *JWKS {
	if url == "" {
		url = DefaultGoogleJWKSURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &JWKS{url: url, client: client, now: time.Now}
}

func (j *JWKS) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	now := j.now()

	j.mu.Lock()
	key, ok := j.keys[kid]
	// an unknown kid may mean Google rotated keys; refetch at most once a minute
	stale := now.After(j.expiresAt) || (!ok && now.Sub(j.fetchedAt) >= minJWKSRefreshDelay)
	j.mu.Unlock()

	if stale {
		// concurrent callers share one fetch, which outlives any single caller
		fetchCtx := context.WithoutCancel(ctx)
		if _, err, _ := j.group.Do("keys", func() (any, error) {
			return nil, j.refresh(fetchCtx, now)
		}); err != nil {
			return nil, err
		}

		j.mu.Lock()
		key, ok = j.keys[kid]
		j.mu.Unlock()
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown key id %q", utils.ErrInvalidToken, kid)
	}
	return key, nil
}

func (j *JWKS) refresh(ctx context.Context, now time.Time) error {
	keys, ttl, err := j.fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeySetUnavailable, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.keys = keys
	j.fetchedAt = now
	j.expiresAt = now.Add(ttl)
	return nil
}

func (j *JWKS) fetch(ctx context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := j.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var body struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, 0, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(body.Keys))
	for _, k := range body.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAKey(k)
		if err != nil {
			return nil, 0, fmt.Errorf("jwks key %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	return keys, maxAge(resp.Header.Get("Cache-Control")), nil
}

func parseRSAKey(k jwk) (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	exp := new(big.Int).SetBytes(e)
	if !exp.IsInt64() || exp.Int64() <= 1 {
		return nil, errors.New("bad exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}, nil
}

func maxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return defaultJWKSMaxAge
}
