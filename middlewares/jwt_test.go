package middlewares

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/postboard/apiv1/logging"
	"github.com/postboard/apiv1/tokens"
	"github.com/postboard/apiv1/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifierFunc func(ctx context.Context, token string) (tokens.Identity, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (tokens.Identity, error) {
	return f(ctx, token)
}

func TestGetTokenFromAuthorizationHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "bearer", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "empty", header: "", wantErr: true},
		{name: "scheme only", header: "Bearer", wantErr: true},
		{name: "scheme and space", header: "Bearer   ", wantErr: true},
		{name: "basic", header: "Basic dXNlcjpwYXNz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetTokenFromAuthorizationHeader(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, utils.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAccessTokenAuthorized(t *testing.T) {
	tm := tokens.NewManager([]byte("secret"), "postboard", time.Hour)
	valid, err := tm.Issue("user-1", "u@example.com")
	require.NoError(t, err)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		verifier   Verifier
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "valid token", verifier: tm, header: "Bearer " + valid, wantStatus: http.StatusNoContent, wantUser: "user-1"},
		{name: "missing header", verifier: tm, wantStatus: http.StatusUnauthorized},
		{name: "no token", verifier: tm, header: "Bearer", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", verifier: tm, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{
			name: "verifier failure",
			verifier: verifierFunc(func(context.Context, string) (tokens.Identity, error) {
				return tokens.Identity{}, errors.New("key set unavailable")
			}),
			header:     "Bearer x",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "wrapped invalid token",
			verifier: verifierFunc(func(context.Context, string) (tokens.Identity, error) {
				return tokens.Identity{}, fmt.Errorf("%w: expired", utils.ErrInvalidToken)
			}),
			header:     "Bearer x",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			h := IsAccessTokenAuthorized(tt.verifier, logging.Discard())(next)

			req := httptest.NewRequest(http.MethodPost, "/posts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, seen)
			if rec.Code >= http.StatusBadRequest {
				var body utils.MessageResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.NotEmpty(t, body.Message)
			}
		})
	}
}

func TestIdentityFromContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)
	assert.Empty(t, UserIDFromContext(context.Background()))

	ctx := WithIdentity(context.Background(), tokens.Identity{Subject: "s", Provider: tokens.ProviderGoogle})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, tokens.ProviderGoogle, id.Provider)
	assert.Equal(t, "s", UserIDFromContext(ctx))
}

func TestIsAccessTokenAuthorized_KeySetUnavailable(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwksSrv := httptest.NewServer(http.NotFoundHandler())
	jwksURL := jwksSrv.URL
	jwksSrv.Close()

	google := tokens.NewGoogleVerifier("client-id", tokens.NewJWKS(jwksURL, nil))
	tm := tokens.NewManager([]byte("secret"), "postboard", time.Hour, tokens.WithGoogle(google))

	idToken := jwt.NewWithClaims(jwt.SigningMethodRS256, tokens.GoogleClaims{
		Email:         "g@example.com",
		EmailVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   "1098765",
			Audience:  jwt.ClaimStrings{"client-id"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	idToken.Header["kid"] = "k1"
	signed, err := idToken.SignedString(key)
	require.NoError(t, err)

	h := IsAccessTokenAuthorized(tm, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodPost, "/posts", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
