package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/postboard/apiv1/logging"
	"github.com/postboard/apiv1/tokens"
	"github.com/postboard/apiv1/utils"
)

type contextKey int

const identityKey contextKey = iota

// Verifier resolves a bearer token to the identity it was issued for.
type Verifier interface {
	Verify(ctx context.Context, token string) (tokens.Identity, error)
}

func GetTokenFromAuthorizationHeader(authHeader string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", utils.ErrUnauthorized
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", utils.ErrUnauthorized
	}
	return token, nil
}

// IsAccessTokenAuthorized only lets requests with a valid bearer token
// through. The caller's identity is put on the request context.
func IsAccessTokenAuthorized(verifier Verifier, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken, err := GetTokenFromAuthorizationHeader(r.Header.Get("Authorization"))
			if err != nil {
				utils.WriteMessage(w, http.StatusUnauthorized, utils.UNAUTHORIZED_ERROR)
				return
			}

			identity, err := verifier.Verify(r.Context(), accessToken)
			if err != nil {
				if errors.Is(err, utils.ErrInvalidToken) {
					logger.Debug(r.Context(), "rejected bearer token", "error", err)
					utils.WriteMessage(w, http.StatusUnauthorized, utils.UNAUTHORIZED_ERROR)
					return
				}
				logger.Error(r.Context(), "verify bearer token", "error", err)
				utils.WriteMessage(w, http.StatusInternalServerError, utils.GENERIC_SERVER_ERROR)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity tokens.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (tokens.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(tokens.Identity)
	return identity, ok
}

// UserIDFromContext returns the authenticated subject, or "" on unguarded routes.
func UserIDFromContext(ctx context.Context) string {
	identity, _ := IdentityFromContext(ctx)
	return identity.Subject
}
