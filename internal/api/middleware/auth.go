package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/auth"
)

const authRealm = `Bearer realm="airsight"`

type userIDKey struct{}

// TokenValidator resolves a bearer token to the user ID it was issued for.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// Auth requires a valid bearer token and stores its user ID on the request
// context. Failures answer 401 with an RFC 6750 WWW-Authenticate challenge.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r.Header.Get("Authorization"))
			if problem != "" {
				challenge(w, r, "", problem)
				return
			}

			userID, err := validator.ValidateAccessToken(token)
			switch {
			case errors.Is(err, auth.ErrAccessTokenExpired):
				challenge(w, r, "invalid_token", "access token has expired")
				return
			case errors.Is(err, auth.ErrInvalidAccessToken):
				challenge(w, r, "invalid_token", "invalid access token")
				return
			case err != nil:
				challenge(w, r, "invalid_token", "authentication failed")
				return
			}

			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("airsight.user_id", userID))
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// bearerToken extracts the credentials from an Authorization header value.
// The scheme is matched case-insensitively. A non-empty second result
// explains why the header was rejected.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "authorization scheme must be Bearer"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

func challenge(w http.ResponseWriter, r *http.Request, code, detail string) {
	value := authRealm
	if code != "" {
		value += `, error="` + code + `"`
	}
	w.Header().Set("WWW-Authenticate", value)
	models.NewUnauthorized(GetRequestID(r.Context()), detail).
		WithInstance(r.URL.Path).
		Write(w)
}

// WithUserID returns a copy of ctx carrying an authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID returns the authenticated user ID, or "" for anonymous requests.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}
