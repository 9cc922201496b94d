package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/models"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == header || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved user in the request context.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
				jsonError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}
			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
				jsonError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if user, err := auth.Authenticate(r.Context(), token); err == nil {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
