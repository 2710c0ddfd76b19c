package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/respond"
)

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// Sessions resolves a bearer token to its user.
type Sessions interface {
	CurrentUser(ctx context.Context, token string) (models.User, error)
}

// BearerToken returns the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// RequireAuth rejects requests without a valid bearer token and puts the
// user and token into the request context.
func RequireAuth(sessions Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				respond.Error(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			user, err := sessions.CurrentUser(r.Context(), token)
			if errors.Is(err, mock.ErrNoUser) {
				respond.Error(w, http.StatusUnauthorized, "session expired")
				return
			}
			if err != nil {
				respond.Error(w, http.StatusInternalServerError, "session lookup failed")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// User returns the user RequireAuth stored in ctx.
func User(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// Token returns the bearer token RequireAuth accepted.
func Token(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}
