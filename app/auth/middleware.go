package auth

import (
	"context"
	"errors"
	"net/http"

	"reddish/app/logger"
	"reddish/app/models"

	"go.uber.org/zap"
)

type contextKey struct{}

// UserResolver maps a verified session profile onto a stored user.
type UserResolver interface {
	EnsureUser(ctx context.Context, profile models.User) (*models.User, error)
}

// WithUser stores the signed-in user on ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the signed-in user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(contextKey{}).(*models.User)
	return user
}

// Middleware attaches the session user to each request. Requests without a valid
// session continue anonymously; handlers decide whether a user is required.
func Middleware(v *Verifier, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := v.FromRequest(r)
			if err != nil {
				if !errors.Is(err, ErrNoSession) {
					logger.Log.Debug("ignoring invalid session", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.EnsureUser(r.Context(), claims.Profile())
			if err != nil {
				logger.Log.Error("failed to load session user", logger.WithUserID(claims.Subject), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
