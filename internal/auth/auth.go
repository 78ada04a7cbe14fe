// Package auth authenticates API requests with HTTP Basic credentials
// checked against the user store.
package auth

import (
	"context"
	"net/http"

	"subdel/internal/model"
)

// AccountSource verifies credentials against persisted users.
type AccountSource interface {
	AuthenticateUser(ctx context.Context, subdomain, password string) (*model.User, error)
}

type ctxKey struct{}

type Authenticator struct {
	store AccountSource
}

func New(store AccountSource) *Authenticator {
	return &Authenticator{store: store}
}

// Middleware rejects requests without valid Basic credentials and
// stores the authenticated user in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subdomain, password, ok := r.BasicAuth()
		if !ok {
			unauthorized(w)
			return
		}

		user, err := a.store.AuthenticateUser(r.Context(), subdomain, password)
		if err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if user == nil {
			unauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

// UserFrom returns the authenticated user placed by Middleware.
func UserFrom(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxKey{}).(*model.User)
	return user
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="subdel"`)
	http.Error(w, "invalid credentials", http.StatusUnauthorized)
}
