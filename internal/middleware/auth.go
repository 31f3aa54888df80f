package middleware

import (
	"net/http"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/auth"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/session"
)

// RequireSession authenticates using the session cookie and, when roles are
// given, requires the session role to be one of them. Anything else is sent
// to loginPath before the wrapped handler runs, so no protected content is
// ever written. Missing, expired and wrong-role sessions look the same.
func RequireSession(sessions *session.Manager, loginPath string, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := auth.ReadSessionID(req)
			s, err := sessions.Get(req.Context(), id)
			if err != nil || !Allowed(s.Role, roles) {
				http.Redirect(w, req, loginPath, http.StatusSeeOther)
				return
			}

			ctx := auth.WithSession(req.Context(), &s)
			ctx = auth.WithSessionID(ctx, id)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// Allowed reports whether role passes a guard requiring roles. An empty
// roles list admits every known role.
func Allowed(role models.Role, roles []models.Role) bool {
	if !role.Valid() {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
