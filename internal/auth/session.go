// internal/auth/session.go
package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
)

const CookieName = "hoa_session"

type ctxKeySession struct{}
type ctxKeySessionID struct{}

// SetSessionCookie hands the browser an opaque session id. The backend token
// stays server side.
func SetSessionCookie(w http.ResponseWriter, id string, expiry time.Time, secure bool) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expiry.IsZero() {
		c.Expires = expiry
	}
	http.SetCookie(w, c)
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

func ReadSessionID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession{}, s)
}

func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(ctxKeySession{}).(*models.Session)
	return s, ok && s != nil
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID{}, id)
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeySessionID{}).(string)
	return id, ok && id != ""
}
