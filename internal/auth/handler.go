package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/hoaapi"
	httpserver "github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/http"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/session"
)

// API is the slice of the backend the auth handlers call.
type API interface {
	Login(ctx context.Context, req hoaapi.LoginRequest) (hoaapi.LoginResponse, error)
	Register(ctx context.Context, req hoaapi.RegisterRequest) (hoaapi.MessageResponse, error)
	ChangePassword(ctx context.Context, token string, req hoaapi.ChangePasswordRequest) (hoaapi.MessageResponse, error)
}

type Options struct {
	LoginPath    string
	CookieSecure bool
}

type Handler struct {
	api      API
	sessions *session.Manager
	opts     Options
}

func New(api API, sessions *session.Manager, opts Options) *Handler {
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	return &Handler{api: api, sessions: sessions, opts: opts}
}

// Login exchanges credentials for a backend token and opens a portal session.
// POST /auth/login { "email": "...", "password": "..." }
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body hoaapi.LoginRequest
	if err := httpserver.Decode(w, r, &body); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" || body.Password == "" {
		httpserver.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	resp, err := h.api.Login(r.Context(), body)
	if err != nil {
		slog.WarnContext(r.Context(), "login rejected", "err", err)
		httpserver.UpstreamError(w, err, "login failed")
		return
	}
	role, err := models.ParseRole(resp.Role)
	if err != nil {
		slog.ErrorContext(r.Context(), "backend returned unknown role", "role", resp.Role)
		httpserver.Error(w, http.StatusForbidden, "unknown role")
		return
	}
	landing, _ := models.LandingRoute(role)

	// A fresh id on every login; the previous one, if any, is discarded.
	if old := ReadSessionID(r); old != "" {
		_ = h.sessions.Logout(r.Context(), old)
	}
	id := uuid.NewString()
	sess, err := h.sessions.Login(r.Context(), id, resp.Token, role)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			httpserver.Error(w, http.StatusUnauthorized, "session expired")
			return
		}
		httpserver.Error(w, http.StatusInternalServerError, "could not start session")
		return
	}
	SetSessionCookie(w, id, sess.ExpiresAt, h.opts.CookieSecure)

	if httpserver.WantsHTML(r) {
		http.Redirect(w, r, landing, http.StatusSeeOther)
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"role":     role,
		"redirect": landing,
	})
}

// Register creates an account on the backend. No session is opened.
// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body hoaapi.RegisterRequest
	if err := httpserver.Decode(w, r, &body); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.TrimSpace(body.Email)
	if body.Name == "" || body.Email == "" || body.Password == "" {
		httpserver.Error(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	resp, err := h.api.Register(r.Context(), body)
	if err != nil {
		httpserver.UpstreamError(w, err, "registration failed")
		return
	}
	httpserver.JSON(w, http.StatusCreated, map[string]any{
		"message":  resp.Message,
		"redirect": h.opts.LoginPath,
	})
}

// ChangePassword updates the password on the backend and ends the session.
// POST /auth/change-password { "oldPassword": "...", "newPassword": "..." }
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, h.opts.LoginPath, http.StatusSeeOther)
		return
	}
	var body hoaapi.ChangePasswordRequest
	if err := httpserver.Decode(w, r, &body); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.OldPassword == "" || body.NewPassword == "" {
		httpserver.Error(w, http.StatusBadRequest, "old and new password are required")
		return
	}
	if body.OldPassword == body.NewPassword {
		httpserver.Error(w, http.StatusBadRequest, "new password must differ from the old one")
		return
	}
	resp, err := h.api.ChangePassword(r.Context(), sess.Token, body)
	if err != nil {
		if hoaapi.IsUnauthorized(err) {
			h.EndSession(w, r)
			return
		}
		httpserver.UpstreamError(w, err, "password change failed")
		return
	}

	id, _ := SessionIDFromContext(r.Context())
	_ = h.sessions.Logout(r.Context(), id)
	ClearSessionCookie(w, h.opts.CookieSecure)
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"message":  resp.Message,
		"redirect": h.opts.LoginPath,
	})
}

// Logout clears all session state, whether or not a session exists.
// POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.EndSession(w, r)
}

// Me describes the current session.
// GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, h.opts.LoginPath, http.StatusSeeOther)
		return
	}
	landing, _ := models.LandingRoute(sess.Role)
	out := map[string]any{
		"role":    sess.Role,
		"landing": landing,
	}
	if !sess.ExpiresAt.IsZero() {
		out["expires_at"] = sess.ExpiresAt
	}
	httpserver.JSON(w, http.StatusOK, out)
}

// Home sends the caller to its landing page, or to login.
// GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), ReadSessionID(r))
	if err != nil {
		http.Redirect(w, r, h.opts.LoginPath, http.StatusSeeOther)
		return
	}
	landing, err := models.LandingRoute(sess.Role)
	if err != nil {
		h.EndSession(w, r)
		return
	}
	http.Redirect(w, r, landing, http.StatusSeeOther)
}

// LoginPage is the target of every guard redirect.
// GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, _ *http.Request) {
	httpserver.JSON(w, http.StatusOK, map[string]string{
		"login": "/auth/login",
	})
}

// EndSession logs the caller out and sends it to the login page. Used for
// logout and whenever the backend stops accepting the token.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id := ReadSessionID(r)
	if ctxID, ok := SessionIDFromContext(r.Context()); ok {
		id = ctxID
	}
	_ = h.sessions.Logout(r.Context(), id)
	ClearSessionCookie(w, h.opts.CookieSecure)
	http.Redirect(w, r, h.opts.LoginPath, http.StatusSeeOther)
}
