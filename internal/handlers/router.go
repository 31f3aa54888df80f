// internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/auth"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/handlers/payments"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/handlers/resources"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/hoaapi"
	httpserver "github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/http"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/middleware"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/payment"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/session"
)

type Deps struct {
	API          *hoaapi.Client
	Sessions     *session.Manager
	Payments     *payment.Registry
	LoginPath    string
	CookieSecure bool
}

func RegisterRoutes(mux chi.Router, d Deps) {
	if d.LoginPath == "" {
		d.LoginPath = "/login"
	}
	a := auth.New(d.API, d.Sessions, auth.Options{LoginPath: d.LoginPath, CookieSecure: d.CookieSecure})
	guard := func(roles ...models.Role) func(http.Handler) http.Handler {
		return middleware.RequireSession(d.Sessions, d.LoginPath, roles...)
	}

	mux.Get("/", a.Home)
	mux.Get(d.LoginPath, a.LoginPage)
	mux.Post("/auth/login", a.Login)
	mux.Post("/auth/register", a.Register)
	mux.Post("/auth/logout", a.Logout)
	mux.With(guard()).Get("/auth/me", a.Me)
	mux.With(guard()).Post("/auth/change-password", a.ChangePassword)

	// One landing page per role.
	for _, role := range models.Roles() {
		landing, _ := models.LandingRoute(role)
		mux.With(guard(role)).Get(landing, dashboard(role))
	}

	resources.New(d.API, a.EndSession).Register(mux, d.Sessions, d.LoginPath)

	p := payments.New(d.API, d.Payments, a.EndSession)
	mux.Group(func(sr chi.Router) {
		// Apply the resident guard to the whole group ONCE
		sr.Use(guard(models.RoleResident))
		p.Routes(sr)
	})
}

// dashboard lists what a role may open from its landing page.
func dashboard(role models.Role) http.HandlerFunc {
	var readable, creatable []string
	for _, res := range resources.Catalog {
		if middleware.Allowed(role, res.Read) {
			readable = append(readable, res.Name)
		}
		if len(res.Create) > 0 && middleware.Allowed(role, res.Create) {
			creatable = append(creatable, res.Name)
		}
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		out := map[string]any{
			"role":   role,
			"read":   readable,
			"create": creatable,
		}
		if role == models.RoleResident {
			out["payments"] = "/api/payments"
		}
		httpserver.JSON(w, http.StatusOK, out)
	}
}
