// Package resources serves every role-scoped collection of the portal through
// one guarded list/create pair instead of a handler per page.
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/auth"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/hoaapi"
	httpserver "github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/http"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/middleware"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/session"
)

var ErrUnknownResource = errors.New("unknown resource")

// scopes maps a role to the backend prefix of its role-scoped endpoints.
var scopes = map[models.Role]string{
	models.RoleSuperadmin: "/",
	models.RoleAdmin:      "/hoaadmin/",
	models.RoleResident:   "/resident/",
}

// UpstreamPath returns the backend path of a collection for a role.
func UpstreamPath(role models.Role, name string) (string, error) {
	prefix, ok := scopes[role]
	if !ok {
		return "", models.ErrUnknownRole
	}
	return prefix + name, nil
}

type listFunc func(ctx context.Context, c *hoaapi.Client, token, path, key string) (any, error)
type createFunc func(ctx context.Context, c *hoaapi.Client, token, path, key string, body json.RawMessage) (any, error)

// Resource is one backend collection and the roles allowed to touch it.
type Resource struct {
	Name   string
	Read   []models.Role
	Create []models.Role

	list   listFunc
	create createFunc
}

func define[T hoaapi.Validator](name string, read, create []models.Role) Resource {
	return Resource{
		Name:   name,
		Read:   read,
		Create: create,
		list: func(ctx context.Context, c *hoaapi.Client, token, path, key string) (any, error) {
			return hoaapi.List[T](ctx, c, token, path, key)
		},
		create: func(ctx context.Context, c *hoaapi.Client, token, path, key string, body json.RawMessage) (any, error) {
			return hoaapi.Create[T](ctx, c, token, path, key, body)
		},
	}
}

func roles(r ...models.Role) []models.Role { return r }

var (
	superadmin = models.RoleSuperadmin
	admin      = models.RoleAdmin
	resident   = models.RoleResident
)

// Catalog lists every collection the portal exposes.
var Catalog = []Resource{
	define[hoaapi.Community]("communities", roles(superadmin), roles(superadmin)),
	define[hoaapi.Resident]("residents", roles(superadmin, admin), roles(admin)),
	define[hoaapi.Complaint]("complaints", roles(admin, resident), roles(resident)),
	define[hoaapi.Announcement]("announcements", roles(admin, resident), roles(admin)),
	define[hoaapi.Amenity]("amenities", roles(admin, resident), roles(admin)),
	define[hoaapi.Meeting]("meetings", roles(admin, resident), roles(admin)),
	define[hoaapi.Document]("documents", roles(admin, resident), nil),
	define[hoaapi.Poll]("polls", roles(admin, resident), roles(admin)),
	define[hoaapi.Notification]("notifications", roles(superadmin, admin, resident), roles(admin)),
	define[hoaapi.Payment]("payments", roles(admin, resident), nil),
}

// Singular is the key the backend wraps one created element in, such as
// "announcement" for announcements.
func Singular(name string) string {
	if base, ok := strings.CutSuffix(name, "ies"); ok {
		return base + "y"
	}
	return strings.TrimSuffix(name, "s")
}

// Lookup finds a catalog entry by name.
func Lookup(name string) (Resource, error) {
	for _, r := range Catalog {
		if r.Name == name {
			return r, nil
		}
	}
	return Resource{}, ErrUnknownResource
}

// Fetch lists a collection for a session. It is the single authorized data
// fetch used by both the portal and the CLI.
func Fetch(ctx context.Context, api *hoaapi.Client, s models.Session, res Resource) (any, error) {
	path, err := UpstreamPath(s.Role, res.Name)
	if err != nil {
		return nil, err
	}
	return res.list(ctx, api, s.Token, path, res.Name)
}

// Submit creates an element of a collection for a session.
func Submit(ctx context.Context, api *hoaapi.Client, s models.Session, res Resource, body json.RawMessage) (any, error) {
	path, err := UpstreamPath(s.Role, res.Name)
	if err != nil {
		return nil, err
	}
	return res.create(ctx, api, s.Token, path, Singular(res.Name), body)
}

type Handler struct {
	api            *hoaapi.Client
	onUnauthorized http.HandlerFunc
}

func New(api *hoaapi.Client, onUnauthorized http.HandlerFunc) *Handler {
	return &Handler{api: api, onUnauthorized: onUnauthorized}
}

// Register mounts GET and POST /api/{name} for every catalog entry, each
// behind a guard for the entry's roles.
func (h *Handler) Register(r chi.Router, sessions *session.Manager, loginPath string) {
	for _, res := range Catalog {
		r.With(middleware.RequireSession(sessions, loginPath, res.Read...)).
			Get("/api/"+res.Name, h.List(res))
		if len(res.Create) > 0 {
			r.With(middleware.RequireSession(sessions, loginPath, res.Create...)).
				Post("/api/"+res.Name, h.Create(res))
		}
	}
}

// GET /api/{name}
func (h *Handler) List(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFromContext(r.Context())
		if !ok {
			h.onUnauthorized(w, r)
			return
		}
		items, err := Fetch(r.Context(), h.api, *sess, res)
		if err != nil {
			h.fail(w, r, err, "failed to load "+res.Name)
			return
		}
		httpserver.JSON(w, http.StatusOK, map[string]any{
			"content": items,
		})
	}
}

// POST /api/{name}
func (h *Handler) Create(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFromContext(r.Context())
		if !ok {
			h.onUnauthorized(w, r)
			return
		}
		var body map[string]any
		if err := httpserver.Decode(w, r, &body); err != nil || body == nil {
			httpserver.Error(w, http.StatusBadRequest, "a JSON object is required")
			return
		}
		payload, err := json.Marshal(body)
		if err != nil {
			httpserver.Error(w, http.StatusBadRequest, "failed to encode payload")
			return
		}
		item, err := Submit(r.Context(), h.api, *sess, res, payload)
		if err != nil {
			h.fail(w, r, err, "failed to create "+res.Name)
			return
		}
		httpserver.JSON(w, http.StatusCreated, map[string]any{
			"content": item,
		})
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if hoaapi.IsUnauthorized(err) {
		h.onUnauthorized(w, r)
		return
	}
	httpserver.UpstreamError(w, err, fallback)
}
