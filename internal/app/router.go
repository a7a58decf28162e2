package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/pdfs"
	"github.com/docvault/docvault/internal/rbac"
	"github.com/docvault/docvault/internal/users"
	"github.com/docvault/docvault/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthHandler    *auth.Handler
	AuthMiddleware auth.Middleware
	UsersHandler   *users.Handler
	RBACHandler    *rbac.Handler
	PDFHandler     *pdfs.Handler
	JobsHandler    *jobs.Handler
	RBACMiddleware rbac.Middleware
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public endpoints. Login carries a tighter per-IP limit to slow
	// credential stuffing.
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		params.AuthHandler.MountRoutes(r)
	})
	params.UsersHandler.MountPublicRoutes(r)

	// Everything below requires a valid bearer token.
	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.Authenticate)

		params.AuthHandler.MountProtectedRoutes(r)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/admin/users", params.UsersHandler.MountAdminRoutes)
		if params.JobsHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireRole("Only super_admin can trigger jobs", rbac.RoleSuperAdmin))
				r.Route("/admin/jobs", params.JobsHandler.MountRoutes)
			})
		}
		r.Route("/roles", params.RBACHandler.MountRoleRoutes)
		r.Route("/permissions", params.RBACHandler.MountPermissionRoutes)
		r.Route("/api/pdf", params.PDFHandler.MountRoutes)
	})

	return r
}
