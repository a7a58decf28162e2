package rbac

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/docvault/docvault/internal/platform/httpx"
	"github.com/docvault/docvault/internal/shared"
)

// Middleware wires authorization gates for HTTP handlers. It assumes the
// authentication middleware already resolved the caller into the request
// context; the gate runs before the handler body so a deny never reaches
// storage.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require ensures the current caller holds the named permission.
func (m Middleware) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := shared.IdentityFromContext(r.Context())
			if ident == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Not authenticated")
				return
			}
			allowed, err := m.Service.Authorize(r.Context(), ident, permission)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac authorize", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden",
					fmt.Sprintf("Permission '%s' required", permission))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole ensures the caller holds at least one of the named roles.
// detail is the deny message surfaced to the caller.
func (m Middleware) RequireRole(detail string, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := shared.IdentityFromContext(r.Context())
			if ident == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Not authenticated")
				return
			}
			for _, role := range roles {
				if ident.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", detail)
		})
	}
}
