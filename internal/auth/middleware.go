package auth

import (
	"log/slog"
	"net/http"

	"github.com/golang-jwt/jwt/v5/request"

	"github.com/docvault/docvault/internal/platform/httpx"
	"github.com/docvault/docvault/internal/shared"
)

// Middleware resolves the bearer credential into a caller identity and
// stores it in the request context. Handlers behind it can rely on
// shared.IdentityFromContext returning a non-nil identity.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Authenticate rejects requests without a valid bearer token.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := request.BearerExtractor{}.ExtractToken(r)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Missing bearer token")
			return
		}
		user, err := m.Service.Resolve(r.Context(), token)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), user.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
