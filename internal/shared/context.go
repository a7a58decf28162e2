package shared

import "context"

type identityContextKey struct{}

// Identity describes the authenticated caller for the lifetime of a request.
// Roles holds the role names loaded when the credential was resolved.
type Identity struct {
	ID       int64
	Username string
	Email    string
	Roles    []string
}

// HasRole reports whether the identity holds the named role.
func (i *Identity) HasRole(name string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, ident)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	ident, _ := ctx.Value(identityContextKey{}).(*Identity)
	return ident
}
