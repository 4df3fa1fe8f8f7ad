package policy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/scanpos/auth"
	"github.com/diewo77/scanpos/gate"
	"github.com/diewo77/scanpos/httpx"
)

// AuthGate is the application's authorization checkpoint: role profiles
// resolved from the database through a TTL cache, plus ownership policies.
type AuthGate struct {
	Gate  *gate.Gate[uint]
	Cache *gate.CachedResolver[uint]
}

// NewAuthGate creates the gate and registers the invoice ownership policy:
// cashiers may only modify, complete or delete invoices they opened.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uint](NewDBRoleResolver(db), cacheTTL)
	ag := &AuthGate{Gate: gate.New[uint](cached), Cache: cached}

	owner := NewOwnershipPolicy(gate.ActionUpdate, gate.ActionComplete, gate.ActionDelete)
	ag.Gate.Register(ResourceInvoice, NewAdminBypassPolicy(owner, ag.isAdmin))
	return ag
}

func (ag *AuthGate) isAdmin(ctx context.Context, userID uint) bool {
	p, err := ag.Cache.Resolve(ctx, userID)
	return err == nil && p != nil && p.HasPermission(gate.PermissionAll)
}

// Authorize checks the current request user against action on resource.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthenticated
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType, resource)
}

func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}

// Invalidate drops a user's cached profile after a role or status change.
func (ag *AuthGate) Invalidate(userID uint) {
	ag.Cache.Invalidate(userID)
}

// VerifyUser reports whether the user still resolves to a profile, i.e.
// exists and is active. It is used as the auth.UserVerifier.
func (ag *AuthGate) VerifyUser(ctx context.Context, userID uint) bool {
	p, err := ag.Cache.Resolve(ctx, userID)
	return err == nil && p != nil
}

// RequirePermission returns middleware that checks the profile permission.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ag.Authorize(r.Context(), action, resourceType, nil); err != nil {
				WriteAuthzError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteAuthzError maps a gate error to 401/403/500.
func WriteAuthzError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, gate.ErrUnauthenticated):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
	case errors.Is(err, gate.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", "You are not allowed to perform this action")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("authorization check failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
