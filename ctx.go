package inventory

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// AccessLocalsKey is the fiber locals key holding the resolved AccessState.
const AccessLocalsKey = "inventory.access"

var claimsCtxKey = &contextKey{"claims"}
var accessCtxKey = &contextKey{"access"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// WithAccessContext stores the resolved access state in ctx.
func WithAccessContext(ctx context.Context, state *AccessState) context.Context {
	return context.WithValue(ctx, accessCtxKey, state)
}

// AccessFromContext returns the access state stored by WithAccessContext.
func AccessFromContext(ctx context.Context) (*AccessState, bool) {
	raw, ok := ctx.Value(accessCtxKey).(*AccessState)
	return raw, ok && raw != nil
}

// GetRouterClaims extracts the AuthClaims from the fiber locals.
func GetRouterClaims(c *fiber.Ctx, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user"
	}
	claims, ok := c.Locals(key).(AuthClaims)
	return claims, ok && claims != nil
}

// GetRouterAccess returns the access state resolved for the request.
func GetRouterAccess(c *fiber.Ctx) (*AccessState, bool) {
	state, ok := c.Locals(AccessLocalsKey).(*AccessState)
	return state, ok && state != nil
}

// Can checks a permission against the role of the claims in ctx.
func Can(ctx context.Context, permission string) bool {
	claims, ok := GetClaims(ctx)
	if !ok {
		return false
	}

	switch permission {
	case "read":
		return claims.CanRead()
	case "edit":
		return claims.CanEdit()
	case "delete":
		return claims.CanDelete()
	default:
		return false
	}
}
