package inventory

import (
	"context"

	"github.com/goliatone/go-inventory/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener.
type ValidationListener = jwtware.ValidationListener

// ContextEnricherAdapter stores the claims in the request context so command
// handlers and loggers downstream can read them.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, authClaims)
}

// RegisterValidationListeners appends listeners to a jwtware.Config.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
