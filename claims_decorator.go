package inventory

import "context"

// ClaimsDecorator adds metadata to session claims before they are signed.
// Registered claims, email and role must stay untouched; the token service
// rejects tokens whose protected claims changed.
type ClaimsDecorator interface {
	Decorate(ctx context.Context, identity Identity, claims *JWTClaims) error
}

// ClaimsDecoratorFunc adapts a function into a ClaimsDecorator.
type ClaimsDecoratorFunc func(ctx context.Context, identity Identity, claims *JWTClaims) error

func (f ClaimsDecoratorFunc) Decorate(ctx context.Context, identity Identity, claims *JWTClaims) error {
	if f == nil {
		return nil
	}
	return f(ctx, identity, claims)
}

type noopClaimsDecorator struct{}

func (noopClaimsDecorator) Decorate(context.Context, Identity, *JWTClaims) error {
	return nil
}

func normalizeClaimsDecorator(d ClaimsDecorator) ClaimsDecorator {
	if d == nil {
		return noopClaimsDecorator{}
	}
	return d
}

// ApprovalClaimsDecorator stamps the approval flag into the token metadata so
// pages can pick the restricted view without a database read. The access
// gate still resolves approval from storage on every API call.
func ApprovalClaimsDecorator() ClaimsDecorator {
	return ClaimsDecoratorFunc(func(_ context.Context, identity Identity, claims *JWTClaims) error {
		approved, ok := identity.(interface{ IsApproved() bool })
		if !ok {
			return nil
		}
		if claims.Metadata == nil {
			claims.Metadata = map[string]any{}
		}
		claims.Metadata["approved"] = approved.IsApproved()
		return nil
	})
}
