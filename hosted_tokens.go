package inventory

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-inventory/middleware/jwtware"
)

// NewHostedTokenValidator validates tokens issued by a hosted identity
// provider. keyFunc usually comes from jwtware.NewKeyfunc with the provider
// JWKS url. The email claim is required since access is keyed on it.
func NewHostedTokenValidator(keyFunc jwt.Keyfunc, issuer string, audience []string) TokenValidator {
	opts := make([]jwt.ParserOption, 0, 2)
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if len(audience) > 0 {
		opts = append(opts, jwt.WithAudience(audience...))
	}

	return TokenValidatorFunc(func(raw string) (AuthClaims, error) {
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, keyFunc, opts...)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, ErrTokenExpired
			}
			return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
				WithTextCode(ErrTokenMalformed.TextCode).
				WithCode(goerrors.CodeUnauthorized)
		}
		if !token.Valid || claims.Email() == "" {
			return nil, ErrUnableToMapClaims
		}
		return claims, nil
	})
}

// middlewareValidator exposes a TokenValidator to the jwtware middleware.
func middlewareValidator(v TokenValidator) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(raw string) (jwtware.AuthClaims, error) {
		claims, err := v.Validate(raw)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}
