package inventory

import "maps"

// TokenValidator validates tokens and extracts claims.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrUnableToDecodeSession
	}
	return f(tokenString)
}

// Token sources known to TokenChain.
const (
	TokenSourceLocal  = "local"
	TokenSourceHosted = "hosted"

	// MetadataTokenSource is set on hosted claims so handlers can tell them
	// apart from our own sessions.
	MetadataTokenSource = "token_source"
)

type tokenLink struct {
	source    string
	validator TokenValidator
}

// TokenChain validates session tokens against our own signer first and the
// hosted identity provider after. Accounts are resolved by email, so claims
// without one are rejected whatever their source. Roles live on app_users:
// a role claim on a hosted token is dropped.
type TokenChain struct {
	links []tokenLink
}

var _ TokenValidator = (*TokenChain)(nil)

// NewTokenChain starts a chain with the local session validator.
func NewTokenChain(local TokenValidator) *TokenChain {
	c := &TokenChain{}
	return c.with(TokenSourceLocal, local)
}

// WithHosted appends the hosted identity provider validator.
func (c *TokenChain) WithHosted(hosted TokenValidator) *TokenChain {
	return c.with(TokenSourceHosted, hosted)
}

func (c *TokenChain) with(source string, v TokenValidator) *TokenChain {
	if v != nil {
		c.links = append(c.links, tokenLink{source: source, validator: v})
	}
	return c
}

// Sources lists the configured sources in evaluation order.
func (c *TokenChain) Sources() []string {
	out := make([]string, 0, len(c.links))
	for _, l := range c.links {
		out = append(out, l.source)
	}
	return out
}

// Validate returns the claims of the first source that accepts the token.
// A token a source cannot parse moves on to the next one. An expired token
// or any other failure stops the chain.
func (c *TokenChain) Validate(tokenString string) (AuthClaims, error) {
	err := error(ErrTokenMalformed)
	for _, l := range c.links {
		claims, verr := l.validator.Validate(tokenString)
		if verr != nil {
			if IsMalformedError(verr) {
				err = verr
				continue
			}
			return nil, verr
		}
		if claims == nil || NormalizeEmail(claims.Email()) == "" {
			return nil, withMetadata(ErrUnableToMapClaims, map[string]any{"source": l.source})
		}
		if l.source == TokenSourceHosted {
			claims = hostedClaims(claims)
		}
		return claims, nil
	}
	return nil, err
}

func hostedClaims(claims AuthClaims) AuthClaims {
	jc, ok := claims.(*JWTClaims)
	if !ok {
		return claims
	}
	out := *jc
	out.UserRole = ""
	out.Metadata = make(map[string]any, len(jc.Metadata)+1)
	maps.Copy(out.Metadata, jc.Metadata)
	out.Metadata[MetadataTokenSource] = TokenSourceHosted
	return &out
}
