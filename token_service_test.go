package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-inventory"
)

func newTokenService() *inventory.TokenServiceImpl {
	return inventory.NewTokenService([]byte("test-signing-key"), 24, "test-issuer", jwt.ClaimStrings{"test:audience"}, nil)
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	ts := newTokenService()
	identity := TestIdentity{id: uuid.NewString(), email: "clerk@example.com", role: string(inventory.RoleAdmin)}

	token, err := ts.Generate(context.Background(), identity, 0)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, identity.id, claims.Subject())
	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, "clerk@example.com", claims.Email())
	assert.Equal(t, "admin", claims.Role())
	assert.True(t, claims.CanDelete())
	assert.False(t, claims.IsAtLeast(string(inventory.RoleSuperAdmin)))
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.Expires(), time.Minute)

	jwtClaims, ok := claims.(*inventory.JWTClaims)
	require.True(t, ok)
	assert.NotEmpty(t, jwtClaims.ID)
	assert.Equal(t, "test-issuer", jwtClaims.Issuer)
}

func TestTokenServiceCustomTTL(t *testing.T) {
	ts := newTokenService()
	identity := TestIdentity{id: uuid.NewString(), email: "clerk@example.com", role: "user"}

	token, err := ts.Generate(context.Background(), identity, 2*time.Hour)
	require.NoError(t, err)

	claims, err := ts.Validate(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.Expires(), time.Minute)

	_, err = ts.Generate(context.Background(), identity, -time.Second)
	assert.Error(t, err)

	_, err = ts.Generate(context.Background(), nil, 0)
	assert.Error(t, err)
}

func TestTokenServiceExpiredToken(t *testing.T) {
	ts := newTokenService()

	past := time.Now().Add(-2 * time.Hour)
	token, err := ts.SignClaims(&inventory.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"test:audience"},
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
		UserEmail: "clerk@example.com",
	})
	require.NoError(t, err)

	_, err = ts.Validate(token)
	requireTextCode(t, err, inventory.TextCodeTokenExpired)
	assert.True(t, inventory.IsTokenExpiredError(err))
}

func TestTokenServiceRejectsForeignTokens(t *testing.T) {
	identity := TestIdentity{id: uuid.NewString(), email: "clerk@example.com", role: "user"}

	other := inventory.NewTokenService([]byte("another-key"), 24, "test-issuer", jwt.ClaimStrings{"test:audience"}, nil)
	token, err := other.Generate(context.Background(), identity, 0)
	require.NoError(t, err)

	_, err = newTokenService().Validate(token)
	requireTextCode(t, err, inventory.TextCodeTokenMalformed)
	assert.True(t, inventory.IsMalformedError(err))

	wrongAudience := inventory.NewTokenService([]byte("test-signing-key"), 24, "test-issuer", jwt.ClaimStrings{"other"}, nil)
	token, err = wrongAudience.Generate(context.Background(), identity, 0)
	require.NoError(t, err)

	_, err = newTokenService().Validate(token)
	requireTextCode(t, err, inventory.TextCodeTokenMalformed)

	_, err = newTokenService().Validate("not-a-token")
	requireTextCode(t, err, inventory.TextCodeTokenMalformed)
}

func TestTokenServiceApprovalDecorator(t *testing.T) {
	ts := newTokenService().WithClaimsDecorator(inventory.ApprovalClaimsDecorator())

	user := &inventory.AppUser{ID: uuid.New(), Email: "clerk@example.com", Role: inventory.RoleUser}
	token, err := ts.Generate(context.Background(), inventory.NewIdentityFromUser(user), 0)
	require.NoError(t, err)

	claims, err := ts.Validate(token)
	require.NoError(t, err)
	jwtClaims := claims.(*inventory.JWTClaims)
	assert.Equal(t, false, jwtClaims.Metadata["approved"])

	// identities without an approval flag are left alone
	token, err = ts.Generate(context.Background(), TestIdentity{id: "x", email: "x@example.com", role: "user"}, 0)
	require.NoError(t, err)
	claims, err = ts.Validate(token)
	require.NoError(t, err)
	assert.Empty(t, claims.(*inventory.JWTClaims).Metadata)
}

func TestTokenServiceDecoratorCannotMutateProtectedClaims(t *testing.T) {
	mutations := map[string]func(*inventory.JWTClaims){
		"sub":   func(c *inventory.JWTClaims) { c.RegisteredClaims.Subject = "someone-else" },
		"email": func(c *inventory.JWTClaims) { c.UserEmail = "root@example.com" },
		"role":  func(c *inventory.JWTClaims) { c.UserRole = string(inventory.RoleSuperAdmin) },
		"exp": func(c *inventory.JWTClaims) {
			c.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(365 * 24 * time.Hour))
		},
		"aud": func(c *inventory.JWTClaims) { c.RegisteredClaims.Audience = jwt.ClaimStrings{"elsewhere"} },
	}

	for claim, mutate := range mutations {
		t.Run(claim, func(t *testing.T) {
			ts := newTokenService().WithClaimsDecorator(inventory.ClaimsDecoratorFunc(
				func(_ context.Context, _ inventory.Identity, c *inventory.JWTClaims) error {
					mutate(c)
					return nil
				},
			))

			_, err := ts.Generate(context.Background(), TestIdentity{id: "user-1", email: "clerk@example.com", role: "user"}, 0)
			richErr := requireTextCode(t, err, "IMMUTABLE_CLAIM_MUTATION")
			assert.Equal(t, claim, richErr.Metadata["claim"])
		})
	}
}
