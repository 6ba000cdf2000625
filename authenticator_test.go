package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-inventory"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	provider := new(MockIdentityProvider)
	sink := &recordingSink{}

	auther := inventory.NewAuthenticator(provider, newMockConfig()).WithActivitySink(sink)

	t.Run("successful login", func(t *testing.T) {
		identity := TestIdentity{id: uuid.NewString(), email: "clerk@example.com", role: "admin"}
		provider.On("VerifyIdentity", ctx, "clerk@example.com", "password123").Return(identity, nil).Once()

		token, err := auther.Login(ctx, " Clerk@Example.com ", "password123", 0)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := auther.TokenService().Validate(token)
		require.NoError(t, err)
		assert.Equal(t, identity.id, claims.UserID())
		assert.Equal(t, "clerk@example.com", claims.Email())
		assert.Equal(t, "admin", claims.Role())

		assert.Equal(t, inventory.ActivityEventLoginSuccess, sink.Last().EventType)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		provider.On("VerifyIdentity", ctx, "clerk@example.com", "wrong").
			Return(nil, inventory.ErrMismatchedHashAndPassword).Once()

		token, err := auther.Login(ctx, "clerk@example.com", "wrong", 0)
		assert.Empty(t, token)
		requireTextCode(t, err, inventory.TextCodeInvalidCredentials)

		event := sink.Last()
		assert.Equal(t, inventory.ActivityEventLoginFailure, event.EventType)
		assert.Equal(t, "clerk@example.com", event.Metadata["identifier"])
	})

	t.Run("zero identity", func(t *testing.T) {
		provider.On("VerifyIdentity", ctx, "ghost@example.com", "password123").Return(TestIdentity{}, nil).Once()

		_, err := auther.Login(ctx, "ghost@example.com", "password123", 0)
		assert.ErrorIs(t, err, inventory.ErrIdentityNotFound)
	})

	provider.AssertExpectations(t)
}

func TestIssueTokenAndSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	auther := inventory.NewAuthenticator(new(MockIdentityProvider), newMockConfig()).
		WithClaimsDecorator(inventory.ApprovalClaimsDecorator())

	user := &inventory.AppUser{ID: uuid.New(), Email: "clerk@example.com", Role: inventory.RoleUser, IsApproved: true}
	token, err := auther.IssueToken(ctx, inventory.NewIdentityFromUser(user), time.Hour)
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), session.GetUserID())
	assert.Equal(t, "clerk@example.com", session.GetEmail())
	assert.Equal(t, "user", session.GetRole())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, []string{"test:audience"}, session.GetAudience())

	metadata, ok := session.GetData()["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, metadata["approved"])

	_, err = auther.IssueToken(ctx, nil, 0)
	assert.ErrorIs(t, err, inventory.ErrIdentityNotFound)

	_, err = auther.SessionFromToken("garbage")
	requireTextCode(t, err, inventory.TextCodeTokenMalformed)
}

func TestIdentityFromSession(t *testing.T) {
	ctx := context.Background()
	provider := new(MockIdentityProvider)
	auther := inventory.NewAuthenticator(provider, newMockConfig())

	identity := TestIdentity{id: uuid.NewString(), email: "clerk@example.com", role: "user"}
	provider.On("FindIdentityByIdentifier", ctx, "clerk@example.com").Return(identity, nil).Once()
	provider.On("FindIdentityByIdentifier", ctx, identity.id).Return(identity, nil).Once()

	got, err := auther.IdentityFromSession(ctx, &inventory.SessionObject{UserID: "ignored", Email: "clerk@example.com"})
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	got, err = auther.IdentityFromSession(ctx, &inventory.SessionObject{UserID: identity.id})
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	provider.AssertExpectations(t)
}

func TestLoginAgainstStoredAccounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustUser(t, repo, "clerk@example.com", inventory.RoleAdmin, true)

	auther := inventory.NewAuthenticator(inventory.NewUserProvider(repo.Users()), newMockConfig())

	token, err := auther.Login(ctx, "clerk@example.com", "changeme123", 0)
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", session.GetRole())

	stored, err := repo.Users().GetByIdentifier(ctx, "clerk@example.com")
	require.NoError(t, err)
	assert.Zero(t, stored.LoginAttempts)
	assert.NotNil(t, stored.LoggedInAt)

	_, err = auther.Login(ctx, "clerk@example.com", "wrong password", 0)
	requireTextCode(t, err, inventory.TextCodeInvalidCredentials)

	stored, err = repo.Users().GetByIdentifier(ctx, "clerk@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LoginAttempts)

	_, err = auther.Login(ctx, "nobody@example.com", "changeme123", 0)
	requireTextCode(t, err, inventory.TextCodeInvalidCredentials)
}
