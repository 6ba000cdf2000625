package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-inventory"
)

func storedUser(t *testing.T, role inventory.UserRole) *inventory.AppUser {
	t.Helper()
	hash, err := inventory.HashPassword("changeme123")
	require.NoError(t, err)
	return &inventory.AppUser{
		ID:           uuid.New(),
		Email:        "clerk@example.com",
		Role:         role,
		IsApproved:   true,
		PasswordHash: hash,
	}
}

func TestVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("valid password", func(t *testing.T) {
		user := storedUser(t, inventory.RoleUser)
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "clerk@example.com").Return(user, nil).Once()
		store.On("TrackSucccessfulLogin", ctx, user).Return(nil).Once()

		identity, err := inventory.NewUserProvider(store).VerifyIdentity(ctx, "clerk@example.com", "changeme123")
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, "user", identity.Role())
		store.AssertExpectations(t)
	})

	t.Run("wrong password tracks attempt", func(t *testing.T) {
		user := storedUser(t, inventory.RoleUser)
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "clerk@example.com").Return(user, nil).Once()
		store.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		_, err := inventory.NewUserProvider(store).VerifyIdentity(ctx, "clerk@example.com", "nope")
		requireTextCode(t, err, inventory.TextCodeInvalidCredentials)
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "TrackSucccessfulLogin", mock.Anything, mock.Anything)
	})

	t.Run("unknown account looks like a bad password", func(t *testing.T) {
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "ghost@example.com").Return(nil, repository.NewRecordNotFound()).Once()

		_, err := inventory.NewUserProvider(store).VerifyIdentity(ctx, "ghost@example.com", "changeme123")
		requireTextCode(t, err, inventory.TextCodeInvalidCredentials)
	})

	t.Run("store failure", func(t *testing.T) {
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "clerk@example.com").Return(nil, errors.New("connection reset")).Once()

		_, err := inventory.NewUserProvider(store).VerifyIdentity(ctx, "clerk@example.com", "changeme123")
		requireCategory(t, err, goerrors.CategoryInternal)
	})

	t.Run("too many attempts inside cool down", func(t *testing.T) {
		user := storedUser(t, inventory.RoleUser)
		recent := time.Now().Add(-time.Hour)
		user.LoginAttempts = inventory.MaxLoginAttempts
		user.LoginAttemptAt = &recent

		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "clerk@example.com").Return(user, nil).Once()

		_, err := inventory.NewUserProvider(store).VerifyIdentity(ctx, "clerk@example.com", "changeme123")
		richErr := requireTextCode(t, err, inventory.TextCodeTooManyAttempts)
		assert.Equal(t, inventory.CoolDownPeriod, richErr.Metadata["cool_down"])
		assert.Empty(t, inventory.ErrTooManyLoginAttempts.Metadata)
	})

	t.Run("attempts reset after cool down", func(t *testing.T) {
		user := storedUser(t, inventory.RoleUser)
		old := time.Now().Add(-48 * time.Hour)
		user.LoginAttempts = inventory.MaxLoginAttempts
		user.LoginAttemptAt = &old

		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "clerk@example.com").Return(user, nil).Once()
		store.On("TrackSucccessfulLogin", ctx, user).Return(nil).Once()

		_, err := inventory.NewUserProvider(store).VerifyIdentity(ctx, "clerk@example.com", "changeme123")
		require.NoError(t, err)
	})

	t.Run("invalid role", func(t *testing.T) {
		user := storedUser(t, inventory.UserRole("owner"))
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "clerk@example.com").Return(user, nil).Once()
		store.On("TrackSucccessfulLogin", ctx, user).Return(nil).Once()

		_, err := inventory.NewUserProvider(store).VerifyIdentity(ctx, "clerk@example.com", "changeme123")
		requireTextCode(t, err, "INVALID_ROLE")
	})
}

func TestFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()
	user := storedUser(t, inventory.RoleAdmin)

	store := new(MockUserTracker)
	store.On("GetByIdentifier", ctx, user.ID.String()).Return(user, nil).Once()
	store.On("GetByIdentifier", ctx, "ghost@example.com").Return(nil, repository.NewRecordNotFound()).Once()

	provider := inventory.NewUserProvider(store)

	identity, err := provider.FindIdentityByIdentifier(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "clerk@example.com", identity.Email())

	approved, ok := identity.(interface{ IsApproved() bool })
	require.True(t, ok)
	assert.True(t, approved.IsApproved())

	_, err = provider.FindIdentityByIdentifier(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, inventory.ErrIdentityNotFound)

	store.AssertExpectations(t)
}

func TestUserProviderCustomValidator(t *testing.T) {
	ctx := context.Background()
	user := storedUser(t, inventory.RoleUser)

	store := new(MockUserTracker)
	store.On("GetByIdentifier", ctx, "clerk@example.com").Return(user, nil).Once()

	provider := inventory.NewUserProvider(store)
	provider.Validator = func(u *inventory.AppUser) error {
		if !u.IsApproved {
			return inventory.ErrNotApproved
		}
		return inventory.ErrInsufficientRole
	}

	_, err := provider.FindIdentityByIdentifier(ctx, "clerk@example.com")
	assert.ErrorIs(t, err, inventory.ErrInsufficientRole)
}
