package inventory_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-inventory"
)

func TestChangePassword(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustUser(t, repo, "clerk@example.com", inventory.RoleUser, true)

	sink := &recordingSink{}
	handler := inventory.NewChangePasswordHandler(repo, inventory.WithHandlerActivitySink(sink))

	err := handler.Execute(ctx, inventory.ChangePasswordMessage{
		Email:           "clerk@example.com",
		CurrentPassword: "changeme123",
		NewPassword:     "a much better one",
	})
	require.NoError(t, err)

	stored, err := repo.Users().GetByIdentifier(ctx, "clerk@example.com")
	require.NoError(t, err)
	assert.NoError(t, inventory.ComparePasswordAndHash("a much better one", stored.PasswordHash))
	assert.Error(t, inventory.ComparePasswordAndHash("changeme123", stored.PasswordHash))

	assert.Equal(t, inventory.ActivityEventPasswordChanged, sink.Last().EventType)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	repo := newTestRepo(t)
	mustUser(t, repo, "clerk@example.com", inventory.RoleUser, true)

	err := inventory.NewChangePasswordHandler(repo).Execute(context.Background(), inventory.ChangePasswordMessage{
		Email:           "clerk@example.com",
		CurrentPassword: "wrong password",
		NewPassword:     "a much better one",
	})
	requireTextCode(t, err, inventory.TextCodeInvalidCredentials)
}

func TestChangePasswordTooShort(t *testing.T) {
	repo := newTestRepo(t)

	err := inventory.NewChangePasswordHandler(repo).Execute(context.Background(), inventory.ChangePasswordMessage{
		Email:           "clerk@example.com",
		CurrentPassword: "changeme123",
		NewPassword:     "short",
	})
	requireCategory(t, err, goerrors.CategoryValidation)
}
