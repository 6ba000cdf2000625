package inventory_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-inventory"
)

func TestClaimsContext(t *testing.T) {
	ctx := context.Background()

	_, ok := inventory.GetClaims(ctx)
	assert.False(t, ok)
	assert.False(t, inventory.Can(ctx, "read"))

	claims := &inventory.JWTClaims{UserRole: string(inventory.RoleUser)}
	ctx = inventory.WithClaimsContext(ctx, claims)

	got, ok := inventory.GetClaims(ctx)
	require.True(t, ok)
	assert.Same(t, claims, got)

	assert.True(t, inventory.Can(ctx, "read"))
	assert.True(t, inventory.Can(ctx, "edit"))
	assert.False(t, inventory.Can(ctx, "delete"))
	assert.False(t, inventory.Can(ctx, "approve"))

	adminCtx := inventory.WithClaimsContext(context.Background(), &inventory.JWTClaims{UserRole: string(inventory.RoleAdmin)})
	assert.True(t, inventory.Can(adminCtx, "delete"))
}

func TestAccessContext(t *testing.T) {
	ctx := context.Background()

	_, ok := inventory.AccessFromContext(ctx)
	assert.False(t, ok)

	_, ok = inventory.AccessFromContext(inventory.WithAccessContext(ctx, nil))
	assert.False(t, ok)

	state := &inventory.AccessState{Email: "clerk@example.com", IsApproved: true}
	got, ok := inventory.AccessFromContext(inventory.WithAccessContext(ctx, state))
	require.True(t, ok)
	assert.Same(t, state, got)
}

func TestRouterLocals(t *testing.T) {
	app := fiber.New()
	claims := &inventory.JWTClaims{UserEmail: "clerk@example.com"}
	state := &inventory.AccessState{Email: "clerk@example.com"}

	app.Get("/default", func(c *fiber.Ctx) error {
		_, ok := inventory.GetRouterClaims(c, "")
		assert.False(t, ok)
		_, ok = inventory.GetRouterAccess(c)
		assert.False(t, ok)

		c.Locals("user", claims)
		c.Locals(inventory.AccessLocalsKey, state)

		got, ok := inventory.GetRouterClaims(c, "")
		assert.True(t, ok)
		assert.Equal(t, "clerk@example.com", got.Email())

		access, ok := inventory.GetRouterAccess(c)
		assert.True(t, ok)
		assert.Same(t, state, access)
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/custom", func(c *fiber.Ctx) error {
		c.Locals("session", claims)
		_, ok := inventory.GetRouterClaims(c, "session")
		assert.True(t, ok)
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, path := range []string{"/default", "/custom"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}
}
