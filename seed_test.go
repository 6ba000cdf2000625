package inventory_test

import (
	"context"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-inventory"
)

func loadDemoFixtures(t *testing.T) *inventory.Fixtures {
	t.Helper()
	f, err := inventory.GetFixturesFS().Open(inventory.DefaultFixturesPath)
	require.NoError(t, err)
	defer f.Close()

	fx, err := inventory.ParseFixtures(f)
	require.NoError(t, err)
	return fx
}

func TestParseFixtures(t *testing.T) {
	fx := loadDemoFixtures(t)
	assert.Len(t, fx.Warehouses, 1)
	assert.Len(t, fx.Products, 4)
	assert.Len(t, fx.Users, 2)

	_, err := inventory.ParseFixtures(strings.NewReader("warehouses:\n  - nickname: nope\n"))
	requireCategory(t, err, goerrors.CategoryBadInput)

	empty, err := inventory.ParseFixtures(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Products)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	fx := loadDemoFixtures(t)

	report, err := inventory.Seed(ctx, repo, fx, nopLogger{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted["warehouses"])
	assert.Equal(t, 4, report.Inserted["products"])
	assert.Equal(t, 2, report.Inserted["employees"])
	assert.Equal(t, 2, report.Inserted["users"])
	assert.Empty(t, report.Skipped)

	products, err := repo.Products().ListForWarehouse(ctx, inventory.DefaultWarehouseID)
	require.NoError(t, err)
	assert.Len(t, products, 3)

	employees, err := repo.Employees().ListForWarehouse(ctx, inventory.DefaultWarehouseID)
	require.NoError(t, err)
	var phones []string
	for _, e := range employees {
		phones = append(phones, e.Phone)
	}
	assert.Contains(t, phones, "+12015550123")

	admin, err := repo.Users().GetByIdentifier(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsApproved)
	assert.NoError(t, inventory.ComparePasswordAndHash("changeme123", admin.PasswordHash))

	again, err := inventory.Seed(ctx, repo, fx, nopLogger{})
	require.NoError(t, err)
	assert.Empty(t, again.Inserted)
	assert.Equal(t, 4, again.Skipped["products"])
	assert.Equal(t, 4, again.Skipped["categories"])
	assert.Equal(t, 2, again.Skipped["users"])
}
