package inventory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-inventory"
)

func TestSnapshotLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wh := mustWarehouse(t, repo, "Berlin")
	other := mustWarehouse(t, repo, "Shenzhen")

	laptop := mustProduct(t, repo, wh.ID, "LAP-001", 10)
	mustProduct(t, repo, other.ID, "LAP-001", 99)
	jane := mustEmployee(t, repo, wh.ID, "Jane Doe")

	_, err := inventory.NewCategoriesHandler(repo).Add(ctx, inventory.CategoryMessage{WarehouseID: wh.ID, Name: "Electronics"})
	require.NoError(t, err)

	stock := inventory.NewStockOperationHandler(repo)
	_, err = stock.Execute(ctx, inventory.StockOperationMessage{
		WarehouseID: wh.ID,
		ProductID:   laptop.ID,
		Operation:   inventory.OperationAssign,
		Quantity:    3,
		EmployeeID:  jane.ID,
		Actor:       testActor,
	})
	require.NoError(t, err)
	_, err = stock.Execute(ctx, inventory.StockOperationMessage{
		WarehouseID: wh.ID,
		ProductID:   laptop.ID,
		Operation:   inventory.OperationScrap,
		Quantity:    1,
		Actor:       testActor,
	})
	require.NoError(t, err)

	snap, err := inventory.NewSnapshotLoader(repo, nopLogger{}).Load(ctx, wh.ID)
	require.NoError(t, err)

	assert.Equal(t, wh.ID, snap.WarehouseID)
	require.Len(t, snap.Products, 1)
	assert.Equal(t, 6, snap.Products[0].Quantity)
	assert.Len(t, snap.Employees, 1)
	assert.Len(t, snap.Assignments, 1)
	assert.Len(t, snap.Scrapped, 1)
	assert.Len(t, snap.Logs, 2)
	assert.Equal(t, []string{"Electronics"}, snap.Categories)
	assert.Equal(t, 1, snap.Stats.TotalProducts)
	assert.InDelta(t, 60, snap.Stats.TotalValue, 0.001)
	assert.False(t, snap.LoadedAt.IsZero())

	usage := snap.Usage[laptop.ID]
	assert.Equal(t, 3, usage.ActiveAssigned)
	assert.Equal(t, 1, usage.TotalScrapped)
}

func TestSnapshotEmptyWarehouse(t *testing.T) {
	repo := newTestRepo(t)

	snap, err := inventory.NewSnapshotLoader(repo, nil).Load(context.Background(), inventory.DefaultWarehouseID)
	require.NoError(t, err)
	assert.Empty(t, snap.Products)
	assert.Empty(t, snap.Logs)
	assert.Empty(t, snap.Usage)
}

func TestSnapshotSchemaNotReady(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := inventory.OpenDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = inventory.NewSnapshotLoader(inventory.NewRepositoryManager(db), nil).Load(context.Background(), uuid.New())
	requireTextCode(t, err, inventory.TextCodeSchemaNotReady)
}
