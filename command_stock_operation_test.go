package inventory_test

import (
	"context"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-inventory"
)

func TestStockOperationInbound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wh := mustWarehouse(t, repo, "Berlin")
	product := mustProduct(t, repo, wh.ID, "LAP-001", 4)

	sink := &recordingSink{}
	handler := inventory.NewStockOperationHandler(repo,
		inventory.WithHandlerActivitySink(sink),
		inventory.WithHandlerClock(fixedClock),
	)

	res, err := handler.Execute(ctx, inventory.StockOperationMessage{
		WarehouseID: wh.ID,
		ProductID:   product.ID,
		Operation:   inventory.OperationInbound,
		Quantity:    6,
		Actor:       testActor,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, res.Product.Quantity)
	assert.Nil(t, res.Assignment)
	assert.Nil(t, res.Scrapped)
	require.NotNil(t, res.Log)
	assert.Equal(t, inventory.LogActionInbound, res.Log.Action)
	assert.Equal(t, 6, res.Log.Quantity)
	assert.Equal(t, testActor.Email, res.Log.PerformedBy)

	stored, err := repo.Products().FindInWarehouse(ctx, wh.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Quantity)

	event := sink.Last()
	assert.Equal(t, inventory.ActivityEventStockChanged, event.EventType)
	assert.Equal(t, wh.ID.String(), event.WarehouseID)
	assert.Equal(t, "INBOUND", event.Metadata["operation"])
	assert.Equal(t, fixedNow, event.OccurredAt)
}

func TestStockOperationAssignFloorsAtZero(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wh := mustWarehouse(t, repo, "Berlin")
	product := mustProduct(t, repo, wh.ID, "MOU-002", 3)
	employee := mustEmployee(t, repo, wh.ID, "Jane Doe")

	handler := inventory.NewStockOperationHandler(repo)

	res, err := handler.Execute(ctx, inventory.StockOperationMessage{
		WarehouseID: wh.ID,
		ProductID:   product.ID,
		Operation:   inventory.OperationAssign,
		Quantity:    5,
		EmployeeID:  employee.ID,
		Actor:       testActor,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Product.Quantity)
	require.NotNil(t, res.Assignment)
	assert.Equal(t, 5, res.Assignment.Quantity)
	assert.Equal(t, inventory.AssignmentActive, res.Assignment.Status)
	assert.Equal(t, "Jane Doe", res.Assignment.EmployeeName)
	assert.Equal(t, product.Name, res.Assignment.ProductName)
	assert.Equal(t, product.NameZh, res.Assignment.ProductNameZh)
	assert.Equal(t, inventory.LogActionAssign, res.Log.Action)
	assert.Equal(t, "Assigned to Jane Doe", res.Log.Details)

	assignments, err := repo.Assignments().ListForWarehouse(ctx, wh.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, res.Assignment.ID, assignments[0].ID)
}

func TestStockOperationAssignRequiresEmployee(t *testing.T) {
	repo := newTestRepo(t)
	wh := mustWarehouse(t, repo, "Berlin")
	product := mustProduct(t, repo, wh.ID, "MOU-002", 3)

	_, err := inventory.NewStockOperationHandler(repo).Execute(context.Background(), inventory.StockOperationMessage{
		WarehouseID: wh.ID,
		ProductID:   product.ID,
		Operation:   inventory.OperationAssign,
		Quantity:    1,
		Actor:       testActor,
	})
	requireCategory(t, err, goerrors.CategoryValidation)
}

func TestStockOperationRejectsEmployeeFromOtherWarehouse(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	berlin := mustWarehouse(t, repo, "Berlin")
	shenzhen := mustWarehouse(t, repo, "Shenzhen")
	product := mustProduct(t, repo, berlin.ID, "MOU-002", 3)
	stranger := mustEmployee(t, repo, shenzhen.ID, "Mark Lee")

	_, err := inventory.NewStockOperationHandler(repo).Execute(ctx, inventory.StockOperationMessage{
		WarehouseID: berlin.ID,
		ProductID:   product.ID,
		Operation:   inventory.OperationAssign,
		Quantity:    1,
		EmployeeID:  stranger.ID,
		Actor:       testActor,
	})
	requireCategory(t, err, goerrors.CategoryNotFound)

	stored, err := repo.Products().FindInWarehouse(ctx, berlin.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Quantity, "failed operation must not change stock")
}

func TestStockOperationScrapDefaultsReason(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wh := mustWarehouse(t, repo, "Berlin")
	product := mustProduct(t, repo, wh.ID, "SAF-010", 10)

	res, err := inventory.NewStockOperationHandler(repo).Execute(ctx, inventory.StockOperationMessage{
		WarehouseID: wh.ID,
		ProductID:   product.ID,
		Operation:   inventory.OperationScrap,
		Quantity:    4,
		Actor:       testActor,
	})
	require.NoError(t, err)

	assert.Equal(t, 6, res.Product.Quantity)
	require.NotNil(t, res.Scrapped)
	assert.Equal(t, 4, res.Scrapped.Quantity)
	assert.Equal(t, inventory.LogActionScrap, res.Log.Action)
	assert.Equal(t, "Reason: No reason provided", res.Log.Details)

	scrapped, err := repo.ScrappedItems().ListForWarehouse(ctx, wh.ID)
	require.NoError(t, err)
	require.Len(t, scrapped, 1)
	assert.Equal(t, "No reason provided", scrapped[0].Reason)
}

func TestStockOperationScrapKeepsReason(t *testing.T) {
	repo := newTestRepo(t)
	wh := mustWarehouse(t, repo, "Berlin")
	product := mustProduct(t, repo, wh.ID, "SAF-010", 10)

	res, err := inventory.NewStockOperationHandler(repo).Execute(context.Background(), inventory.StockOperationMessage{
		WarehouseID: wh.ID,
		ProductID:   product.ID,
		Operation:   inventory.OperationScrap,
		Quantity:    1,
		Reason:      "  water damage ",
		Actor:       testActor,
	})
	require.NoError(t, err)
	assert.Equal(t, "water damage", res.Scrapped.Reason)
	assert.Equal(t, "Reason: water damage", res.Log.Details)
}

func TestStockOperationProductOutsideWarehouse(t *testing.T) {
	repo := newTestRepo(t)
	berlin := mustWarehouse(t, repo, "Berlin")
	shenzhen := mustWarehouse(t, repo, "Shenzhen")
	product := mustProduct(t, repo, shenzhen.ID, "DCK-100", 2)

	_, err := inventory.NewStockOperationHandler(repo).Execute(context.Background(), inventory.StockOperationMessage{
		WarehouseID: berlin.ID,
		ProductID:   product.ID,
		Operation:   inventory.OperationInbound,
		Quantity:    1,
		Actor:       testActor,
	})
	richErr := requireCategory(t, err, goerrors.CategoryNotFound)
	assert.Equal(t, product.ID.String(), richErr.Metadata["product_id"])
}

func TestStockOperationValidation(t *testing.T) {
	repo := newTestRepo(t)
	handler := inventory.NewStockOperationHandler(repo)

	cases := []struct {
		name string
		msg  inventory.StockOperationMessage
	}{
		{
			name: "missing product",
			msg:  inventory.StockOperationMessage{Operation: inventory.OperationInbound, Quantity: 1},
		},
		{
			name: "zero quantity",
			msg:  inventory.StockOperationMessage{ProductID: uuid.New(), Operation: inventory.OperationInbound},
		},
		{
			name: "unknown operation",
			msg:  inventory.StockOperationMessage{ProductID: uuid.New(), Operation: "BORROW", Quantity: 1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := handler.Execute(context.Background(), tc.msg)
			requireCategory(t, err, goerrors.CategoryValidation)
		})
	}
}

func TestStockOperationCancelledContext(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := inventory.NewStockOperationHandler(repo).Execute(ctx, inventory.StockOperationMessage{
		ProductID: uuid.New(),
		Operation: inventory.OperationInbound,
		Quantity:  1,
	})
	requireCategory(t, err, goerrors.CategoryOperation)
}

func TestAdjustQuantityUsesStoredValue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wh := mustWarehouse(t, repo, "Berlin")
	product := mustProduct(t, repo, wh.ID, "CBL-010", 5)

	// both copies were read before either write
	first, err := repo.Products().FindInWarehouse(ctx, wh.ID, product.ID)
	require.NoError(t, err)
	second, err := repo.Products().FindInWarehouse(ctx, wh.ID, product.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Products().AdjustQuantityTx(ctx, repo.DB(), first, 3))
	require.NoError(t, repo.Products().AdjustQuantityTx(ctx, repo.DB(), second, 2))

	assert.Equal(t, 8, first.Quantity)
	assert.Equal(t, 10, second.Quantity)

	require.NoError(t, repo.Products().AdjustQuantityTx(ctx, repo.DB(), second, -100))
	assert.Equal(t, 0, second.Quantity)

	stored, err := repo.Products().FindInWarehouse(ctx, wh.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Quantity)

	missing := &inventory.Product{ID: uuid.New(), WarehouseID: wh.ID}
	err = repo.Products().AdjustQuantityTx(ctx, repo.DB(), missing, 1)
	require.Error(t, err)
}

func TestStockOperationConcurrentUpdates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wh := mustWarehouse(t, repo, "Berlin")
	product := mustProduct(t, repo, wh.ID, "KEY-011", 10)

	handler := inventory.NewStockOperationHandler(repo)

	const inbound, scrap = 20, 10
	var wg sync.WaitGroup
	errs := make(chan error, inbound+scrap)

	for i := 0; i < inbound+scrap; i++ {
		msg := inventory.StockOperationMessage{
			WarehouseID: wh.ID,
			ProductID:   product.ID,
			Operation:   inventory.OperationInbound,
			Quantity:    2,
			Actor:       testActor,
		}
		if i >= inbound {
			msg.Operation = inventory.OperationScrap
			msg.Quantity = 1
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := handler.Execute(ctx, msg)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := repo.Products().FindInWarehouse(ctx, wh.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10+inbound*2-scrap, stored.Quantity)

	logs, err := repo.StockLogs().ListForWarehouse(ctx, wh.ID)
	require.NoError(t, err)
	assert.Len(t, logs, inbound+scrap)
}
