package inventory_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-inventory"
)

func assignStock(t *testing.T, repo inventory.RepositoryManager, product *inventory.Product, employee *inventory.Employee, qty int) *inventory.Assignment {
	t.Helper()
	res, err := inventory.NewStockOperationHandler(repo).Execute(context.Background(), inventory.StockOperationMessage{
		WarehouseID: product.WarehouseID,
		ProductID:   product.ID,
		Operation:   inventory.OperationAssign,
		Quantity:    qty,
		EmployeeID:  employee.ID,
		Actor:       testActor,
	})
	require.NoError(t, err)
	return res.Assignment
}

func TestReturnAssetRestocksProduct(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wh := mustWarehouse(t, repo, "Berlin")
	product := mustProduct(t, repo, wh.ID, "LAP-001", 10)
	employee := mustEmployee(t, repo, wh.ID, "Jane Doe")
	assignment := assignStock(t, repo, product, employee, 3)

	handler := inventory.NewReturnAssetHandler(repo, inventory.WithHandlerClock(fixedClock))
	res, err := handler.Execute(ctx, inventory.ReturnAssetMessage{
		WarehouseID:  wh.ID,
		AssignmentID: assignment.ID,
		Actor:        testActor,
	})
	require.NoError(t, err)

	require.NotNil(t, res.Product)
	assert.Equal(t, 10, res.Product.Quantity)
	assert.Equal(t, inventory.AssignmentReturned, res.Assignment.Status)
	require.NotNil(t, res.Assignment.ReturnedDate)
	assert.True(t, fixedNow.Equal(*res.Assignment.ReturnedDate))
	assert.Equal(t, inventory.LogActionReturn, res.Log.Action)
	assert.Equal(t, 3, res.Log.Quantity)
	assert.Equal(t, "Returned from Jane Doe", res.Log.Details)

	stored, err := repo.Products().FindInWarehouse(ctx, wh.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Quantity)
}

func TestReturnAssetTwiceIsConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wh := mustWarehouse(t, repo, "Berlin")
	product := mustProduct(t, repo, wh.ID, "LAP-001", 10)
	employee := mustEmployee(t, repo, wh.ID, "Jane Doe")
	assignment := assignStock(t, repo, product, employee, 2)

	handler := inventory.NewReturnAssetHandler(repo)
	msg := inventory.ReturnAssetMessage{WarehouseID: wh.ID, AssignmentID: assignment.ID, Actor: testActor}

	_, err := handler.Execute(ctx, msg)
	require.NoError(t, err)

	_, err = handler.Execute(ctx, msg)
	requireTextCode(t, err, inventory.TextCodeAlreadyReturned)

	stored, err := repo.Products().FindInWarehouse(ctx, wh.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Quantity, "second return must not restock again")
}

func TestReturnAssetAfterProductDeleted(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wh := mustWarehouse(t, repo, "Berlin")
	product := mustProduct(t, repo, wh.ID, "LAP-001", 10)
	employee := mustEmployee(t, repo, wh.ID, "Jane Doe")
	assignment := assignStock(t, repo, product, employee, 2)

	err := inventory.NewDeleteProductHandler(repo).Execute(ctx, inventory.DeleteProductMessage{
		WarehouseID: wh.ID,
		ProductID:   product.ID,
		Actor:       testActor,
	})
	require.NoError(t, err)

	res, err := inventory.NewReturnAssetHandler(repo).Execute(ctx, inventory.ReturnAssetMessage{
		WarehouseID:  wh.ID,
		AssignmentID: assignment.ID,
		Actor:        testActor,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Product)
	assert.Equal(t, inventory.AssignmentReturned, res.Assignment.Status)
	assert.Equal(t, product.Name, res.Log.ProductName)
}

func TestReturnAssetScopedToWarehouse(t *testing.T) {
	repo := newTestRepo(t)
	berlin := mustWarehouse(t, repo, "Berlin")
	shenzhen := mustWarehouse(t, repo, "Shenzhen")
	product := mustProduct(t, repo, berlin.ID, "LAP-001", 10)
	employee := mustEmployee(t, repo, berlin.ID, "Jane Doe")
	assignment := assignStock(t, repo, product, employee, 2)

	_, err := inventory.NewReturnAssetHandler(repo).Execute(context.Background(), inventory.ReturnAssetMessage{
		WarehouseID:  shenzhen.ID,
		AssignmentID: assignment.ID,
		Actor:        testActor,
	})
	requireCategory(t, err, goerrors.CategoryNotFound)
}
