package inventory_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-inventory"
)

func TestMain(m *testing.M) {
	inventory.PasswordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

var testActor = inventory.ActorRef{ID: "actor-1", Email: "ops@example.com", Type: "user"}

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// newTestRepo opens a private in-memory database with the full schema.
func newTestRepo(t *testing.T) inventory.RepositoryManager {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := inventory.OpenDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, inventory.Migrate(context.Background(), db, nopLogger{}))
	return inventory.NewRepositoryManager(db)
}

func mustWarehouse(t *testing.T, repo inventory.RepositoryManager, name string) *inventory.Warehouse {
	t.Helper()
	w, err := repo.Warehouses().CreateWarehouseTx(context.Background(), repo.DB(), &inventory.Warehouse{
		Name:     name,
		Location: name + " district",
	})
	require.NoError(t, err)
	return w
}

func mustProduct(t *testing.T, repo inventory.RepositoryManager, warehouseID uuid.UUID, sku string, qty int) *inventory.Product {
	t.Helper()
	p, err := repo.Products().CreateProductTx(context.Background(), repo.DB(), &inventory.Product{
		WarehouseID: warehouseID,
		Name:        "Item " + sku,
		NameZh:      "物品 " + sku,
		SKU:         sku,
		Category:    "Electronics",
		Quantity:    qty,
		Price:       10,
		MinStock:    inventory.DefaultMinStock,
	})
	require.NoError(t, err)
	return p
}

func mustEmployee(t *testing.T, repo inventory.RepositoryManager, warehouseID uuid.UUID, name string) *inventory.Employee {
	t.Helper()
	e, err := repo.Employees().AddEmployeeTx(context.Background(), repo.DB(), &inventory.Employee{
		WarehouseID: warehouseID,
		Name:        name,
		Department:  "Operations",
	})
	require.NoError(t, err)
	return e
}

func mustUser(t *testing.T, repo inventory.RepositoryManager, email string, role inventory.UserRole, approved bool, warehouses ...uuid.UUID) *inventory.AppUser {
	t.Helper()

	hash, err := inventory.HashPassword("changeme123")
	require.NoError(t, err)

	status := inventory.ApprovalPending
	if approved {
		status = inventory.ApprovalApproved
	}

	assigned := make([]string, 0, len(warehouses))
	for _, id := range warehouses {
		assigned = append(assigned, id.String())
	}

	u, err := repo.Users().Register(context.Background(), &inventory.AppUser{
		Email:              email,
		PasswordHash:       hash,
		Role:               role,
		ApprovalStatus:     status,
		AssignedWarehouses: assigned,
	})
	require.NoError(t, err)
	return u
}

func requireTextCode(t *testing.T, err error, code string) *goerrors.Error {
	t.Helper()
	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected rich error, got %T: %v", err, err)
	require.Equal(t, code, richErr.TextCode, "unexpected text code for %v", err)
	return richErr
}

func requireCategory(t *testing.T, err error, category goerrors.Category) *goerrors.Error {
	t.Helper()
	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected rich error, got %T: %v", err, err)
	require.Equal(t, category, richErr.Category, "unexpected category for %v", err)
	return richErr
}

func intPtr(v int) *int { return &v }

type recordingSink struct {
	mu     sync.Mutex
	events []inventory.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event inventory.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []inventory.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]inventory.ActivityEvent(nil), s.events...)
}

func (s *recordingSink) Last() inventory.ActivityEvent {
	events := s.Events()
	if len(events) == 0 {
		return inventory.ActivityEvent{}
	}
	return events[len(events)-1]
}
