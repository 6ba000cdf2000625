package inventory

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	DB() *bun.DB
	Users() Users
	Warehouses() Warehouses
	Categories() Categories
	Products() Products
	Employees() Employees
	Assignments() Assignments
	ScrappedItems() ScrappedItems
	StockLogs() StockLogs
}

type mngr struct {
	db            *bun.DB
	users         Users
	warehouses    Warehouses
	categories    Categories
	products      Products
	employees     Employees
	assignments   Assignments
	scrappedItems ScrappedItems
	stockLogs     StockLogs
}

// NewRepositoryManager wires every repository against db.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:            db,
		users:         NewUsersRepository(db),
		warehouses:    NewWarehousesRepository(db),
		categories:    NewCategoriesRepository(db),
		products:      NewProductsRepository(db),
		employees:     NewEmployeesRepository(db),
		assignments:   NewAssignmentsRepository(db),
		scrappedItems: NewScrappedItemsRepository(db),
		stockLogs:     NewStockLogsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("database should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.warehouses == nil || m.categories == nil {
		return errors.New("repository warehouses and categories should be initialized")
	}

	if m.products == nil || m.employees == nil {
		return errors.New("repository products and employees should be initialized")
	}

	if m.assignments == nil || m.scrappedItems == nil || m.stockLogs == nil {
		return errors.New("repository assignments, scrapped items and stock logs should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) DB() *bun.DB                  { return m.db }
func (m mngr) Users() Users                 { return m.users }
func (m mngr) Warehouses() Warehouses       { return m.warehouses }
func (m mngr) Categories() Categories       { return m.categories }
func (m mngr) Products() Products           { return m.products }
func (m mngr) Employees() Employees         { return m.employees }
func (m mngr) Assignments() Assignments     { return m.assignments }
func (m mngr) ScrappedItems() ScrappedItems { return m.scrappedItems }
func (m mngr) StockLogs() StockLogs         { return m.stockLogs }
