package inventory

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Employees stores staff per warehouse.
type Employees interface {
	repository.Repository[*Employee]

	ListForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*Employee, error)
	ListForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]*Employee, error)
	FindInWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID, id uuid.UUID) (*Employee, error)
	AddEmployeeTx(ctx context.Context, tx bun.IDB, record *Employee) (*Employee, error)
}

type employees struct {
	repository.Repository[*Employee]
	db *bun.DB
}

// NewEmployeesRepository creates the employees repository.
func NewEmployeesRepository(db *bun.DB) Employees {
	return &employees{
		Repository: repository.NewRepository[*Employee](db, modelHandlers[Employee]("email")),
		db:         db,
	}
}

func (e *employees) ListForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*Employee, error) {
	return e.ListForWarehouseTx(ctx, e.db, warehouseID)
}

func (e *employees) ListForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]*Employee, error) {
	return listForWarehouse[Employee](ctx, tx, warehouseID, "?TableAlias.name ASC")
}

func (e *employees) FindInWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID, id uuid.UUID) (*Employee, error) {
	return findInWarehouse[Employee](ctx, tx, warehouseID, id)
}

func (e *employees) AddEmployeeTx(ctx context.Context, tx bun.IDB, record *Employee) (*Employee, error) {
	ensureID(&record.ID)
	if record.JoinedDate == nil {
		now := time.Now()
		record.JoinedDate = &now
	}
	return e.Repository.CreateTx(ctx, tx, record)
}

// Assignments stores stock handed out to employees.
type Assignments interface {
	repository.Repository[*Assignment]

	ListForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*Assignment, error)
	ListForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]*Assignment, error)
	FindInWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID, id uuid.UUID) (*Assignment, error)
	AddAssignmentTx(ctx context.Context, tx bun.IDB, record *Assignment) (*Assignment, error)
	MarkReturnedTx(ctx context.Context, tx bun.IDB, record *Assignment, at time.Time) error
}

type assignments struct {
	repository.Repository[*Assignment]
	db *bun.DB
}

// NewAssignmentsRepository creates the assignments repository.
func NewAssignmentsRepository(db *bun.DB) Assignments {
	return &assignments{
		Repository: repository.NewRepository[*Assignment](db, modelHandlers[Assignment]("id")),
		db:         db,
	}
}

func (a *assignments) ListForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*Assignment, error) {
	return a.ListForWarehouseTx(ctx, a.db, warehouseID)
}

func (a *assignments) ListForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]*Assignment, error) {
	return listForWarehouse[Assignment](ctx, tx, warehouseID, "?TableAlias.assigned_date DESC")
}

func (a *assignments) FindInWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID, id uuid.UUID) (*Assignment, error) {
	return findInWarehouse[Assignment](ctx, tx, warehouseID, id)
}

func (a *assignments) AddAssignmentTx(ctx context.Context, tx bun.IDB, record *Assignment) (*Assignment, error) {
	ensureID(&record.ID)
	if record.Status == "" {
		record.Status = AssignmentActive
	}
	if record.AssignedDate == nil {
		now := time.Now()
		record.AssignedDate = &now
	}
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *assignments) MarkReturnedTx(ctx context.Context, tx bun.IDB, record *Assignment, at time.Time) error {
	record.Status = AssignmentReturned
	record.ReturnedDate = &at
	res, err := tx.NewUpdate().
		Model(record).
		Column("status", "returned_date").
		Where("?TableAlias.id = ?", record.ID).
		Where("?TableAlias.status = ?", AssignmentActive).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return withMetadata(ErrAssignmentReturned, map[string]any{"assignment_id": record.ID.String()})
	}
	return nil
}

// ScrappedItems stores written off stock.
type ScrappedItems interface {
	repository.Repository[*ScrappedItem]

	ListForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*ScrappedItem, error)
	ListForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]*ScrappedItem, error)
	AddScrappedItemTx(ctx context.Context, tx bun.IDB, record *ScrappedItem) (*ScrappedItem, error)
}

type scrappedItems struct {
	repository.Repository[*ScrappedItem]
	db *bun.DB
}

// NewScrappedItemsRepository creates the scrapped items repository.
func NewScrappedItemsRepository(db *bun.DB) ScrappedItems {
	return &scrappedItems{
		Repository: repository.NewRepository[*ScrappedItem](db, modelHandlers[ScrappedItem]("id")),
		db:         db,
	}
}

func (s *scrappedItems) ListForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*ScrappedItem, error) {
	return s.ListForWarehouseTx(ctx, s.db, warehouseID)
}

func (s *scrappedItems) ListForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]*ScrappedItem, error) {
	return listForWarehouse[ScrappedItem](ctx, tx, warehouseID, "?TableAlias.scrapped_date DESC")
}

func (s *scrappedItems) AddScrappedItemTx(ctx context.Context, tx bun.IDB, record *ScrappedItem) (*ScrappedItem, error) {
	ensureID(&record.ID)
	if record.ScrappedDate == nil {
		now := time.Now()
		record.ScrappedDate = &now
	}
	return s.Repository.CreateTx(ctx, tx, record)
}

// StockLogs stores the append only audit trail.
type StockLogs interface {
	repository.Repository[*StockLog]

	ListForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*StockLog, error)
	ListForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]*StockLog, error)
	AppendTx(ctx context.Context, tx bun.IDB, record *StockLog) (*StockLog, error)
}

type stockLogs struct {
	repository.Repository[*StockLog]
	db *bun.DB
}

// NewStockLogsRepository creates the stock logs repository.
func NewStockLogsRepository(db *bun.DB) StockLogs {
	return &stockLogs{
		Repository: repository.NewRepository[*StockLog](db, modelHandlers[StockLog]("id")),
		db:         db,
	}
}

func (s *stockLogs) ListForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*StockLog, error) {
	return s.ListForWarehouseTx(ctx, s.db, warehouseID)
}

func (s *stockLogs) ListForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]*StockLog, error) {
	return listForWarehouse[StockLog](ctx, tx, warehouseID, "?TableAlias.logged_at DESC")
}

func (s *stockLogs) AppendTx(ctx context.Context, tx bun.IDB, record *StockLog) (*StockLog, error) {
	ensureID(&record.ID)
	if record.Date == nil {
		now := time.Now()
		record.Date = &now
	}
	return s.Repository.CreateTx(ctx, tx, record)
}

func expectRows(res sql.Result, meta map[string]any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.NewRecordNotFound().WithMetadata(meta)
	}
	return nil
}
