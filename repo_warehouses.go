package inventory

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Warehouses stores the regions inventory is partitioned by.
type Warehouses interface {
	repository.Repository[*Warehouse]

	ListAll(ctx context.Context) ([]*Warehouse, error)
	ListAllTx(ctx context.Context, tx bun.IDB) ([]*Warehouse, error)
	FindWarehouse(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	FindWarehouseTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Warehouse, error)
	CreateWarehouseTx(ctx context.Context, tx bun.IDB, record *Warehouse) (*Warehouse, error)
}

type warehouses struct {
	repository.Repository[*Warehouse]
	db *bun.DB
}

var _ Warehouses = (*warehouses)(nil)

// NewWarehousesRepository creates the warehouses repository.
func NewWarehousesRepository(db *bun.DB) Warehouses {
	return &warehouses{
		Repository: repository.NewRepository[*Warehouse](db, modelHandlers[Warehouse]("name")),
		db:         db,
	}
}

func (w *warehouses) ListAll(ctx context.Context) ([]*Warehouse, error) {
	return w.ListAllTx(ctx, w.db)
}

func (w *warehouses) ListAllTx(ctx context.Context, tx bun.IDB) ([]*Warehouse, error) {
	records := make([]*Warehouse, 0)
	err := tx.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.name ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		if IsSchemaError(err) {
			return nil, withMetadata(ErrSchemaNotReady, map[string]any{"table": "warehouses"})
		}
		return nil, err
	}
	return records, nil
}

func (w *warehouses) FindWarehouse(ctx context.Context, id uuid.UUID) (*Warehouse, error) {
	return w.FindWarehouseTx(ctx, w.db, id)
}

func (w *warehouses) FindWarehouseTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Warehouse, error) {
	record := &Warehouse{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"warehouse_id": id.String(),
			})
		}
		return nil, err
	}
	return record, nil
}

func (w *warehouses) CreateWarehouseTx(ctx context.Context, tx bun.IDB, record *Warehouse) (*Warehouse, error) {
	ensureID(&record.ID)
	record.Name = strings.TrimSpace(record.Name)
	record.Location = strings.TrimSpace(record.Location)
	return w.Repository.CreateTx(ctx, tx, record)
}

// Categories stores the per warehouse product categories.
type Categories interface {
	repository.Repository[*Category]

	NamesForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]string, error)
	NamesForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]string, error)
	AddCategoryTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID, name string) (*Category, error)
	RemoveCategoryTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID, name string) (int64, error)
}

type categories struct {
	repository.Repository[*Category]
	db *bun.DB
}

var _ Categories = (*categories)(nil)

// NewCategoriesRepository creates the categories repository.
func NewCategoriesRepository(db *bun.DB) Categories {
	return &categories{
		Repository: repository.NewRepository[*Category](db, modelHandlers[Category]("name")),
		db:         db,
	}
}

func (c *categories) NamesForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]string, error) {
	return c.NamesForWarehouseTx(ctx, c.db, warehouseID)
}

func (c *categories) NamesForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]string, error) {
	records := make([]*Category, 0)
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.warehouse_id = ?", warehouseID).
		OrderExpr("?TableAlias.name ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return names, nil
}

func (c *categories) AddCategoryTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID, name string) (*Category, error) {
	record := &Category{
		ID:          uuid.New(),
		WarehouseID: warehouseID,
		Name:        strings.TrimSpace(name),
	}
	return c.Repository.CreateTx(ctx, tx, record)
}

func (c *categories) RemoveCategoryTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID, name string) (int64, error) {
	res, err := tx.NewDelete().
		Model((*Category)(nil)).
		Where("warehouse_id = ?", warehouseID).
		Where("name = ?", strings.TrimSpace(name)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
