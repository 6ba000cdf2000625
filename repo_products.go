package inventory

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Products stores products per warehouse.
type Products interface {
	repository.Repository[*Product]

	ListForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*Product, error)
	ListForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]*Product, error)
	FindInWarehouse(ctx context.Context, warehouseID, id uuid.UUID) (*Product, error)
	FindInWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID, id uuid.UUID) (*Product, error)
	CreateProductTx(ctx context.Context, tx bun.IDB, record *Product) (*Product, error)
	UpdateProductTx(ctx context.Context, tx bun.IDB, record *Product) error
	AdjustQuantityTx(ctx context.Context, tx bun.IDB, record *Product, delta int) error
	DeleteFromWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID, id uuid.UUID) error
}

type products struct {
	repository.Repository[*Product]
	db  *bun.DB
	now func() time.Time
}

var _ Products = (*products)(nil)

// NewProductsRepository creates the products repository.
func NewProductsRepository(db *bun.DB) Products {
	return &products{
		Repository: repository.NewRepository[*Product](db, modelHandlers[Product]("sku")),
		db:         db,
		now:        time.Now,
	}
}

func (p *products) ListForWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*Product, error) {
	return p.ListForWarehouseTx(ctx, p.db, warehouseID)
}

func (p *products) ListForWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID uuid.UUID) ([]*Product, error) {
	return listForWarehouse[Product](ctx, tx, warehouseID, "?TableAlias.name ASC")
}

func (p *products) FindInWarehouse(ctx context.Context, warehouseID, id uuid.UUID) (*Product, error) {
	return p.FindInWarehouseTx(ctx, p.db, warehouseID, id)
}

func (p *products) FindInWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID, id uuid.UUID) (*Product, error) {
	return findInWarehouse[Product](ctx, tx, warehouseID, id)
}

func (p *products) CreateProductTx(ctx context.Context, tx bun.IDB, record *Product) (*Product, error) {
	ensureID(&record.ID)
	now := p.now()
	record.LastUpdated = &now
	return p.Repository.CreateTx(ctx, tx, record)
}

// UpdateProductTx overwrites every editable column. Zero values are written
// so quantities can drop to 0.
func (p *products) UpdateProductTx(ctx context.Context, tx bun.IDB, record *Product) error {
	now := p.now()
	record.LastUpdated = &now
	res, err := tx.NewUpdate().
		Model(record).
		Column("name", "name_zh", "sku", "category", "quantity", "price", "min_stock", "description", "last_updated").
		Where("?TableAlias.id = ?", record.ID).
		Where("?TableAlias.warehouse_id = ?", record.WarehouseID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, map[string]any{"product_id": record.ID.String()})
}

// AdjustQuantityTx adds delta to the stored quantity in a single statement,
// clamping at zero, and refreshes record with the stored value. Concurrent
// adjustments on the same row never overwrite each other.
func (p *products) AdjustQuantityTx(ctx context.Context, tx bun.IDB, record *Product, delta int) error {
	now := p.now()
	res, err := tx.NewUpdate().
		Model((*Product)(nil)).
		Set("quantity = CASE WHEN quantity + ? < 0 THEN 0 ELSE quantity + ? END", delta, delta).
		Set("last_updated = ?", now).
		Where("id = ?", record.ID).
		Where("warehouse_id = ?", record.WarehouseID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if err := expectRows(res, map[string]any{"product_id": record.ID.String()}); err != nil {
		return err
	}

	var quantity int
	if err := tx.NewSelect().
		Model((*Product)(nil)).
		Column("quantity").
		Where("id = ?", record.ID).
		Scan(ctx, &quantity); err != nil {
		return err
	}
	record.Quantity = quantity
	record.LastUpdated = &now
	return nil
}

func (p *products) DeleteFromWarehouseTx(ctx context.Context, tx bun.IDB, warehouseID, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*Product)(nil)).
		Where("id = ?", id).
		Where("warehouse_id = ?", warehouseID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, map[string]any{"product_id": id.String()})
}
