package inventory

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type tableIndex struct {
	model   any
	name    string
	unique  bool
	columns []string
}

var schemaModels = []any{
	(*Warehouse)(nil),
	(*Category)(nil),
	(*Product)(nil),
	(*Employee)(nil),
	(*Assignment)(nil),
	(*ScrappedItem)(nil),
	(*StockLog)(nil),
	(*AppUser)(nil),
}

var schemaIndexes = []tableIndex{
	{model: (*Product)(nil), name: "products_sku_warehouse_uidx", unique: true, columns: []string{"sku", "warehouse_id"}},
	{model: (*Category)(nil), name: "categories_name_warehouse_uidx", unique: true, columns: []string{"name", "warehouse_id"}},
	{model: (*Employee)(nil), name: "employees_warehouse_idx", columns: []string{"warehouse_id"}},
	{model: (*Assignment)(nil), name: "assignments_warehouse_idx", columns: []string{"warehouse_id"}},
	{model: (*ScrappedItem)(nil), name: "scrapped_items_warehouse_idx", columns: []string{"warehouse_id"}},
	{model: (*StockLog)(nil), name: "stock_logs_warehouse_idx", columns: []string{"warehouse_id", "logged_at"}},
}

// Migrate creates every table and index that is missing and inserts the
// default warehouse. It is safe to run more than once.
func Migrate(ctx context.Context, db *bun.DB, logger Logger) error {
	_, logger = ResolveLogger("inventory.migrate", nil, logger)

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range schemaModels {
			if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create table").
					WithMetadata(map[string]any{"model": model})
			}
		}

		for _, idx := range schemaIndexes {
			q := tx.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				Column(idx.columns...).
				IfNotExists()
			if idx.unique {
				q = q.Unique()
			}
			if _, err := q.Exec(ctx); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create index").
					WithMetadata(map[string]any{"index": idx.name})
			}
		}

		res, err := tx.NewInsert().
			Model(&Warehouse{
				ID:       DefaultWarehouseID,
				Name:     DefaultWarehouseName,
				Location: DefaultWarehouseLocation,
			}).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create default warehouse")
		}

		if n, _ := res.RowsAffected(); n > 0 {
			logger.Info("created default warehouse", "name", DefaultWarehouseName)
		}

		logger.Info("schema is up to date", "tables", len(schemaModels), "indexes", len(schemaIndexes))
		return nil
	})
}
