package inventory

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Snapshot is everything the dashboard shows for one warehouse.
type Snapshot struct {
	WarehouseID uuid.UUID                  `json:"warehouseId"`
	Products    []*Product                 `json:"products"`
	Employees   []*Employee                `json:"employees"`
	Assignments []*Assignment              `json:"assignments"`
	Scrapped    []*ScrappedItem            `json:"scrapped"`
	Categories  []string                   `json:"categories"`
	Logs        []*StockLog                `json:"logs"`
	Stats       InventoryStats             `json:"stats"`
	Usage       map[uuid.UUID]ProductUsage `json:"usage"`
	LoadedAt    time.Time                  `json:"loadedAt"`
}

// SnapshotLoader reads every collection of a warehouse concurrently.
type SnapshotLoader struct {
	repo   RepositoryManager
	logger Logger
	now    func() time.Time
}

// NewSnapshotLoader creates a loader.
func NewSnapshotLoader(repo RepositoryManager, logger Logger) *SnapshotLoader {
	_, logger = ResolveLogger("inventory.snapshot", nil, logger)
	return &SnapshotLoader{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Load returns the snapshot for warehouseID. Any failed read fails the whole
// snapshot.
func (l *SnapshotLoader) Load(ctx context.Context, warehouseID uuid.UUID) (*Snapshot, error) {
	snap := &Snapshot{WarehouseID: warehouseID}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Products, err = l.repo.Products().ListForWarehouse(gctx, warehouseID)
		return err
	})
	g.Go(func() (err error) {
		snap.Employees, err = l.repo.Employees().ListForWarehouse(gctx, warehouseID)
		return err
	})
	g.Go(func() (err error) {
		snap.Assignments, err = l.repo.Assignments().ListForWarehouse(gctx, warehouseID)
		return err
	})
	g.Go(func() (err error) {
		snap.Scrapped, err = l.repo.ScrappedItems().ListForWarehouse(gctx, warehouseID)
		return err
	})
	g.Go(func() (err error) {
		snap.Categories, err = l.repo.Categories().NamesForWarehouse(gctx, warehouseID)
		return err
	})
	g.Go(func() (err error) {
		snap.Logs, err = l.repo.StockLogs().ListForWarehouse(gctx, warehouseID)
		return err
	})

	if err := g.Wait(); err != nil {
		if IsSchemaError(err) {
			return nil, withMetadata(ErrSchemaNotReady, map[string]any{
				"warehouse_id": warehouseID.String(),
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load warehouse snapshot").
			WithMetadata(map[string]any{"warehouse_id": warehouseID.String()})
	}

	snap.Stats = ComputeStats(snap.Products)
	snap.Usage = UsageByProduct(snap.Products, snap.Logs, snap.Assignments, snap.Scrapped)
	snap.LoadedAt = l.now()

	l.logger.Debug("snapshot loaded",
		"warehouse_id", warehouseID.String(),
		"stats", print.MaybePrettyJSON(snap.Stats),
	)

	return snap, nil
}
