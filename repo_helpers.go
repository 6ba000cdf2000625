package inventory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// normalizer is implemented by models that fill display defaults on read.
type normalizer[T any] interface {
	*T
	Normalize(now time.Time) *T
}

func modelHandlers[T any, PT interface {
	*T
	getID() uuid.UUID
	setID(uuid.UUID)
}](identifier string) repository.ModelHandlers[PT] {
	return repository.ModelHandlers[PT]{
		NewRecord: func() PT { return PT(new(T)) },
		GetID: func(record PT) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.getID()
		},
		SetID: func(record PT, id uuid.UUID) {
			if record != nil {
				record.setID(id)
			}
		},
		GetIdentifier: func() string {
			return identifier
		},
	}
}

// listForWarehouse loads every row of T in a warehouse, ordered by orderExpr,
// and applies display defaults.
func listForWarehouse[T any, PT normalizer[T]](ctx context.Context, db bun.IDB, warehouseID uuid.UUID, orderExpr string) ([]PT, error) {
	records := make([]PT, 0)
	err := db.NewSelect().
		Model(&records).
		Where("?TableAlias.warehouse_id = ?", warehouseID).
		OrderExpr(orderExpr).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now()
	for _, r := range records {
		r.Normalize(now)
	}
	return records, nil
}

// findInWarehouse loads a single row of T by id, scoped to a warehouse.
func findInWarehouse[T any](ctx context.Context, db bun.IDB, warehouseID, id uuid.UUID) (*T, error) {
	record := new(T)
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.warehouse_id = ?", warehouseID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"id":           id.String(),
				"warehouse_id": warehouseID.String(),
			})
		}
		return nil, err
	}
	return record, nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (w *Warehouse) getID() uuid.UUID   { return w.ID }
func (w *Warehouse) setID(id uuid.UUID) { w.ID = id }

func (c *Category) getID() uuid.UUID   { return c.ID }
func (c *Category) setID(id uuid.UUID) { c.ID = id }

func (p *Product) getID() uuid.UUID   { return p.ID }
func (p *Product) setID(id uuid.UUID) { p.ID = id }

func (e *Employee) getID() uuid.UUID   { return e.ID }
func (e *Employee) setID(id uuid.UUID) { e.ID = id }

func (a *Assignment) getID() uuid.UUID   { return a.ID }
func (a *Assignment) setID(id uuid.UUID) { a.ID = id }

func (s *ScrappedItem) getID() uuid.UUID   { return s.ID }
func (s *ScrappedItem) setID(id uuid.UUID) { s.ID = id }

func (l *StockLog) getID() uuid.UUID   { return l.ID }
func (l *StockLog) setID(id uuid.UUID) { l.ID = id }

func (u *AppUser) getID() uuid.UUID   { return u.ID }
func (u *AppUser) setID(id uuid.UUID) { u.ID = id }
