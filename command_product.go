package inventory

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultMinStock is applied to new products that do not set one.
const DefaultMinStock = 5

// SaveProductMessage creates a product, or updates it when ID is set. An ID
// must name a product of the same warehouse.
type SaveProductMessage struct {
	WarehouseID uuid.UUID `json:"-"`
	ID          uuid.UUID `json:"id,omitempty"`
	Name        string    `json:"name"`
	NameZh      string    `json:"nameZh"`
	SKU         string    `json:"sku"`
	Category    string    `json:"category"`
	Quantity    *int      `json:"quantity,omitempty"`
	Price       float64   `json:"price"`
	MinStock    *int      `json:"minStock,omitempty"`
	Description string    `json:"description"`
	Actor       ActorRef  `json:"-"`
}

func (m SaveProductMessage) Type() string { return "inventory.product.save" }

// Validate checks the payload before any query runs.
func (m SaveProductMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.NameZh, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.SKU, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.Category, validation.Length(0, 100)),
		validation.Field(&m.Quantity, validation.Min(0)),
		validation.Field(&m.Price, validation.Min(0.0)),
		validation.Field(&m.MinStock, validation.Min(0)),
	)
}

// SaveProductResult reports the stored product and whether it is new.
type SaveProductResult struct {
	Product *Product  `json:"product"`
	Created bool      `json:"created"`
	Log     *StockLog `json:"log"`
}

// SaveProductHandler creates or updates products.
type SaveProductHandler struct {
	commandBase
}

// NewSaveProductHandler creates a handler with sane defaults.
func NewSaveProductHandler(repo RepositoryManager, opts ...HandlerOption) *SaveProductHandler {
	return &SaveProductHandler{
		commandBase: newCommandBase(repo, "inventory.product", opts),
	}
}

func (h *SaveProductHandler) Execute(ctx context.Context, msg SaveProductMessage) (*SaveProductResult, error) {
	if err := validationFailed(msg.Validate()); err != nil {
		return nil, err
	}

	result := &SaveProductResult{}
	err := h.run(ctx, "product save", func(ctx context.Context, tx bun.Tx) error {
		var product *Product
		if msg.ID != uuid.Nil {
			existing, err := h.repo.Products().FindInWarehouseTx(ctx, tx, msg.WarehouseID, msg.ID)
			if err != nil {
				return notFoundOr(err, "product not found in warehouse", map[string]any{
					"product_id":   msg.ID.String(),
					"warehouse_id": msg.WarehouseID.String(),
				})
			}
			product = existing
		} else {
			result.Created = true
			product = &Product{
				WarehouseID: msg.WarehouseID,
				MinStock:    DefaultMinStock,
			}
		}

		sku := strings.TrimSpace(msg.SKU)
		if err := h.ensureUniqueSKUTx(ctx, tx, msg.WarehouseID, msg.ID, sku); err != nil {
			return err
		}

		product.Name = strings.TrimSpace(msg.Name)
		product.NameZh = strings.TrimSpace(msg.NameZh)
		product.SKU = sku
		product.Category = strings.TrimSpace(msg.Category)
		product.Price = msg.Price
		product.Description = strings.TrimSpace(msg.Description)
		if msg.Quantity != nil {
			product.Quantity = *msg.Quantity
		}
		if msg.MinStock != nil {
			product.MinStock = *msg.MinStock
		}

		var err error
		action := LogActionUpdate
		if result.Created {
			action = LogActionCreate
			product, err = h.repo.Products().CreateProductTx(ctx, tx, product)
		} else {
			err = h.repo.Products().UpdateProductTx(ctx, tx, product)
		}
		if err != nil {
			if IsUniqueViolation(err) {
				return withMetadata(ErrDuplicateSKU, map[string]any{"sku": sku})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store product")
		}

		result.Product = product.Normalize(h.now())
		result.Log, err = h.appendLogTx(ctx, tx, &StockLog{
			WarehouseID: msg.WarehouseID,
			Action:      action,
			ProductName: product.Name,
			Quantity:    product.Quantity,
			PerformedBy: msg.Actor.Email,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	h.emit(ctx, ActivityEvent{
		EventType:   ActivityEventProductSaved,
		Actor:       msg.Actor,
		WarehouseID: msg.WarehouseID.String(),
		Metadata: map[string]any{
			"product_id": result.Product.ID.String(),
			"created":    result.Created,
		},
	})

	return result, nil
}

func (h *SaveProductHandler) ensureUniqueSKUTx(ctx context.Context, tx bun.IDB, warehouseID, id uuid.UUID, sku string) error {
	q := tx.NewSelect().
		Model((*Product)(nil)).
		Where("?TableAlias.warehouse_id = ?", warehouseID).
		Where("?TableAlias.sku = ?", sku)
	if id != uuid.Nil {
		q = q.Where("?TableAlias.id <> ?", id)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check sku uniqueness")
	}
	if exists {
		return withMetadata(ErrDuplicateSKU, map[string]any{
			"sku":          sku,
			"warehouse_id": warehouseID.String(),
		})
	}
	return nil
}

// DeleteProductMessage removes a product from a warehouse.
type DeleteProductMessage struct {
	WarehouseID uuid.UUID `json:"-"`
	ProductID   uuid.UUID `json:"productId"`
	Actor       ActorRef  `json:"-"`
}

func (m DeleteProductMessage) Type() string { return "inventory.product.delete" }

// Validate checks the payload before any query runs.
func (m DeleteProductMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ProductID, isRequiredUUID),
	)
}

// DeleteProductHandler deletes products. Assignments and scrap records keep
// their copied product names.
type DeleteProductHandler struct {
	commandBase
}

// NewDeleteProductHandler creates a handler with sane defaults.
func NewDeleteProductHandler(repo RepositoryManager, opts ...HandlerOption) *DeleteProductHandler {
	return &DeleteProductHandler{
		commandBase: newCommandBase(repo, "inventory.product", opts),
	}
}

func (h *DeleteProductHandler) Execute(ctx context.Context, msg DeleteProductMessage) error {
	if err := validationFailed(msg.Validate()); err != nil {
		return err
	}

	err := h.run(ctx, "product delete", func(ctx context.Context, tx bun.Tx) error {
		product, err := h.repo.Products().FindInWarehouseTx(ctx, tx, msg.WarehouseID, msg.ProductID)
		if err != nil {
			return notFoundOr(err, "product not found in warehouse", map[string]any{
				"product_id": msg.ProductID.String(),
			})
		}

		if err := h.repo.Products().DeleteFromWarehouseTx(ctx, tx, msg.WarehouseID, msg.ProductID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete product")
		}

		_, err = h.appendLogTx(ctx, tx, &StockLog{
			WarehouseID: msg.WarehouseID,
			Action:      LogActionDelete,
			ProductName: product.Name,
			Quantity:    product.Quantity,
			PerformedBy: msg.Actor.Email,
		})
		return err
	})
	if err != nil {
		return err
	}

	h.emit(ctx, ActivityEvent{
		EventType:   ActivityEventProductDeleted,
		Actor:       msg.Actor,
		WarehouseID: msg.WarehouseID.String(),
		Metadata: map[string]any{
			"product_id": msg.ProductID.String(),
		},
	})
	return nil
}
