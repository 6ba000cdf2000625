package inventory

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// StockOperationMessage moves stock in or out of a product.
type StockOperationMessage struct {
	WarehouseID uuid.UUID     `json:"-"`
	ProductID   uuid.UUID     `json:"productId"`
	Operation   OperationType `json:"type"`
	Quantity    int           `json:"quantity"`
	EmployeeID  uuid.UUID     `json:"employeeId,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Actor       ActorRef      `json:"-"`
}

func (m StockOperationMessage) Type() string {
	return "inventory.stock." + strings.ToLower(string(m.Operation))
}

// Validate checks the payload before any query runs.
func (m StockOperationMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ProductID, isRequiredUUID),
		validation.Field(&m.Operation, validation.Required, validation.In(OperationInbound, OperationAssign, OperationScrap)),
		validation.Field(&m.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&m.EmployeeID, validation.By(func(value any) error {
			if m.Operation != OperationAssign {
				return nil
			}
			return requiredUUID(value)
		})),
	)
}

// StockOperationResult is everything a stock operation wrote.
type StockOperationResult struct {
	Product    *Product      `json:"product"`
	Assignment *Assignment   `json:"assignment,omitempty"`
	Scrapped   *ScrappedItem `json:"scrapped,omitempty"`
	Log        *StockLog     `json:"log"`
}

// StockOperationHandler applies INBOUND, ASSIGN and SCRAP operations.
type StockOperationHandler struct {
	commandBase
}

// NewStockOperationHandler creates a handler with sane defaults.
func NewStockOperationHandler(repo RepositoryManager, opts ...HandlerOption) *StockOperationHandler {
	return &StockOperationHandler{
		commandBase: newCommandBase(repo, "inventory.stock", opts),
	}
}

func (h *StockOperationHandler) Execute(ctx context.Context, msg StockOperationMessage) (*StockOperationResult, error) {
	if err := validationFailed(msg.Validate()); err != nil {
		return nil, err
	}

	result := &StockOperationResult{}
	err := h.run(ctx, "stock operation", func(ctx context.Context, tx bun.Tx) error {
		product, err := h.repo.Products().FindInWarehouseTx(ctx, tx, msg.WarehouseID, msg.ProductID)
		if err != nil {
			return notFoundOr(err, "product not found in warehouse", map[string]any{
				"product_id":   msg.ProductID.String(),
				"warehouse_id": msg.WarehouseID.String(),
			})
		}

		entry := &StockLog{
			WarehouseID: msg.WarehouseID,
			ProductName: product.Name,
			Quantity:    msg.Quantity,
			PerformedBy: msg.Actor.Email,
		}

		switch msg.Operation {
		case OperationInbound:
			if err := h.repo.Products().AdjustQuantityTx(ctx, tx, product, msg.Quantity); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update product quantity")
			}
			entry.Action = LogActionInbound

		case OperationAssign:
			employee, err := h.repo.Employees().FindInWarehouseTx(ctx, tx, msg.WarehouseID, msg.EmployeeID)
			if err != nil {
				return notFoundOr(err, "employee not found in warehouse", map[string]any{
					"employee_id":  msg.EmployeeID.String(),
					"warehouse_id": msg.WarehouseID.String(),
				})
			}

			if err := h.repo.Products().AdjustQuantityTx(ctx, tx, product, -msg.Quantity); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update product quantity")
			}

			now := h.now()
			result.Assignment, err = h.repo.Assignments().AddAssignmentTx(ctx, tx, &Assignment{
				WarehouseID:   msg.WarehouseID,
				ProductID:     product.ID,
				ProductName:   product.Name,
				ProductNameZh: product.NameZh,
				EmployeeID:    employee.ID,
				EmployeeName:  employee.Name,
				Quantity:      msg.Quantity,
				AssignedDate:  &now,
				Status:        AssignmentActive,
				PerformedBy:   msg.Actor.Email,
			})
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create assignment")
			}
			entry.Action = LogActionAssign
			entry.Details = fmt.Sprintf("Assigned to %s", employee.Name)

		case OperationScrap:
			if err := h.repo.Products().AdjustQuantityTx(ctx, tx, product, -msg.Quantity); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update product quantity")
			}

			reason := strings.TrimSpace(msg.Reason)
			now := h.now()
			result.Scrapped, err = h.repo.ScrappedItems().AddScrappedItemTx(ctx, tx, &ScrappedItem{
				WarehouseID:   msg.WarehouseID,
				ProductID:     product.ID,
				ProductName:   product.Name,
				ProductNameZh: product.NameZh,
				Quantity:      msg.Quantity,
				Reason:        reason,
				ScrappedDate:  &now,
				PerformedBy:   msg.Actor.Email,
			})
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record scrapped item")
			}
			entry.Action = LogActionScrap
			entry.Details = fmt.Sprintf("Reason: %s", fallback(reason, "No reason provided"))
		}

		result.Product = product
		result.Log, err = h.appendLogTx(ctx, tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	h.emit(ctx, ActivityEvent{
		EventType:   ActivityEventStockChanged,
		Actor:       msg.Actor,
		WarehouseID: msg.WarehouseID.String(),
		Metadata: map[string]any{
			"operation":  string(msg.Operation),
			"product_id": msg.ProductID.String(),
			"quantity":   msg.Quantity,
			"remaining":  result.Product.Quantity,
		},
	})

	return result, nil
}
