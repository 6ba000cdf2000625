package inventory

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ReturnAssetMessage returns assigned stock to the shelf.
type ReturnAssetMessage struct {
	WarehouseID  uuid.UUID `json:"-"`
	AssignmentID uuid.UUID `json:"assignmentId"`
	Actor        ActorRef  `json:"-"`
}

func (m ReturnAssetMessage) Type() string { return "inventory.assignment.return" }

// Validate checks the payload before any query runs.
func (m ReturnAssetMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.AssignmentID, isRequiredUUID),
	)
}

// ReturnAssetResult is everything a return wrote.
type ReturnAssetResult struct {
	Assignment *Assignment `json:"assignment"`
	Product    *Product    `json:"product,omitempty"`
	Log        *StockLog   `json:"log"`
}

// ReturnAssetHandler marks an assignment as returned and restocks the product.
type ReturnAssetHandler struct {
	commandBase
}

// NewReturnAssetHandler creates a handler with sane defaults.
func NewReturnAssetHandler(repo RepositoryManager, opts ...HandlerOption) *ReturnAssetHandler {
	return &ReturnAssetHandler{
		commandBase: newCommandBase(repo, "inventory.return", opts),
	}
}

func (h *ReturnAssetHandler) Execute(ctx context.Context, msg ReturnAssetMessage) (*ReturnAssetResult, error) {
	if err := validationFailed(msg.Validate()); err != nil {
		return nil, err
	}

	result := &ReturnAssetResult{}
	err := h.run(ctx, "asset return", func(ctx context.Context, tx bun.Tx) error {
		assignment, err := h.repo.Assignments().FindInWarehouseTx(ctx, tx, msg.WarehouseID, msg.AssignmentID)
		if err != nil {
			return notFoundOr(err, "assignment not found in warehouse", map[string]any{
				"assignment_id": msg.AssignmentID.String(),
				"warehouse_id":  msg.WarehouseID.String(),
			})
		}

		if assignment.Status == AssignmentReturned {
			return withMetadata(ErrAssignmentReturned, map[string]any{
				"assignment_id": assignment.ID.String(),
			})
		}

		// the product may have been deleted since the assignment was made
		product, err := h.repo.Products().FindInWarehouseTx(ctx, tx, msg.WarehouseID, assignment.ProductID)
		switch {
		case err == nil:
			if err := h.repo.Products().AdjustQuantityTx(ctx, tx, product, assignment.Quantity); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to restock product")
			}
			result.Product = product
		case !isNotFound(err):
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load assigned product")
		}

		if err := h.repo.Assignments().MarkReturnedTx(ctx, tx, assignment, h.now()); err != nil {
			return err
		}
		assignment.Normalize(h.now())
		result.Assignment = assignment

		result.Log, err = h.appendLogTx(ctx, tx, &StockLog{
			WarehouseID: msg.WarehouseID,
			Action:      LogActionReturn,
			ProductName: assignment.ProductName,
			Quantity:    assignment.Quantity,
			PerformedBy: msg.Actor.Email,
			Details:     fmt.Sprintf("Returned from %s", assignment.EmployeeName),
		})
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
			"operation":     string(LogActionReturn),
			"assignment_id": msg.AssignmentID.String(),
			"quantity":      result.Assignment.Quantity,
		},
	})

	return result, nil
}
