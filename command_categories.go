package inventory

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CategoryMessage names a category in a warehouse.
type CategoryMessage struct {
	WarehouseID uuid.UUID `json:"-"`
	Name        string    `json:"name"`
	Actor       ActorRef  `json:"-"`
}

func (m CategoryMessage) Type() string { return "inventory.category" }

// Validate checks the payload before any query runs.
func (m CategoryMessage) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 100)),
	)
}

// CategoriesHandler adds and removes categories and returns the resulting list.
type CategoriesHandler struct {
	commandBase
}

// NewCategoriesHandler creates a handler with sane defaults.
func NewCategoriesHandler(repo RepositoryManager, opts ...HandlerOption) *CategoriesHandler {
	return &CategoriesHandler{
		commandBase: newCommandBase(repo, "inventory.categories", opts),
	}
}

// Add creates the category. Adding an existing name is a conflict.
func (h *CategoriesHandler) Add(ctx context.Context, msg CategoryMessage) ([]string, error) {
	if err := validationFailed(msg.Validate()); err != nil {
		return nil, err
	}

	var names []string
	err := h.run(ctx, "category add", func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Categories().NamesForWarehouseTx(ctx, tx, msg.WarehouseID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load categories")
		}

		name := strings.TrimSpace(msg.Name)
		for _, n := range existing {
			if strings.EqualFold(n, name) {
				return withMetadata(ErrDuplicateCategory, map[string]any{"name": name})
			}
		}

		if _, err := h.repo.Categories().AddCategoryTx(ctx, tx, msg.WarehouseID, name); err != nil {
			if IsUniqueViolation(err) {
				return withMetadata(ErrDuplicateCategory, map[string]any{"name": name})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add category")
		}

		names, err = h.repo.Categories().NamesForWarehouseTx(ctx, tx, msg.WarehouseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	h.record(ctx, msg, "add")
	return names, nil
}

// Remove deletes the category. Products keep their category text.
func (h *CategoriesHandler) Remove(ctx context.Context, msg CategoryMessage) ([]string, error) {
	if err := validationFailed(msg.Validate()); err != nil {
		return nil, err
	}

	var names []string
	err := h.run(ctx, "category remove", func(ctx context.Context, tx bun.Tx) error {
		n, err := h.repo.Categories().RemoveCategoryTx(ctx, tx, msg.WarehouseID, msg.Name)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove category")
		}
		if n == 0 {
			return goerrors.New("category not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound).
				WithMetadata(map[string]any{"name": msg.Name})
		}

		names, err = h.repo.Categories().NamesForWarehouseTx(ctx, tx, msg.WarehouseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	h.record(ctx, msg, "remove")
	return names, nil
}

func (h *CategoriesHandler) record(ctx context.Context, msg CategoryMessage, op string) {
	h.emit(ctx, ActivityEvent{
		EventType:   ActivityEventCategoriesChanged,
		Actor:       msg.Actor,
		WarehouseID: msg.WarehouseID.String(),
		Metadata: map[string]any{
			"operation": op,
			"name":      msg.Name,
		},
	})
}
