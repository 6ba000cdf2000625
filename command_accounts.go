package inventory

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateWarehouseMessage creates a new warehouse.
type CreateWarehouseMessage struct {
	Name     string   `json:"name"`
	Location string   `json:"location"`
	Actor    ActorRef `json:"-"`
}

func (m CreateWarehouseMessage) Type() string { return "inventory.warehouse.create" }

// Validate checks the payload before any query runs.
func (m CreateWarehouseMessage) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.Location, validation.Length(0, 200)),
	)
}

// ToggleApprovalMessage approves a pending or revoked account, or revokes an
// approved one.
type ToggleApprovalMessage struct {
	Email  string   `json:"email"`
	Reason string   `json:"reason,omitempty"`
	Actor  ActorRef `json:"-"`
}

func (m ToggleApprovalMessage) Type() string { return "account.approval.toggle" }

// Validate checks the payload before any query runs.
func (m ToggleApprovalMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
	)
}

// ToggleWarehouseAccessMessage adds or removes a warehouse from an account.
type ToggleWarehouseAccessMessage struct {
	Email       string    `json:"email"`
	WarehouseID uuid.UUID `json:"warehouseId"`
	Actor       ActorRef  `json:"-"`
}

func (m ToggleWarehouseAccessMessage) Type() string { return "account.warehouse.toggle" }

// Validate checks the payload before any query runs.
func (m ToggleWarehouseAccessMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
	)
}

// AccountsHandler groups the super admin settings operations.
type AccountsHandler struct {
	commandBase
	approvals       ApprovalStateMachine
	superAdminEmail string
}

// NewAccountsHandler creates a handler with sane defaults.
func NewAccountsHandler(repo RepositoryManager, superAdminEmail string, opts ...HandlerOption) *AccountsHandler {
	h := &AccountsHandler{
		commandBase:     newCommandBase(repo, "inventory.accounts", opts),
		superAdminEmail: NormalizeEmail(superAdminEmail),
	}
	h.approvals = NewApprovalStateMachine(repo.Users(),
		WithSuperAdminEmail(superAdminEmail),
		WithStateMachineActivitySink(h.activity),
		WithStateMachineLogger(h.logger),
		WithStateMachineClock(h.now),
	)
	return h
}

// WithApprovalStateMachine replaces the default state machine.
func (h *AccountsHandler) WithApprovalStateMachine(sm ApprovalStateMachine) *AccountsHandler {
	if sm != nil {
		h.approvals = sm
	}
	return h
}

// ListAccounts returns every account ordered by email.
func (h *AccountsHandler) ListAccounts(ctx context.Context) ([]*AppUser, error) {
	accounts, err := h.repo.Users().ListAccounts(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list accounts")
	}
	return accounts, nil
}

// CreateWarehouse stores a new warehouse.
func (h *AccountsHandler) CreateWarehouse(ctx context.Context, msg CreateWarehouseMessage) (*Warehouse, error) {
	if err := validationFailed(msg.Validate()); err != nil {
		return nil, err
	}

	var warehouse *Warehouse
	err := h.run(ctx, "warehouse create", func(ctx context.Context, tx bun.Tx) error {
		var err error
		warehouse, err = h.repo.Warehouses().CreateWarehouseTx(ctx, tx, &Warehouse{
			Name:     msg.Name,
			Location: msg.Location,
		})
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create warehouse")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.emit(ctx, ActivityEvent{
		EventType:   ActivityEventWarehouseCreated,
		Actor:       msg.Actor,
		WarehouseID: warehouse.ID.String(),
		Metadata: map[string]any{
			"name":     warehouse.Name,
			"location": warehouse.Location,
		},
	})

	return warehouse, nil
}

// ToggleApproval flips the approval of an account. The super admin is
// rejected.
func (h *AccountsHandler) ToggleApproval(ctx context.Context, msg ToggleApprovalMessage) (*AppUser, error) {
	if err := validationFailed(msg.Validate()); err != nil {
		return nil, err
	}

	var user *AppUser
	var events activityBatch
	err := h.run(ctx, "approval toggle", func(ctx context.Context, tx bun.Tx) error {
		events = events[:0]
		target, err := h.loadTargetTx(ctx, tx, msg.Email)
		if err != nil {
			return err
		}

		opts := []TransitionOption{WithDeferredTransitionEvent(events.add)}
		if msg.Reason != "" {
			opts = append(opts, WithTransitionReason(msg.Reason))
		}

		user, err = h.approvals.TransitionTx(ctx, tx, msg.Actor, target, ToggleTarget(target.ApprovalStatus), opts...)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, event := range events {
		h.emit(ctx, event)
	}
	return user, nil
}

// ToggleWarehouseAccess adds or removes a warehouse from an account. Super
// admins see every warehouse and cannot be changed.
func (h *AccountsHandler) ToggleWarehouseAccess(ctx context.Context, msg ToggleWarehouseAccessMessage) (*AppUser, error) {
	if err := validationFailed(msg.Validate()); err != nil {
		return nil, err
	}

	var user *AppUser
	var assigned bool
	err := h.run(ctx, "warehouse access toggle", func(ctx context.Context, tx bun.Tx) error {
		target, err := h.loadTargetTx(ctx, tx, msg.Email)
		if err != nil {
			return err
		}

		if target.Role == RoleSuperAdmin || NormalizeEmail(target.Email) == h.superAdminEmail {
			return withMetadata(ErrImmutableAccount, map[string]any{"email": target.Email})
		}

		if _, err := h.repo.Warehouses().FindWarehouseTx(ctx, tx, msg.WarehouseID); err != nil {
			return notFoundOr(err, "warehouse not found", map[string]any{
				"warehouse_id": msg.WarehouseID.String(),
			})
		}

		assigned = target.ToggleWarehouse(msg.WarehouseID.String())
		if err := h.repo.Users().UpdateWarehousesTx(ctx, tx, target); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update assigned warehouses")
		}

		user = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.emit(ctx, ActivityEvent{
		EventType:   ActivityEventWarehouseToggled,
		Actor:       msg.Actor,
		UserID:      user.ID.String(),
		WarehouseID: msg.WarehouseID.String(),
		Metadata: map[string]any{
			"assigned": assigned,
		},
	})

	return user, nil
}

func (h *AccountsHandler) loadTargetTx(ctx context.Context, tx bun.IDB, email string) (*AppUser, error) {
	target, err := h.repo.Users().GetByIdentifierTx(ctx, tx, NormalizeEmail(email))
	if err != nil {
		return nil, notFoundOr(err, "account not found", map[string]any{"email": email})
	}
	return target, nil
}
