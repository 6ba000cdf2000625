package inventory

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccessState is what a signed in identity may see and do.
type AccessState struct {
	User               *AppUser     `json:"user,omitempty"`
	Email              string       `json:"email"`
	DisplayName        string       `json:"displayName"`
	Role               UserRole     `json:"role"`
	IsApproved         bool         `json:"isApproved"`
	IsSuperAdmin       bool         `json:"isSuperAdmin"`
	Warehouses         []*Warehouse `json:"warehouses"`
	InitialWarehouseID string       `json:"initialWarehouseId,omitempty"`
	NeedsSetup         bool         `json:"needsSetup"`
	SchemaError        string       `json:"schemaError,omitempty"`
}

// CanAccessWarehouse reports whether id is in the visible set.
func (s *AccessState) CanAccessWarehouse(id uuid.UUID) bool {
	if s == nil || !s.IsApproved {
		return false
	}
	for _, w := range s.Warehouses {
		if w.ID == id {
			return true
		}
	}
	return false
}

// Authorize checks approval and warehouse visibility in one go.
func (s *AccessState) Authorize(warehouseID uuid.UUID) error {
	if s == nil || !s.IsApproved {
		return ErrNotApproved
	}
	if !s.CanAccessWarehouse(warehouseID) {
		return withMetadata(ErrWarehouseForbidden, map[string]any{
			"warehouse_id": warehouseID.String(),
		})
	}
	return nil
}

// RequireRole checks the role is at least min.
func (s *AccessState) RequireRole(min UserRole) error {
	if s == nil || !s.IsApproved {
		return ErrNotApproved
	}
	if !s.Role.IsAtLeast(min) {
		return withMetadata(ErrInsufficientRole, map[string]any{
			"role":     s.Role,
			"required": min,
		})
	}
	return nil
}

// Actor returns the ActorRef for audit events.
func (s *AccessState) Actor() ActorRef {
	ref := ActorRef{Email: s.Email, Type: "user"}
	if s.User != nil {
		ref.ID = s.User.ID.String()
	}
	return ref
}

// AccessResolver decides approval, role and visible warehouses for an email.
type AccessResolver struct {
	repo            RepositoryManager
	superAdminEmail string
	activity        ActivitySink
	logger          Logger
	provider        LoggerProvider
	now             func() time.Time
}

// NewAccessResolver creates a resolver. superAdminEmail may be empty to
// disable the bootstrap account.
func NewAccessResolver(repo RepositoryManager, superAdminEmail string) *AccessResolver {
	provider, logger := ResolveLogger("inventory.access", nil, nil)
	return &AccessResolver{
		repo:            repo,
		superAdminEmail: NormalizeEmail(superAdminEmail),
		activity:        noopActivitySink{},
		logger:          logger,
		provider:        provider,
		now:             time.Now,
	}
}

// WithActivitySink sets the sink used to emit bootstrap events.
func (r *AccessResolver) WithActivitySink(sink ActivitySink) *AccessResolver {
	r.activity = normalizeActivitySink(sink)
	return r
}

// WithLogger overrides the logger used by the resolver.
func (r *AccessResolver) WithLogger(l Logger) *AccessResolver {
	r.provider, r.logger = ResolveLogger("inventory.access", r.provider, l)
	return r
}

// WithLoggerProvider overrides the logger provider used by the resolver.
func (r *AccessResolver) WithLoggerProvider(provider LoggerProvider) *AccessResolver {
	r.provider, r.logger = ResolveLogger("inventory.access", provider, nil)
	return r
}

// SuperAdminEmail returns the configured bootstrap email.
func (r *AccessResolver) SuperAdminEmail() string {
	return r.superAdminEmail
}

// IsSuperAdmin reports whether email is the bootstrap account.
func (r *AccessResolver) IsSuperAdmin(email string) bool {
	return r.superAdminEmail != "" && NormalizeEmail(email) == r.superAdminEmail
}

// Resolve loads or bootstraps the account for email and computes what it may
// see. authID is the subject of the session, used as the id of new records.
func (r *AccessResolver) Resolve(ctx context.Context, email, authID string) (*AccessState, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, goerrors.New("email is required to resolve access", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	isSuper := r.IsSuperAdmin(email)
	state := &AccessState{
		Email:        email,
		DisplayName:  DisplayName(email),
		Role:         RoleUser,
		IsSuperAdmin: isSuper,
		Warehouses:   []*Warehouse{},
	}

	if isSuper {
		state.IsApproved = true
		state.Role = RoleSuperAdmin
	}

	var all []*Warehouse
	var events activityBatch
	err := r.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		events = events[:0]
		var err error
		all, err = r.repo.Warehouses().ListAllTx(ctx, tx)
		if err != nil {
			return err
		}

		user, err := r.repo.Users().GetByIdentifierTx(ctx, tx, email)
		if err != nil && !repository.IsRecordNotFound(err) {
			return err
		}

		switch {
		case isSuper:
			user, err = r.syncSuperAdminTx(ctx, tx, &events, user, email, authID)
		case user == nil:
			user, err = r.registerPendingTx(ctx, tx, &events, email, authID)
		}
		if err != nil {
			return err
		}

		state.User = user
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeSchemaNotReady && isSuper {
			r.logger.Warn("schema not ready, super admin needs to run migrations", "email", email)
			state.SchemaError = richErr.Message
			state.NeedsSetup = true
			return state, nil
		}
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve account access")
	}
	events.flush(ctx, r.activity, r.logger)

	if state.User != nil {
		if !isSuper {
			state.Role = state.User.Role
		}
		state.IsApproved = state.IsApproved || state.User.IsApproved
	}

	if !state.IsApproved {
		return state, nil
	}

	state.Warehouses = visibleWarehouses(state.Role, state.User, all)

	switch {
	case state.Role == RoleSuperAdmin && len(all) > 0:
		state.InitialWarehouseID = all[0].ID.String()
	case state.Role != RoleSuperAdmin && len(state.Warehouses) > 0:
		state.InitialWarehouseID = firstAssigned(state.User, state.Warehouses)
	}

	if state.InitialWarehouseID == "" && isSuper {
		state.NeedsSetup = true
	}

	return state, nil
}

func (r *AccessResolver) syncSuperAdminTx(ctx context.Context, tx bun.IDB, events *activityBatch, user *AppUser, email, authID string) (*AppUser, error) {
	if user != nil && user.Role == RoleSuperAdmin && user.IsApproved {
		return user, nil
	}

	now := r.now()
	if user == nil {
		record := &AppUser{
			ID:             r.newUserID(email, authID),
			Email:          email,
			Role:           RoleSuperAdmin,
			IsApproved:     true,
			ApprovalStatus: ApprovalApproved,
			ApprovedAt:     &now,
			PasswordHash:   RandomPasswordHash(),
		}
		created, err := r.repo.Users().RegisterTx(ctx, tx, record)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create super admin record")
		}
		events.add(r.event(ActivityEventSuperAdminSynced, created, "created"))
		return created, nil
	}

	user.Role = RoleSuperAdmin
	user.IsApproved = true
	user.ApprovalStatus = ApprovalApproved
	user.ApprovedAt = &now
	if user.AssignedWarehouses == nil {
		user.AssignedWarehouses = []string{}
	}

	if err := r.repo.Users().UpdateAccessTx(ctx, tx, user); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update super admin record")
	}
	events.add(r.event(ActivityEventSuperAdminSynced, user, "updated"))
	return user, nil
}

func (r *AccessResolver) registerPendingTx(ctx context.Context, tx bun.IDB, events *activityBatch, email, authID string) (*AppUser, error) {
	record := &AppUser{
		ID:                 r.newUserID(email, authID),
		Email:              email,
		Role:               RoleUser,
		ApprovalStatus:     ApprovalPending,
		AssignedWarehouses: []string{},
		PasswordHash:       RandomPasswordHash(),
	}

	created, err := r.repo.Users().RegisterTx(ctx, tx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create account record")
	}

	r.logger.Info("registered pending account", "email", email)
	events.add(r.event(ActivityEventAccountCreated, created, "pending"))
	return created, nil
}

func (r *AccessResolver) newUserID(email, authID string) uuid.UUID {
	if id, err := uuid.Parse(strings.TrimSpace(authID)); err == nil && id != uuid.Nil {
		return id
	}
	if id, err := hashid.NewUUID(email); err == nil {
		return id
	}
	return uuid.New()
}

func (r *AccessResolver) event(eventType ActivityEventType, user *AppUser, op string) ActivityEvent {
	return ActivityEvent{
		EventType: eventType,
		Actor:     ActorRef{ID: user.ID.String(), Email: user.Email, Type: "system"},
		UserID:    user.ID.String(),
		ToStatus:  user.ApprovalStatus,
		Metadata: map[string]any{
			"operation": op,
			"role":      user.Role,
		},
		OccurredAt: r.now(),
	}
}

func visibleWarehouses(role UserRole, user *AppUser, all []*Warehouse) []*Warehouse {
	if role == RoleSuperAdmin {
		return all
	}

	out := make([]*Warehouse, 0)
	if user == nil {
		return out
	}
	for _, w := range all {
		if user.HasWarehouse(w.ID.String()) {
			out = append(out, w)
		}
	}
	return out
}

// firstAssigned keeps the order of the assigned list, which is the order an
// administrator granted access in.
func firstAssigned(user *AppUser, visible []*Warehouse) string {
	if user != nil {
		for _, wid := range user.AssignedWarehouses {
			for _, w := range visible {
				if strings.EqualFold(w.ID.String(), wid) {
					return w.ID.String()
				}
			}
		}
	}
	if len(visible) > 0 {
		return visible[0].ID.String()
	}
	return ""
}
