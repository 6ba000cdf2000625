package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users stores dashboard accounts.
type Users interface {
	repository.Repository[*AppUser]

	TrackAttemptedLogin(ctx context.Context, user *AppUser) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *AppUser) error
	TrackSucccessfulLogin(ctx context.Context, user *AppUser) error
	TrackSucccessfulLoginTx(ctx context.Context, tx bun.IDB, user *AppUser) error

	Register(ctx context.Context, user *AppUser) (*AppUser, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *AppUser) (*AppUser, error)
	ListAccounts(ctx context.Context) ([]*AppUser, error)
	ListAccountsTx(ctx context.Context, tx bun.IDB) ([]*AppUser, error)

	UpdateAccessTx(ctx context.Context, tx bun.IDB, user *AppUser) error
	UpdateApprovalTx(ctx context.Context, tx bun.IDB, user *AppUser) error
	UpdateWarehousesTx(ctx context.Context, tx bun.IDB, user *AppUser) error

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
}

type users struct {
	repository.Repository[*AppUser]
	db  *bun.DB
	now func() time.Time
}

var (
	_ Users                           = (*users)(nil)
	_ repository.Repository[*AppUser] = (*users)(nil)
)

// NewUsersRepository creates the accounts repository.
func NewUsersRepository(db *bun.DB) Users {
	return &users{
		Repository: repository.NewRepository[*AppUser](db, modelHandlers[AppUser]("email")),
		db:         db,
		now:        time.Now,
	}
}

func (a *users) Register(ctx context.Context, user *AppUser) (*AppUser, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *AppUser) (*AppUser, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*AppUser, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*AppUser, error) {
	opt := resolveUserIdentifier(identifier)

	record := &AppUser{}
	q := tx.NewSelect().Model(record)
	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"identifier": identifier,
				})
		}
		if IsSchemaError(err) {
			return nil, withMetadata(ErrSchemaNotReady, map[string]any{"table": "app_users"})
		}
		return nil, err
	}

	record.EnsureApprovalStatus()
	return record, nil
}

func (a *users) ListAccounts(ctx context.Context) ([]*AppUser, error) {
	return a.ListAccountsTx(ctx, a.db)
}

func (a *users) ListAccountsTx(ctx context.Context, tx bun.IDB) ([]*AppUser, error) {
	records := make([]*AppUser, 0)
	err := tx.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.email ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	for _, r := range records {
		r.EnsureApprovalStatus()
	}
	return records, nil
}

// UpdateAccessTx writes role, approval and warehouse columns together. It is
// used by the super admin bootstrap.
func (a *users) UpdateAccessTx(ctx context.Context, tx bun.IDB, user *AppUser) error {
	return a.updateColumns(ctx, tx, user, "role", "is_approved", "approval_status", "approved_at", "assigned_warehouses")
}

func (a *users) UpdateApprovalTx(ctx context.Context, tx bun.IDB, user *AppUser) error {
	return a.updateColumns(ctx, tx, user, "is_approved", "approval_status", "approved_at")
}

func (a *users) UpdateWarehousesTx(ctx context.Context, tx bun.IDB, user *AppUser) error {
	if user.AssignedWarehouses == nil {
		user.AssignedWarehouses = []string{}
	}
	return a.updateColumns(ctx, tx, user, "assigned_warehouses")
}

func (a *users) updateColumns(ctx context.Context, tx bun.IDB, user *AppUser, columns ...string) error {
	now := a.now()
	user.UpdatedAt = &now
	res, err := tx.NewUpdate().
		Model(user).
		Column(append(columns, "updated_at")...).
		Where("?TableAlias.id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, map[string]any{"user_id": user.ID.String()})
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := tx.NewUpdate().
		Model((*AppUser)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("login_attempts = 0").
		Set("login_attempt_at = NULL").
		Set("updated_at = ?", a.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, map[string]any{"id": id.String()})
}

func (a *users) TrackSucccessfulLogin(ctx context.Context, user *AppUser) error {
	return a.TrackSucccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSucccessfulLoginTx(ctx context.Context, tx bun.IDB, user *AppUser) error {
	loggedInAt := a.now()
	_, err := tx.NewUpdate().
		Model((*AppUser)(nil)).
		Set("loggedin_at = ?", loggedInAt).
		Set("login_attempt_at = NULL").
		Set("login_attempts = 0").
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return err
	}

	user.LoggedInAt = &loggedInAt
	user.LoginAttempts = 0
	user.LoginAttemptAt = nil
	return nil
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *AppUser) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *AppUser) error {
	now := a.now()
	attempts := user.LoginAttempts + 1
	_, err := tx.NewUpdate().
		Model((*AppUser)(nil)).
		Set("login_attempts = ?", attempts).
		Set("login_attempt_at = ?", now).
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return err
	}

	user.LoginAttempts = attempts
	user.LoginAttemptAt = &now
	return nil
}

func prepareUserDefaults(user *AppUser) {
	if user == nil {
		return
	}
	ensureID(&user.ID)
	user.Email = NormalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = RoleUser
	}
	if user.AssignedWarehouses == nil {
		user.AssignedWarehouses = []string{}
	}
	user.EnsureApprovalStatus()
	user.IsApproved = user.ApprovalStatus == ApprovalApproved
}

type identifierOption struct {
	column string
	value  any
}

func resolveUserIdentifier(identifier string) identifierOption {
	identifier = strings.TrimSpace(identifier)
	if _, err := mail.ParseAddress(identifier); err == nil {
		return identifierOption{column: "email", value: NormalizeEmail(identifier)}
	}
	if id, err := uuid.Parse(identifier); err == nil {
		return identifierOption{column: "id", value: id}
	}
	return identifierOption{column: "email", value: NormalizeEmail(identifier)}
}
