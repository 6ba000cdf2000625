package inventory

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// MinPasswordLength is enforced on registration and password changes.
const MinPasswordLength = 8

// RegisterUserMessage signs up a new account. Accounts start pending.
type RegisterUserMessage struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate checks the payload before any query runs.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(MinPasswordLength, 128)),
	)
}

// RegisterUserHandler creates accounts from the sign up form.
type RegisterUserHandler struct {
	commandBase
	superAdminEmail string
}

// NewRegisterUserHandler creates a handler with sane defaults. The super
// admin email registers straight into an approved super admin account.
func NewRegisterUserHandler(repo RepositoryManager, superAdminEmail string, opts ...HandlerOption) *RegisterUserHandler {
	return &RegisterUserHandler{
		commandBase:     newCommandBase(repo, "user.register", opts),
		superAdminEmail: NormalizeEmail(superAdminEmail),
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*AppUser, error) {
	if err := validationFailed(event.Validate()); err != nil {
		return nil, err
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	email := NormalizeEmail(event.Email)
	user := &AppUser{
		Email:              email,
		PasswordHash:       hash,
		Role:               RoleUser,
		ApprovalStatus:     ApprovalPending,
		AssignedWarehouses: []string{},
	}

	if h.superAdminEmail != "" && email == h.superAdminEmail {
		now := h.now()
		user.Role = RoleSuperAdmin
		user.ApprovalStatus = ApprovalApproved
		user.ApprovedAt = &now
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			user.ID = id
		}
	}

	err = h.run(ctx, "user registration", func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*AppUser)(nil)).
			Where("?TableAlias.email = ?", email).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return goerrors.New("an account with this email already exists", goerrors.CategoryConflict).
				WithTextCode("ACCOUNT_EXISTS").
				WithCode(goerrors.CodeConflict)
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.emit(ctx, ActivityEvent{
		EventType: ActivityEventAccountCreated,
		Actor:     ActorRef{ID: user.ID.String(), Email: user.Email, Type: "user"},
		UserID:    user.ID.String(),
		ToStatus:  user.ApprovalStatus,
		Metadata: map[string]any{
			"operation": "register",
			"role":      user.Role,
		},
	})

	return user, nil
}
