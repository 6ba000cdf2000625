package inventory

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ChangePasswordMessage replaces the password of a signed in account.
type ChangePasswordMessage struct {
	Email           string `json:"-"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (m ChangePasswordMessage) Type() string { return "user.password.change" }

// Validate checks the payload before any query runs.
func (m ChangePasswordMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.CurrentPassword, validation.Required),
		validation.Field(&m.NewPassword, validation.Required, validation.Length(MinPasswordLength, 128)),
	)
}

// ChangePasswordHandler verifies the current password before storing a new one.
type ChangePasswordHandler struct {
	commandBase
}

// NewChangePasswordHandler creates a handler with sane defaults.
func NewChangePasswordHandler(repo RepositoryManager, opts ...HandlerOption) *ChangePasswordHandler {
	return &ChangePasswordHandler{
		commandBase: newCommandBase(repo, "user.password", opts),
	}
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, msg ChangePasswordMessage) error {
	if err := validationFailed(msg.Validate()); err != nil {
		return err
	}

	var user *AppUser
	err := h.run(ctx, "password change", func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByIdentifierTx(ctx, tx, msg.Email)
		if err != nil {
			return notFoundOr(err, "account not found", map[string]any{"email": msg.Email})
		}

		if err := ComparePasswordAndHash(msg.CurrentPassword, user.PasswordHash); err != nil {
			return err
		}

		hash, err := HashPassword(msg.NewPassword)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		if err := h.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.emit(ctx, ActivityEvent{
		EventType: ActivityEventPasswordChanged,
		Actor:     ActorRef{ID: user.ID.String(), Email: user.Email, Type: "user"},
		UserID:    user.ID.String(),
	})
	return nil
}
