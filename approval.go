package inventory

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ApprovalStatus is where an account is in the approval lifecycle.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRevoked  ApprovalStatus = "revoked"
)

const textCodeInvalidTransition = "INVALID_APPROVAL_TRANSITION"

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid approval transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID    string
	Email string
	Type  string
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor  ActorRef
	User   *AppUser
	From   ApprovalStatus
	To     ApprovalStatus
	Reason string
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

type transitionOptions struct {
	reason      string
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
	deferEvent  func(ActivityEvent)
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.reason = reason
	}
}

// WithDeferredTransitionEvent hands the approval event to fn instead of
// recording it. Callers running the transition inside a transaction use it to
// publish the event after commit.
func WithDeferredTransitionEvent(fn func(ActivityEvent)) TransitionOption {
	return func(opts *transitionOptions) {
		opts.deferEvent = fn
	}
}

// WithBeforeTransitionHook adds a hook executed before the status update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// ApprovalStateMachine moves accounts between approval states.
type ApprovalStateMachine interface {
	TransitionTx(ctx context.Context, tx bun.IDB, actor ActorRef, user *AppUser, target ApprovalStatus, opts ...TransitionOption) (*AppUser, error)
	CanTransition(from, to ApprovalStatus) bool
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*approvalStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *approvalStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *approvalStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *approvalStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithSuperAdminEmail marks the account that can never be transitioned.
func WithSuperAdminEmail(email string) StateMachineOption {
	return func(sm *approvalStateMachine) {
		sm.superAdminEmail = NormalizeEmail(email)
	}
}

type approvalStateMachine struct {
	users           Users
	transitions     map[ApprovalStatus]map[ApprovalStatus]struct{}
	now             func() time.Time
	activitySink    ActivitySink
	logger          Logger
	superAdminEmail string
}

// NewApprovalStateMachine returns the default implementation backed by users.
func NewApprovalStateMachine(users Users, opts ...StateMachineOption) ApprovalStateMachine {
	sm := &approvalStateMachine{
		users: users,
		transitions: map[ApprovalStatus]map[ApprovalStatus]struct{}{
			ApprovalPending: {
				ApprovalApproved: {},
			},
			ApprovalApproved: {
				ApprovalRevoked: {},
			},
			ApprovalRevoked: {
				ApprovalApproved: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{name: "approval"},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

func (sm *approvalStateMachine) TransitionTx(ctx context.Context, tx bun.IDB, actor ActorRef, user *AppUser, target ApprovalStatus, opts ...TransitionOption) (*AppUser, error) {
	if user == nil {
		return nil, withMetadata(ErrInvalidTransition, map[string]any{
			"target": target,
			"reason": "user is nil",
		})
	}

	if target == "" {
		return nil, withMetadata(ErrInvalidTransition, map[string]any{
			"reason": "target status is empty",
		})
	}

	if sm.isSuperAdmin(user) {
		return nil, withMetadata(ErrImmutableAccount, map[string]any{
			"email": user.Email,
		})
	}

	user.EnsureApprovalStatus()
	from := user.ApprovalStatus
	if from == target {
		return user, nil
	}

	if !sm.CanTransition(from, target) {
		return nil, withMetadata(ErrInvalidTransition, map[string]any{
			"from": from,
			"to":   target,
		})
	}

	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	tc := TransitionContext{
		Actor:  actor,
		User:   user,
		From:   from,
		To:     target,
		Reason: options.reason,
	}

	if err := runHooks(ctx, options.beforeHooks, tc, "before"); err != nil {
		return nil, err
	}

	user.ApprovalStatus = target
	user.IsApproved = target == ApprovalApproved
	if user.IsApproved {
		now := sm.now()
		user.ApprovedAt = &now
	}

	if err := sm.users.UpdateApprovalTx(ctx, tx, user); err != nil {
		user.ApprovalStatus = from
		user.IsApproved = from == ApprovalApproved
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist approval status")
	}

	if err := runHooks(ctx, options.afterHooks, tc, "after"); err != nil {
		return nil, err
	}

	metadata := map[string]any{}
	if options.reason != "" {
		metadata["reason"] = options.reason
	}

	event := ActivityEvent{
		EventType:  ActivityEventApprovalChanged,
		Actor:      actor,
		UserID:     user.ID.String(),
		FromStatus: from,
		ToStatus:   target,
		Metadata:   metadata,
		OccurredAt: sm.now(),
	}
	if options.deferEvent != nil {
		options.deferEvent(event)
	} else {
		recordActivity(ctx, sm.activitySink, sm.logger, event)
	}

	return user, nil
}

func (sm *approvalStateMachine) CanTransition(from, to ApprovalStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *approvalStateMachine) isSuperAdmin(user *AppUser) bool {
	if user.Role == RoleSuperAdmin {
		return true
	}
	return sm.superAdminEmail != "" && NormalizeEmail(user.Email) == sm.superAdminEmail
}

func runHooks(ctx context.Context, hooks []TransitionHook, tc TransitionContext, phase string) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, tc); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, fmt.Sprintf("%s transition hook failed", phase))
		}
	}
	return nil
}

// ToggleTarget returns the status a toggle moves the account to.
func ToggleTarget(current ApprovalStatus) ApprovalStatus {
	if current == ApprovalApproved {
		return ApprovalRevoked
	}
	return ApprovalApproved
}
