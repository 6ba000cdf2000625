package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultCommandTimeout bounds every command transaction.
var DefaultCommandTimeout = time.Second * 10

// HandlerOption configures a command handler.
type HandlerOption func(*commandBase)

// WithHandlerActivitySink sets the sink used to emit command events.
func WithHandlerActivitySink(sink ActivitySink) HandlerOption {
	return func(b *commandBase) {
		b.activity = normalizeActivitySink(sink)
	}
}

// WithHandlerLogger overrides the logger used by the handler.
func WithHandlerLogger(logger Logger) HandlerOption {
	return func(b *commandBase) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithHandlerTimeout overrides DefaultCommandTimeout.
func WithHandlerTimeout(d time.Duration) HandlerOption {
	return func(b *commandBase) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithHandlerClock injects a custom clock (useful for tests).
func WithHandlerClock(clock func() time.Time) HandlerOption {
	return func(b *commandBase) {
		if clock != nil {
			b.now = clock
		}
	}
}

type commandBase struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	timeout  time.Duration
	now      func() time.Time
}

func newCommandBase(repo RepositoryManager, name string, opts []HandlerOption) commandBase {
	_, logger := ResolveLogger(name, nil, nil)
	b := commandBase{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   logger,
		timeout:  DefaultCommandTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	return b
}

// run executes fn inside a transaction bounded by the handler timeout and
// normalizes whatever comes out into a rich error.
func (b *commandBase) run(ctx context.Context, op string, fn func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			fmt.Sprintf("context cancelled during %s", op),
		)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	err := b.repo.RunInTx(ctx, nil, fn)
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	if isNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryNotFound, fmt.Sprintf("%s: record not found", op)).
			WithCode(goerrors.CodeNotFound)
	}

	if IsSchemaError(err) {
		return withMetadata(ErrSchemaNotReady, map[string]any{"operation": op})
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return goerrors.Wrap(err, goerrors.CategoryOperation, fmt.Sprintf("%s timed out", op))
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, fmt.Sprintf("%s transaction failed", op))
}

func (b *commandBase) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = b.now()
	}
	recordActivity(ctx, b.activity, b.logger, event)
}

func (b *commandBase) appendLogTx(ctx context.Context, tx bun.IDB, entry *StockLog) (*StockLog, error) {
	if entry.Date == nil {
		now := b.now()
		entry.Date = &now
	}
	created, err := b.repo.StockLogs().AppendTx(ctx, tx, entry)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to append stock log")
	}
	return created, nil
}

func isNotFound(err error) bool {
	return goerrors.IsNotFound(err) || repository.IsRecordNotFound(err)
}

func notFoundOr(err error, msg string, meta map[string]any) error {
	if isNotFound(err) {
		return goerrors.New(msg, goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithMetadata(meta)
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}

func validationFailed(err error) error {
	if err == nil {
		return nil
	}
	return NewValidationError(err, "invalid request payload")
}

// requiredUUID fails for uuid.Nil, which ozzo's Required does not catch on
// array types.
func requiredUUID(value any) error {
	switch id := value.(type) {
	case uuid.UUID:
		if id == uuid.Nil {
			return errors.New("cannot be blank")
		}
	case *uuid.UUID:
		if id == nil || *id == uuid.Nil {
			return errors.New("cannot be blank")
		}
	}
	return nil
}

var isRequiredUUID = validation.By(requiredUUID)
