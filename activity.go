package inventory

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventApprovalChanged   ActivityEventType = "account.approval.changed"
	ActivityEventWarehouseToggled  ActivityEventType = "account.warehouse.toggled"
	ActivityEventAccountCreated    ActivityEventType = "account.created"
	ActivityEventSuperAdminSynced  ActivityEventType = "account.super_admin.synced"
	ActivityEventLoginSuccess      ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure      ActivityEventType = "auth.login.failure"
	ActivityEventPasswordChanged   ActivityEventType = "auth.password.changed"
	ActivityEventStockChanged      ActivityEventType = "inventory.stock.changed"
	ActivityEventProductSaved      ActivityEventType = "inventory.product.saved"
	ActivityEventProductDeleted    ActivityEventType = "inventory.product.deleted"
	ActivityEventWarehouseCreated  ActivityEventType = "inventory.warehouse.created"
	ActivityEventCategoriesChanged ActivityEventType = "inventory.categories.changed"
	ActivityEventEmployeeAdded     ActivityEventType = "inventory.employee.added"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType   ActivityEventType
	Actor       ActorRef
	UserID      string
	WarehouseID string
	FromStatus  ApprovalStatus
	ToStatus    ApprovalStatus
	Metadata    map[string]any
	OccurredAt  time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// activityBatch holds events raised inside a transaction until it commits.
type activityBatch []ActivityEvent

func (b *activityBatch) add(event ActivityEvent) {
	*b = append(*b, event)
}

func (b activityBatch) flush(ctx context.Context, sink ActivitySink, logger Logger) {
	for _, event := range b {
		recordActivity(ctx, sink, logger, event)
	}
}

func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil && logger != nil {
		logger.Warn("activity sink error", "event", event.EventType, "error", err)
	}
}
