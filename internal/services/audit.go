package services

import (
	"context"
	"log/slog"
	"time"

	"ledger/internal/core"
)

const actionCreate = "create"

// Entities named in audit events.
const (
	EntityOrganization = "organization"
	EntityUser         = "user"
	EntityAccount      = "account"
	EntityCategory     = "category"
	EntityTransaction  = "transaction"
	EntityBudget       = "budget"
)

// DirectAudit appends events straight to the store. It is the sink used when
// no message broker is configured, and the one the audit worker drains into.
type DirectAudit struct {
	store AuditStore
}

func NewDirectAudit(store AuditStore) *DirectAudit {
	return &DirectAudit{store: store}
}

func (d *DirectAudit) Emit(ctx context.Context, event core.AuditLog) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return d.store.AppendAudit(ctx, event)
}

// recordCreate emits a create event. Failures are logged; the write they
// describe has already succeeded.
func recordCreate(ctx context.Context, sink AuditSink, a core.Actor, entity string, id int64) {
	if sink == nil {
		return
	}
	event := core.AuditLog{
		OrgID:     a.OrgID,
		UserID:    a.ID,
		Action:    actionCreate,
		Entity:    entity,
		EntityID:  id,
		CreatedAt: time.Now().UTC(),
	}
	if err := sink.Emit(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to emit audit event",
			"entity", entity, "entity_id", id, "org_id", a.OrgID, "error", err)
	}
}
