// Package worker drains queued audit events into the store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/services"
)

const (
	seenSize = 4096
	seenTTL  = time.Hour
)

// AuditWorker appends audit events delivered by the broker. Redeliveries of
// a message it has already stored are acknowledged without a second write.
type AuditWorker struct {
	store services.AuditStore
	seen  *cache.LRUCache[struct{}]
}

func NewAuditWorker(store services.AuditStore) *AuditWorker {
	return &AuditWorker{
		store: store,
		seen:  cache.NewLRUCache[struct{}](seenSize, seenTTL),
	}
}

func (w *AuditWorker) HandleAuditMessage(ctx context.Context, msg *amqp.AuditEventMessage) error {
	if msg.OrgID == 0 || msg.Entity == "" || msg.Action == "" {
		// Dropped rather than requeued: it would fail forever.
		slog.WarnContext(ctx, "Discarding incomplete audit event", "message_id", msg.MessageID)
		return nil
	}
	if msg.MessageID != "" {
		if _, dup := w.seen.Get(msg.MessageID); dup {
			slog.DebugContext(ctx, "Skipping duplicate audit event", "message_id", msg.MessageID)
			return nil
		}
	}

	if err := w.store.AppendAudit(ctx, msg.AuditLog()); err != nil {
		return fmt.Errorf("append audit event %s: %w", msg.MessageID, err)
	}
	if msg.MessageID != "" {
		w.seen.Set(msg.MessageID, struct{}{})
	}

	slog.InfoContext(ctx, "Audit event stored",
		"message_id", msg.MessageID,
		"org_id", msg.OrgID,
		"entity", msg.Entity,
		"entity_id", msg.EntityID)
	return nil
}

// Cleaner exposes the dedup cache for periodic expiry sweeps.
func (w *AuditWorker) Cleaner() cache.Cleaner {
	return w.seen
}
