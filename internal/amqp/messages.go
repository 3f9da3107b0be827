package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// AuditEventMessage carries one audit log entry from the API to the worker.
type AuditEventMessage struct {
	MessageID string    `json:"message_id"`
	OrgID     int64     `json:"org_id"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  int64     `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAuditEventMessage(e core.AuditLog) *AuditEventMessage {
	ts := e.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &AuditEventMessage{
		MessageID: uuid.NewString(),
		OrgID:     e.OrgID,
		UserID:    e.UserID,
		Action:    e.Action,
		Entity:    e.Entity,
		EntityID:  e.EntityID,
		Timestamp: ts,
	}
}

// AuditLog converts the message back into the stored form.
func (m *AuditEventMessage) AuditLog() core.AuditLog {
	return core.AuditLog{
		OrgID:     m.OrgID,
		UserID:    m.UserID,
		Action:    m.Action,
		Entity:    m.Entity,
		EntityID:  m.EntityID,
		CreatedAt: m.Timestamp,
	}
}

func (m *AuditEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AuditEventMessageFromJSON(data []byte) (*AuditEventMessage, error) {
	var msg AuditEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
