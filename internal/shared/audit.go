package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// AuditLog is one row of audit_logs. ActorID is zero for system actions
// such as reminder sweeps.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

type auditExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLogger appends to audit_logs. Entries are never updated.
type AuditLogger struct {
	db  auditExecer
	now func() time.Time
}

// NewAuditLogger returns a logger writing through db, usually the pool.
func NewAuditLogger(db auditExecer) *AuditLogger {
	return &AuditLogger{db: db, now: time.Now}
}

const insertAudit = `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// Record persists entry, stamping it with the current time when At is zero.
func (l *AuditLogger) Record(ctx context.Context, entry AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit: logger not initialised")
	}
	switch {
	case entry.Action == "":
		return Validation("action", "audit entry needs an action")
	case entry.Entity == "" || entry.EntityID == "":
		return Validation("entity", "audit entry needs an entity and id")
	}
	var meta []byte
	if len(entry.Meta) > 0 {
		raw, err := json.Marshal(entry.Meta)
		if err != nil {
			return err
		}
		meta = raw
	}
	at := entry.At
	if at.IsZero() {
		at = l.now()
	}
	_, err := l.db.Exec(ctx, insertAudit, entry.ActorID, entry.Action, entry.Entity, entry.EntityID, meta, at.UTC())
	return err
}
