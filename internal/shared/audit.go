package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Audit holds the bookkeeping columns carried by catalog, role and matrix rows.
// created_* are set once; updated_at and modified_by advance on every write.
type Audit struct {
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	CreatedBy  *int64    `json:"created_by"`
	ModifiedBy *int64    `json:"modified_by"`
}

// Touch advances the modification columns.
func (a *Audit) Touch(actor *int64, at time.Time) {
	a.UpdatedAt = at
	a.ModifiedBy = actor
}

// NewAudit stamps a freshly created row.
func NewAudit(actor *int64, at time.Time) Audit {
	return Audit{CreatedAt: at, UpdatedAt: at, CreatedBy: actor, ModifiedBy: actor}
}

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	ActorID  *int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditRecorder persists administrative changes.
type AuditRecorder interface {
	Record(ctx context.Context, log AuditLog) error
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db execer
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(db execer) *AuditLogger {
	return &AuditLogger{db: db}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}

// RecordAudit writes through rec when present and only logs failures.
func RecordAudit(ctx context.Context, rec AuditRecorder, logger *slog.Logger, log AuditLog) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, log); err != nil && logger != nil {
		logger.Warn("audit record failed",
			slog.String("action", log.Action),
			slog.String("entity", log.Entity),
			slog.Any("error", err))
	}
}
