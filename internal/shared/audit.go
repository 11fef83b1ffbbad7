package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// AuditLog represents one audited mutation.
type AuditLog struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes audit records as structured log lines.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger.With(slog.String("channel", "audit"))}
}

// Record writes the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.At.IsZero() {
		log.At = time.Now().UTC()
	}
	if log.Actor == "" {
		log.Actor, _ = ActorFrom(ctx)
	}
	attrs := []any{
		slog.String("action", log.Action),
		slog.String("entity", log.Entity),
		slog.String("entity_id", log.EntityID),
		slog.Time("at", log.At),
	}
	if log.Actor != "" {
		attrs = append(attrs, slog.String("actor", log.Actor))
	}
	if len(log.Meta) > 0 {
		attrs = append(attrs, slog.Any("meta", log.Meta))
	}
	l.logger.InfoContext(ctx, "audit", attrs...)
	return nil
}
