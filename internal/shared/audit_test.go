package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuditLoggerRecord(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := WithActor(context.Background(), "comptoir")

	require.NoError(t, audit.Record(ctx, AuditLog{Action: "ORDER_CONFIRM", Entity: "order", EntityID: "o1", Meta: map[string]any{"lines": 2}}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "audit", line["channel"])
	require.Equal(t, "ORDER_CONFIRM", line["action"])
	require.Equal(t, "comptoir", line["actor"])
}

func TestAuditLoggerRequiresFields(t *testing.T) {
	audit := NewAuditLogger(nil)
	require.Error(t, audit.Record(context.Background(), AuditLog{Action: "X"}))

	var nilLogger *AuditLogger
	require.Error(t, nilLogger.Record(context.Background(), AuditLog{Action: "X", Entity: "y", EntityID: "z"}))
}

func TestActorFrom(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	require.False(t, ok)
	actor, ok := ActorFrom(WithActor(context.Background(), "api"))
	require.True(t, ok)
	require.Equal(t, "api", actor)
}
