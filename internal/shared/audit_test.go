package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	sql  string
	args []any
}

func (r *recordingExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = sql
	r.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestAuditRecordStampsMissingTime(t *testing.T) {
	exec := &recordingExecer{}
	logger := NewAuditLogger(exec)
	fixed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	logger.now = func() time.Time { return fixed }

	err := logger.Record(context.Background(), AuditLog{ActorID: 2, Action: "job.cancelled", Entity: "job", EntityID: "41", Meta: map[string]any{"reason": "customer"}})
	require.NoError(t, err)
	require.Contains(t, exec.sql, "INSERT INTO audit_logs")
	require.Len(t, exec.args, 6)
	require.Equal(t, int64(2), exec.args[0])
	require.JSONEq(t, `{"reason":"customer"}`, string(exec.args[4].([]byte)))
	require.Equal(t, fixed.UTC(), exec.args[5])
}

func TestAuditRecordKeepsExplicitTimeAndEmptyMeta(t *testing.T) {
	exec := &recordingExecer{}
	at := time.Date(2025, 12, 1, 8, 30, 0, 0, time.UTC)

	require.NoError(t, NewAuditLogger(exec).Record(context.Background(), AuditLog{Action: "payment.deleted", Entity: "payment", EntityID: "9", At: at}))
	require.Nil(t, exec.args[4])
	require.Equal(t, at, exec.args[5])
}

func TestAuditRecordRejectsIncompleteEntries(t *testing.T) {
	exec := &recordingExecer{}
	logger := NewAuditLogger(exec)

	err := logger.Record(context.Background(), AuditLog{Entity: "job", EntityID: "1"})
	require.ErrorIs(t, err, ErrValidation)
	err = logger.Record(context.Background(), AuditLog{Action: "job.created", Entity: "job"})
	require.ErrorIs(t, err, ErrValidation)
	require.Empty(t, exec.sql)

	var nilLogger *AuditLogger
	require.Error(t, nilLogger.Record(context.Background(), AuditLog{Action: "a", Entity: "b", EntityID: "c"}))
}
