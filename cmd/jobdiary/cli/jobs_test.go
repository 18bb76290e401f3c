package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/jobdiary/jobdiary/jobs"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
}

func (s *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

type stubReader struct {
	info      *asynq.QueueInfo
	scheduled []*asynq.TaskInfo
	err       error
}

func (s stubReader) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func (s stubReader) ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return s.scheduled, s.err
}

func (s stubReader) Close() error { return nil }

func TestRunTriggerQuoteOffers(t *testing.T) {
	enq := &stubEnqueuer{}
	c := &JobsCLI{client: enq, inspector: stubReader{}}
	var out bytes.Buffer

	require.NoError(t, c.Run(context.Background(), &out, []string{"trigger", "quote-offers", "25"}))
	require.Len(t, enq.tasks, 1)
	require.Equal(t, jobs.TaskQuoteOfferScan, enq.tasks[0].Type())

	var payload jobs.QuoteOfferScanPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	require.Equal(t, 25, payload.Limit)
	require.Contains(t, out.String(), "enqueued quote:offer_scan id=t1")
}

func TestRunRejectsUnknownInput(t *testing.T) {
	c := &JobsCLI{client: &stubEnqueuer{}, inspector: stubReader{}}
	var out bytes.Buffer

	require.ErrorIs(t, c.Run(context.Background(), &out, nil), ErrUsage)
	require.ErrorIs(t, c.Run(context.Background(), &out, []string{"purge"}), ErrUsage)
	require.Error(t, c.Run(context.Background(), &out, []string{"trigger", "gl-integrity"}))
	require.Error(t, c.Run(context.Background(), &out, []string{"trigger", "quote-offers", "many"}))
}

func TestRunStatsAndScheduled(t *testing.T) {
	at := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	c := &JobsCLI{client: &stubEnqueuer{}, inspector: stubReader{
		info: &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 2, Scheduled: 5, Archived: 1},
		scheduled: []*asynq.TaskInfo{
			{ID: "reminder:7:1778409000", Type: jobs.TaskAppointmentReminder, NextProcessAt: at},
		},
	}}

	var stats bytes.Buffer
	require.NoError(t, c.Run(context.Background(), &stats, []string{"stats"}))
	require.Contains(t, stats.String(), "SCHEDULED")
	require.Regexp(t, `default\s+2\s+0\s+5\s+0\s+1`, stats.String())

	var sched bytes.Buffer
	require.NoError(t, c.Run(context.Background(), &sched, []string{"scheduled", "5"}))
	require.Contains(t, sched.String(), "reminder:7:1778409000")
	require.Contains(t, sched.String(), "2026-05-10 08:00")
}

func TestInspectQueueError(t *testing.T) {
	c := &JobsCLI{inspector: stubReader{err: errors.New("redis down")}}
	_, err := c.InspectQueue(context.Background())
	require.EqualError(t, err, "redis down")

	var nilCLI *JobsCLI
	_, err = nilCLI.ListScheduled(context.Background(), 0)
	require.Error(t, err)
}
