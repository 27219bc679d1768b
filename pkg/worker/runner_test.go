package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncallhq/pager-api/pkg/logger"
	"github.com/oncallhq/pager-api/pkg/metrics"
	"github.com/oncallhq/pager-api/pkg/queue"
)

var testMetrics = metrics.New("workertest")

type memQueue struct {
	mu       sync.Mutex
	due      []*queue.Envelope
	requeued []*queue.Envelope
	delays   []time.Duration
}

func (q *memQueue) Enqueue(ctx context.Context, job queue.Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.due = append(q.due, &queue.Envelope{ID: uuid.New(), Job: job})
	return nil
}

func (q *memQueue) Due(ctx context.Context, limit int) ([]*queue.Envelope, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if limit > len(q.due) {
		limit = len(q.due)
	}
	out := q.due[:limit]
	q.due = q.due[limit:]
	for _, env := range out {
		env.Deliveries++
	}
	return out, nil
}

func (q *memQueue) Requeue(ctx context.Context, env *queue.Envelope, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requeued = append(q.requeued, env)
	q.delays = append(q.delays, delay)
	return nil
}

func (q *memQueue) Close() error { return nil }

type stubHandler struct {
	mu   sync.Mutex
	jobs []queue.Job
	err  error
}

func (h *stubHandler) ExecuteJob(ctx context.Context, job queue.Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs = append(h.jobs, job)
	return h.err
}

func newRunner(q queue.DelayQueue, h JobHandler, cfg RunnerConfig) *Runner {
	return NewRunner(q, h, cfg, logger.NewLogger(nil), testMetrics)
}

func TestRunnerConfigDefaults(t *testing.T) {
	r := newRunner(&memQueue{}, &stubHandler{}, RunnerConfig{})
	assert.Equal(t, 50, r.config.BatchSize)
	assert.Equal(t, time.Second, r.config.PollInterval)
	assert.Equal(t, 3, r.config.MaxDeliveries)
	assert.Equal(t, 5*time.Second, r.config.RetryDelay)
}

func TestRunnerDrainHandsOffJobs(t *testing.T) {
	q := &memQueue{}
	h := &stubHandler{}
	r := newRunner(q, h, RunnerConfig{})

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, queue.Job{StepOrder: 1, AttemptNumber: 1}, 0))
	require.NoError(t, q.Enqueue(ctx, queue.Job{StepOrder: 2, AttemptNumber: 1}, 0))

	require.NoError(t, r.drain(ctx))
	require.Len(t, h.jobs, 2)
	assert.Empty(t, q.requeued)
	assert.Empty(t, q.due)
}

func TestRunnerRequeuesFailures(t *testing.T) {
	q := &memQueue{}
	h := &stubHandler{err: errors.New("redis gone")}
	r := newRunner(q, h, RunnerConfig{RetryDelay: 2 * time.Second})

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, queue.Job{StepOrder: 1}, 0))
	require.NoError(t, r.drain(ctx))

	require.Len(t, q.requeued, 1)
	// First delivery, so the backoff is one retry delay.
	assert.Equal(t, 2*time.Second, q.delays[0])
	assert.Equal(t, 1, q.requeued[0].Deliveries)
}

func TestRunnerDropsAfterMaxDeliveries(t *testing.T) {
	q := &memQueue{}
	h := &stubHandler{err: errors.New("still broken")}
	r := newRunner(q, h, RunnerConfig{MaxDeliveries: 2})

	ctx := context.Background()
	env := &queue.Envelope{ID: uuid.New(), Deliveries: 2, Job: queue.Job{StepOrder: 1}}
	r.runOne(ctx, env)

	assert.Empty(t, q.requeued)
}

func TestRunnerStartStopsOnCancel(t *testing.T) {
	q := &memQueue{}
	h := &stubHandler{}
	r := newRunner(q, h, RunnerConfig{PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	require.NoError(t, q.Enqueue(ctx, queue.Job{StepOrder: 1}, 0))
	assert.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.jobs) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}
