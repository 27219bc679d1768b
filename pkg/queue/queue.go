package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is the paging queue message. AttemptNumber starts at 1 for a step's
// original firing; repeats increment it.
type Job struct {
	WorkspaceID   uuid.UUID `json:"workspace_id"`
	PolicyID      uuid.UUID `json:"policy_id"`
	AlertGroupID  uuid.UUID `json:"alert_group_id"`
	StepOrder     int       `json:"step_order"`
	AttemptNumber int       `json:"attempt_number"`
}

// Envelope wraps a job with queue bookkeeping. Deliveries counts how many
// times the job has been handed to a worker, which bounds infrastructure
// retries; business-level skips consume the job normally.
type Envelope struct {
	ID         uuid.UUID `json:"id"`
	Deliveries int       `json:"deliveries"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Job        Job       `json:"job"`
}

// DelayQueue is a durable queue whose members become visible only after
// their per-message delay expires.
type DelayQueue interface {
	// Enqueue schedules a job to become due after delay.
	Enqueue(ctx context.Context, job Job, delay time.Duration) error
	// Due claims up to limit envelopes whose due time has passed. A claimed
	// envelope is removed from the queue; callers re-schedule via Requeue
	// when handling fails.
	Due(ctx context.Context, limit int) ([]*Envelope, error)
	// Requeue re-schedules a claimed envelope, preserving its delivery count.
	Requeue(ctx context.Context, env *Envelope, delay time.Duration) error
	Close() error
}
