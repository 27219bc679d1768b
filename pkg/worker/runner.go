package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oncallhq/pager-api/pkg/logger"
	"github.com/oncallhq/pager-api/pkg/metrics"
	"github.com/oncallhq/pager-api/pkg/queue"
)

// JobHandler executes one paging job. A returned error is an infrastructure
// failure and triggers a bounded redelivery; business-level skips must return
// nil so the job is consumed.
type JobHandler interface {
	ExecuteJob(ctx context.Context, job queue.Job) error
}

// RunnerConfig tunes the poll loop.
type RunnerConfig struct {
	BatchSize     int           `envconfig:"WORKER_BATCH_SIZE" default:"50"`
	PollInterval  time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"1s"`
	MaxDeliveries int           `envconfig:"WORKER_MAX_DELIVERIES" default:"3"`
	RetryDelay    time.Duration `envconfig:"WORKER_RETRY_DELAY" default:"5s"`
}

// Runner pulls due jobs off the delay queue and hands them to the handler.
// Failed jobs are requeued with a delay until MaxDeliveries is exhausted.
type Runner struct {
	queue   queue.DelayQueue
	handler JobHandler
	config  RunnerConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewRunner(q queue.DelayQueue, handler JobHandler, config RunnerConfig, logger *logger.Logger, m *metrics.Metrics) *Runner {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.MaxDeliveries <= 0 {
		config.MaxDeliveries = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}

	return &Runner{
		queue:   q,
		handler: handler,
		config:  config,
		logger:  logger,
		metrics: m,
	}
}

func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	r.logger.Info("starting paging job runner")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("shutting down paging job runner")
			return
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				r.logger.Error(err, "failed to drain paging queue")
			}
		}
	}
}

func (r *Runner) drain(ctx context.Context) error {
	envelopes, err := r.queue.Due(ctx, r.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim due jobs: %w", err)
	}

	for _, env := range envelopes {
		r.runOne(ctx, env)
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, env *queue.Envelope) {
	timer := prometheus.NewTimer(r.metrics.JobDuration)
	defer timer.ObserveDuration()

	err := r.handler.ExecuteJob(ctx, env.Job)
	if err == nil {
		r.metrics.JobsProcessed.WithLabelValues("ok").Inc()
		return
	}

	fields := map[string]interface{}{
		"job_id":     env.ID,
		"policy_id":  env.Job.PolicyID,
		"step":       env.Job.StepOrder,
		"attempt":    env.Job.AttemptNumber,
		"deliveries": env.Deliveries,
	}

	if env.Deliveries >= r.config.MaxDeliveries {
		r.metrics.JobsFailed.Inc()
		r.metrics.JobsProcessed.WithLabelValues("dropped").Inc()
		r.logger.WithFields(fields).Error(err, "dropping paging job after max deliveries")
		return
	}

	backoff := time.Duration(env.Deliveries) * r.config.RetryDelay
	if requeueErr := r.queue.Requeue(ctx, env, backoff); requeueErr != nil {
		r.metrics.JobsFailed.Inc()
		r.logger.WithFields(fields).Error(requeueErr, "failed to requeue paging job")
		return
	}
	r.metrics.JobsRequeued.Inc()
	r.logger.WithFields(fields).Error(err, "requeued paging job after failure")
}
