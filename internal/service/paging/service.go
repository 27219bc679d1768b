package paging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/channel"
	"github.com/oncallhq/pager-api/internal/repository"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
	"github.com/oncallhq/pager-api/pkg/logger"
	"github.com/oncallhq/pager-api/pkg/messaging"
	"github.com/oncallhq/pager-api/pkg/metrics"
	"github.com/oncallhq/pager-api/pkg/queue"
)

// DefaultRepeatInterval spaces same-step repeats when a step does not
// configure its own interval.
const DefaultRepeatInterval = 300 * time.Second

// Service triggers paging and executes queued paging jobs.
type Service struct {
	policies  repository.PolicyRepository
	alerts    repository.AlertGroupRepository
	rotations repository.RotationRepository
	users     repository.UserRepository
	attempts  repository.AttemptRepository
	registry  *channel.Registry
	queue     queue.DelayQueue
	broker    messaging.Broker
	logger    *logger.Logger
	metrics   *metrics.Metrics

	// now is the clock used when resolving on-call targets; jobs always
	// resolve at execution time, never at enqueue time.
	now func() time.Time
}

func NewService(
	policies repository.PolicyRepository,
	alerts repository.AlertGroupRepository,
	rotations repository.RotationRepository,
	users repository.UserRepository,
	attempts repository.AttemptRepository,
	registry *channel.Registry,
	q queue.DelayQueue,
	broker messaging.Broker,
	logger *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		policies:  policies,
		alerts:    alerts,
		rotations: rotations,
		users:     users,
		attempts:  attempts,
		registry:  registry,
		queue:     q,
		broker:    broker,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// TriggerRequest starts an escalation for an alert group.
type TriggerRequest struct {
	PolicyID     uuid.UUID `json:"policy_id" binding:"required"`
	AlertGroupID uuid.UUID `json:"alert_group_id" binding:"required"`
}

// Trigger validates the policy and alert group, then enqueues the first step
// with attempt number 1, delayed by that step's configured delay.
func (s *Service) Trigger(ctx context.Context, req *TriggerRequest) error {
	policy, err := s.policies.Get(ctx, req.PolicyID)
	if err != nil {
		return notFoundOr(err, "policy")
	}
	if !policy.Enabled {
		return apperrors.Validation("policy is disabled")
	}
	if len(policy.Steps) == 0 {
		return apperrors.Validation("policy has no steps")
	}

	alert, err := s.alerts.Get(ctx, req.AlertGroupID)
	if err != nil {
		return notFoundOr(err, "alert group")
	}
	if alert.WorkspaceID != policy.WorkspaceID {
		return apperrors.NotFound("alert group", nil)
	}

	first := policy.Steps[0]
	job := queue.Job{
		WorkspaceID:   policy.WorkspaceID,
		PolicyID:      policy.ID,
		AlertGroupID:  alert.ID,
		StepOrder:     first.Order,
		AttemptNumber: 1,
	}
	delay := time.Duration(first.DelaySeconds) * time.Second
	if err := s.queue.Enqueue(ctx, job, delay); err != nil {
		return fmt.Errorf("failed to enqueue first paging step: %w", err)
	}

	s.metrics.StepsEnqueued.WithLabelValues("trigger").Inc()
	s.logger.WithFields(map[string]interface{}{
		"policy_id":      policy.ID,
		"alert_group_id": alert.ID,
		"step":           first.Order,
		"delay":          delay.String(),
	}).Info("paging triggered")
	return nil
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, err)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
