package paging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/channel"
	"github.com/oncallhq/pager-api/internal/model"
	"github.com/oncallhq/pager-api/internal/service/schedule"
	"github.com/oncallhq/pager-api/pkg/messaging"
	"github.com/oncallhq/pager-api/pkg/queue"
)

// AttemptsRecordedEvent is published after a job execution commits its
// attempt batch.
type AttemptsRecordedEvent struct {
	PolicyID      uuid.UUID `json:"policy_id"`
	AlertGroupID  uuid.UUID `json:"alert_group_id"`
	StepOrder     int       `json:"step_order"`
	AttemptNumber int       `json:"attempt_number"`
	Attempts      int       `json:"attempts"`
	Failed        int       `json:"failed"`
}

// ExecuteJob runs one queued paging job. Missing policy/step/alert and a
// halted alert all consume the job silently; that status re-check is the only
// cancellation mechanism, so acknowledged alerts starve every still-queued
// step without touching the queue. A returned error means an infrastructure
// failure and lets the runner redeliver.
func (s *Service) ExecuteJob(ctx context.Context, job queue.Job) error {
	policy, err := s.policies.Get(ctx, job.PolicyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.skip(job, "policy_missing")
		}
		return err
	}
	if !policy.Enabled {
		return s.skip(job, "policy_disabled")
	}

	step := policy.Step(job.StepOrder)
	if step == nil {
		return s.skip(job, "step_missing")
	}

	alert, err := s.alerts.Get(ctx, job.AlertGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.skip(job, "alert_missing")
		}
		return err
	}
	if alert.Status.Halted() {
		return s.skip(job, "alert_halted")
	}

	rotation, err := s.rotations.Get(ctx, policy.RotationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.skip(job, "rotation_missing")
		}
		return err
	}

	// On-call identity is resolved at execution time, not enqueue time.
	now := s.now()
	targets := schedule.ResolveTargets(rotation, now)

	attempts := make([]*model.PagingAttempt, 0, len(step.Channels))
	if targets.Primary == nil {
		for _, ch := range step.Channels {
			attempts = append(attempts, s.failedAttempt(job, ch, nil, "no on-call target", false, now))
		}
	} else {
		attempts = append(attempts, s.dispatchTo(ctx, job, step, alert, policy, targets.Primary.UserID, false, now)...)
	}
	for _, shadow := range targets.Shadow {
		attempts = append(attempts, s.dispatchTo(ctx, job, step, alert, policy, shadow.UserID, true, now)...)
	}

	if err := s.attempts.CreateBatch(ctx, attempts); err != nil {
		return fmt.Errorf("failed to persist paging attempts: %w", err)
	}
	s.metrics.AttemptsStored.Add(float64(len(attempts)))
	s.publishAttempts(ctx, job, attempts)

	if err := s.scheduleFollowUps(ctx, job, policy, step); err != nil {
		return err
	}

	s.metrics.JobsProcessed.WithLabelValues("dispatched").Inc()
	return nil
}

// scheduleFollowUps re-enqueues the same step while repeats remain and, only
// from the original firing, enqueues the next step. Repeats extend the
// current step; the step chain advances exactly once per step.
func (s *Service) scheduleFollowUps(ctx context.Context, job queue.Job, policy *model.PagingPolicy, step *model.PagingStep) error {
	if job.AttemptNumber <= step.RepeatCount {
		interval := time.Duration(step.RepeatIntervalSeconds) * time.Second
		if interval <= 0 {
			interval = DefaultRepeatInterval
		}
		repeat := job
		repeat.AttemptNumber++
		if err := s.queue.Enqueue(ctx, repeat, interval); err != nil {
			return fmt.Errorf("failed to enqueue step repeat: %w", err)
		}
		s.metrics.StepsEnqueued.WithLabelValues("repeat").Inc()
	}

	if job.AttemptNumber == 1 {
		if next := policy.NextStep(step.Order); next != nil {
			nextJob := queue.Job{
				WorkspaceID:   job.WorkspaceID,
				PolicyID:      job.PolicyID,
				AlertGroupID:  job.AlertGroupID,
				StepOrder:     next.Order,
				AttemptNumber: 1,
			}
			delay := time.Duration(next.DelaySeconds) * time.Second
			if err := s.queue.Enqueue(ctx, nextJob, delay); err != nil {
				return fmt.Errorf("failed to enqueue next paging step: %w", err)
			}
			s.metrics.StepsEnqueued.WithLabelValues("next").Inc()
		}
	}
	return nil
}

// dispatchTo pages one target across every channel of the step, sequentially
// and independently. Each channel yields exactly one attempt record; one
// channel's failure never blocks the others.
func (s *Service) dispatchTo(ctx context.Context, job queue.Job, step *model.PagingStep, alert *model.AlertGroup, policy *model.PagingPolicy, userID uuid.UUID, shadow bool, now time.Time) []*model.PagingAttempt {
	attempts := make([]*model.PagingAttempt, 0, len(step.Channels))

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		reason := fmt.Sprintf("failed to load target user: %v", err)
		for _, ch := range step.Channels {
			attempts = append(attempts, s.failedAttempt(job, ch, &userID, reason, shadow, now))
		}
		return attempts
	}

	for _, ch := range step.Channels {
		attempt := &model.PagingAttempt{
			ID:            uuid.New(),
			PolicyID:      job.PolicyID,
			AlertGroupID:  job.AlertGroupID,
			Channel:       ch,
			TargetUserID:  &userID,
			StepOrder:     job.StepOrder,
			AttemptNumber: job.AttemptNumber,
			CompletedAt:   now,
		}
		if shadow {
			source := model.AckSourceShadow
			attempt.AckSource = &source
		}

		page := &channel.Page{
			AlertGroupID:  alert.ID,
			AlertTitle:    alert.Title,
			PolicyName:    policy.Name,
			StepOrder:     job.StepOrder,
			AttemptNumber: job.AttemptNumber,
			Shadow:        shadow,
		}

		if err := s.sendOne(ctx, ch, user, page, attempt); err != nil {
			msg := err.Error()
			attempt.Status = model.AttemptStatusFailed
			attempt.ErrorMessage = &msg
		} else {
			attempt.Status = model.AttemptStatusSent
		}

		s.metrics.DispatchTotal.WithLabelValues(string(ch), string(attempt.Status)).Inc()
		attempts = append(attempts, attempt)
	}
	return attempts
}

// sendOne performs a single channel dispatch, converting panics into plain
// dispatch failures so a misbehaving transport cannot abort the job.
func (s *Service) sendOne(ctx context.Context, ch model.Channel, user *model.User, page *channel.Page, attempt *model.PagingAttempt) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("dispatch panicked: %v", p)
		}
	}()

	if ch == model.ChannelSMS || ch == model.ChannelVoice {
		token, tokenErr := channel.NewAckToken()
		if tokenErr != nil {
			return tokenErr
		}
		page.AckToken = token
		attempt.AckToken = &token
	}

	dispatcher, ok := s.registry.Get(ch)
	if !ok {
		return fmt.Errorf("no dispatcher configured for channel %s", ch)
	}
	return dispatcher.Send(ctx, user, page)
}

func (s *Service) failedAttempt(job queue.Job, ch model.Channel, userID *uuid.UUID, reason string, shadow bool, now time.Time) *model.PagingAttempt {
	attempt := &model.PagingAttempt{
		ID:            uuid.New(),
		PolicyID:      job.PolicyID,
		AlertGroupID:  job.AlertGroupID,
		Channel:       ch,
		Status:        model.AttemptStatusFailed,
		TargetUserID:  userID,
		StepOrder:     job.StepOrder,
		AttemptNumber: job.AttemptNumber,
		ErrorMessage:  &reason,
		CompletedAt:   now,
	}
	if shadow {
		source := model.AckSourceShadow
		attempt.AckSource = &source
	}
	return attempt
}

func (s *Service) publishAttempts(ctx context.Context, job queue.Job, attempts []*model.PagingAttempt) {
	if s.broker == nil {
		return
	}
	failed := 0
	for _, a := range attempts {
		if a.Status == model.AttemptStatusFailed {
			failed++
		}
	}
	event := &AttemptsRecordedEvent{
		PolicyID:      job.PolicyID,
		AlertGroupID:  job.AlertGroupID,
		StepOrder:     job.StepOrder,
		AttemptNumber: job.AttemptNumber,
		Attempts:      len(attempts),
		Failed:        failed,
	}
	if err := s.broker.Publish(ctx, messaging.TopicAttemptsRecorded, event); err != nil {
		s.logger.Error(err, "failed to publish attempts event")
	}
}

func (s *Service) skip(job queue.Job, reason string) error {
	s.metrics.JobsSkipped.WithLabelValues(reason).Inc()
	s.metrics.JobsProcessed.WithLabelValues("skipped").Inc()
	s.logger.WithFields(map[string]interface{}{
		"policy_id":      job.PolicyID,
		"alert_group_id": job.AlertGroupID,
		"step":           job.StepOrder,
		"attempt":        job.AttemptNumber,
	}).Info("skipping paging job: " + reason)
	return nil
}
