package alert

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/model"
	"github.com/oncallhq/pager-api/internal/repository"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
	"github.com/oncallhq/pager-api/pkg/messaging"
)

// Service transitions alert group status. Every queued paging job re-reads
// that status before acting, so these transitions are how an operator stops
// an in-flight escalation.
type Service struct {
	repo     repository.AlertGroupRepository
	attempts repository.AttemptRepository
	broker   messaging.Broker
}

func NewService(repo repository.AlertGroupRepository, attempts repository.AttemptRepository, broker messaging.Broker) *Service {
	return &Service{repo: repo, attempts: attempts, broker: broker}
}

func (s *Service) Create(ctx context.Context, group *model.AlertGroup) error {
	if group.Title == "" {
		return apperrors.Validation("alert group title is required")
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return fmt.Errorf("failed to create alert group: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.AlertGroup, error) {
	group, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "alert group")
	}
	return group, nil
}

func (s *Service) Acknowledge(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.AlertGroupStatusAck, nil)
}

func (s *Service) Resolve(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.AlertGroupStatusResolved, nil)
}

func (s *Service) Snooze(ctx context.Context, id uuid.UUID, until time.Time) error {
	if !until.After(time.Now()) {
		return apperrors.Validation("snooze end must be in the future")
	}
	return s.transition(ctx, id, model.AlertGroupStatusSnoozed, &until)
}

// Reopen puts a snoozed or acknowledged alert back to OPEN. Already-queued
// jobs were starved while it was halted; a new trigger is needed to resume
// paging.
func (s *Service) Reopen(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.AlertGroupStatusOpen, nil)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, status model.AlertGroupStatus, snoozedUntil *time.Time) error {
	group, err := s.repo.Get(ctx, id)
	if err != nil {
		return notFoundOr(err, "alert group")
	}
	if !allowedTransition(group.Status, status) {
		return apperrors.Validation(fmt.Sprintf("cannot move alert group from %s to %s", group.Status, status))
	}

	if err := s.repo.UpdateStatus(ctx, id, status, snoozedUntil); err != nil {
		return notFoundOr(err, "alert group")
	}

	if s.broker != nil {
		event := map[string]interface{}{
			"alert_group_id": id,
			"status":         status,
		}
		// Best effort; status is already durable.
		_ = s.broker.Publish(ctx, messaging.TopicAlertStatus, event)
	}
	return nil
}

func allowedTransition(from, to model.AlertGroupStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case model.AlertGroupStatusOpen:
		return to == model.AlertGroupStatusAck || to == model.AlertGroupStatusResolved || to == model.AlertGroupStatusSnoozed
	case model.AlertGroupStatusAck:
		return to == model.AlertGroupStatusResolved || to == model.AlertGroupStatusOpen
	case model.AlertGroupStatusSnoozed:
		return to == model.AlertGroupStatusOpen || to == model.AlertGroupStatusResolved
	case model.AlertGroupStatusResolved:
		return false
	}
	return false
}

// Attempts returns the page history for an alert group, oldest first.
func (s *Service) Attempts(ctx context.Context, id uuid.UUID) ([]*model.PagingAttempt, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, notFoundOr(err, "alert group")
	}
	attempts, err := s.attempts.ListForAlertGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, err)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
