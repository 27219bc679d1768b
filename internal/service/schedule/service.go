package schedule

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
)

// Service answers interactive on-call and calendar queries against persisted
// rotations.
type Service struct {
	rotations repository.RotationRepository
	users     repository.UserRepository
}

func NewService(rotations repository.RotationRepository, users repository.UserRepository) *Service {
	return &Service{rotations: rotations, users: users}
}

// OnCallStatus is the externally visible form of target resolution: the
// primary on-call plus the shift bounds it holds.
type OnCallStatus struct {
	Source   TargetSource `json:"source"`
	User     *model.User  `json:"user,omitempty"`
	StartsAt *time.Time   `json:"starts_at,omitempty"`
	EndsAt   *time.Time   `json:"ends_at,omitempty"`
}

// OnCallAt reports who is on call for the rotation at the given instant.
func (s *Service) OnCallAt(ctx context.Context, rotationID uuid.UUID, at time.Time) (*OnCallStatus, error) {
	rotation, err := s.rotations.Get(ctx, rotationID)
	if err != nil {
		return nil, notFoundOr(err, "rotation")
	}

	result := ResolveTargets(rotation, at)
	if result.Primary == nil {
		return &OnCallStatus{Source: SourceNone}, nil
	}

	user, err := s.users.Get(ctx, result.Primary.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load on-call user: %w", err)
	}

	return &OnCallStatus{
		Source:   result.Primary.Source,
		User:     user,
		StartsAt: &result.Primary.StartsAt,
		EndsAt:   &result.Primary.EndsAt,
	}, nil
}

// Schedule projects the rotation's shifts over [from, to).
func (s *Service) Schedule(ctx context.Context, rotationID uuid.UUID, from, to time.Time) ([]Shift, error) {
	if !to.After(from) {
		return nil, apperrors.Validation("schedule range end must be after start")
	}

	rotation, err := s.rotations.Get(ctx, rotationID)
	if err != nil {
		return nil, notFoundOr(err, "rotation")
	}
	return Project(rotation, from, to), nil
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, err)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
