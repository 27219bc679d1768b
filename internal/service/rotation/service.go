package rotation

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

// Service owns rotation, layer, participant and override writes. Domain rules
// are enforced here at write time so invalid configuration never reaches the
// resolvers or the orchestrator.
type Service struct {
	repo repository.RotationRepository
}

func NewService(repo repository.RotationRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateRotation(ctx context.Context, rotation *model.Rotation) error {
	if rotation.Name == "" {
		return apperrors.Validation("rotation name is required")
	}
	if rotation.Timezone == "" {
		rotation.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(rotation.Timezone); err != nil {
		return apperrors.Validation(fmt.Sprintf("unknown timezone %q", rotation.Timezone))
	}

	if err := s.repo.Create(ctx, rotation); err != nil {
		return fmt.Errorf("failed to create rotation: %w", err)
	}
	return nil
}

func (s *Service) GetRotation(ctx context.Context, id uuid.UUID) (*model.Rotation, error) {
	rotation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "rotation")
	}
	return rotation, nil
}

func (s *Service) ListRotations(ctx context.Context, workspaceID uuid.UUID) ([]*model.Rotation, error) {
	rotations, err := s.repo.List(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rotations: %w", err)
	}
	return rotations, nil
}

func (s *Service) UpdateRotation(ctx context.Context, rotation *model.Rotation) error {
	if rotation.Name == "" {
		return apperrors.Validation("rotation name is required")
	}
	if _, err := time.LoadLocation(rotation.Timezone); err != nil {
		return apperrors.Validation(fmt.Sprintf("unknown timezone %q", rotation.Timezone))
	}
	if err := s.repo.Update(ctx, rotation); err != nil {
		return notFoundOr(err, "rotation")
	}
	return nil
}

func (s *Service) DeleteRotation(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "rotation")
	}
	return nil
}

func (s *Service) AddLayer(ctx context.Context, layer *model.Layer) error {
	if err := validateLayer(layer); err != nil {
		return err
	}
	if _, err := s.repo.Get(ctx, layer.RotationID); err != nil {
		return notFoundOr(err, "rotation")
	}
	if err := s.repo.CreateLayer(ctx, layer); err != nil {
		return fmt.Errorf("failed to create layer: %w", err)
	}
	return nil
}

func validateLayer(layer *model.Layer) error {
	if layer.HandoffIntervalHours < 1 {
		return apperrors.Validation("handoff interval must be at least 1 hour")
	}
	if layer.StartsAt.IsZero() {
		return apperrors.Validation("layer start time is required")
	}
	if layer.EndsAt != nil && !layer.EndsAt.After(layer.StartsAt) {
		return apperrors.Validation("layer end must be after its start")
	}
	if r := layer.Restrictions; r != nil {
		for _, d := range r.Days {
			if !validDayCode(d) {
				return apperrors.Validation(fmt.Sprintf("unknown weekday code %q", d))
			}
		}
		if (r.StartTime == "") != (r.EndTime == "") {
			return apperrors.Validation("restriction start and end times must be set together")
		}
		if r.Timezone != "" {
			if _, err := time.LoadLocation(r.Timezone); err != nil {
				return apperrors.Validation(fmt.Sprintf("unknown timezone %q", r.Timezone))
			}
		}
	}
	return nil
}

func validDayCode(code string) bool {
	switch code {
	case model.DayMonday, model.DayTuesday, model.DayWednesday, model.DayThursday,
		model.DayFriday, model.DaySaturday, model.DaySunday:
		return true
	}
	return false
}

func (s *Service) RemoveLayer(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteLayer(ctx, id); err != nil {
		return notFoundOr(err, "layer")
	}
	return nil
}

func (s *Service) AddParticipant(ctx context.Context, participant *model.Participant) error {
	if participant.UserID == uuid.Nil {
		return apperrors.Validation("participant user id is required")
	}
	if err := s.repo.CreateParticipant(ctx, participant); err != nil {
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// RemoveParticipant deletes the participant. Subsequent shift assignments are
// recomputed live from the remaining set; there is no historical backfill.
func (s *Service) RemoveParticipant(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteParticipant(ctx, id); err != nil {
		return notFoundOr(err, "participant")
	}
	return nil
}

func (s *Service) AddOverride(ctx context.Context, override *model.Override) error {
	if override.UserID == uuid.Nil {
		return apperrors.Validation("override user id is required")
	}
	if !override.EndsAt.After(override.StartsAt) {
		return apperrors.Validation("override end must be after its start")
	}
	if _, err := s.repo.Get(ctx, override.RotationID); err != nil {
		return notFoundOr(err, "rotation")
	}
	if err := s.repo.CreateOverride(ctx, override); err != nil {
		return fmt.Errorf("failed to create override: %w", err)
	}
	return nil
}

func (s *Service) RemoveOverride(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteOverride(ctx, id); err != nil {
		return notFoundOr(err, "override")
	}
	return nil
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, err)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
