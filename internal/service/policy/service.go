package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/model"
	"github.com/oncallhq/pager-api/internal/repository"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
)

// Service owns paging policy writes. Step lists are validated and normalized
// here so the orchestrator can rely on ordered, well-formed steps.
type Service struct {
	repo      repository.PolicyRepository
	rotations repository.RotationRepository
}

func NewService(repo repository.PolicyRepository, rotations repository.RotationRepository) *Service {
	return &Service{repo: repo, rotations: rotations}
}

func (s *Service) CreatePolicy(ctx context.Context, policy *model.PagingPolicy) error {
	if err := s.validate(ctx, policy); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, policy); err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}
	return nil
}

func (s *Service) GetPolicy(ctx context.Context, id uuid.UUID) (*model.PagingPolicy, error) {
	policy, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "policy")
	}
	return policy, nil
}

func (s *Service) ListPolicies(ctx context.Context, workspaceID uuid.UUID) ([]*model.PagingPolicy, error) {
	policies, err := s.repo.List(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return policies, nil
}

func (s *Service) UpdatePolicy(ctx context.Context, policy *model.PagingPolicy) error {
	if err := s.validate(ctx, policy); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, policy); err != nil {
		return notFoundOr(err, "policy")
	}
	return nil
}

func (s *Service) DeletePolicy(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "policy")
	}
	return nil
}

func (s *Service) validate(ctx context.Context, policy *model.PagingPolicy) error {
	if policy.Name == "" {
		return apperrors.Validation("policy name is required")
	}
	if len(policy.Steps) == 0 {
		return apperrors.Validation("policy needs at least one step")
	}

	seen := make(map[int]struct{}, len(policy.Steps))
	for _, step := range policy.Steps {
		if len(step.Channels) == 0 {
			return apperrors.Validation(fmt.Sprintf("step %d has no channels", step.Order))
		}
		for _, ch := range step.Channels {
			if !model.ValidChannel(string(ch)) {
				return apperrors.Validation(fmt.Sprintf("unknown channel %q", ch))
			}
		}
		if step.DelaySeconds < 0 || step.RepeatCount < 0 || step.RepeatIntervalSeconds < 0 {
			return apperrors.Validation(fmt.Sprintf("step %d has a negative timing value", step.Order))
		}
		if _, dup := seen[step.Order]; dup {
			return apperrors.Validation(fmt.Sprintf("duplicate step order %d", step.Order))
		}
		seen[step.Order] = struct{}{}
	}

	sort.SliceStable(policy.Steps, func(i, j int) bool {
		return policy.Steps[i].Order < policy.Steps[j].Order
	})

	if _, err := s.rotations.Get(ctx, policy.RotationID); err != nil {
		return notFoundOr(err, "rotation")
	}
	return nil
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, err)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
