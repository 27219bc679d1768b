package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oncallhq/pager-api/internal/model"
	"github.com/oncallhq/pager-api/internal/repository"
)

type policyRepository struct {
	base BaseRepository
}

func NewPolicyRepository(db *sqlx.DB) repository.PolicyRepository {
	return &policyRepository{base: NewBaseRepository(db)}
}

// Create inserts the policy and its steps in one transaction so a policy is
// never visible without its step list.
func (r *policyRepository) Create(ctx context.Context, policy *model.PagingPolicy) error {
	policy.ID = uuid.New()
	policy.CreatedAt = time.Now()
	policy.UpdatedAt = time.Now()

	return r.base.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO paging_policies (
				id, workspace_id, rotation_id, name, enabled,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.ExecContext(ctx, query,
			policy.ID,
			policy.WorkspaceID,
			policy.RotationID,
			policy.Name,
			policy.Enabled,
			policy.CreatedAt,
			policy.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create policy: %w", err)
		}

		for _, step := range policy.Steps {
			if err := insertStep(ctx, tx, policy.ID, step); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertStep(ctx context.Context, tx *sqlx.Tx, policyID uuid.UUID, step *model.PagingStep) error {
	query := `
		INSERT INTO paging_steps (
			id, policy_id, step_order, channels, delay_seconds,
			repeat_count, repeat_interval_seconds, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	step.ID = uuid.New()
	step.PolicyID = policyID
	step.CreatedAt = time.Now()
	step.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		step.ID,
		step.PolicyID,
		step.Order,
		step.Channels,
		step.DelaySeconds,
		step.RepeatCount,
		step.RepeatIntervalSeconds,
		step.CreatedAt,
		step.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create step: %w", err)
	}
	return nil
}

func (r *policyRepository) Get(ctx context.Context, id uuid.UUID) (*model.PagingPolicy, error) {
	query := `
		SELECT id, workspace_id, rotation_id, name, enabled,
			   created_at, updated_at
		FROM paging_policies
		WHERE id = $1
	`
	var policy model.PagingPolicy
	if err := r.base.GetDB().GetContext(ctx, &policy, query, id); err != nil {
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}

	steps, err := r.stepsForPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	policy.Steps = steps
	return &policy, nil
}

func (r *policyRepository) stepsForPolicy(ctx context.Context, policyID uuid.UUID) ([]*model.PagingStep, error) {
	query := `
		SELECT id, policy_id, step_order, channels, delay_seconds,
			   repeat_count, repeat_interval_seconds, created_at, updated_at
		FROM paging_steps
		WHERE policy_id = $1
		ORDER BY step_order ASC
	`
	var steps []*model.PagingStep
	if err := r.base.GetDB().SelectContext(ctx, &steps, query, policyID); err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	return steps, nil
}

// Update rewrites the policy row and replaces its steps atomically.
func (r *policyRepository) Update(ctx context.Context, policy *model.PagingPolicy) error {
	policy.UpdatedAt = time.Now()

	return r.base.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE paging_policies
			SET name = $1, enabled = $2, rotation_id = $3, updated_at = $4
			WHERE id = $5
		`
		result, err := tx.ExecContext(ctx, query,
			policy.Name,
			policy.Enabled,
			policy.RotationID,
			policy.UpdatedAt,
			policy.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update policy: %w", err)
		}
		if err := requireRow(result, "policy"); err != nil {
			return err
		}

		if policy.Steps == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM paging_steps WHERE policy_id = $1`, policy.ID); err != nil {
			return fmt.Errorf("failed to replace steps: %w", err)
		}
		for _, step := range policy.Steps {
			if err := insertStep(ctx, tx, policy.ID, step); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *policyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.base.GetDB().ExecContext(ctx, `DELETE FROM paging_policies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	return requireRow(result, "policy")
}

func (r *policyRepository) List(ctx context.Context, workspaceID uuid.UUID) ([]*model.PagingPolicy, error) {
	query := `
		SELECT id, workspace_id, rotation_id, name, enabled,
			   created_at, updated_at
		FROM paging_policies
		WHERE workspace_id = $1
		ORDER BY name ASC
	`
	var policies []*model.PagingPolicy
	if err := r.base.GetDB().SelectContext(ctx, &policies, query, workspaceID); err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return policies, nil
}
