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

type alertGroupRepository struct {
	db *sqlx.DB
}

func NewAlertGroupRepository(db *sqlx.DB) repository.AlertGroupRepository {
	return &alertGroupRepository{db: db}
}

func (r *alertGroupRepository) Create(ctx context.Context, group *model.AlertGroup) error {
	query := `
		INSERT INTO alert_groups (
			id, workspace_id, title, status, snoozed_until,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	group.ID = uuid.New()
	group.CreatedAt = time.Now()
	group.UpdatedAt = time.Now()
	if group.Status == "" {
		group.Status = model.AlertGroupStatusOpen
	}

	_, err := r.db.ExecContext(ctx, query,
		group.ID,
		group.WorkspaceID,
		group.Title,
		group.Status,
		group.SnoozedUntil,
		group.CreatedAt,
		group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert group: %w", err)
	}
	return nil
}

func (r *alertGroupRepository) Get(ctx context.Context, id uuid.UUID) (*model.AlertGroup, error) {
	query := `
		SELECT id, workspace_id, title, status, snoozed_until,
			   created_at, updated_at
		FROM alert_groups
		WHERE id = $1
	`
	var group model.AlertGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, fmt.Errorf("failed to get alert group: %w", err)
	}
	return &group, nil
}

func (r *alertGroupRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AlertGroupStatus, snoozedUntil *time.Time) error {
	query := `
		UPDATE alert_groups
		SET status = $1, snoozed_until = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, status, snoozedUntil, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update alert group status: %w", err)
	}
	return requireRow(result, "alert group")
}
