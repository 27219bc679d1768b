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

type attemptRepository struct {
	base BaseRepository
}

func NewAttemptRepository(db *sqlx.DB) repository.AttemptRepository {
	return &attemptRepository{base: NewBaseRepository(db)}
}

// CreateBatch appends one job execution's attempts in a single transaction.
// Attempt rows are immutable; there is no update path.
func (r *attemptRepository) CreateBatch(ctx context.Context, attempts []*model.PagingAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	return r.base.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO paging_attempts (
				id, policy_id, alert_group_id, channel, status,
				target_user_id, step_order, attempt_number,
				error_message, ack_token, ack_source, completed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		for _, a := range attempts {
			if a.ID == uuid.Nil {
				a.ID = uuid.New()
			}
			_, err := tx.ExecContext(ctx, query,
				a.ID,
				a.PolicyID,
				a.AlertGroupID,
				a.Channel,
				a.Status,
				a.TargetUserID,
				a.StepOrder,
				a.AttemptNumber,
				a.ErrorMessage,
				a.AckToken,
				a.AckSource,
				a.CompletedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create paging attempt: %w", err)
			}
		}
		return nil
	})
}

func (r *attemptRepository) ListForAlertGroup(ctx context.Context, alertGroupID uuid.UUID) ([]*model.PagingAttempt, error) {
	query := `
		SELECT id, policy_id, alert_group_id, channel, status,
			   target_user_id, step_order, attempt_number,
			   error_message, ack_token, ack_source, completed_at
		FROM paging_attempts
		WHERE alert_group_id = $1
		ORDER BY completed_at ASC
	`
	var attempts []*model.PagingAttempt
	if err := r.base.GetDB().SelectContext(ctx, &attempts, query, alertGroupID); err != nil {
		return nil, fmt.Errorf("failed to list paging attempts: %w", err)
	}
	return attempts, nil
}

func (r *attemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.base.GetDB().ExecContext(ctx,
		`DELETE FROM paging_attempts WHERE completed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete paging attempts: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
