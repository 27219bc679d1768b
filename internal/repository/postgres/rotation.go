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

type rotationRepository struct {
	db *sqlx.DB
}

func NewRotationRepository(db *sqlx.DB) repository.RotationRepository {
	return &rotationRepository{db: db}
}

func (r *rotationRepository) Create(ctx context.Context, rotation *model.Rotation) error {
	query := `
		INSERT INTO rotations (
			id, workspace_id, name, timezone, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	rotation.ID = uuid.New()
	rotation.CreatedAt = time.Now()
	rotation.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		rotation.ID,
		rotation.WorkspaceID,
		rotation.Name,
		rotation.Timezone,
		rotation.CreatedAt,
		rotation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create rotation: %w", err)
	}
	return nil
}

// Get returns the rotation with its layers (each with participants ordered by
// position) and overrides, which is the aggregate the on-call resolvers need.
func (r *rotationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Rotation, error) {
	query := `
		SELECT id, workspace_id, name, timezone, created_at, updated_at
		FROM rotations
		WHERE id = $1
	`
	var rotation model.Rotation
	if err := r.db.GetContext(ctx, &rotation, query, id); err != nil {
		return nil, fmt.Errorf("failed to get rotation: %w", err)
	}

	layers, err := r.layersForRotation(ctx, id)
	if err != nil {
		return nil, err
	}
	rotation.Layers = layers

	overrides, err := r.overridesForRotation(ctx, id)
	if err != nil {
		return nil, err
	}
	rotation.Overrides = overrides

	return &rotation, nil
}

func (r *rotationRepository) layersForRotation(ctx context.Context, rotationID uuid.UUID) ([]*model.Layer, error) {
	query := `
		SELECT id, rotation_id, layer_order, handoff_interval_hours,
			   starts_at, ends_at, restrictions, is_shadow,
			   created_at, updated_at
		FROM rotation_layers
		WHERE rotation_id = $1
		ORDER BY layer_order ASC
	`
	var layers []*model.Layer
	if err := r.db.SelectContext(ctx, &layers, query, rotationID); err != nil {
		return nil, fmt.Errorf("failed to list layers: %w", err)
	}

	for _, layer := range layers {
		participants, err := r.participantsForLayer(ctx, layer.ID)
		if err != nil {
			return nil, err
		}
		layer.Participants = participants
	}
	return layers, nil
}

func (r *rotationRepository) participantsForLayer(ctx context.Context, layerID uuid.UUID) ([]*model.Participant, error) {
	query := `
		SELECT id, layer_id, user_id, position, created_at, updated_at
		FROM layer_participants
		WHERE layer_id = $1
		ORDER BY position ASC
	`
	var participants []*model.Participant
	if err := r.db.SelectContext(ctx, &participants, query, layerID); err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

func (r *rotationRepository) overridesForRotation(ctx context.Context, rotationID uuid.UUID) ([]*model.Override, error) {
	query := `
		SELECT id, rotation_id, user_id, starts_at, ends_at, reason,
			   created_at, updated_at
		FROM rotation_overrides
		WHERE rotation_id = $1
		ORDER BY created_at ASC
	`
	var overrides []*model.Override
	if err := r.db.SelectContext(ctx, &overrides, query, rotationID); err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return overrides, nil
}

func (r *rotationRepository) Update(ctx context.Context, rotation *model.Rotation) error {
	query := `
		UPDATE rotations
		SET name = $1, timezone = $2, updated_at = $3
		WHERE id = $4
	`
	rotation.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		rotation.Name,
		rotation.Timezone,
		rotation.UpdatedAt,
		rotation.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rotation: %w", err)
	}
	return requireRow(result, "rotation")
}

// Delete removes the rotation; layers, participants and overrides cascade.
func (r *rotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rotations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rotation: %w", err)
	}
	return requireRow(result, "rotation")
}

func (r *rotationRepository) List(ctx context.Context, workspaceID uuid.UUID) ([]*model.Rotation, error) {
	query := `
		SELECT id, workspace_id, name, timezone, created_at, updated_at
		FROM rotations
		WHERE workspace_id = $1
		ORDER BY name ASC
	`
	var rotations []*model.Rotation
	if err := r.db.SelectContext(ctx, &rotations, query, workspaceID); err != nil {
		return nil, fmt.Errorf("failed to list rotations: %w", err)
	}
	return rotations, nil
}

func (r *rotationRepository) CreateLayer(ctx context.Context, layer *model.Layer) error {
	query := `
		INSERT INTO rotation_layers (
			id, rotation_id, layer_order, handoff_interval_hours,
			starts_at, ends_at, restrictions, is_shadow,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	layer.ID = uuid.New()
	layer.CreatedAt = time.Now()
	layer.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		layer.ID,
		layer.RotationID,
		layer.Order,
		layer.HandoffIntervalHours,
		layer.StartsAt,
		layer.EndsAt,
		layer.Restrictions,
		layer.IsShadow,
		layer.CreatedAt,
		layer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create layer: %w", err)
	}
	return nil
}

func (r *rotationRepository) DeleteLayer(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rotation_layers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete layer: %w", err)
	}
	return requireRow(result, "layer")
}

func (r *rotationRepository) CreateParticipant(ctx context.Context, participant *model.Participant) error {
	query := `
		INSERT INTO layer_participants (
			id, layer_id, user_id, position, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	participant.ID = uuid.New()
	participant.CreatedAt = time.Now()
	participant.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		participant.ID,
		participant.LayerID,
		participant.UserID,
		participant.Position,
		participant.CreatedAt,
		participant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *rotationRepository) DeleteParticipant(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM layer_participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return requireRow(result, "participant")
}

func (r *rotationRepository) CreateOverride(ctx context.Context, override *model.Override) error {
	query := `
		INSERT INTO rotation_overrides (
			id, rotation_id, user_id, starts_at, ends_at, reason,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	override.ID = uuid.New()
	override.CreatedAt = time.Now()
	override.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		override.ID,
		override.RotationID,
		override.UserID,
		override.StartsAt,
		override.EndsAt,
		override.Reason,
		override.CreatedAt,
		override.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create override: %w", err)
	}
	return nil
}

func (r *rotationRepository) DeleteOverride(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rotation_overrides WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}
	return requireRow(result, "override")
}
