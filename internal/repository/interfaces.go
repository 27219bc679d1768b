package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/model"
)

// All repository interfaces in one file
type (
	// RotationRepository handles rotations together with their layers,
	// participants and overrides. Get returns the fully hydrated aggregate
	// the resolvers work on.
	RotationRepository interface {
		Create(ctx context.Context, rotation *model.Rotation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Rotation, error)
		Update(ctx context.Context, rotation *model.Rotation) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, workspaceID uuid.UUID) ([]*model.Rotation, error)
		CreateLayer(ctx context.Context, layer *model.Layer) error
		DeleteLayer(ctx context.Context, id uuid.UUID) error
		CreateParticipant(ctx context.Context, participant *model.Participant) error
		DeleteParticipant(ctx context.Context, id uuid.UUID) error
		CreateOverride(ctx context.Context, override *model.Override) error
		DeleteOverride(ctx context.Context, id uuid.UUID) error
	}

	// PolicyRepository handles paging policies and their ordered steps.
	PolicyRepository interface {
		Create(ctx context.Context, policy *model.PagingPolicy) error
		Get(ctx context.Context, id uuid.UUID) (*model.PagingPolicy, error)
		Update(ctx context.Context, policy *model.PagingPolicy) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, workspaceID uuid.UUID) ([]*model.PagingPolicy, error)
	}

	// AlertGroupRepository reads and transitions alert group state. The
	// orchestrator uses Get as its status guard before every job execution.
	AlertGroupRepository interface {
		Create(ctx context.Context, group *model.AlertGroup) error
		Get(ctx context.Context, id uuid.UUID) (*model.AlertGroup, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AlertGroupStatus, snoozedUntil *time.Time) error
	}

	// AttemptRepository appends immutable paging attempt records.
	// CreateBatch commits one job execution's attempts in a single
	// transaction so partial attempt sets are never visible.
	AttemptRepository interface {
		CreateBatch(ctx context.Context, attempts []*model.PagingAttempt) error
		ListForAlertGroup(ctx context.Context, alertGroupID uuid.UUID) ([]*model.PagingAttempt, error)
		DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	}

	// UserRepository resolves page targets to their contact details.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		List(ctx context.Context, workspaceID uuid.UUID) ([]*model.User, error)
	}
)
