package schedule

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncallhq/pager-api/internal/model"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
)

type fakeRotationRepo struct {
	rotations map[uuid.UUID]*model.Rotation
}

func (r *fakeRotationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Rotation, error) {
	if rot, ok := r.rotations[id]; ok {
		return rot, nil
	}
	return nil, sql.ErrNoRows
}
func (r *fakeRotationRepo) Create(ctx context.Context, rot *model.Rotation) error { return nil }
func (r *fakeRotationRepo) Update(ctx context.Context, rot *model.Rotation) error { return nil }
func (r *fakeRotationRepo) Delete(ctx context.Context, id uuid.UUID) error        { return nil }
func (r *fakeRotationRepo) List(ctx context.Context, workspaceID uuid.UUID) ([]*model.Rotation, error) {
	return nil, nil
}
func (r *fakeRotationRepo) CreateLayer(ctx context.Context, l *model.Layer) error { return nil }
func (r *fakeRotationRepo) DeleteLayer(ctx context.Context, id uuid.UUID) error   { return nil }
func (r *fakeRotationRepo) CreateParticipant(ctx context.Context, p *model.Participant) error {
	return nil
}
func (r *fakeRotationRepo) DeleteParticipant(ctx context.Context, id uuid.UUID) error   { return nil }
func (r *fakeRotationRepo) CreateOverride(ctx context.Context, o *model.Override) error { return nil }
func (r *fakeRotationRepo) DeleteOverride(ctx context.Context, id uuid.UUID) error      { return nil }

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Create(ctx context.Context, u *model.User) error { return nil }
func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}
func (r *fakeUserRepo) List(ctx context.Context, workspaceID uuid.UUID) ([]*model.User, error) {
	return nil, nil
}

func TestOnCallAt(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")
	userID := uuid.New()

	rotation := &model.Rotation{Name: "primary", Timezone: "UTC"}
	rotation.ID = uuid.New()
	rotation.Layers = []*model.Layer{makeLayer(start, 24, userID)}

	user := &model.User{Name: "Riley"}
	user.ID = userID

	svc := NewService(
		&fakeRotationRepo{rotations: map[uuid.UUID]*model.Rotation{rotation.ID: rotation}},
		&fakeUserRepo{users: map[uuid.UUID]*model.User{userID: user}},
	)

	status, err := svc.OnCallAt(context.Background(), rotation.ID, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, SourceRotation, status.Source)
	require.NotNil(t, status.User)
	assert.Equal(t, userID, status.User.ID)
	require.NotNil(t, status.StartsAt)
	assert.Equal(t, start, *status.StartsAt)
}

func TestOnCallAtNobody(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")
	rotation := &model.Rotation{Name: "primary", Timezone: "UTC"}
	rotation.ID = uuid.New()
	rotation.Layers = []*model.Layer{makeLayer(start, 24, uuid.New())}

	svc := NewService(
		&fakeRotationRepo{rotations: map[uuid.UUID]*model.Rotation{rotation.ID: rotation}},
		&fakeUserRepo{users: map[uuid.UUID]*model.User{}},
	)

	status, err := svc.OnCallAt(context.Background(), rotation.ID, start.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, SourceNone, status.Source)
	assert.Nil(t, status.User)
}

func TestOnCallAtUnknownRotation(t *testing.T) {
	svc := NewService(
		&fakeRotationRepo{rotations: map[uuid.UUID]*model.Rotation{}},
		&fakeUserRepo{users: map[uuid.UUID]*model.User{}},
	)
	_, err := svc.OnCallAt(context.Background(), uuid.New(), time.Now())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestScheduleRejectsEmptyRange(t *testing.T) {
	svc := NewService(
		&fakeRotationRepo{rotations: map[uuid.UUID]*model.Rotation{}},
		&fakeUserRepo{users: map[uuid.UUID]*model.User{}},
	)
	at := time.Now()
	_, err := svc.Schedule(context.Background(), uuid.New(), at, at)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}
