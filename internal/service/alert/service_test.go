package alert

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

type fakeAlertRepo struct {
	groups map[uuid.UUID]*model.AlertGroup
}

func (r *fakeAlertRepo) Create(ctx context.Context, g *model.AlertGroup) error {
	g.ID = uuid.New()
	r.groups[g.ID] = g
	return nil
}

func (r *fakeAlertRepo) Get(ctx context.Context, id uuid.UUID) (*model.AlertGroup, error) {
	if g, ok := r.groups[id]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeAlertRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AlertGroupStatus, snoozedUntil *time.Time) error {
	g, ok := r.groups[id]
	if !ok {
		return sql.ErrNoRows
	}
	g.Status = status
	g.SnoozedUntil = snoozedUntil
	return nil
}

type fakeAttemptRepo struct {
	attempts []*model.PagingAttempt
}

func (r *fakeAttemptRepo) CreateBatch(ctx context.Context, attempts []*model.PagingAttempt) error {
	r.attempts = append(r.attempts, attempts...)
	return nil
}

func (r *fakeAttemptRepo) ListForAlertGroup(ctx context.Context, alertGroupID uuid.UUID) ([]*model.PagingAttempt, error) {
	var out []*model.PagingAttempt
	for _, a := range r.attempts {
		if a.AlertGroupID == alertGroupID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func newTestService() (*Service, *fakeAlertRepo, *fakeAttemptRepo) {
	alerts := &fakeAlertRepo{groups: map[uuid.UUID]*model.AlertGroup{}}
	attempts := &fakeAttemptRepo{}
	return NewService(alerts, attempts, nil), alerts, attempts
}

func seed(repo *fakeAlertRepo, status model.AlertGroupStatus) *model.AlertGroup {
	g := &model.AlertGroup{Title: "disk full", Status: status}
	g.ID = uuid.New()
	repo.groups[g.ID] = g
	return g
}

func TestCreateRequiresTitle(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.Create(context.Background(), &model.AlertGroup{})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("open to ack", func(t *testing.T) {
		svc, repo, _ := newTestService()
		g := seed(repo, model.AlertGroupStatusOpen)
		require.NoError(t, svc.Acknowledge(ctx, g.ID))
		assert.Equal(t, model.AlertGroupStatusAck, g.Status)
	})

	t.Run("ack to resolved", func(t *testing.T) {
		svc, repo, _ := newTestService()
		g := seed(repo, model.AlertGroupStatusAck)
		require.NoError(t, svc.Resolve(ctx, g.ID))
		assert.Equal(t, model.AlertGroupStatusResolved, g.Status)
	})

	t.Run("snoozed reopens", func(t *testing.T) {
		svc, repo, _ := newTestService()
		g := seed(repo, model.AlertGroupStatusSnoozed)
		require.NoError(t, svc.Reopen(ctx, g.ID))
		assert.Equal(t, model.AlertGroupStatusOpen, g.Status)
		assert.Nil(t, g.SnoozedUntil)
	})

	t.Run("resolved is terminal", func(t *testing.T) {
		svc, repo, _ := newTestService()
		g := seed(repo, model.AlertGroupStatusResolved)
		assert.Error(t, svc.Acknowledge(ctx, g.ID))
		assert.Error(t, svc.Reopen(ctx, g.ID))
		assert.Error(t, svc.Snooze(ctx, g.ID, time.Now().Add(time.Hour)))
	})

	t.Run("same status rejected", func(t *testing.T) {
		svc, repo, _ := newTestService()
		g := seed(repo, model.AlertGroupStatusAck)
		assert.Error(t, svc.Acknowledge(ctx, g.ID))
	})
}

func TestSnooze(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	g := seed(repo, model.AlertGroupStatusOpen)

	until := time.Now().Add(2 * time.Hour)
	require.NoError(t, svc.Snooze(ctx, g.ID, until))
	assert.Equal(t, model.AlertGroupStatusSnoozed, g.Status)
	require.NotNil(t, g.SnoozedUntil)
	assert.Equal(t, until, *g.SnoozedUntil)
}

func TestSnoozeRejectsPast(t *testing.T) {
	svc, repo, _ := newTestService()
	g := seed(repo, model.AlertGroupStatusOpen)

	err := svc.Snooze(context.Background(), g.ID, time.Now().Add(-time.Minute))
	require.Error(t, err)
	assert.Equal(t, model.AlertGroupStatusOpen, g.Status)
}

func TestTransitionUnknownGroup(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.Acknowledge(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAttempts(t *testing.T) {
	svc, repo, attempts := newTestService()
	g := seed(repo, model.AlertGroupStatusOpen)
	attempts.attempts = []*model.PagingAttempt{
		{ID: uuid.New(), AlertGroupID: g.ID, Channel: model.ChannelSlack},
		{ID: uuid.New(), AlertGroupID: uuid.New(), Channel: model.ChannelEmail},
	}

	got, err := svc.Attempts(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, g.ID, got[0].AlertGroupID)

	_, err = svc.Attempts(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
