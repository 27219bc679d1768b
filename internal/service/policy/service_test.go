package policy

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncallhq/pager-api/internal/model"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
)

type fakePolicyRepo struct {
	created []*model.PagingPolicy
}

func (r *fakePolicyRepo) Create(ctx context.Context, p *model.PagingPolicy) error {
	r.created = append(r.created, p)
	return nil
}
func (r *fakePolicyRepo) Get(ctx context.Context, id uuid.UUID) (*model.PagingPolicy, error) {
	return nil, sql.ErrNoRows
}
func (r *fakePolicyRepo) Update(ctx context.Context, p *model.PagingPolicy) error { return nil }
func (r *fakePolicyRepo) Delete(ctx context.Context, id uuid.UUID) error          { return sql.ErrNoRows }
func (r *fakePolicyRepo) List(ctx context.Context, workspaceID uuid.UUID) ([]*model.PagingPolicy, error) {
	return nil, nil
}

type fakeRotationRepo struct {
	known map[uuid.UUID]bool
}

func (r *fakeRotationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Rotation, error) {
	if r.known[id] {
		return &model.Rotation{}, nil
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

func newTestService(rotationIDs ...uuid.UUID) (*Service, *fakePolicyRepo) {
	known := map[uuid.UUID]bool{}
	for _, id := range rotationIDs {
		known[id] = true
	}
	repo := &fakePolicyRepo{}
	return NewService(repo, &fakeRotationRepo{known: known}), repo
}

func validPolicy(rotationID uuid.UUID) *model.PagingPolicy {
	return &model.PagingPolicy{
		WorkspaceID: uuid.New(),
		RotationID:  rotationID,
		Name:        "sev1 escalation",
		Enabled:     true,
		Steps: []*model.PagingStep{
			{Order: 2, Channels: model.ChannelList{model.ChannelSMS}, DelaySeconds: 300},
			{Order: 1, Channels: model.ChannelList{model.ChannelSlack}},
		},
	}
}

func TestCreatePolicySortsSteps(t *testing.T) {
	rotationID := uuid.New()
	svc, repo := newTestService(rotationID)

	p := validPolicy(rotationID)
	require.NoError(t, svc.CreatePolicy(context.Background(), p))

	require.Len(t, repo.created, 1)
	assert.Equal(t, 1, p.Steps[0].Order)
	assert.Equal(t, 2, p.Steps[1].Order)
}

func TestCreatePolicyValidation(t *testing.T) {
	rotationID := uuid.New()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*model.PagingPolicy)
	}{
		{"empty name", func(p *model.PagingPolicy) { p.Name = "" }},
		{"no steps", func(p *model.PagingPolicy) { p.Steps = nil }},
		{"step without channels", func(p *model.PagingPolicy) { p.Steps[0].Channels = nil }},
		{"unknown channel", func(p *model.PagingPolicy) {
			p.Steps[0].Channels = model.ChannelList{"PIGEON"}
		}},
		{"negative delay", func(p *model.PagingPolicy) { p.Steps[0].DelaySeconds = -1 }},
		{"negative repeat count", func(p *model.PagingPolicy) { p.Steps[0].RepeatCount = -1 }},
		{"duplicate step order", func(p *model.PagingPolicy) { p.Steps[1].Order = p.Steps[0].Order }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newTestService(rotationID)
			p := validPolicy(rotationID)
			tc.mutate(p)

			err := svc.CreatePolicy(ctx, p)
			require.Error(t, err)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrValidation, appErr.Code)
			assert.Empty(t, repo.created)
		})
	}
}

func TestCreatePolicyUnknownRotation(t *testing.T) {
	svc, repo := newTestService()
	err := svc.CreatePolicy(context.Background(), validPolicy(uuid.New()))
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, repo.created)
}

func TestGetPolicyNotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.GetPolicy(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeletePolicyNotFound(t *testing.T) {
	svc, _ := newTestService()
	err := svc.DeletePolicy(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
