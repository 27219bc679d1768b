package paging

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncallhq/pager-api/internal/model"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
)

func seedPolicy(env *testEnv, workspaceID uuid.UUID, steps ...*model.PagingStep) *model.PagingPolicy {
	p := &model.PagingPolicy{
		WorkspaceID: workspaceID,
		RotationID:  uuid.New(),
		Name:        "sev1 escalation",
		Enabled:     true,
		Steps:       steps,
	}
	p.ID = uuid.New()
	env.policies.policies[p.ID] = p
	return p
}

func seedAlert(env *testEnv, workspaceID uuid.UUID, status model.AlertGroupStatus) *model.AlertGroup {
	g := &model.AlertGroup{
		WorkspaceID: workspaceID,
		Title:       "api latency breach",
		Status:      status,
	}
	g.ID = uuid.New()
	env.alerts.groups[g.ID] = g
	return g
}

func step(order, delaySeconds, repeatCount int, channels ...model.Channel) *model.PagingStep {
	s := &model.PagingStep{
		Order:        order,
		Channels:     model.ChannelList(channels),
		DelaySeconds: delaySeconds,
		RepeatCount:  repeatCount,
	}
	s.ID = uuid.New()
	return s
}

func TestTriggerEnqueuesFirstStep(t *testing.T) {
	env := newTestEnv()
	ws := uuid.New()
	policy := seedPolicy(env, ws,
		step(1, 60, 0, model.ChannelSlack),
		step(2, 300, 0, model.ChannelSMS),
	)
	alert := seedAlert(env, ws, model.AlertGroupStatusOpen)

	err := env.svc.Trigger(context.Background(), &TriggerRequest{
		PolicyID:     policy.ID,
		AlertGroupID: alert.ID,
	})
	require.NoError(t, err)

	require.Len(t, env.queue.items, 1)
	got := env.queue.items[0]
	assert.Equal(t, policy.ID, got.job.PolicyID)
	assert.Equal(t, alert.ID, got.job.AlertGroupID)
	assert.Equal(t, 1, got.job.StepOrder)
	assert.Equal(t, 1, got.job.AttemptNumber)
	assert.Equal(t, 60*time.Second, got.delay)
}

func TestTriggerUnknownPolicy(t *testing.T) {
	env := newTestEnv()
	err := env.svc.Trigger(context.Background(), &TriggerRequest{
		PolicyID:     uuid.New(),
		AlertGroupID: uuid.New(),
	})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, env.queue.items)
}

func TestTriggerDisabledPolicy(t *testing.T) {
	env := newTestEnv()
	ws := uuid.New()
	policy := seedPolicy(env, ws, step(1, 0, 0, model.ChannelSlack))
	policy.Enabled = false
	alert := seedAlert(env, ws, model.AlertGroupStatusOpen)

	err := env.svc.Trigger(context.Background(), &TriggerRequest{
		PolicyID:     policy.ID,
		AlertGroupID: alert.ID,
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Empty(t, env.queue.items)
}

func TestTriggerPolicyWithoutSteps(t *testing.T) {
	env := newTestEnv()
	ws := uuid.New()
	policy := seedPolicy(env, ws)
	alert := seedAlert(env, ws, model.AlertGroupStatusOpen)

	err := env.svc.Trigger(context.Background(), &TriggerRequest{
		PolicyID:     policy.ID,
		AlertGroupID: alert.ID,
	})
	require.Error(t, err)
	assert.Empty(t, env.queue.items)
}

func TestTriggerWorkspaceMismatch(t *testing.T) {
	env := newTestEnv()
	policy := seedPolicy(env, uuid.New(), step(1, 0, 0, model.ChannelSlack))
	alert := seedAlert(env, uuid.New(), model.AlertGroupStatusOpen)

	err := env.svc.Trigger(context.Background(), &TriggerRequest{
		PolicyID:     policy.ID,
		AlertGroupID: alert.ID,
	})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, env.queue.items)
}
