package paging

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/channel"
	"github.com/oncallhq/pager-api/internal/model"
	"github.com/oncallhq/pager-api/pkg/logger"
	"github.com/oncallhq/pager-api/pkg/metrics"
	"github.com/oncallhq/pager-api/pkg/queue"
)

// Shared across the package: promauto registers in the default registry,
// so metrics are created once for every test.
var testMetrics = metrics.New("pagingtest")

type fakePolicyRepo struct {
	policies map[uuid.UUID]*model.PagingPolicy
}

func (r *fakePolicyRepo) Create(ctx context.Context, p *model.PagingPolicy) error { return nil }
func (r *fakePolicyRepo) Update(ctx context.Context, p *model.PagingPolicy) error { return nil }
func (r *fakePolicyRepo) Delete(ctx context.Context, id uuid.UUID) error          { return nil }
func (r *fakePolicyRepo) List(ctx context.Context, workspaceID uuid.UUID) ([]*model.PagingPolicy, error) {
	return nil, nil
}
func (r *fakePolicyRepo) Get(ctx context.Context, id uuid.UUID) (*model.PagingPolicy, error) {
	if p, ok := r.policies[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type fakeAlertRepo struct {
	groups map[uuid.UUID]*model.AlertGroup
}

func (r *fakeAlertRepo) Create(ctx context.Context, g *model.AlertGroup) error { return nil }
func (r *fakeAlertRepo) Get(ctx context.Context, id uuid.UUID) (*model.AlertGroup, error) {
	if g, ok := r.groups[id]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}
func (r *fakeAlertRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AlertGroupStatus, snoozedUntil *time.Time) error {
	return nil
}

type fakeRotationRepo struct {
	rotations map[uuid.UUID]*model.Rotation
}

func (r *fakeRotationRepo) Create(ctx context.Context, rot *model.Rotation) error { return nil }
func (r *fakeRotationRepo) Update(ctx context.Context, rot *model.Rotation) error { return nil }
func (r *fakeRotationRepo) Delete(ctx context.Context, id uuid.UUID) error        { return nil }
func (r *fakeRotationRepo) List(ctx context.Context, workspaceID uuid.UUID) ([]*model.Rotation, error) {
	return nil, nil
}
func (r *fakeRotationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Rotation, error) {
	if rot, ok := r.rotations[id]; ok {
		return rot, nil
	}
	return nil, sql.ErrNoRows
}
func (r *fakeRotationRepo) CreateLayer(ctx context.Context, l *model.Layer) error        { return nil }
func (r *fakeRotationRepo) DeleteLayer(ctx context.Context, id uuid.UUID) error          { return nil }
func (r *fakeRotationRepo) CreateParticipant(ctx context.Context, p *model.Participant) error {
	return nil
}
func (r *fakeRotationRepo) DeleteParticipant(ctx context.Context, id uuid.UUID) error    { return nil }
func (r *fakeRotationRepo) CreateOverride(ctx context.Context, o *model.Override) error  { return nil }
func (r *fakeRotationRepo) DeleteOverride(ctx context.Context, id uuid.UUID) error       { return nil }

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

type fakeAttemptRepo struct {
	mu      sync.Mutex
	batches [][]*model.PagingAttempt
}

func (r *fakeAttemptRepo) CreateBatch(ctx context.Context, attempts []*model.PagingAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, attempts)
	return nil
}
func (r *fakeAttemptRepo) ListForAlertGroup(ctx context.Context, alertGroupID uuid.UUID) ([]*model.PagingAttempt, error) {
	return nil, nil
}
func (r *fakeAttemptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeAttemptRepo) all() []*model.PagingAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PagingAttempt
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

type enqueued struct {
	job   queue.Job
	delay time.Duration
}

type recordingQueue struct {
	mu    sync.Mutex
	items []enqueued
}

func (q *recordingQueue) Enqueue(ctx context.Context, job queue.Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, enqueued{job: job, delay: delay})
	return nil
}
func (q *recordingQueue) Due(ctx context.Context, limit int) ([]*queue.Envelope, error) {
	return nil, nil
}
func (q *recordingQueue) Requeue(ctx context.Context, env *queue.Envelope, delay time.Duration) error {
	return nil
}
func (q *recordingQueue) Close() error { return nil }

type fakeDispatcher struct {
	channel model.Channel
	err     error
	mu      sync.Mutex
	pages   []*channel.Page
	users   []*model.User
}

func (d *fakeDispatcher) Channel() model.Channel { return d.channel }
func (d *fakeDispatcher) Send(ctx context.Context, user *model.User, page *channel.Page) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = append(d.users, user)
	d.pages = append(d.pages, page)
	return d.err
}

// testEnv bundles a paging service with every fake behind it.
type testEnv struct {
	svc       *Service
	policies  *fakePolicyRepo
	alerts    *fakeAlertRepo
	rotations *fakeRotationRepo
	users     *fakeUserRepo
	attempts  *fakeAttemptRepo
	queue     *recordingQueue
	slack     *fakeDispatcher
	email     *fakeDispatcher
	sms       *fakeDispatcher
}

func newTestEnv() *testEnv {
	env := &testEnv{
		policies:  &fakePolicyRepo{policies: map[uuid.UUID]*model.PagingPolicy{}},
		alerts:    &fakeAlertRepo{groups: map[uuid.UUID]*model.AlertGroup{}},
		rotations: &fakeRotationRepo{rotations: map[uuid.UUID]*model.Rotation{}},
		users:     &fakeUserRepo{users: map[uuid.UUID]*model.User{}},
		attempts:  &fakeAttemptRepo{},
		queue:     &recordingQueue{},
		slack:     &fakeDispatcher{channel: model.ChannelSlack},
		email:     &fakeDispatcher{channel: model.ChannelEmail},
		sms:       &fakeDispatcher{channel: model.ChannelSMS},
	}
	registry := channel.NewRegistry(env.slack, env.email, env.sms)
	env.svc = NewService(
		env.policies, env.alerts, env.rotations, env.users, env.attempts,
		registry, env.queue, nil, logger.NewLogger(nil), testMetrics,
	)
	return env
}
