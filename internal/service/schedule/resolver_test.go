package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncallhq/pager-api/internal/model"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func makeLayer(startsAt time.Time, handoffHours int, userIDs ...uuid.UUID) *model.Layer {
	layer := &model.Layer{
		StartsAt:             startsAt,
		HandoffIntervalHours: handoffHours,
	}
	layer.ID = uuid.New()
	for i, uid := range userIDs {
		p := &model.Participant{UserID: uid, Position: i}
		p.ID = uuid.New()
		layer.Participants = append(layer.Participants, p)
	}
	return layer
}

func TestResolveLayerWalkthrough(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	layer := makeLayer(start, 24, p1, p2, p3)

	// 49 hours in: two full 24h cycles elapsed, so the third participant
	// holds the Jan 3 shift.
	at := mustTime(t, "2025-01-03T01:00:00Z")
	rs := ResolveLayer(layer, at)
	require.NotNil(t, rs)
	assert.Equal(t, p3, rs.Participant.UserID)
	assert.Equal(t, mustTime(t, "2025-01-03T00:00:00Z"), rs.ShiftStart)
	assert.Equal(t, mustTime(t, "2025-01-04T00:00:00Z"), rs.ShiftEnd)
}

func TestResolveLayerRoundRobin(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")
	p1, p2 := uuid.New(), uuid.New()
	layer := makeLayer(start, 12, p1, p2)

	cases := []struct {
		at   string
		want uuid.UUID
	}{
		{"2025-01-01T00:00:00Z", p1},
		{"2025-01-01T11:59:59Z", p1},
		{"2025-01-01T12:00:00Z", p2},
		{"2025-01-02T00:00:00Z", p1},
		{"2025-01-02T12:00:00Z", p2},
	}
	for _, tc := range cases {
		rs := ResolveLayer(layer, mustTime(t, tc.at))
		require.NotNil(t, rs, tc.at)
		assert.Equal(t, tc.want, rs.Participant.UserID, tc.at)
	}
}

func TestResolveLayerDeterministic(t *testing.T) {
	start := mustTime(t, "2025-03-01T08:00:00Z")
	layer := makeLayer(start, 8, uuid.New(), uuid.New(), uuid.New())
	at := mustTime(t, "2025-06-15T13:37:00Z")

	first := ResolveLayer(layer, at)
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		again := ResolveLayer(layer, at)
		require.NotNil(t, again)
		assert.Equal(t, first.Participant.UserID, again.Participant.UserID)
		assert.Equal(t, first.ShiftStart, again.ShiftStart)
	}
}

func TestResolveLayerShiftPartition(t *testing.T) {
	// Walking the timeline hour by hour must produce contiguous,
	// non-overlapping shifts: every instant belongs to exactly one shift.
	start := mustTime(t, "2025-01-06T00:00:00Z")
	layer := makeLayer(start, 6, uuid.New(), uuid.New())

	prevEnd := start
	at := start
	for at.Before(start.Add(72 * time.Hour)) {
		rs := ResolveLayer(layer, at)
		require.NotNil(t, rs)
		assert.False(t, rs.ShiftStart.After(at))
		assert.True(t, rs.ShiftEnd.After(at))
		if rs.ShiftStart.After(prevEnd) {
			t.Fatalf("gap between %v and %v", prevEnd, rs.ShiftStart)
		}
		if rs.ShiftEnd.After(prevEnd) {
			prevEnd = rs.ShiftEnd
		}
		at = at.Add(time.Hour)
	}
}

func TestResolveLayerEdges(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")

	t.Run("no participants", func(t *testing.T) {
		layer := makeLayer(start, 24)
		assert.Nil(t, ResolveLayer(layer, start.Add(time.Hour)))
	})

	t.Run("before layer start", func(t *testing.T) {
		layer := makeLayer(start, 24, uuid.New())
		assert.Nil(t, ResolveLayer(layer, start.Add(-time.Minute)))
	})

	t.Run("after layer end", func(t *testing.T) {
		layer := makeLayer(start, 24, uuid.New())
		end := start.Add(48 * time.Hour)
		layer.EndsAt = &end
		assert.Nil(t, ResolveLayer(layer, end.Add(time.Minute)))
	})

	t.Run("zero handoff clamps to one hour", func(t *testing.T) {
		p1, p2 := uuid.New(), uuid.New()
		layer := makeLayer(start, 0, p1, p2)
		rs := ResolveLayer(layer, start.Add(90*time.Minute))
		require.NotNil(t, rs)
		assert.Equal(t, p2, rs.Participant.UserID)
		assert.Equal(t, start.Add(time.Hour), rs.ShiftStart)
	})

	t.Run("single participant holds every shift", func(t *testing.T) {
		p1 := uuid.New()
		layer := makeLayer(start, 24, p1)
		for _, offset := range []time.Duration{0, 25 * time.Hour, 1000 * time.Hour} {
			rs := ResolveLayer(layer, start.Add(offset))
			require.NotNil(t, rs)
			assert.Equal(t, p1, rs.Participant.UserID)
		}
	})
}

func TestResolveLayerPositionOrder(t *testing.T) {
	// Participant order follows position, not slice order.
	start := mustTime(t, "2025-01-01T00:00:00Z")
	pA, pB := uuid.New(), uuid.New()
	layer := &model.Layer{StartsAt: start, HandoffIntervalHours: 24}
	layer.Participants = []*model.Participant{
		{UserID: pB, Position: 1},
		{UserID: pA, Position: 0},
	}

	rs := ResolveLayer(layer, start)
	require.NotNil(t, rs)
	assert.Equal(t, pA, rs.Participant.UserID)

	rs = ResolveLayer(layer, start.Add(24*time.Hour))
	require.NotNil(t, rs)
	assert.Equal(t, pB, rs.Participant.UserID)
}
