package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncallhq/pager-api/internal/model"
)

func TestProjectContiguousShifts(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p1, p2 := uuid.New(), uuid.New()
	rotation := &model.Rotation{Layers: []*model.Layer{makeLayer(start, 24, p1, p2)}}

	from := start
	to := start.Add(96 * time.Hour)
	shifts := Project(rotation, from, to)

	require.Len(t, shifts, 4)
	want := []uuid.UUID{p1, p2, p1, p2}
	for i, s := range shifts {
		assert.Equal(t, want[i], s.UserID, i)
		assert.Equal(t, start.Add(time.Duration(i)*24*time.Hour), s.StartsAt)
		assert.Equal(t, start.Add(time.Duration(i+1)*24*time.Hour), s.EndsAt)
		assert.Equal(t, SourceRotation, s.Source)
	}
}

func TestProjectClipsToRange(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rotation := &model.Rotation{Layers: []*model.Layer{makeLayer(start, 24, uuid.New())}}

	from := start.Add(12 * time.Hour)
	to := start.Add(36 * time.Hour)
	shifts := Project(rotation, from, to)

	require.Len(t, shifts, 2)
	assert.Equal(t, from, shifts[0].StartsAt)
	assert.Equal(t, start.Add(24*time.Hour), shifts[0].EndsAt)
	assert.Equal(t, start.Add(24*time.Hour), shifts[1].StartsAt)
	assert.Equal(t, to, shifts[1].EndsAt)
}

func TestProjectRestrictionGaps(t *testing.T) {
	// A business-hours layer leaves the calendar empty outside its windows.
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC) // Monday
	layer := makeLayer(start, 24, uuid.New())
	layer.Restrictions = &model.Restrictions{
		Days:      []string{model.DayMonday, model.DayTuesday},
		StartTime: "09:00",
		EndTime:   "17:00",
		Timezone:  "UTC",
	}
	rotation := &model.Rotation{Layers: []*model.Layer{layer}}

	shifts := Project(rotation, start, start.Add(7*24*time.Hour))
	require.NotEmpty(t, shifts)
	for _, s := range shifts {
		weekday := s.StartsAt.UTC().Weekday()
		assert.Contains(t, []time.Weekday{time.Monday, time.Tuesday}, weekday)
	}
}

func TestProjectIncludesOverrides(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rotUser := uuid.New()
	overrideUser := uuid.New()

	rotation := &model.Rotation{
		Layers: []*model.Layer{makeLayer(start, 24, rotUser)},
		Overrides: []*model.Override{
			makeOverride(overrideUser, start.Add(30*time.Hour), start.Add(40*time.Hour), start),
			// Entirely outside the projection range, must not appear.
			makeOverride(uuid.New(), start.Add(200*time.Hour), start.Add(210*time.Hour), start),
		},
	}

	shifts := Project(rotation, start, start.Add(72*time.Hour))

	var overrideShifts []Shift
	for _, s := range shifts {
		if s.Source == SourceOverride {
			overrideShifts = append(overrideShifts, s)
		}
	}
	require.Len(t, overrideShifts, 1)
	assert.Equal(t, overrideUser, overrideShifts[0].UserID)
	assert.Equal(t, start.Add(30*time.Hour), overrideShifts[0].StartsAt)
}

func TestProjectSkipsShadowLayers(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	shadow := makeLayer(start, 24, uuid.New())
	shadow.IsShadow = true
	rotation := &model.Rotation{Layers: []*model.Layer{shadow}}

	assert.Empty(t, Project(rotation, start, start.Add(48*time.Hour)))
}

func TestProjectSortedByStart(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	layerA := makeLayer(start, 12, uuid.New())
	layerB := makeLayer(start.Add(6*time.Hour), 12, uuid.New())
	layerB.Order = 1
	rotation := &model.Rotation{Layers: []*model.Layer{layerA, layerB}}

	shifts := Project(rotation, start, start.Add(48*time.Hour))
	for i := 1; i < len(shifts); i++ {
		assert.False(t, shifts[i].StartsAt.Before(shifts[i-1].StartsAt))
	}
}
