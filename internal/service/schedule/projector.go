package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/model"
)

// probeStep is how far the projector advances past an inactive instant.
// Restriction windows are minute-granular but an hourly probe keeps the walk
// O(shifts + inactive hours) over typical calendar ranges.
const probeStep = time.Hour

// Shift is one calendar entry of a projected schedule.
type Shift struct {
	UserID   uuid.UUID    `json:"user_id"`
	StartsAt time.Time    `json:"starts_at"`
	EndsAt   time.Time    `json:"ends_at"`
	Source   TargetSource `json:"source"`
	LayerID  *uuid.UUID   `json:"layer_id,omitempty"`
}

// Project walks [from, to) and emits every rotation-derived and
// override-derived shift, sorted by start time. Within a resolved shift the
// cursor jumps straight to the shift end; only inactive stretches are probed
// hourly.
func Project(rotation *model.Rotation, from, to time.Time) []Shift {
	shifts := make([]Shift, 0)

	for _, layer := range byOrder(rotation.Layers) {
		if layer.IsShadow {
			continue
		}
		shifts = append(shifts, projectLayer(layer, from, to)...)
	}

	for _, o := range rotation.Overrides {
		if !o.StartsAt.Before(to) || !o.EndsAt.After(from) {
			continue
		}
		shifts = append(shifts, Shift{
			UserID:   o.UserID,
			StartsAt: o.StartsAt,
			EndsAt:   o.EndsAt,
			Source:   SourceOverride,
		})
	}

	sort.SliceStable(shifts, func(i, j int) bool {
		return shifts[i].StartsAt.Before(shifts[j].StartsAt)
	})
	return shifts
}

func projectLayer(layer *model.Layer, from, to time.Time) []Shift {
	cursor := from
	if layer.StartsAt.After(cursor) {
		cursor = layer.StartsAt
	}
	end := to
	if layer.EndsAt != nil && layer.EndsAt.Before(end) {
		end = *layer.EndsAt
	}

	shifts := make([]Shift, 0)
	for cursor.Before(end) {
		rs := ResolveLayer(layer, cursor)
		if rs == nil {
			cursor = cursor.Add(probeStep)
			continue
		}

		start := rs.ShiftStart
		if start.Before(from) {
			start = from
		}
		stop := rs.ShiftEnd
		if stop.After(to) {
			stop = to
		}
		layerID := layer.ID
		shifts = append(shifts, Shift{
			UserID:   rs.Participant.UserID,
			StartsAt: start,
			EndsAt:   stop,
			Source:   SourceRotation,
			LayerID:  &layerID,
		})
		cursor = rs.ShiftEnd
	}
	return shifts
}
