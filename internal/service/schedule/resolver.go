package schedule

import (
	"sort"
	"time"

	"github.com/oncallhq/pager-api/internal/model"
)

// ResolvedShift is the holder of a layer at a given instant together with the
// exact shift boundaries.
type ResolvedShift struct {
	Participant *model.Participant
	ShiftStart  time.Time
	ShiftEnd    time.Time
}

// ResolveLayer computes which participant of a layer is on call at now.
// It is a pure function of wall-clock time and layer configuration; there is
// no persisted "current holder" state to drift. Returns nil (not an error)
// when the layer has not started, has ended, has no participants, or is
// inactive under its restrictions.
func ResolveLayer(layer *model.Layer, now time.Time) *ResolvedShift {
	if len(layer.Participants) == 0 {
		return nil
	}
	if now.Before(layer.StartsAt) {
		return nil
	}
	if layer.EndsAt != nil && now.After(*layer.EndsAt) {
		return nil
	}
	if !LayerActive(layer.Restrictions, now) {
		return nil
	}

	hours := layer.HandoffIntervalHours
	if hours < 1 {
		hours = 1
	}
	interval := time.Duration(hours) * time.Hour

	elapsed := now.Sub(layer.StartsAt)
	cycles := int64(elapsed / interval)
	participants := byPosition(layer.Participants)
	idx := int(cycles % int64(len(participants)))

	shiftStart := layer.StartsAt.Add(time.Duration(cycles) * interval)
	return &ResolvedShift{
		Participant: participants[idx],
		ShiftStart:  shiftStart,
		ShiftEnd:    shiftStart.Add(interval),
	}
}

// byPosition returns participants ordered by ascending position without
// mutating the input slice.
func byPosition(ps []*model.Participant) []*model.Participant {
	out := make([]*model.Participant, len(ps))
	copy(out, ps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}
