package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/model"
)

// TargetSource says where an on-call assignment came from.
type TargetSource string

const (
	SourceOverride TargetSource = "override"
	SourceRotation TargetSource = "rotation"
	SourceNone     TargetSource = "none"
)

// OnCallTarget is one resolved on-call assignment with its shift bounds.
type OnCallTarget struct {
	UserID     uuid.UUID    `json:"user_id"`
	Source     TargetSource `json:"source"`
	StartsAt   time.Time    `json:"starts_at"`
	EndsAt     time.Time    `json:"ends_at"`
	LayerID    *uuid.UUID   `json:"layer_id,omitempty"`
	IsOverride bool         `json:"-"`
}

// OnCallResult is the full resolution of a rotation at an instant: at most
// one primary responder plus zero or more shadow (trainee) targets.
type OnCallResult struct {
	Primary *OnCallTarget  `json:"primary"`
	Shadow  []OnCallTarget `json:"shadow"`
}

// ResolveTargets determines who is on call for a rotation at now.
// An active override supersedes every layer and suppresses shadows. Otherwise
// non-shadow layers are tried in ascending order and the first resolved holder
// wins. Shadow layers are resolved independently, de-duplicated by user, and
// never include the primary.
func ResolveTargets(rotation *model.Rotation, now time.Time) OnCallResult {
	if o := ActiveOverride(rotation.Overrides, now); o != nil {
		return OnCallResult{
			Primary: &OnCallTarget{
				UserID:     o.UserID,
				Source:     SourceOverride,
				StartsAt:   o.StartsAt,
				EndsAt:     o.EndsAt,
				IsOverride: true,
			},
			Shadow: []OnCallTarget{},
		}
	}

	var primary *OnCallTarget
	for _, layer := range byOrder(rotation.Layers) {
		if layer.IsShadow {
			continue
		}
		if rs := ResolveLayer(layer, now); rs != nil {
			layerID := layer.ID
			primary = &OnCallTarget{
				UserID:   rs.Participant.UserID,
				Source:   SourceRotation,
				StartsAt: rs.ShiftStart,
				EndsAt:   rs.ShiftEnd,
				LayerID:  &layerID,
			}
			break
		}
	}

	shadow := make([]OnCallTarget, 0)
	seen := make(map[uuid.UUID]struct{})
	for _, layer := range byOrder(rotation.Layers) {
		if !layer.IsShadow {
			continue
		}
		rs := ResolveLayer(layer, now)
		if rs == nil {
			continue
		}
		uid := rs.Participant.UserID
		if primary != nil && uid == primary.UserID {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		layerID := layer.ID
		shadow = append(shadow, OnCallTarget{
			UserID:   uid,
			Source:   SourceRotation,
			StartsAt: rs.ShiftStart,
			EndsAt:   rs.ShiftEnd,
			LayerID:  &layerID,
		})
	}

	return OnCallResult{Primary: primary, Shadow: shadow}
}

// byOrder returns layers ordered ascending without mutating the input.
// Equal orders keep insertion order, so the first configured layer wins ties.
func byOrder(layers []*model.Layer) []*model.Layer {
	out := make([]*model.Layer, len(layers))
	copy(out, layers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}
