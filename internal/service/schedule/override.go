package schedule

import (
	"time"

	"github.com/oncallhq/pager-api/internal/model"
)

// ActiveOverride selects the override whose window contains now. Overlapping
// overrides are legal; the most recently created one wins, with the greater
// id breaking equal creation times so the choice stays deterministic.
func ActiveOverride(overrides []*model.Override, now time.Time) *model.Override {
	var best *model.Override
	for _, o := range overrides {
		if now.Before(o.StartsAt) || now.After(o.EndsAt) {
			continue
		}
		if best == nil || moreRecent(o, best) {
			best = o
		}
	}
	return best
}

func moreRecent(a, b *model.Override) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}
