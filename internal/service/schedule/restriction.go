package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/oncallhq/pager-api/internal/model"
)

// LayerActive reports whether a layer's restrictions permit activity at now.
// A nil restriction set means the layer is always active. Times are compared
// as minute-of-day in the restriction's timezone (UTC when unset); windows
// are half-open, so a 09:00-17:00 window deactivates at exactly 17:00. A window
// whose end is before its start crosses midnight; its post-midnight portion
// belongs to the calendar day the window started on, so day matching in that
// portion checks the previous day.
func LayerActive(r *model.Restrictions, now time.Time) bool {
	if r == nil {
		return true
	}

	loc := time.UTC
	if r.Timezone != "" {
		if l, err := time.LoadLocation(r.Timezone); err == nil {
			loc = l
		}
	}
	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()

	start, hasStart := parseMinuteOfDay(r.StartTime)
	end, hasEnd := parseMinuteOfDay(r.EndTime)

	if !hasStart || !hasEnd {
		return dayAllowed(r.Days, model.WeekdayCode(local.Weekday()))
	}

	if end < start {
		// Midnight-crossing window.
		switch {
		case minute >= start:
			return dayAllowed(r.Days, model.WeekdayCode(local.Weekday()))
		case minute < end:
			yesterday := local.AddDate(0, 0, -1)
			return dayAllowed(r.Days, model.WeekdayCode(yesterday.Weekday()))
		default:
			return false
		}
	}

	if minute < start || minute >= end {
		return false
	}
	return dayAllowed(r.Days, model.WeekdayCode(local.Weekday()))
}

func dayAllowed(days []string, code string) bool {
	if len(days) == 0 {
		return true
	}
	for _, d := range days {
		if strings.EqualFold(d, code) {
			return true
		}
	}
	return false
}

// parseMinuteOfDay parses "HH:MM" into minutes since midnight.
func parseMinuteOfDay(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
