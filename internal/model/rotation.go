package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Rotation is an on-call rotation owned by a workspace. Deleting a rotation
// cascades its layers and overrides.
type Rotation struct {
	Base
	WorkspaceID uuid.UUID   `json:"workspace_id" db:"workspace_id"`
	Name        string      `json:"name" db:"name"`
	Timezone    string      `json:"timezone" db:"timezone"`
	Layers      []*Layer    `json:"layers,omitempty" db:"-"`
	Overrides   []*Override `json:"overrides,omitempty" db:"-"`
}

// Layer is one tier of a rotation with its own participant list and handoff
// cadence. Shadow layers only ever supply trainee notification targets.
type Layer struct {
	Base
	RotationID           uuid.UUID      `json:"rotation_id" db:"rotation_id"`
	Order                int            `json:"order" db:"layer_order"`
	HandoffIntervalHours int            `json:"handoff_interval_hours" db:"handoff_interval_hours"`
	StartsAt             time.Time      `json:"starts_at" db:"starts_at"`
	EndsAt               *time.Time     `json:"ends_at,omitempty" db:"ends_at"`
	Restrictions         *Restrictions  `json:"restrictions,omitempty" db:"restrictions"`
	IsShadow             bool           `json:"is_shadow" db:"is_shadow"`
	Participants         []*Participant `json:"participants,omitempty" db:"-"`
}

// Participant is a member of a layer; Position defines rotation order.
// Shift assignments are recomputed live from the current participant set,
// so removing a participant shifts subsequent assignments.
type Participant struct {
	Base
	LayerID  uuid.UUID `json:"layer_id" db:"layer_id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	Position int       `json:"position" db:"position"`
}

// Override is a manually scheduled exception that supersedes rotation-derived
// assignment within [StartsAt, EndsAt].
type Override struct {
	Base
	RotationID uuid.UUID `json:"rotation_id" db:"rotation_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	StartsAt   time.Time `json:"starts_at" db:"starts_at"`
	EndsAt     time.Time `json:"ends_at" db:"ends_at"`
	Reason     *string   `json:"reason,omitempty" db:"reason"`
}

// Weekday codes used in restriction rules.
const (
	DayMonday    = "MON"
	DayTuesday   = "TUE"
	DayWednesday = "WED"
	DayThursday  = "THU"
	DayFriday    = "FRI"
	DaySaturday  = "SAT"
	DaySunday    = "SUN"
)

// WeekdayCode maps a time.Weekday to its restriction code.
func WeekdayCode(d time.Weekday) string {
	switch d {
	case time.Monday:
		return DayMonday
	case time.Tuesday:
		return DayTuesday
	case time.Wednesday:
		return DayWednesday
	case time.Thursday:
		return DayThursday
	case time.Friday:
		return DayFriday
	case time.Saturday:
		return DaySaturday
	default:
		return DaySunday
	}
}

// Restrictions gate when a layer is active. Absence of restrictions means the
// layer is always active. A StartTime/EndTime window may cross midnight.
// Stored as a jsonb column on the layer row.
type Restrictions struct {
	Days      []string `json:"days,omitempty" binding:"omitempty,dive,daycode"`
	StartTime string   `json:"startTime,omitempty"`
	EndTime   string   `json:"endTime,omitempty"`
	Timezone  string   `json:"timezone,omitempty" binding:"omitempty,tzdata"`
}

// Value implements driver.Valuer for jsonb storage.
func (r *Restrictions) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for jsonb storage.
func (r *Restrictions) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported restrictions column type %T", src)
	}
	return json.Unmarshal(b, r)
}
