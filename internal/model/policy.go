package model

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Channel is a notification transport for a paging step.
type Channel string

const (
	ChannelSlack Channel = "SLACK"
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelVoice Channel = "VOICE"
)

// ValidChannel reports whether the given name is a known channel.
func ValidChannel(name string) bool {
	switch Channel(strings.ToUpper(name)) {
	case ChannelSlack, ChannelEmail, ChannelSMS, ChannelVoice:
		return true
	}
	return false
}

// ChannelList is a text[] column of channel names.
type ChannelList []Channel

func (c ChannelList) Value() (driver.Value, error) {
	names := make([]string, len(c))
	for i, ch := range c {
		names[i] = string(ch)
	}
	return pq.Array(names).Value()
}

func (c *ChannelList) Scan(src interface{}) error {
	var names pq.StringArray
	if err := names.Scan(src); err != nil {
		return fmt.Errorf("failed to scan channel list: %w", err)
	}
	*c = make(ChannelList, len(names))
	for i, n := range names {
		(*c)[i] = Channel(n)
	}
	return nil
}

// PagingPolicy is an ordered multi-step escalation policy bound to a rotation.
type PagingPolicy struct {
	Base
	WorkspaceID uuid.UUID     `json:"workspace_id" db:"workspace_id"`
	RotationID  uuid.UUID     `json:"rotation_id" db:"rotation_id"`
	Name        string        `json:"name" db:"name"`
	Enabled     bool          `json:"enabled" db:"enabled"`
	Steps       []*PagingStep `json:"steps,omitempty" db:"-"`
}

// Step returns the step with the given order, or nil.
func (p *PagingPolicy) Step(order int) *PagingStep {
	for _, s := range p.Steps {
		if s.Order == order {
			return s
		}
	}
	return nil
}

// NextStep returns the step with order+1, or nil when the chain ends.
func (p *PagingPolicy) NextStep(order int) *PagingStep {
	return p.Step(order + 1)
}

// PagingStep is one stage of an escalation policy. DelaySeconds is the delay
// before the step fires relative to trigger/previous step; RepeatCount is the
// number of additional same-step retries spaced RepeatIntervalSeconds apart.
type PagingStep struct {
	Base
	PolicyID              uuid.UUID   `json:"policy_id" db:"policy_id"`
	Order                 int         `json:"order" db:"step_order"`
	Channels              ChannelList `json:"channels" db:"channels"`
	DelaySeconds          int         `json:"delay_seconds" db:"delay_seconds"`
	RepeatCount           int         `json:"repeat_count" db:"repeat_count"`
	RepeatIntervalSeconds int         `json:"repeat_interval_seconds" db:"repeat_interval_seconds"`
}
