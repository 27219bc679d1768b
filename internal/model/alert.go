package model

import (
	"time"

	"github.com/google/uuid"
)

// AlertGroupStatus is the lifecycle state of a grouped alert.
type AlertGroupStatus string

const (
	AlertGroupStatusOpen     AlertGroupStatus = "OPEN"
	AlertGroupStatusAck      AlertGroupStatus = "ACK"
	AlertGroupStatusResolved AlertGroupStatus = "RESOLVED"
	AlertGroupStatusSnoozed  AlertGroupStatus = "SNOOZED"
)

// Halted reports whether paging against this status must stop. Every queued
// paging job re-checks this at execution time, which is the only cancellation
// mechanism; there is no queue-level cancel.
func (s AlertGroupStatus) Halted() bool {
	switch s {
	case AlertGroupStatusAck, AlertGroupStatusResolved, AlertGroupStatusSnoozed:
		return true
	}
	return false
}

// AlertGroup is a deduplicated group of alerts that paging runs against.
// Ingestion and grouping happen upstream; this service only reads and
// transitions its status.
type AlertGroup struct {
	Base
	WorkspaceID  uuid.UUID        `json:"workspace_id" db:"workspace_id"`
	Title        string           `json:"title" db:"title"`
	Status       AlertGroupStatus `json:"status" db:"status"`
	SnoozedUntil *time.Time       `json:"snoozed_until,omitempty" db:"snoozed_until"`
}
