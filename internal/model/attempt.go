package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus is the outcome of one channel dispatch.
type AttemptStatus string

const (
	AttemptStatusSent   AttemptStatus = "SENT"
	AttemptStatusFailed AttemptStatus = "FAILED"
)

// AckSourceShadow marks attempts dispatched to a shadow (trainee) target.
const AckSourceShadow = "shadow"

// PagingAttempt is the immutable audit record of a single channel dispatch.
// Rows are append-only and never mutated; one job execution commits its
// whole attempt set in a single transaction.
type PagingAttempt struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	PolicyID      uuid.UUID     `json:"policy_id" db:"policy_id"`
	AlertGroupID  uuid.UUID     `json:"alert_group_id" db:"alert_group_id"`
	Channel       Channel       `json:"channel" db:"channel"`
	Status        AttemptStatus `json:"status" db:"status"`
	TargetUserID  *uuid.UUID    `json:"target_user_id,omitempty" db:"target_user_id"`
	StepOrder     int           `json:"step_order" db:"step_order"`
	AttemptNumber int           `json:"attempt_number" db:"attempt_number"`
	ErrorMessage  *string       `json:"error_message,omitempty" db:"error_message"`
	AckToken      *string       `json:"ack_token,omitempty" db:"ack_token"`
	AckSource     *string       `json:"ack_source,omitempty" db:"ack_source"`
	CompletedAt   time.Time     `json:"completed_at" db:"completed_at"`
}
