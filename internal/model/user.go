package model

import (
	"github.com/google/uuid"
)

// User is a pageable member of a workspace. Contact fields are optional;
// a missing field makes the corresponding channel dispatch fail with a
// recorded reason rather than an error.
type User struct {
	Base
	WorkspaceID uuid.UUID `json:"workspace_id" db:"workspace_id"`
	Name        string    `json:"name" db:"name"`
	Email       *string   `json:"email,omitempty" db:"email"`
	Phone       *string   `json:"phone,omitempty" db:"phone"`
	SlackUserID *string   `json:"slack_user_id,omitempty" db:"slack_user_id"`
}
