package channel

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/model"
)

// Page is the notification content handed to a dispatcher.
type Page struct {
	AlertGroupID  uuid.UUID
	AlertTitle    string
	PolicyName    string
	StepOrder     int
	AttemptNumber int
	// AckToken is set for SMS/Voice dispatches and correlates an inbound
	// reply with this attempt.
	AckToken string
	// Shadow marks a trainee notification.
	Shadow bool
}

// Subject is a short one-line summary of the page.
func (p *Page) Subject() string {
	prefix := ""
	if p.Shadow {
		prefix = "[shadow] "
	}
	return fmt.Sprintf("%s[%s] %s", prefix, p.PolicyName, p.AlertTitle)
}

// Dispatcher sends one page over one transport. Implementations keep their
// error handling local; any returned error becomes a FAILED attempt record
// and never aborts sibling channels.
type Dispatcher interface {
	Channel() model.Channel
	Send(ctx context.Context, target *model.User, page *Page) error
}

// NoContactError marks a target that cannot be reached on a channel because
// a contact field is missing. It is a dispatch failure, not an exception.
type NoContactError struct {
	Channel model.Channel
	Field   string
}

func (e *NoContactError) Error() string {
	return fmt.Sprintf("no %s on file for %s dispatch", e.Field, strings.ToLower(string(e.Channel)))
}

// Registry selects a dispatcher by channel, replacing per-channel branching
// at the call site.
type Registry struct {
	dispatchers map[model.Channel]Dispatcher
}

func NewRegistry(dispatchers ...Dispatcher) *Registry {
	m := make(map[model.Channel]Dispatcher, len(dispatchers))
	for _, d := range dispatchers {
		m[d.Channel()] = d
	}
	return &Registry{dispatchers: m}
}

func (r *Registry) Get(ch model.Channel) (Dispatcher, bool) {
	d, ok := r.dispatchers[ch]
	return d, ok
}

// NewAckToken returns a short random token, 6 uppercase hex characters,
// embedded in SMS bodies and IVR callback URLs.
func NewAckToken() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate ack token: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
