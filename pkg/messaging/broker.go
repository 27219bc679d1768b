package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Topics published by this service.
const (
	TopicAttemptsRecorded = "paging.attempts.recorded"
	TopicAlertStatus      = "alerts.status.changed"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
