package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event represents a real-time notification addressed to a single channel.
type Event struct {
	Name      string          `json:"event"`
	Channel   string          `json:"channel"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Publisher publishes events onto the channel fabric.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Grant is the result of a successful channel authorization. UserInfo is
// populated for presence channels only.
type Grant struct {
	Channel  string          `json:"channel"`
	SocketID string          `json:"socket_id"`
	UserID   uuid.UUID       `json:"user_id"`
	UserInfo json.RawMessage `json:"user_info,omitempty"`
}

// Authorizer decides whether a caller may subscribe to a channel. It is
// invoked once per subscription attempt and must not block on anything
// heavier than a single identity lookup.
type Authorizer interface {
	Authorize(ctx context.Context, callerID uuid.UUID, socketID, channel string) (*Grant, error)
}
