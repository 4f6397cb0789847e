package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ClientMessage represents an inbound frame from a WebSocket client.
type ClientMessage struct {
	Action   string   `json:"action"`
	Channels []string `json:"channels"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single WebSocket connection bound to an authenticated
// user.
type Client struct {
	SocketID string
	UserID   uuid.UUID
	Send     chan []byte

	mu       sync.Mutex
	channels []string
	conn     Conn
}

// Channels returns a snapshot of the client's current subscriptions.
func (c *Client) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.channels))
	copy(out, c.channels)
	return out
}

// Hub is the local connection manager: channel name -> subscriber set. All
// operations are thread-safe via sync.RWMutex. Subscription attempts are
// authorized per channel.
type Hub struct {
	authorizer Authorizer
	logger     zerolog.Logger

	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
	all      map[*Client]struct{}
}

// NewHub creates a Hub that consults authorizer on every subscribe attempt.
func NewHub(authorizer Authorizer, logger zerolog.Logger) *Hub {
	return &Hub{
		authorizer: authorizer,
		logger:     logger,
		channels:   make(map[string]map[*Client]struct{}),
		all:        make(map[*Client]struct{}),
	}
}

// NewClient creates a client bound to a user and connection. The client is
// not registered until Register is called.
func NewClient(userID uuid.UUID, conn Conn) *Client {
	return &Client{
		SocketID: uuid.New().String(),
		UserID:   userID,
		Send:     make(chan []byte, 256),
		conn:     conn,
	}
}

// Register adds a client to the hub with no subscriptions.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.all[client] = struct{}{}
}

// Unregister removes a client from the hub and all channel subscriptions,
// then closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	for _, ch := range client.Channels() {
		if subs, ok := h.channels[ch]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.channels, ch)
			}
		}
	}

	delete(h.all, client)
	close(client.Send)
}

// Subscribe authorizes and adds a single channel subscription. On success the
// returned grant describes the subscription; on failure the coded error from
// the authorizer is returned and the client's subscriptions are unchanged.
func (h *Hub) Subscribe(ctx context.Context, client *Client, channel string) (*Grant, error) {
	grant, err := h.authorizer.Authorize(ctx, client.UserID, client.SocketID, channel)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][client] = struct{}{}
	h.mu.Unlock()

	client.mu.Lock()
	client.channels = append(client.channels, channel)
	client.mu.Unlock()

	return grant, nil
}

// Unsubscribe removes channel subscriptions from a registered client.
func (h *Hub) Unsubscribe(client *Client, channels []string) {
	removeSet := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		removeSet[ch] = struct{}{}
	}

	h.mu.Lock()
	for _, ch := range channels {
		if subs, ok := h.channels[ch]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.channels, ch)
			}
		}
	}
	h.mu.Unlock()

	client.mu.Lock()
	remaining := client.channels[:0]
	for _, ch := range client.channels {
		if _, rm := removeSet[ch]; !rm {
			remaining = append(remaining, ch)
		}
	}
	client.channels = remaining
	client.mu.Unlock()
}

// Broadcast delivers an event to every local subscriber of its channel.
// Slow clients with a full buffer are skipped rather than blocked on.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("channel", event.Channel).Msg("marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	subs, ok := h.channels[event.Channel]
	if !ok {
		return
	}

	for client := range subs {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// Publish implements Publisher for single-instance deployments without Redis.
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.Broadcast(event)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// SubscriberCount returns the number of local subscribers of a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
