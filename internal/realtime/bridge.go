package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carepoint/portal/pkg/apperror"
)

// redisTopic carries every portal event between instances. Channel-level
// routing happens in the local hub, so a single Redis topic is sufficient.
const redisTopic = "portal:events"

// Bridge is the cross-instance Publisher: events are published to Redis and
// every instance relays them into its local hub. The publishing instance
// receives its own events back through the subscription, so local delivery
// needs no special case.
type Bridge struct {
	rdb    *redis.Client
	hub    *Hub
	logger zerolog.Logger
}

func NewBridge(rdb *redis.Client, hub *Hub, logger zerolog.Logger) *Bridge {
	return &Bridge{rdb: rdb, hub: hub, logger: logger}
}

// Publish sends the event to Redis. Transport failures are reported with the
// transport error code; callers decide whether that is fatal.
func (b *Bridge) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return apperror.Wrap(apperror.CodeInternal, "marshal event", err)
	}
	if err := b.rdb.Publish(ctx, redisTopic, data).Err(); err != nil {
		return apperror.Wrap(apperror.CodeTransport, "publish event", err)
	}
	return nil
}

// Run subscribes to the Redis topic and relays incoming events into the
// local hub until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, redisTopic)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Error().Err(err).Msg("malformed event payload")
				continue
			}
			b.hub.Broadcast(event)
		}
	}
}

var _ Publisher = (*Bridge)(nil)
var _ Publisher = (*Hub)(nil)
