package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carepoint/portal/internal/realtime"
)

// Event names published on the channel fabric.
const (
	EventNewMessage       = "new-message"
	EventMessageDelivered = "message-delivered"
	EventMessageRead      = "message-read"
)

// receiptPayload is the body of delivery and read receipt events.
type receiptPayload struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	RecipientID    uuid.UUID `json:"recipient_id"`
}

// Notifier fans portal events out to the channels of every affected party.
// Publishing is best-effort: the store mutation is the source of truth and a
// failed publish is logged, never propagated.
type Notifier struct {
	publisher realtime.Publisher
	logger    zerolog.Logger
}

func NewNotifier(publisher realtime.Publisher, logger zerolog.Logger) *Notifier {
	return &Notifier{publisher: publisher, logger: logger}
}

// NewMessage announces a freshly created message on the conversation channel
// (for open viewers) and on the personal channel of every participant except
// the sender (for users viewing something else).
func (n *Notifier) NewMessage(ctx context.Context, conv *Conversation, msg *MessageWithSender) {
	payload, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error().Err(err).Stringer("message_id", msg.ID).Msg("marshal new-message payload")
		return
	}

	n.publish(ctx, realtime.ConversationChannel(conv.ID), EventNewMessage, payload)

	recipients := []uuid.UUID{conv.ParticipantLow, conv.ParticipantHigh}
	for _, userID := range recipients {
		if userID == msg.SenderID {
			continue
		}
		n.publish(ctx, realtime.UserChannel(userID), EventNewMessage, payload)
	}
}

// Receipts notifies the sender of each affected message that its delivery
// state changed. Events go to the sender's personal channel only: the
// recipient caused the transition and needs no notification.
func (n *Notifier) Receipts(ctx context.Context, conversationID, recipientID uuid.UUID, event string, receipts []Receipt) {
	for _, rc := range receipts {
		payload, err := json.Marshal(receiptPayload{
			MessageID:      rc.MessageID,
			ConversationID: conversationID,
			RecipientID:    recipientID,
		})
		if err != nil {
			n.logger.Error().Err(err).Stringer("message_id", rc.MessageID).Msg("marshal receipt payload")
			continue
		}
		n.publish(ctx, realtime.UserChannel(rc.SenderID), event, payload)
	}
}

func (n *Notifier) publish(ctx context.Context, channel, event string, payload json.RawMessage) {
	err := n.publisher.Publish(ctx, realtime.Event{
		Name:      event,
		Channel:   channel,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
	if err != nil {
		n.logger.Error().Err(err).
			Str("channel", channel).
			Str("event", event).
			Msg("publish failed")
	}
}
