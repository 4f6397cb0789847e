// Package messaging implements the patient-doctor direct messaging
// subsystem: two-party conversations, message delivery tracking
// (sent, delivered, read), and real-time fan-out over the channel fabric.
package messaging

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carepoint/portal/internal/domain/directory"
)

// Conversation maps to the conversation table. Participants are stored in
// canonical order (ParticipantLow < ParticipantHigh) so the unordered pair
// maps to exactly one row; pair_key carries the uniqueness constraint.
type Conversation struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PairKey         string     `db:"pair_key" json:"-"`
	ParticipantLow  uuid.UUID  `db:"participant_low" json:"participant_low"`
	ParticipantHigh uuid.UUID  `db:"participant_high" json:"participant_high"`
	LastMessageID   *uuid.UUID `db:"last_message_id" json:"last_message_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// PairKey derives the order-independent key identifying the conversation
// between two users.
func PairKey(a, b uuid.UUID) string {
	if strings.Compare(a.String(), b.String()) < 0 {
		return a.String() + "_" + b.String()
	}
	return b.String() + "_" + a.String()
}

// OrderPair returns the two ids in canonical storage order.
func OrderPair(a, b uuid.UUID) (low, high uuid.UUID) {
	if strings.Compare(a.String(), b.String()) < 0 {
		return a, b
	}
	return b, a
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantLow == userID || c.ParticipantHigh == userID
}

// OtherParticipant returns the participant that is not userID. The caller
// must already have verified participation.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.ParticipantLow == userID {
		return c.ParticipantHigh
	}
	return c.ParticipantLow
}

// Message maps to the message table. Content is immutable after creation;
// delivered/read only ever transition false -> true, and read implies
// delivered.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	Delivered      bool      `db:"delivered" json:"delivered"`
	Read           bool      `db:"read" json:"read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// MessageWithSender is a message joined with its sender's public profile.
type MessageWithSender struct {
	Message
	Sender directory.Profile `json:"sender"`
}

// Receipt identifies a message whose delivery state changed in a bulk
// transition, along with its sender so receipts can be routed back.
type Receipt struct {
	MessageID uuid.UUID `json:"message_id"`
	SenderID  uuid.UUID `json:"sender_id"`
}

// LastMessageSummary is the denormalized last-message preview attached to
// conversation listings.
type LastMessageSummary struct {
	ID        uuid.UUID `json:"id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationView is a conversation joined with the other participant's
// profile and the last-message preview.
type ConversationView struct {
	Conversation
	OtherParticipant directory.Profile   `json:"other_participant"`
	LastMessage      *LastMessageSummary `json:"last_message,omitempty"`
}
