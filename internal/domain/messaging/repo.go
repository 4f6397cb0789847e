package messaging

import (
	"context"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	// FindOrCreate returns the conversation between the two users, creating
	// it when absent. Safe under concurrent calls for the same pair: the
	// losing writer refetches the winner's row.
	FindOrCreate(ctx context.Context, a, b uuid.UUID) (*Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	// ListForUser returns the user's conversations most-recently-updated
	// first, each joined with the other participant's profile and the
	// last-message preview.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*ConversationView, error)
	TouchLastMessage(ctx context.Context, conversationID, messageID uuid.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	// ListByConversation returns messages ascending by created_at with
	// sender profiles attached.
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*MessageWithSender, error)
	// MarkDeliveredForRecipient flips delivered on every undelivered message
	// in the conversation not sent by recipientID, returning exactly the
	// receipts that changed. Idempotent.
	MarkDeliveredForRecipient(ctx context.Context, conversationID, recipientID uuid.UUID) ([]Receipt, error)
	// MarkReadForRecipient flips read (and delivered, atomically) on every
	// unread message not sent by recipientID. Idempotent.
	MarkReadForRecipient(ctx context.Context, conversationID, recipientID uuid.UUID) ([]Receipt, error)
	// UnreadCountsForUser aggregates unread counts across all of the user's
	// conversations in one query. Conversations with zero unread are omitted.
	UnreadCountsForUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
}
