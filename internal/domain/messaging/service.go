package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carepoint/portal/internal/domain/directory"
	"github.com/carepoint/portal/pkg/apperror"
)

// storeTimeout bounds every store round trip made by the service. A timed
// out operation surfaces as the timeout error kind; callers may retry the
// idempotent operations (find-or-create, mark-delivered, mark-read).
const storeTimeout = 5 * time.Second

// TxRunner runs fn atomically against the store: every repository call made
// through fn's context either commits as a unit or leaves no trace.
// Production wiring passes db.WithTx bound to the pool.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Service orchestrates the messaging operations: it composes the stores, the
// user directory, and the delivery notifier. Authorization checks always
// precede store mutations so an unauthorized call has no side effects.
type Service struct {
	convs    ConversationRepository
	msgs     MessageRepository
	users    directory.UserRepository
	notifier *Notifier
	tx       TxRunner
}

func NewService(convs ConversationRepository, msgs MessageRepository, users directory.UserRepository, notifier *Notifier, tx TxRunner) *Service {
	return &Service{convs: convs, msgs: msgs, users: users, notifier: notifier, tx: tx}
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}

// StartOrGetConversation returns the conversation between the caller and
// otherUserID, creating it on first contact. Idempotent: re-requesting the
// same pair returns the existing conversation.
func (s *Service) StartOrGetConversation(ctx context.Context, callerID, otherUserID uuid.UUID) (*ConversationView, error) {
	if otherUserID == uuid.Nil {
		return nil, apperror.InvalidArgument("other_user_id is required")
	}
	if otherUserID == callerID {
		return nil, apperror.InvalidArgument("cannot start a conversation with yourself")
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	other, err := s.users.GetByID(ctx, otherUserID)
	if err != nil {
		return nil, err
	}

	conv, err := s.convs.FindOrCreate(ctx, callerID, otherUserID)
	if err != nil {
		return nil, err
	}

	return &ConversationView{
		Conversation:     *conv,
		OtherParticipant: other.Profile(),
	}, nil
}

// ListConversations returns the caller's conversations, most recently
// updated first.
func (s *Service) ListConversations(ctx context.Context, callerID uuid.UUID) ([]*ConversationView, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.convs.ListForUser(ctx, callerID)
}

// SendMessage creates a message in the conversation and fans the
// new-message event out to the other participant. The message is returned
// with the sender profile populated.
func (s *Service) SendMessage(ctx context.Context, callerID, conversationID uuid.UUID, content string) (*MessageWithSender, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.InvalidArgument("message content is required")
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	conv, err := s.requireParticipant(sctx, callerID, conversationID)
	if err != nil {
		return nil, err
	}

	sender, err := s.users.GetByID(sctx, callerID)
	if err != nil {
		return nil, err
	}

	// Creating the message and bumping the conversation pointer commit
	// together: a failed send must not leave an orphaned message row.
	msg := &Message{ConversationID: conversationID, SenderID: callerID, Content: content}
	err = s.tx(sctx, func(txCtx context.Context) error {
		if err := s.msgs.Create(txCtx, msg); err != nil {
			return err
		}
		return s.convs.TouchLastMessage(txCtx, conversationID, msg.ID)
	})
	if err != nil {
		return nil, err
	}

	out := &MessageWithSender{Message: *msg, Sender: sender.Profile()}
	s.notifier.NewMessage(ctx, conv, out)
	return out, nil
}

// ListMessages returns the conversation's messages in chronological order.
// As a side effect every message addressed to the caller is marked
// delivered; the returned slice reflects the new state and the senders are
// notified.
func (s *Service) ListMessages(ctx context.Context, callerID, conversationID uuid.UUID) ([]*MessageWithSender, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if _, err := s.requireParticipant(sctx, callerID, conversationID); err != nil {
		return nil, err
	}

	msgs, err := s.msgs.ListByConversation(sctx, conversationID)
	if err != nil {
		return nil, err
	}

	receipts, err := s.msgs.MarkDeliveredForRecipient(sctx, conversationID, callerID)
	if err != nil {
		return nil, err
	}

	// Patch the freshly delivered messages into the listing so the response
	// reflects the transition made in this same call.
	if len(receipts) > 0 {
		delivered := make(map[uuid.UUID]struct{}, len(receipts))
		for _, rc := range receipts {
			delivered[rc.MessageID] = struct{}{}
		}
		for _, m := range msgs {
			if _, ok := delivered[m.ID]; ok {
				m.Delivered = true
			}
		}
		s.notifier.Receipts(ctx, conversationID, callerID, EventMessageDelivered, receipts)
	}

	return msgs, nil
}

// MarkConversationRead marks every message addressed to the caller as read
// (and delivered) and notifies the senders. Returns the ids that changed;
// calling again with nothing new to mark returns an empty slice.
func (s *Service) MarkConversationRead(ctx context.Context, callerID, conversationID uuid.UUID) ([]uuid.UUID, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if _, err := s.requireParticipant(sctx, callerID, conversationID); err != nil {
		return nil, err
	}

	receipts, err := s.msgs.MarkReadForRecipient(sctx, conversationID, callerID)
	if err != nil {
		return nil, err
	}

	if len(receipts) > 0 {
		s.notifier.Receipts(ctx, conversationID, callerID, EventMessageRead, receipts)
	}

	ids := make([]uuid.UUID, len(receipts))
	for i, rc := range receipts {
		ids[i] = rc.MessageID
	}
	return ids, nil
}

// GetUnreadCounts returns the caller's unread message count per
// conversation. Conversations with no unread messages are omitted.
func (s *Service) GetUnreadCounts(ctx context.Context, callerID uuid.UUID) (map[uuid.UUID]int, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.msgs.UnreadCountsForUser(ctx, callerID)
}

// requireParticipant loads the conversation and verifies the caller belongs
// to it. Non-participants get forbidden; a missing conversation surfaces as
// not_found.
func (s *Service) requireParticipant(ctx context.Context, callerID, conversationID uuid.UUID) (*Conversation, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, apperror.Forbidden("not a participant of this conversation")
	}
	return conv, nil
}
