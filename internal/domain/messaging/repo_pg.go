package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepoint/portal/internal/platform/db"
	"github.com/carepoint/portal/pkg/apperror"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Conversation Repository ===========

type conversationRepoPG struct{ pool *pgxpool.Pool }

func NewConversationRepoPG(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepoPG{pool: pool}
}

func (r *conversationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const convCols = `id, pair_key, participant_low, participant_high, last_message_id, created_at, updated_at`

func (r *conversationRepoPG) scanConversation(row pgx.Row) (*Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.PairKey, &c.ParticipantLow, &c.ParticipantHigh,
		&c.LastMessageID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("conversation not found")
	}
	return &c, err
}

// FindOrCreate inserts with ON CONFLICT DO NOTHING on the pair_key unique
// constraint. When the insert is a no-op a concurrent writer (or an earlier
// call) already created the row, so the loser refetches by pair key.
func (r *conversationRepoPG) FindOrCreate(ctx context.Context, a, b uuid.UUID) (*Conversation, error) {
	low, high := OrderPair(a, b)
	key := PairKey(a, b)

	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO conversation (id, pair_key, participant_low, participant_high)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pair_key) DO NOTHING
		RETURNING `+convCols,
		uuid.New(), key, low, high)

	c, err := r.scanConversation(row)
	if err == nil {
		return c, nil
	}
	if !apperror.IsCode(err, apperror.CodeNotFound) {
		return nil, err
	}

	return r.scanConversation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+convCols+` FROM conversation WHERE pair_key = $1`, key))
}

func (r *conversationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	return r.scanConversation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+convCols+` FROM conversation WHERE id = $1`, id))
}

func (r *conversationRepoPG) ListForUser(ctx context.Context, userID uuid.UUID) ([]*ConversationView, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT c.id, c.pair_key, c.participant_low, c.participant_high,
		       c.last_message_id, c.created_at, c.updated_at,
		       u.id, u.full_name, u.role, u.profile_image,
		       m.id, m.sender_id, m.content, m.read, m.created_at
		FROM conversation c
		JOIN portal_user u
		  ON u.id = CASE WHEN c.participant_low = $1 THEN c.participant_high ELSE c.participant_low END
		LEFT JOIN message m ON m.id = c.last_message_id
		WHERE c.participant_low = $1 OR c.participant_high = $1
		ORDER BY c.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ConversationView
	for rows.Next() {
		var v ConversationView
		var lmID, lmSender *uuid.UUID
		var lmContent *string
		var lmRead *bool
		var lmCreated *time.Time
		if err := rows.Scan(
			&v.ID, &v.PairKey, &v.ParticipantLow, &v.ParticipantHigh,
			&v.LastMessageID, &v.CreatedAt, &v.UpdatedAt,
			&v.OtherParticipant.ID, &v.OtherParticipant.FullName,
			&v.OtherParticipant.Role, &v.OtherParticipant.ProfileImage,
			&lmID, &lmSender, &lmContent, &lmRead, &lmCreated,
		); err != nil {
			return nil, err
		}
		if lmID != nil {
			v.LastMessage = &LastMessageSummary{
				ID:        *lmID,
				SenderID:  *lmSender,
				Content:   *lmContent,
				Read:      *lmRead,
				CreatedAt: *lmCreated,
			}
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

func (r *conversationRepoPG) TouchLastMessage(ctx context.Context, conversationID, messageID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE conversation SET last_message_id = $2, updated_at = NOW()
		WHERE id = $1`, conversationID, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("conversation not found")
	}
	return nil
}

// =========== Message Repository ===========

type messageRepoPG struct{ pool *pgxpool.Pool }

func NewMessageRepoPG(pool *pgxpool.Pool) MessageRepository {
	return &messageRepoPG{pool: pool}
}

func (r *messageRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *messageRepoPG) Create(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	// clock_timestamp() is monotonic within a session, so two messages
	// inserted in quick succession keep their send order.
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO message (id, conversation_id, sender_id, content, delivered, read, created_at)
		VALUES ($1, $2, $3, $4, FALSE, FALSE, clock_timestamp())
		RETURNING delivered, read, created_at`,
		m.ID, m.ConversationID, m.SenderID, m.Content)
	return row.Scan(&m.Delivered, &m.Read, &m.CreatedAt)
}

func (r *messageRepoPG) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*MessageWithSender, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.delivered, m.read, m.created_at,
		       u.id, u.full_name, u.role, u.profile_image
		FROM message m
		JOIN portal_user u ON u.id = m.sender_id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MessageWithSender
	for rows.Next() {
		var m MessageWithSender
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Delivered, &m.Read, &m.CreatedAt,
			&m.Sender.ID, &m.Sender.FullName, &m.Sender.Role, &m.Sender.ProfileImage,
		); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}

func (r *messageRepoPG) MarkDeliveredForRecipient(ctx context.Context, conversationID, recipientID uuid.UUID) ([]Receipt, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		UPDATE message SET delivered = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND delivered = FALSE
		RETURNING id, sender_id`, conversationID, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReceipts(rows)
}

// MarkReadForRecipient sets read and delivered in the same statement so the
// read-implies-delivered invariant holds atomically per row.
func (r *messageRepoPG) MarkReadForRecipient(ctx context.Context, conversationID, recipientID uuid.UUID) ([]Receipt, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		UPDATE message SET read = TRUE, delivered = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND read = FALSE
		RETURNING id, sender_id`, conversationID, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReceipts(rows)
}

func (r *messageRepoPG) UnreadCountsForUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT m.conversation_id, COUNT(*)
		FROM message m
		JOIN conversation c ON c.id = m.conversation_id
		WHERE (c.participant_low = $1 OR c.participant_high = $1)
		  AND m.sender_id <> $1 AND m.read = FALSE
		GROUP BY m.conversation_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func scanReceipts(rows pgx.Rows) ([]Receipt, error) {
	var receipts []Receipt
	for rows.Next() {
		var rc Receipt
		if err := rows.Scan(&rc.MessageID, &rc.SenderID); err != nil {
			return nil, err
		}
		receipts = append(receipts, rc)
	}
	return receipts, rows.Err()
}
