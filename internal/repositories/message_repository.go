package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"hushgram-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, sender_id, recipient_id, group_id, content, seen, created_at`

// MessageRepository defines interactions for private and group messages.
type MessageRepository interface {
	CreatePrivateMessage(ctx context.Context, senderID, recipientID int, content string) (models.Message, error)
	CreateGroupMessage(ctx context.Context, senderID, groupID int, content string) (models.Message, error)
	ListConversation(ctx context.Context, userID, otherID int) ([]models.Message, error)
	ListGroupMessages(ctx context.Context, groupID int) ([]models.Message, error)
	MarkSeen(ctx context.Context, messageID, recipientID int) error
	DeleteBySender(ctx context.Context, senderID int) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreatePrivateMessage stores a direct message between two users.
func (r *MessageRepo) CreatePrivateMessage(ctx context.Context, senderID, recipientID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`INSERT INTO messages (sender_id, recipient_id, content) VALUES ($1, $2, $3) RETURNING `+messageColumns,
		senderID, recipientID, content)
	return msg, err
}

// CreateGroupMessage stores a message addressed to a group.
func (r *MessageRepo) CreateGroupMessage(ctx context.Context, senderID, groupID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`INSERT INTO messages (sender_id, group_id, content) VALUES ($1, $2, $3) RETURNING `+messageColumns,
		senderID, groupID, content)
	return msg, err
}

// ListConversation returns both directions of a private conversation in
// insertion order.
func (r *MessageRepo) ListConversation(ctx context.Context, userID, otherID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE (sender_id=$1 AND recipient_id=$2) OR (sender_id=$2 AND recipient_id=$1)
         ORDER BY id ASC`,
		userID, otherID)
	return msgs, err
}

// ListGroupMessages returns group messages in insertion order.
func (r *MessageRepo) ListGroupMessages(ctx context.Context, groupID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages WHERE group_id=$1 ORDER BY id ASC`, groupID)
	return msgs, err
}

// MarkSeen flips the seen flag; only the recipient of a private message may
// do so.
func (r *MessageRepo) MarkSeen(ctx context.Context, messageID, recipientID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET seen=TRUE WHERE id=$1 AND recipient_id=$2`, messageID, recipientID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// DeleteBySender removes every message the user sent, private and group
// alike. Messages merely addressed to the user survive; after the sender row
// is gone their sender_id no longer resolves, and listings surface that as
// an empty sender username for clients to render as a deleted user.
func (r *MessageRepo) DeleteBySender(ctx context.Context, senderID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE sender_id=$1`, senderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
