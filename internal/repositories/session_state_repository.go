package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"hushgram-service/internal/models"
)

var ErrNoActiveChat = errors.New("no active chat")

// SessionStateRepository holds the short-lived per-user rows: the active-chat
// marker and typing indicators.
type SessionStateRepository interface {
	SetActiveChat(ctx context.Context, userID int, chatKey string) (models.ActiveChat, error)
	GetActiveChat(ctx context.Context, userID int) (models.ActiveChat, error)
	SetTyping(ctx context.Context, userID int, chatKey string, isTyping bool) (models.TypingIndicator, error)
	ListTypingForChat(ctx context.Context, chatKey string) ([]models.TypingIndicator, error)
	DeleteActiveChatsForUser(ctx context.Context, userID int) (int64, error)
	DeleteTypingForUser(ctx context.Context, userID int) (int64, error)
}

// SessionStateRepo is a sqlx implementation of SessionStateRepository.
type SessionStateRepo struct {
	db *sqlx.DB
}

// NewSessionStateRepo constructs a SessionStateRepo.
func NewSessionStateRepo(db *sqlx.DB) *SessionStateRepo {
	return &SessionStateRepo{db: db}
}

// SetActiveChat upserts the user's single active-chat marker.
func (r *SessionStateRepo) SetActiveChat(ctx context.Context, userID int, chatKey string) (models.ActiveChat, error) {
	var marker models.ActiveChat
	err := r.db.GetContext(ctx, &marker, `
        INSERT INTO active_chats (user_id, chat_key) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET chat_key = EXCLUDED.chat_key, updated_at = NOW()
        RETURNING id, user_id, chat_key, updated_at`,
		userID, chatKey)
	return marker, err
}

// GetActiveChat returns the user's current marker.
func (r *SessionStateRepo) GetActiveChat(ctx context.Context, userID int) (models.ActiveChat, error) {
	var marker models.ActiveChat
	err := r.db.GetContext(ctx, &marker,
		`SELECT id, user_id, chat_key, updated_at FROM active_chats WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ActiveChat{}, ErrNoActiveChat
	}
	return marker, err
}

// SetTyping upserts the (user, chat) typing row.
func (r *SessionStateRepo) SetTyping(ctx context.Context, userID int, chatKey string, isTyping bool) (models.TypingIndicator, error) {
	var indicator models.TypingIndicator
	err := r.db.GetContext(ctx, &indicator, `
        INSERT INTO typing_indicators (user_id, chat_key, is_typing) VALUES ($1, $2, $3)
        ON CONFLICT (chat_key, user_id) DO UPDATE SET is_typing = EXCLUDED.is_typing, updated_at = NOW()
        RETURNING id, user_id, chat_key, is_typing, updated_at`,
		userID, chatKey, isTyping)
	return indicator, err
}

// ListTypingForChat returns users currently typing in a chat.
func (r *SessionStateRepo) ListTypingForChat(ctx context.Context, chatKey string) ([]models.TypingIndicator, error) {
	var indicators []models.TypingIndicator
	err := r.db.SelectContext(ctx, &indicators,
		`SELECT id, user_id, chat_key, is_typing, updated_at FROM typing_indicators WHERE chat_key=$1 AND is_typing=TRUE`,
		chatKey)
	return indicators, err
}

// DeleteActiveChatsForUser removes the user's active-chat markers.
func (r *SessionStateRepo) DeleteActiveChatsForUser(ctx context.Context, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM active_chats WHERE user_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTypingForUser removes every typing row for the user. Matched by
// field equality; there is no user_id index on this table.
func (r *SessionStateRepo) DeleteTypingForUser(ctx context.Context, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM typing_indicators WHERE user_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
