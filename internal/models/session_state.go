package models

import "time"

// ActiveChat marks which conversation a user currently has open. One marker
// per user; replaced when the user switches chats, removed on cleanup.
type ActiveChat struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	ChatKey   string    `db:"chat_key" json:"chat_key"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TypingIndicator is an ephemeral per-(user, chat) row.
type TypingIndicator struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	ChatKey   string    `db:"chat_key" json:"chat_key"`
	IsTyping  bool      `db:"is_typing" json:"is_typing"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
