package models

import (
	"fmt"
	"time"
)

// Message is either a private message (recipient set) or a group message
// (group set); exactly one of the two is non-nil.
type Message struct {
	ID          int       `db:"id" json:"id"`
	SenderID    int       `db:"sender_id" json:"sender_id"`
	RecipientID *int      `db:"recipient_id" json:"recipient_id,omitempty"`
	GroupID     *int      `db:"group_id" json:"group_id,omitempty"`
	Content     string    `db:"content" json:"content"`
	Seen        bool      `db:"seen" json:"seen"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ChatKey returns the broadcast room key the message belongs to.
func (m Message) ChatKey() string {
	if m.GroupID != nil {
		return GroupKey(*m.GroupID)
	}
	if m.RecipientID != nil {
		return DMKey(m.SenderID, *m.RecipientID)
	}
	return ""
}

// DMKey is the canonical room key for a private conversation, identical for
// both participants.
func DMKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("dm:%d:%d", a, b)
}

// GroupKey is the room key for a group conversation.
func GroupKey(groupID int) string {
	return fmt.Sprintf("group:%d", groupID)
}

// ChatEvent is broadcasted through websockets.
type ChatEvent struct {
	Type    string        `json:"type"`
	Message *Message      `json:"message,omitempty"`
	Typing  *TypingUpdate `json:"typing,omitempty"`
}

// TypingUpdate notifies a room that a user started or stopped typing.
type TypingUpdate struct {
	UserID   int    `json:"user_id"`
	ChatKey  string `json:"chat_key"`
	IsTyping bool   `json:"is_typing"`
}
