package models

import "time"

// User is a session-scoped identity. Usernames are only unique among users
// currently counted as online; the session id maps to at most one user.
type User struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	SessionID string    `db:"session_id" json:"-"`
	IsOnline  bool      `db:"is_online" json:"is_online"`
	LastSeen  time.Time `db:"last_seen" json:"last_seen"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
