package models

import "time"

// Group is a chat group. MemberCount is a denormalized cache of live
// membership rows, maintained on join/leave and floored at zero.
type Group struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	MemberCount int       `db:"member_count" json:"member_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GroupMembership links a user to a group; each (group, user) pair appears
// at most once.
type GroupMembership struct {
	ID       int       `db:"id" json:"id"`
	GroupID  int       `db:"group_id" json:"group_id"`
	UserID   int       `db:"user_id" json:"user_id"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}
