package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"hushgram-service/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")

// GroupRepository abstracts group and membership persistence, including the
// denormalized member_count cache.
type GroupRepository interface {
	CreateGroup(ctx context.Context, name string) (models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	IsMember(ctx context.Context, groupID, userID int) (bool, error)
	Join(ctx context.Context, groupID, userID int) error
	Leave(ctx context.Context, groupID, userID int) error
	ListMembers(ctx context.Context, groupID int) ([]models.GroupMembership, error)
	ListMembershipsForUser(ctx context.Context, userID int) ([]models.GroupMembership, error)
	RemoveMembership(ctx context.Context, membershipID, groupID int) error
	ReconcileMemberCounts(ctx context.Context) (int64, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup creates an empty group.
func (r *GroupRepo) CreateGroup(ctx context.Context, name string) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group,
		`INSERT INTO groups (name) VALUES ($1) RETURNING id, name, member_count, created_at`, name)
	return group, err
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group,
		`SELECT id, name, member_count, created_at FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// Join adds a membership row and bumps member_count in one transaction.
// Joining twice is a no-op: the count only moves when a row was inserted.
func (r *GroupRepo) Join(ctx context.Context, groupID, userID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2) ON CONFLICT (group_id, user_id) DO NOTHING`,
		groupID, userID)
	if err != nil {
		return err
	}
	var inserted int64
	inserted, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if inserted == 1 {
		if _, err = tx.ExecContext(ctx,
			`UPDATE groups SET member_count = member_count + 1 WHERE id=$1`, groupID); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// Leave removes the membership row and decrements member_count, floored at
// zero. Leaving a group the user is not in is a no-op.
func (r *GroupRepo) Leave(ctx context.Context, groupID, userID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return err
	}
	var deleted int64
	deleted, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 1 {
		if _, err = tx.ExecContext(ctx,
			`UPDATE groups SET member_count = GREATEST(member_count - 1, 0) WHERE id=$1`, groupID); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// ListMembers returns the membership rows of a group.
func (r *GroupRepo) ListMembers(ctx context.Context, groupID int) ([]models.GroupMembership, error) {
	var members []models.GroupMembership
	err := r.db.SelectContext(ctx, &members,
		`SELECT id, group_id, user_id, joined_at FROM group_members WHERE group_id=$1 ORDER BY joined_at ASC`,
		groupID)
	return members, err
}

// ListMembershipsForUser returns every membership row for a user.
func (r *GroupRepo) ListMembershipsForUser(ctx context.Context, userID int) ([]models.GroupMembership, error) {
	var members []models.GroupMembership
	err := r.db.SelectContext(ctx, &members,
		`SELECT id, group_id, user_id, joined_at FROM group_members WHERE user_id=$1 ORDER BY id`, userID)
	return members, err
}

// RemoveMembership deletes one membership row and decrements the owning
// group's member_count in the same transaction. The decrement only happens
// when the row was actually deleted, so two cleanups racing over the same
// membership cannot move the count twice, and the floor keeps it from ever
// going negative.
func (r *GroupRepo) RemoveMembership(ctx context.Context, membershipID, groupID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM group_members WHERE id=$1`, membershipID)
	if err != nil {
		return err
	}
	var deleted int64
	deleted, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 1 {
		if _, err = tx.ExecContext(ctx,
			`UPDATE groups SET member_count = GREATEST(member_count - 1, 0) WHERE id=$1`, groupID); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// ReconcileMemberCounts recomputes member_count from live membership rows
// and returns how many groups drifted. The increment/decrement pattern
// cannot self-heal after a crash between the two statements; this is the
// out-of-band audit path.
func (r *GroupRepo) ReconcileMemberCounts(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE groups g SET member_count = live.cnt
        FROM (
            SELECT g2.id, COUNT(gm.id) AS cnt
            FROM groups g2
            LEFT JOIN group_members gm ON gm.group_id = g2.id
            GROUP BY g2.id
        ) live
        WHERE live.id = g.id AND g.member_count <> live.cnt`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
