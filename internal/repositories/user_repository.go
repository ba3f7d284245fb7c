package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"hushgram-service/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username taken")
)

const userColumns = `id, username, session_id, is_online, last_seen, created_at`

// UserRepository abstracts user persistence.
type UserRepository interface {
	CreateOrResume(ctx context.Context, username, sessionID string) (models.User, error)
	FindBySession(ctx context.Context, sessionID string) (models.User, error)
	FindByID(ctx context.Context, userID int) (models.User, error)
	ListByIDs(ctx context.Context, ids []int) ([]models.User, error)
	SetOnlineStatus(ctx context.Context, userID int, isOnline bool) error
	ListOnline(ctx context.Context) ([]models.User, error)
	ListIdle(ctx context.Context, olderThan time.Time) ([]int, error)
	Delete(ctx context.Context, userID int) error
}

// UserRepo is a sqlx implementation of UserRepository. onlineWindow bounds
// how long after the last heartbeat a user still counts as online; it is
// independent from the idle-deletion threshold, which callers of ListIdle
// supply themselves.
type UserRepo struct {
	db           *sqlx.DB
	onlineWindow time.Duration
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB, onlineWindow time.Duration) *UserRepo {
	return &UserRepo{db: db, onlineWindow: onlineWindow}
}

// CreateOrResume returns the existing user for the session, refreshed with
// the requested username, or creates a new one. Creation fails with
// ErrUsernameTaken when the name is held by a user currently counted as
// online; names held only by offline or stale users are free to claim.
func (r *UserRepo) CreateOrResume(ctx context.Context, username, sessionID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE session_id=$1`, sessionID)
	if err == nil {
		err = r.db.GetContext(ctx, &user,
			`UPDATE users SET username=$1, is_online=TRUE, last_seen=NOW() WHERE id=$2 RETURNING `+userColumns,
			username, user.ID)
		return user, err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, err
	}

	var taken bool
	cutoff := time.Now().Add(-r.onlineWindow)
	if err := r.db.GetContext(ctx, &taken,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username=$1 AND is_online=TRUE AND last_seen > $2)`,
		username, cutoff); err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, ErrUsernameTaken
	}

	err = r.db.GetContext(ctx, &user,
		`INSERT INTO users (username, session_id) VALUES ($1, $2) RETURNING `+userColumns,
		username, sessionID)
	return user, err
}

// FindBySession is a point lookup with no side effects.
func (r *UserRepo) FindBySession(ctx context.Context, sessionID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE session_id=$1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListByIDs returns the users that still exist among the given ids. Missing
// ids are silently absent: a deleted sender shows up as a gap, and callers
// render those as a deleted user.
func (r *UserRepo) ListByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var users []models.User
	err = r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...)
	return users, err
}

// SetOnlineStatus updates the online flag and refreshes last_seen. Callers
// invoke this periodically as a heartbeat while a session is active.
func (r *UserRepo) SetOnlineStatus(ctx context.Context, userID int, isOnline bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_online=$1, last_seen=NOW() WHERE id=$2`, isOnline, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListOnline returns users whose flag is set and whose last_seen falls
// inside the online window. Staleness is resolved here at read time; the
// stored flag is never flipped by a background job.
func (r *UserRepo) ListOnline(ctx context.Context) ([]models.User, error) {
	cutoff := time.Now().Add(-r.onlineWindow)
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE is_online=TRUE AND last_seen > $1 ORDER BY last_seen DESC`,
		cutoff)
	return users, err
}

// ListIdle returns ids of users whose last_seen is older than the cutoff.
// Read-only: listing a user here must not refresh their row, or they would
// hide from the next sweep before cleanup lands.
func (r *UserRepo) ListIdle(ctx context.Context, olderThan time.Time) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users WHERE last_seen < $1 ORDER BY id`, olderThan)
	return ids, err
}

// Delete removes the user row. Deleting an already-absent user is not an
// error so the cleanup workflow stays idempotent.
func (r *UserRepo) Delete(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, userID)
	return err
}
