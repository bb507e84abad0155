package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/oskarlind/microblog-api/internal/model"
	"github.com/oskarlind/microblog-api/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes the password and inserts the user, returning its ID.
// A duplicate username surfaces as ErrUsernameTaken.
func (r *UserRepo) Create(ctx context.Context, username, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?,?)",
		username, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by username, compared case-insensitively.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, description, created_at, updated_at FROM users WHERE LOWER(username)=LOWER(?) LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Description, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, description, created_at, updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Description, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Profile loads a user together with post/follower/following counts.
// When viewerID is non-zero the mutual follow flags are resolved against
// the viewer; for anonymous requests they stay false.
func (r *UserRepo) Profile(ctx context.Context, id, viewerID uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.description, u.created_at, u.updated_at,
		       (SELECT COUNT(*) FROM posts p WHERE p.user_id = u.id),
		       (SELECT COUNT(*) FROM follows f WHERE f.followed_id = u.id),
		       (SELECT COUNT(*) FROM follows f WHERE f.follower_id = u.id),
		       EXISTS(SELECT 1 FROM follows f WHERE f.follower_id = u.id AND f.followed_id = ?),
		       EXISTS(SELECT 1 FROM follows f WHERE f.follower_id = ? AND f.followed_id = u.id)
		FROM users u
		WHERE u.id = ?
		LIMIT 1`,
		viewerID, viewerID, id).Scan(
		&u.ID, &u.Username, &u.Description, &u.CreatedAt, &u.UpdatedAt,
		&u.NumPosts, &u.NumFollowers, &u.NumFollowing,
		&u.IsFollowingViewer, &u.IsFollowedByViewer)
	return u, err
}

// UpdateDescription replaces a user's profile description.
func (r *UserRepo) UpdateDescription(ctx context.Context, id uint64, description string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET description=? WHERE id=?", description, id)
	return err
}

// Follow records that follower follows followed. INSERT IGNORE keeps the
// call idempotent when the relation already exists.
func (r *UserRepo) Follow(ctx context.Context, followerID, followedID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO follows (follower_id, followed_id) VALUES (?,?)",
		followerID, followedID)
	return err
}

// Unfollow removes a follow relation. Removing a non-existent relation is
// not an error.
func (r *UserRepo) Unfollow(ctx context.Context, followerID, followedID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM follows WHERE follower_id=? AND followed_id=?",
		followerID, followedID)
	return err
}
