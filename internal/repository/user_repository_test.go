package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oskarlind/microblog-api/internal/utils"
)

func TestUserCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (username, password_hash) VALUES (?,?)")).
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))

	id, err := repo.Create(context.Background(), "alice", "longpassword1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'users.username'"))

	_, err := repo.Create(context.Background(), "alice", "longpassword1", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	hash, err := utils.HashPassword("longpassword1", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(username)=LOWER(?)")).
		WithArgs("Alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "description", "created_at", "updated_at"}).
			AddRow(5, "alice", hash, "", now, now))

	u, err := repo.GetByUsername(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "longpassword1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsernameMiss(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("FROM users").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "description", "created_at", "updated_at"}))

	_, err := repo.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileCountsAndFlags(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT u.id, u.username, u.description").
		WithArgs(9, 9, 5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "description", "created_at", "updated_at",
			"posts", "followers", "following", "follows_viewer", "followed_by_viewer"}).
			AddRow(5, "alice", "hi", now, now, 3, 2, 1, true, false))

	u, err := repo.Profile(context.Background(), 5, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.NumPosts)
	assert.Equal(t, uint64(2), u.NumFollowers)
	assert.Equal(t, uint64(1), u.NumFollowing)
	assert.True(t, u.IsFollowingViewer)
	assert.False(t, u.IsFollowedByViewer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowUnfollow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO follows (follower_id, followed_id) VALUES (?,?)")).
		WithArgs(9, 5).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM follows WHERE follower_id=? AND followed_id=?")).
		WithArgs(9, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Follow(context.Background(), 9, 5))
	assert.NoError(t, repo.Unfollow(context.Background(), 9, 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}
