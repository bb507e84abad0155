package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/oskarlind/microblog-api/internal/model"
)

type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

// ListByPost returns every comment on a post, oldest first, including
// soft-deleted rows so that reply chains stay intact. Like counts and the
// viewer's like flag are resolved per comment.
func (r *CommentRepo) ListByPost(ctx context.Context, postID, viewerID uint64) ([]model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.user_id, u.username, c.content, c.reply_comment_id,
		       (SELECT COUNT(*) FROM comment_likes cl WHERE cl.comment_id = c.id),
		       EXISTS(SELECT 1 FROM comment_likes cl WHERE cl.comment_id = c.id AND cl.user_id = ?),
		       c.deleted_at IS NOT NULL,
		       c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ?
		ORDER BY c.created_at ASC, c.id ASC`,
		viewerID, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.UserID, &c.Username, &c.Content, &c.ReplyTo,
			&c.NumLikes, &c.LikedByViewer, &c.Deleted,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if c.Deleted {
			c.Content = ""
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Create inserts a comment and returns its ID. replyTo is nil for
// top-level comments. A post_id or reply_comment_id naming a missing row
// trips the foreign key (MySQL error 1452) and comes back as ErrNotFound.
func (r *CommentRepo) Create(ctx context.Context, postID, userID uint64, content string, replyTo *uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (post_id, user_id, content, reply_comment_id) VALUES (?,?,?,?)",
		postID, userID, content, replyTo)
	if err != nil {
		if strings.Contains(err.Error(), "1452") {
			return 0, ErrNotFound
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a comment's content, provided the comment belongs to
// the user and has not been deleted.
func (r *CommentRepo) Update(ctx context.Context, id, userID uint64, content string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE comments SET content=? WHERE id=? AND user_id=? AND deleted_at IS NULL",
		content, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasReplies reports whether any comment replies to the given comment.
// Deciding between soft and hard delete hinges on this.
func (r *CommentRepo) HasReplies(ctx context.Context, id uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE reply_comment_id=?", id).Scan(&n)
	return n > 0, err
}

// SoftDelete blanks a comment while keeping its row so replies stay
// anchored. Only the owner can delete.
func (r *CommentRepo) SoftDelete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE comments SET deleted_at=UTC_TIMESTAMP() WHERE id=? AND user_id=? AND deleted_at IS NULL",
		id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HardDelete removes a leaf comment entirely.
func (r *CommentRepo) HardDelete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM comments WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Like records that a user likes a comment.
func (r *CommentRepo) Like(ctx context.Context, commentID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO comment_likes (comment_id, user_id) VALUES (?,?)",
		commentID, userID)
	return err
}

// Unlike removes a user's like from a comment.
func (r *CommentRepo) Unlike(ctx context.Context, commentID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM comment_likes WHERE comment_id=? AND user_id=?",
		commentID, userID)
	return err
}
