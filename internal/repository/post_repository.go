package repository

import (
	"context"
	"database/sql"

	"github.com/oskarlind/microblog-api/internal/model"
)

type PostRepo struct{ DB *sql.DB }

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{DB: db} }

// postSelect is the shared projection for feed queries: author username,
// like/comment counts and whether the viewer (first bind parameter) has
// liked each post. viewerID 0 never matches a likes row.
const postSelect = `
	SELECT p.id, p.user_id, u.username, p.content,
	       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.deleted_at IS NULL),
	       EXISTS(SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = ?),
	       p.created_at, p.updated_at
	FROM posts p
	JOIN users u ON u.id = p.user_id`

// Create inserts a post and returns its ID.
func (r *PostRepo) Create(ctx context.Context, userID uint64, content string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO posts (user_id, content) VALUES (?,?)",
		userID, content)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a post's content. The user_id predicate keeps users
// from editing posts they do not own; zero rows affected means the post
// is missing or owned by someone else, reported as ErrNotFound.
func (r *PostRepo) Update(ctx context.Context, id, userID uint64, content string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE posts SET content=? WHERE id=? AND user_id=?",
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

// Delete removes a post owned by the user, including its likes and
// comments via foreign-key cascade.
func (r *PostRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM posts WHERE id=? AND user_id=?", id, userID)
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

// GetByID fetches a single post with aggregates relative to the viewer.
func (r *PostRepo) GetByID(ctx context.Context, id, viewerID uint64) (model.Post, error) {
	var p model.Post
	err := r.DB.QueryRowContext(ctx, postSelect+" WHERE p.id = ? LIMIT 1",
		viewerID, id).Scan(
		&p.ID, &p.UserID, &p.Username, &p.Content,
		&p.NumLikes, &p.NumComments, &p.LikedByViewer,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns a page of posts, newest first.
func (r *PostRepo) List(ctx context.Context, viewerID uint64, limit, offset int) ([]model.Post, error) {
	rows, err := r.DB.QueryContext(ctx,
		postSelect+" ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?",
		viewerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// ListByUser returns a page of one author's posts, newest first.
func (r *PostRepo) ListByUser(ctx context.Context, authorID, viewerID uint64, limit, offset int) ([]model.Post, error) {
	rows, err := r.DB.QueryContext(ctx,
		postSelect+" WHERE p.user_id = ? ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?",
		viewerID, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]model.Post, error) {
	posts := make([]model.Post, 0)
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Username, &p.Content,
			&p.NumLikes, &p.NumComments, &p.LikedByViewer,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Like records that a user likes a post. INSERT IGNORE prevents
// duplicates when the user has already liked it.
func (r *PostRepo) Like(ctx context.Context, postID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO likes (post_id, user_id) VALUES (?,?)",
		postID, userID)
	return err
}

// Unlike removes a user's like from a post.
func (r *PostRepo) Unlike(ctx context.Context, postID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM likes WHERE post_id=? AND user_id=?",
		postID, userID)
	return err
}
