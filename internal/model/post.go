package model

import "time"

// Post mirrors the `posts` table plus the aggregates the feed queries
// attach: total like count, comment count and whether the requesting user
// has liked the post.  LikedByViewer is always false for anonymous feeds.
type Post struct {
    ID            uint64    `json:"id"`      // posts.id
    UserID        uint64    `json:"user_id"` // posts.user_id
    Username      string    `json:"username"`
    Content       string    `json:"content"` // posts.content
    NumLikes      uint64    `json:"number_of_likes"`
    NumComments   uint64    `json:"number_of_comments"`
    LikedByViewer bool      `json:"liked_by_current_user"`
    CreatedAt     time.Time `json:"created_at"` // posts.created_at
    UpdatedAt     time.Time `json:"updated_at"` // posts.updated_at
}
