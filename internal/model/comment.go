package model

import "time"

// Comment mirrors the `comments` table.  ReplyTo is nil for top-level
// comments.  Deleted comments keep their row (so replies stay anchored)
// but the handler blanks the content before serialization.
type Comment struct {
    ID            uint64     `json:"id"`      // comments.id
    PostID        uint64     `json:"post_id"` // comments.post_id
    UserID        uint64     `json:"user_id"` // comments.user_id
    Username      string     `json:"username"`
    Content       string     `json:"content"` // comments.content
    ReplyTo       *uint64    `json:"reply_comment_id"`
    NumLikes      uint64     `json:"number_of_likes"`
    LikedByViewer bool       `json:"liked_by_current_user"`
    Deleted       bool       `json:"deleted"`
    CreatedAt     time.Time  `json:"created_at"` // comments.created_at
    UpdatedAt     *time.Time `json:"updated_at"` // comments.updated_at (nullable)
}
