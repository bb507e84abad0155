// Package queue defines message payloads exchanged over the message broker.
package queue

// UserRegisteredEvent is published when a new account is created. It
// carries enough for downstream consumers to log or notify without
// querying the primary database.
type UserRegisteredEvent struct {
    UserID       uint64 `json:"user_id"`
    Username     string `json:"username"`
    RegisteredAt string `json:"registered_at"`
}

// PostCreatedEvent is published when a user publishes a new post.
type PostCreatedEvent struct {
    PostID    uint64 `json:"post_id"`
    UserID    uint64 `json:"user_id"`
    Username  string `json:"username"`
    CreatedAt string `json:"created_at"`
}
