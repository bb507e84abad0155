package model

import "time"

// User represents an application user record as stored in the `users`
// table. The json tags shape the public profile payload; PasswordHash is
// never serialized. The aggregate count fields are populated only by the
// profile queries that join against posts and follows — plain lookups
// leave them at zero.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Username      – unique username (compared case-insensitively).
//  PasswordHash  – bcrypt hashed password.
//  Description   – free-text profile description.
//  NumPosts      – number of posts authored by the user.
//  NumFollowers  – number of users following this user.
//  NumFollowing  – number of users this user follows.
//  IsFollowingViewer  – whether this user follows the requesting user.
//  IsFollowedByViewer – whether the requesting user follows this user.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
    ID                 uint64    `json:"id"`           // users.id
    Username           string    `json:"username"`     // users.username
    PasswordHash       string    `json:"-"`            // users.password_hash
    Description        string    `json:"description"`  // users.description
    NumPosts           uint64    `json:"number_of_posts"`
    NumFollowers       uint64    `json:"number_of_followers"`
    NumFollowing       uint64    `json:"number_of_following"`
    IsFollowingViewer  bool      `json:"is_following_current_user"`
    IsFollowedByViewer bool      `json:"is_followed_by_current_user"`
    CreatedAt          time.Time `json:"created_at"` // users.created_at
    UpdatedAt          time.Time `json:"updated_at"` // users.updated_at
}
