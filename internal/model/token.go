package model

import "time"

// RefreshToken models a row in the `refresh_tokens` table.  The token
// column holds the raw opaque secret handed to the client; rotation
// overwrites it in place, so a stale token value simply stops matching.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  Token     – opaque random hex string (unique).
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64    // refresh_tokens.id
    UserID    uint64    // refresh_tokens.user_id
    Token     string    // refresh_tokens.token
    ExpiresAt time.Time // refresh_tokens.expires_at
    CreatedAt time.Time // refresh_tokens.created_at
}
