package repository

import (
	"context"
	"database/sql"

	"github.com/oskarlind/microblog-api/internal/model"
	"github.com/oskarlind/microblog-api/internal/utils"
)

// TokenRepo persists refresh tokens. The raw opaque token is the lookup
// key; rotation overwrites the token column in place, which is what makes
// a previously issued value invalid. Every call goes straight to the
// database, so concurrent rotations of the same token serialize on the
// row update and the loser sees a lookup miss.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// CreateRefresh generates a fresh opaque token for the user, persists it
// with an expiry ttlDays from now and returns the stored record with its
// assigned id.
func (r *TokenRepo) CreateRefresh(ctx context.Context, userID uint64, ttlDays int) (model.RefreshToken, error) {
	value, err := utils.NewRefreshTokenValue()
	if err != nil {
		return model.RefreshToken{}, err
	}
	rt := model.RefreshToken{
		UserID:    userID,
		Token:     value,
		ExpiresAt: utils.RefreshExpiry(ttlDays),
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES (?,?,?)",
		rt.Token, rt.UserID, rt.ExpiresAt)
	if err != nil {
		return model.RefreshToken{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.RefreshToken{}, err
	}
	rt.ID = uint64(id)
	return rt, nil
}

// GetValidRefresh looks up a refresh token by its exact value, filtered to
// rows that have not expired. Expired or unknown tokens both surface as
// sql.ErrNoRows; the caller treats that as a miss, not a server error.
func (r *TokenRepo) GetValidRefresh(ctx context.Context, token string) (model.RefreshToken, error) {
	var rt model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token, user_id, expires_at FROM refresh_tokens WHERE token=? AND expires_at > UTC_TIMESTAMP() LIMIT 1",
		token).Scan(&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt)
	return rt, err
}

// Rotate replaces the token value and expiry of an existing row. The
// passed record is updated in place so the caller can hand the new value
// back to the client. The old value is not separately revoked; it simply
// no longer matches any row.
func (r *TokenRepo) Rotate(ctx context.Context, rt *model.RefreshToken, ttlDays int) error {
	value, err := utils.NewRefreshTokenValue()
	if err != nil {
		return err
	}
	exp := utils.RefreshExpiry(ttlDays)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET token=?, expires_at=? WHERE id=?",
		value, exp, rt.ID); err != nil {
		return err
	}
	rt.Token = value
	rt.ExpiresAt = exp
	return nil
}

// Delete removes the row matching the raw token value. Deleting a token
// that does not exist is not an error, so logout is idempotent.
func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token=?", token)
	return err
}

// DeleteAllForUser removes every refresh token owned by a user, logging
// them out of all sessions.
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}
