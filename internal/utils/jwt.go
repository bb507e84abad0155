package utils // package utils provides helper functions for token creation and validation

import (
    "crypto/rand"  // secure random number generation
    "encoding/hex" // hex encoding for opaque tokens
    "errors"
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short‑lived, self-contained and never stored server
// side; clients send them in the Authorization header.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// AccessClaims is the payload carried by an access token: the owning user
// plus the registered temporal claims (exp, iat) and a per-token id (jti).
type AccessClaims struct {
    UserID uint64 `json:"user_id"`
    jwt.RegisteredClaims
}

// ErrInvalidToken is the single failure value for access-token validation.
// Expired, malformed, not-yet-valid and badly signed tokens all collapse
// into it; callers get no signal about which check failed.
var ErrInvalidToken = errors.New("invalid access token")

// NewAccessToken builds and signs a JWT for a user.  It takes the signing
// secret, the HMAC algorithm name (HS256/HS384/HS512), the user ID and a
// TTL in minutes, and returns the signed token together with its expiry.
func NewAccessToken(secret, algorithm string, userID uint64, ttlMin int) (AccessToken, error) {
    method := jwt.GetSigningMethod(algorithm)
    if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
        return AccessToken{}, errors.New("unsupported signing algorithm: " + algorithm)
    }
    jti, err := randomHex(16)
    if err != nil {
        return AccessToken{}, err
    }
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := AccessClaims{
        UserID: userID,
        RegisteredClaims: jwt.RegisteredClaims{
            // The jti makes every mint unique even when iat/exp land on
            // the same second, so rotation always yields a new token.
            ID:        jti,
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature and temporal claims of a raw access
// token and returns its claims.  Every failure mode is normalized to
// ErrInvalidToken; the underlying cause is not exposed to callers.
func ParseAccessToken(secret, raw string) (*AccessClaims, error) {
    claims := &AccessClaims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
        // Type assert the signing method to HMAC; reject others.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return nil, ErrInvalidToken
    }
    return claims, nil
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}

// NewRefreshTokenValue returns a fresh opaque refresh-token string: 32
// bytes of cryptographically secure random data, hex encoded (64 chars).
func NewRefreshTokenValue() (string, error) {
    return randomHex(32)
}

// RefreshExpiry computes a refresh-token expiration ttlDays from now, UTC.
func RefreshExpiry(ttlDays int) time.Time {
    return time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
}
