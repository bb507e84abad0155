package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/oskarlind/microblog-api/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's user_id claim into the request context.  The
// provided secret must match the one used when issuing tokens.  Handlers
// behind this middleware read the identity via `c.Get("user_id")`.
//
// A missing header and an invalid token both produce 401: the client gets
// no signal about which check failed, and each request is authenticated
// independently with no server-side session behind the access token.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // ParseAccessToken verifies the HMAC signature and the
            // temporal claims; every failure mode comes back as the same
            // invalid-token error.
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set("user_id", claims.UserID)
            return next(c)
        }
    }
}

// CurrentUserID reads the authenticated user's id from the context.  It
// returns 0 when the request passed through no auth middleware, which
// public handlers use to mean "anonymous viewer".
func CurrentUserID(c echo.Context) uint64 {
    if v, ok := c.Get("user_id").(uint64); ok {
        return v
    }
    return 0
}
