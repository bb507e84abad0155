package handler

import (
    "context"      // provides context with cancellation for DB calls
    "database/sql" // SQL database interactions
    "log"
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/oskarlind/microblog-api/internal/config" // app configuration
    "github.com/oskarlind/microblog-api/internal/middleware"
    "github.com/oskarlind/microblog-api/internal/model"
    "github.com/oskarlind/microblog-api/internal/queue"
    "github.com/oskarlind/microblog-api/internal/repository"
    "github.com/oskarlind/microblog-api/internal/utils" // helper functions (hashing, token issuing)
)

// UserStore is the credential-store capability the auth endpoints need.
// *repository.UserRepo satisfies it; tests substitute in-memory fakes.
type UserStore interface {
    Create(ctx context.Context, username, password string, cost int) (uint64, error)
    GetByUsername(ctx context.Context, username string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is the refresh-token capability. It is independent of the
// signing side on purpose: either can be swapped without touching the
// other. *repository.TokenRepo satisfies it.
type TokenStore interface {
    CreateRefresh(ctx context.Context, userID uint64, ttlDays int) (model.RefreshToken, error)
    GetValidRefresh(ctx context.Context, token string) (model.RefreshToken, error)
    Rotate(ctx context.Context, rt *model.RefreshToken, ttlDays int) error
    Delete(ctx context.Context, token string) error
    DeleteAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints. PublishRegistered
// is optional; when set, successful registrations emit a domain event.
type AuthHandler struct {
    Cfg               config.Config
    Users             UserStore
    Tokens            TokenStore
    PublishRegistered func(ctx context.Context, ev queue.UserRegisteredEvent) error
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type credentialsReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

// refreshCookie builds the cookie carrying the opaque refresh token.
// HttpOnly and Secure keep it out of scripts and plain HTTP; SameSite
// Strict stops it from riding along on cross-site requests.
func (h *AuthHandler) refreshCookie(value string) *http.Cookie {
    return &http.Cookie{
        Name:     h.Cfg.RefreshCookie,
        Value:    value,
        Path:     "/auth",
        MaxAge:   h.Cfg.RefreshTTLDays * 24 * 60 * 60,
        HttpOnly: true,
        Secure:   true,
        SameSite: http.SameSiteStrictMode,
    }
}

// expiredRefreshCookie returns a cookie that instructs the client to drop
// the refresh token.
func (h *AuthHandler) expiredRefreshCookie() *http.Cookie {
    c := h.refreshCookie("")
    c.MaxAge = -1
    return c
}

// Register creates a new user. Validation failures come back as 400 with
// per-field messages; a taken username is a validation failure too.
func (h *AuthHandler) Register(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Username = strings.TrimSpace(req.Username)

    fieldErrs := echo.Map{}
    if !utils.ValidUsername(req.Username) {
        fieldErrs["username"] = "username must be 3-20 characters: letters, digits, underscore or hyphen"
    }
    if len(req.Password) < h.Cfg.PasswordMinLen {
        fieldErrs["password"] = "password is too short"
    }
    if len(fieldErrs) > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrs})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Username, req.Password, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrUsernameTaken {
            return c.JSON(http.StatusBadRequest, echo.Map{"errors": echo.Map{"username": "username already exists"}})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    if h.PublishRegistered != nil {
        ev := queue.UserRegisteredEvent{
            UserID:       uid,
            Username:     req.Username,
            RegisteredAt: time.Now().UTC().Format(time.RFC3339),
        }
        go func() {
            if err := h.PublishRegistered(context.Background(), ev); err != nil {
                log.Printf("auth: publish user.registered failed: %v", err)
            }
        }()
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "user": echo.Map{"id": uid, "username": req.Username},
    })
}

// Login verifies credentials and starts a session: a new refresh-token
// row plus a freshly minted access token. An unknown username and a wrong
// password produce byte-identical responses so usernames cannot be
// enumerated.
func (h *AuthHandler) Login(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Username = strings.TrimSpace(req.Username)
    if req.Username == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByUsername(ctx, req.Username)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    refresh, err := h.Tokens.CreateRefresh(ctx, u.ID, h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, h.Cfg.JWTAlgorithm, u.ID, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }

    c.SetCookie(h.refreshCookie(refresh.Token))
    return c.JSON(http.StatusOK, echo.Map{
        "access_token": access.Token,
        "user":         u,
    })
}

// Token exchanges a valid refresh cookie for a new access token, rotating
// the refresh token in the same call. The old token value is overwritten
// in place, so a concurrent request replaying it observes a lookup miss
// and must re-authenticate. Rotation and response delivery are not
// wrapped in a transaction: a crash in between leaves the row rotated and
// the client re-authenticating, which is accepted.
func (h *AuthHandler) Token(c echo.Context) error {
    cookie, err := c.Cookie(h.Cfg.RefreshCookie)
    if err != nil || cookie.Value == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no refresh token found"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rt, err := h.Tokens.GetValidRefresh(ctx, cookie.Value)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    if err := h.Tokens.Rotate(ctx, &rt, h.Cfg.RefreshTTLDays); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate refresh failed"})
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, h.Cfg.JWTAlgorithm, rt.UserID, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }

    c.SetCookie(h.refreshCookie(rt.Token))
    return c.JSON(http.StatusOK, echo.Map{"access_token": access.Token})
}

// Logout deletes the refresh-token row named by the cookie and clears the
// cookie. Deleting an already-deleted token is not an error.
func (h *AuthHandler) Logout(c echo.Context) error {
    cookie, err := c.Cookie(h.Cfg.RefreshCookie)
    if err != nil || cookie.Value == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no refresh token found"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Tokens.Delete(ctx, cookie.Value); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }

    c.SetCookie(h.expiredRefreshCookie())
    return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// LogoutAll revokes every refresh token the caller owns, ending all of
// their sessions at once. Authenticated by bearer token rather than the
// refresh cookie, so a user who lost a device can still revoke it.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
    uid := middleware.CurrentUserID(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Tokens.DeleteAllForUser(ctx, uid); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }

    c.SetCookie(h.expiredRefreshCookie())
    return c.JSON(http.StatusOK, echo.Map{"message": "logged out everywhere"})
}

// CheckAuth resolves the bearer token's user and returns it. Protected by
// the JWT middleware, which put the user id into the context.
func (h *AuthHandler) CheckAuth(c echo.Context) error {
    uid := middleware.CurrentUserID(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"user": u})
}
