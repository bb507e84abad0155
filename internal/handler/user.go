package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/oskarlind/microblog-api/internal/config"
    "github.com/oskarlind/microblog-api/internal/middleware"
    "github.com/oskarlind/microblog-api/internal/model"
    "github.com/oskarlind/microblog-api/internal/utils"
)

// ProfileStore is the capability the profile endpoints need beyond the
// basic UserStore: aggregate profiles, description updates and follows.
type ProfileStore interface {
    Profile(ctx context.Context, id, viewerID uint64) (model.User, error)
    UpdateDescription(ctx context.Context, id uint64, description string) error
    Follow(ctx context.Context, followerID, followedID uint64) error
    Unfollow(ctx context.Context, followerID, followedID uint64) error
}

type UserHandler struct {
    Cfg      config.Config
    Profiles ProfileStore
}

func NewUserHandler(cfg config.Config, p ProfileStore) *UserHandler {
    return &UserHandler{Cfg: cfg, Profiles: p}
}

type descriptionReq struct {
    Description string `json:"description"`
}

// Profile returns a user's public profile with post/follower/following
// counts. On the authenticated route the mutual follow flags are resolved
// relative to the viewer.
func (h *UserHandler) Profile(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    viewer := middleware.CurrentUserID(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Profiles.Profile(ctx, id, viewer)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// UpdateDescription replaces the caller's profile description.
func (h *UserHandler) UpdateDescription(c echo.Context) error {
    var req descriptionReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    description := utils.SanitizeContent(req.Description)
    if errs := utils.ValidateContent(description); len(errs) > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": echo.Map{"description": errs}})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Profiles.UpdateDescription(ctx, middleware.CurrentUserID(c), description); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "profile updated"})
}

// Follow makes the caller follow another user. Following yourself is
// rejected; following twice is a no-op.
func (h *UserHandler) Follow(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    uid := middleware.CurrentUserID(c)
    if id == uid {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot follow yourself"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Profiles.Follow(ctx, uid, id); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "follow failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "following"})
}

// Unfollow removes the caller's follow relation to another user.
func (h *UserHandler) Unfollow(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Profiles.Unfollow(ctx, middleware.CurrentUserID(c), id); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unfollow failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "unfollowed"})
}
