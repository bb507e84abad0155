package handler

import (
    "context"
    "database/sql"
    "log"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/oskarlind/microblog-api/internal/config"
    "github.com/oskarlind/microblog-api/internal/middleware"
    "github.com/oskarlind/microblog-api/internal/model"
    "github.com/oskarlind/microblog-api/internal/queue"
    "github.com/oskarlind/microblog-api/internal/repository"
    "github.com/oskarlind/microblog-api/internal/utils"
)

// PostStore is the persistence capability the post endpoints need.
type PostStore interface {
    Create(ctx context.Context, userID uint64, content string) (uint64, error)
    Update(ctx context.Context, id, userID uint64, content string) error
    Delete(ctx context.Context, id, userID uint64) error
    GetByID(ctx context.Context, id, viewerID uint64) (model.Post, error)
    List(ctx context.Context, viewerID uint64, limit, offset int) ([]model.Post, error)
    ListByUser(ctx context.Context, authorID, viewerID uint64, limit, offset int) ([]model.Post, error)
    Like(ctx context.Context, postID, userID uint64) error
    Unlike(ctx context.Context, postID, userID uint64) error
}

// PostHandler bundles dependencies for post endpoints. PublishCreated is
// optional; when set, new posts emit a domain event.
type PostHandler struct {
    Cfg            config.Config
    Posts          PostStore
    Users          UserStore
    PublishCreated func(ctx context.Context, ev queue.PostCreatedEvent) error
}

func NewPostHandler(cfg config.Config, p PostStore, u UserStore) *PostHandler {
    return &PostHandler{Cfg: cfg, Posts: p, Users: u}
}

type postReq struct {
    Content string `json:"content"`
}

// pagination reads ?page and ?limit with sane bounds (default page 1,
// limit 10, max 50).
func pagination(c echo.Context) (limit, offset int) {
    page, _ := strconv.Atoi(c.QueryParam("page"))
    if page < 1 {
        page = 1
    }
    limit, _ = strconv.Atoi(c.QueryParam("limit"))
    if limit < 1 {
        limit = 10
    }
    if limit > 50 {
        limit = 50
    }
    return limit, (page - 1) * limit
}

// pathID parses the numeric :id path parameter.
func pathID(c echo.Context) (uint64, error) {
    return strconv.ParseUint(c.Param("id"), 10, 64)
}

// Feed lists posts, newest first. Works for both the public route (no
// viewer, liked flags always false) and the authenticated one.
func (h *PostHandler) Feed(c echo.Context) error {
    limit, offset := pagination(c)
    viewer := middleware.CurrentUserID(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    posts, err := h.Posts.List(ctx, viewer, limit, offset)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

// FeedByUser lists one author's posts.
func (h *PostHandler) FeedByUser(c echo.Context) error {
    author, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    limit, offset := pagination(c)
    viewer := middleware.CurrentUserID(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    posts, err := h.Posts.ListByUser(ctx, author, viewer, limit, offset)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

// GetByID returns a single post with viewer-relative aggregates.
func (h *PostHandler) GetByID(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
    }
    viewer := middleware.CurrentUserID(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    p, err := h.Posts.GetByID(ctx, id, viewer)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"post": p})
}

// Create publishes a new post for the authenticated user.
func (h *PostHandler) Create(c echo.Context) error {
    var req postReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    content := utils.SanitizeContent(req.Content)
    if errs := utils.ValidateContent(content); len(errs) > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": echo.Map{"content": errs}})
    }
    uid := middleware.CurrentUserID(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    id, err := h.Posts.Create(ctx, uid, content)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create post failed"})
    }

    if h.PublishCreated != nil {
        username := ""
        if u, err := h.Users.GetByID(ctx, uid); err == nil {
            username = u.Username
        }
        ev := queue.PostCreatedEvent{
            PostID:    id,
            UserID:    uid,
            Username:  username,
            CreatedAt: time.Now().UTC().Format(time.RFC3339),
        }
        go func() {
            if err := h.PublishCreated(context.Background(), ev); err != nil {
                log.Printf("post: publish post.created failed: %v", err)
            }
        }()
    }

    return c.JSON(http.StatusCreated, echo.Map{"post": echo.Map{"id": id, "content": content}})
}

// Update rewrites the content of a post owned by the caller.
func (h *PostHandler) Update(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
    }
    var req postReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    content := utils.SanitizeContent(req.Content)
    if errs := utils.ValidateContent(content); len(errs) > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": echo.Map{"content": errs}})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Posts.Update(ctx, id, middleware.CurrentUserID(c), content); err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update post failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "post updated"})
}

// Delete removes a post owned by the caller.
func (h *PostHandler) Delete(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Posts.Delete(ctx, id, middleware.CurrentUserID(c)); err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete post failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Like marks the post as liked by the caller; liking twice is a no-op.
func (h *PostHandler) Like(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Posts.Like(ctx, id, middleware.CurrentUserID(c)); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "like failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "post liked"})
}

// Unlike removes the caller's like; unliking twice is a no-op.
func (h *PostHandler) Unlike(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Posts.Unlike(ctx, id, middleware.CurrentUserID(c)); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unlike failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "post unliked"})
}
