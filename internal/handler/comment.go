package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/oskarlind/microblog-api/internal/config"
    "github.com/oskarlind/microblog-api/internal/middleware"
    "github.com/oskarlind/microblog-api/internal/model"
    "github.com/oskarlind/microblog-api/internal/repository"
    "github.com/oskarlind/microblog-api/internal/utils"
)

// CommentStore is the persistence capability the comment endpoints need.
type CommentStore interface {
    ListByPost(ctx context.Context, postID, viewerID uint64) ([]model.Comment, error)
    Create(ctx context.Context, postID, userID uint64, content string, replyTo *uint64) (uint64, error)
    Update(ctx context.Context, id, userID uint64, content string) error
    HasReplies(ctx context.Context, id uint64) (bool, error)
    SoftDelete(ctx context.Context, id, userID uint64) error
    HardDelete(ctx context.Context, id, userID uint64) error
    Like(ctx context.Context, commentID, userID uint64) error
    Unlike(ctx context.Context, commentID, userID uint64) error
}

type CommentHandler struct {
    Cfg      config.Config
    Comments CommentStore
}

func NewCommentHandler(cfg config.Config, s CommentStore) *CommentHandler {
    return &CommentHandler{Cfg: cfg, Comments: s}
}

type commentReq struct {
    PostID  uint64  `json:"post_id"`
    Content string  `json:"content"`
    ReplyTo *uint64 `json:"reply_comment_id"`
}

// ListByPost returns all comments on a post, oldest first. Soft-deleted
// comments appear with blank content so reply threads keep their shape.
func (h *CommentHandler) ListByPost(c echo.Context) error {
    postID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
    }
    viewer := middleware.CurrentUserID(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    comments, err := h.Comments.ListByPost(ctx, postID, viewer)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"comments": comments})
}

// Create adds a comment, or a reply when reply_comment_id is set.
func (h *CommentHandler) Create(c echo.Context) error {
    var req commentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.PostID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "post_id required"})
    }
    content := utils.SanitizeContent(req.Content)
    if errs := utils.ValidateContent(content); len(errs) > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": echo.Map{"content": errs}})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    id, err := h.Comments.Create(ctx, req.PostID, middleware.CurrentUserID(c), content, req.ReplyTo)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create comment failed"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"comment": echo.Map{"id": id, "content": content}})
}

// Update edits a comment owned by the caller, unless it has been deleted.
func (h *CommentHandler) Update(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
    }
    var req commentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    content := utils.SanitizeContent(req.Content)
    if errs := utils.ValidateContent(content); len(errs) > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": echo.Map{"content": errs}})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Comments.Update(ctx, id, middleware.CurrentUserID(c), content); err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update comment failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "comment updated"})
}

// Delete removes a comment owned by the caller. Comments with replies are
// soft deleted so their replies stay anchored; leaves are removed
// outright.
func (h *CommentHandler) Delete(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
    }
    uid := middleware.CurrentUserID(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    hasReplies, err := h.Comments.HasReplies(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if hasReplies {
        err = h.Comments.SoftDelete(ctx, id, uid)
    } else {
        err = h.Comments.HardDelete(ctx, id, uid)
    }
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete comment failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Like marks the comment as liked by the caller.
func (h *CommentHandler) Like(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Comments.Like(ctx, id, middleware.CurrentUserID(c)); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "like failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "comment liked"})
}

// Unlike removes the caller's like from a comment.
func (h *CommentHandler) Unlike(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Comments.Unlike(ctx, id, middleware.CurrentUserID(c)); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unlike failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "comment unliked"})
}
