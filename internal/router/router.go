package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/oskarlind/microblog-api/internal/config"
    "github.com/oskarlind/microblog-api/internal/handler"    // import the handlers that implement business logic
    "github.com/oskarlind/microblog-api/internal/middleware" // import middleware for JWT authentication, rate limiting and caching
)

// Handlers groups everything the route table needs.
type Handlers struct {
    Auth    *handler.AuthHandler
    Posts   *handler.PostHandler
    Comment *handler.CommentHandler
    Users   *handler.UserHandler
}

// Register wires up the full route table.  Three tiers:
//   - open routes: health check and the public, cacheable read surface;
//   - /auth: the token lifecycle endpoints, rate limited per client IP;
//   - /v1: everything behind a valid bearer access token.
//
// rdb may be nil, in which case rate limiting and caching degrade to
// pass-through middleware.
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
    // Health check for load balancers and monitoring.
    e.GET("/healthz", handler.Health)

    // Public read surface.  The feed is the hottest anonymous endpoint,
    // so it sits behind the Redis response cache.
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
    e.GET("/posts", h.Posts.Feed, cache)
    e.GET("/posts/:id", h.Posts.GetByID, cache)
    e.GET("/posts/:id/comments", h.Comment.ListByPost, cache)
    e.GET("/users/:id", h.Users.Profile, cache)
    e.GET("/users/:id/posts", h.Posts.FeedByUser, cache)

    // Token lifecycle endpoints.  Credential guessing and refresh storms
    // are the abuse vector here, so the whole group is rate limited.
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    auth := e.Group("/auth", limiter)
    auth.POST("/register", h.Auth.Register)
    auth.POST("/login", h.Auth.Login)
    // Token rotation and logout authenticate via the refresh cookie, not
    // a bearer token, so they stay outside the JWT middleware.
    auth.GET("/token", h.Auth.Token)
    auth.POST("/logout", h.Auth.Logout)
    auth.POST("/logout-all", h.Auth.LogoutAll, middleware.JWTAuth(cfg.JWTSecret))
    auth.GET("/check-auth", h.Auth.CheckAuth, middleware.JWTAuth(cfg.JWTSecret))

    // Everything below requires a valid access token.
    v1 := e.Group("/v1")
    v1.Use(middleware.JWTAuth(cfg.JWTSecret))

    v1.GET("/posts", h.Posts.Feed)
    v1.POST("/posts", h.Posts.Create)
    v1.GET("/posts/:id", h.Posts.GetByID)
    v1.PUT("/posts/:id", h.Posts.Update)
    v1.DELETE("/posts/:id", h.Posts.Delete)
    v1.POST("/posts/:id/like", h.Posts.Like)
    v1.DELETE("/posts/:id/like", h.Posts.Unlike)
    v1.GET("/posts/:id/comments", h.Comment.ListByPost)

    v1.POST("/comments", h.Comment.Create)
    v1.PUT("/comments/:id", h.Comment.Update)
    v1.DELETE("/comments/:id", h.Comment.Delete)
    v1.POST("/comments/:id/like", h.Comment.Like)
    v1.DELETE("/comments/:id/like", h.Comment.Unlike)

    v1.GET("/users/:id", h.Users.Profile)
    v1.GET("/users/:id/posts", h.Posts.FeedByUser)
    v1.PUT("/users/me", h.Users.UpdateDescription)
    v1.POST("/users/:id/follow", h.Users.Follow)
    v1.DELETE("/users/:id/follow", h.Users.Unfollow)
}
