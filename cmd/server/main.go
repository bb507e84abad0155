package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/oskarlind/microblog-api/internal/config" // Internal config loader
	"github.com/oskarlind/microblog-api/internal/database"
	"github.com/oskarlind/microblog-api/internal/handler"
	"github.com/oskarlind/microblog-api/internal/queue"
	"github.com/oskarlind/microblog-api/internal/repository"
	"github.com/oskarlind/microblog-api/internal/router"
	queue_publisher "github.com/oskarlind/microblog-api/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting and the public response cache. A nil
	// client disables both rather than failing startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	posts := repository.NewPostRepo(db)
	comments := repository.NewCommentRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	authHandler.PublishRegistered = queue_publisher.PublishUserRegistered
	postHandler := handler.NewPostHandler(cfg, posts, users)
	postHandler.PublishCreated = queue_publisher.PublishPostCreated

	h := router.Handlers{
		Auth:    authHandler,
		Posts:   postHandler,
		Comment: handler.NewCommentHandler(cfg, comments),
		Users:   handler.NewUserHandler(cfg, users),
	}

	// Background consumer appending domain events to the activity log.
	// It runs its own reconnect loop and never takes the server down.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	router.Register(e, cfg, h, rdb)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
