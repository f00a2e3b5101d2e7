package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"livechat-backend/internal/config"
	"livechat-backend/internal/database"
	"livechat-backend/internal/handler"
	"livechat-backend/internal/middleware"
	"livechat-backend/internal/repository"
	"livechat-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Repositories
	agentRepo := repository.NewAgentRepository(db)
	websiteRepo := repository.NewWebsiteRepository(db)
	sessionRepo := repository.NewChatSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	offlineRepo := repository.NewOfflineMessageRepository(db)

	// Services
	hub := service.NewHub()
	notifier := service.NewWidgetNotifier(cfg.NotifyPath, cfg.NotifyTimeout)
	authSvc := service.NewAuthService(agentRepo, hub, cfg.JWTSecret)
	lifecycle := service.NewLifecycle(sessionRepo, websiteRepo, hub, notifier)
	router := service.NewMessageRouter(messageRepo, sessionRepo, hub)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health
	healthH := handler.NewHealthHandler(db, hub)
	app.Get("/api/health", healthH.Check)
	app.Get("/ready", healthH.Ready)

	api := app.Group("/api")

	// Auth (public)
	authH := handler.NewAuthHandler(authSvc)
	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(10, time.Minute), authH.Login)
	auth.Post("/register", middleware.RateLimit(5, time.Minute), authH.Register)
	auth.Post("/logout", authH.Logout)
	auth.Get("/verify", authH.Verify)
	auth.Get("/me", middleware.Auth(cfg.JWTSecret), authH.Me)

	// Widget endpoints (public; the session id is the correlation key)
	chatH := handler.NewChatHandler(lifecycle, router)
	chats := api.Group("/chats")
	chats.Post("/start", middleware.RateLimit(30, time.Minute), chatH.Start)
	chats.Post("/message", middleware.RateLimit(120, time.Minute), chatH.PostWidgetMessage)
	chats.Get("/messages", chatH.WidgetMessages)
	chats.Get("/assignment/:sessionId", chatH.Assignment)

	surveyH := handler.NewSurveyHandler(surveyRepo)
	api.Post("/surveys/submit", middleware.RateLimit(10, time.Minute), surveyH.Submit)

	offlineH := handler.NewOfflineHandler(offlineRepo)
	api.Post("/offline-messages", middleware.RateLimit(10, time.Minute), offlineH.Submit)

	// JWT-protected dashboard routes
	protected := api.Group("", middleware.Auth(cfg.JWTSecret))

	protected.Get("/chats/sessions", chatH.ListSessions)
	protected.Get("/chats/sessions/:sessionId", chatH.GetSession)
	protected.Post("/chats/sessions/:sessionId/assign", chatH.AssignSession)
	protected.Post("/chats/sessions/:sessionId/close", chatH.CloseSession)
	protected.Post("/chats/sessions/:sessionId/messages", chatH.PostAgentMessage)
	protected.Get("/chats/:sessionId/messages", chatH.AgentMessages)
	protected.Post("/chats/assign", chatH.Assign)
	protected.Post("/chats/close", chatH.Close)
	protected.Delete("/chats/delete", chatH.Delete)

	agentH := handler.NewAgentHandler(agentRepo)
	agents := protected.Group("/agents")
	agents.Get("/", agentH.List)
	agents.Post("/", agentH.Create)
	agents.Get("/:id", agentH.Get)
	agents.Put("/:id", agentH.Update)
	agents.Post("/:id/change-password", agentH.ChangePassword)
	agents.Get("/:id/stats", agentH.Stats)
	agents.Delete("/:id", agentH.Delete)

	websiteH := handler.NewWebsiteHandler(websiteRepo)
	websites := protected.Group("/websites")
	websites.Get("/", websiteH.List)
	websites.Post("/register", websiteH.Register)
	websites.Get("/:id", websiteH.Get)
	websites.Put("/:id", websiteH.Update)
	websites.Post("/:id/regenerate-key", websiteH.RegenerateKey)
	websites.Get("/:id/stats", websiteH.Stats)
	websites.Delete("/:id", websiteH.Delete)

	protected.Get("/surveys/list", surveyH.List)
	protected.Get("/surveys/stats", surveyH.Stats)
	protected.Get("/surveys/:id", surveyH.Get)

	protected.Get("/offline-messages", offlineH.List)
	protected.Put("/offline-messages/:id/handled", offlineH.MarkHandled)

	// WebSocket
	wsH := handler.NewWSHandler(hub, authSvc)
	app.Get("/ws", wsH.Upgrade)

	// Start hub
	go hub.Run()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("Live chat backend running on :%s (%s)", cfg.Port, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	hub.Shutdown()
	log.Println("Server stopped")
}
