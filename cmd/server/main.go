package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"chatrelay/internal/auth"
	"chatrelay/internal/catalog"
	"chatrelay/internal/config"
	"chatrelay/internal/handler"
	"chatrelay/internal/llm/bedrock"
	"chatrelay/internal/middleware"
	"chatrelay/internal/repository/postgres"
	chatService "chatrelay/internal/service/chat"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Token verifier for identity resolution
	verifier, err := auth.NewVerifier(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create token verifier: %v", err)
	}
	defer verifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	chatRepo := postgres.NewChatRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Model catalog
	modelCatalog, err := catalog.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load model catalog: %v", err)
	}

	// Generation backend. Constructed even when partially configured; a
	// misconfigured deployment starts, and every turn fails the
	// configuration check before touching the store.
	generator, err := bedrock.New(ctx, bedrock.Settings{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		ModelID:         cfg.BedrockModelID,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create generation backend: %v", err)
	}
	if err := generator.Ready(); err != nil {
		logger.Warn("generation backend not fully configured", "error", err.Error())
	}

	// Services
	svc := chatService.NewService(chatRepo, txManager, generator, modelCatalog, logger)

	// Handlers
	chatHandler := handler.NewChatHandler(svc, logger)
	modelsHandler := handler.NewModelsHandler(modelCatalog, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Chat routes
	mux.HandleFunc("POST /api/chat", chatHandler.CreateTurn)
	mux.HandleFunc("DELETE /api/chat", chatHandler.DeleteChat)
	mux.HandleFunc("GET /api/chat/{id}/messages", chatHandler.ListMessages)
	mux.HandleFunc("GET /api/history", chatHandler.History)

	// Model catalog
	mux.HandleFunc("GET /api/models", modelsHandler.List)

	// Build middleware chain (applied in reverse order, they wrap each other)
	// Order: CORS → Recovery → Identity → Routes
	var root http.Handler = mux
	root = middleware.Identity(verifier, logger)(root)
	root = middleware.Recovery(logger)(root)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // generation is one blocking round-trip
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
