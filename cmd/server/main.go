package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"atelier/internal/auth"
	"atelier/internal/config"
	"atelier/internal/handler"
	"atelier/internal/mediatypes"
	"atelier/internal/middleware"
	"atelier/internal/repository/postgres"
	"atelier/internal/service"
	"atelier/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logOutput := io.Writer(os.Stdout)
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	reflectionRepo := postgres.NewReflectionRepository(repoConfig)
	tagRepo := postgres.NewTagRepository(repoConfig)
	albumRepo := postgres.NewAlbumRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Object storage client for album images
	store := storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StorageBucket, logger)

	// Accepted image content types
	mediaRegistry, err := mediatypes.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load media type registry: %v", err)
	}

	// Create services
	reflectionService := service.NewReflectionService(reflectionRepo, tagRepo, txManager, logger)
	albumService := service.NewAlbumService(albumRepo, store, mediaRegistry, txManager, logger)
	tagService := service.NewTagService(tagRepo, logger)

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	reflectionHandler := handler.NewReflectionHandler(reflectionService, logger)
	albumHandler := handler.NewAlbumHandler(albumService, logger)
	tagHandler := handler.NewTagHandler(tagService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", healthHandler.Check)

	// Reflection routes
	mux.HandleFunc("POST /reflections/create", reflectionHandler.CreateReflection)
	mux.HandleFunc("GET /reflections", reflectionHandler.ListReflections)
	mux.HandleFunc("GET /reflections/{id}", reflectionHandler.GetReflection)
	mux.HandleFunc("PUT /reflections/{id}", reflectionHandler.UpdateReflection)
	mux.HandleFunc("PATCH /reflections/{id}/publish", reflectionHandler.PublishReflection)
	mux.HandleFunc("DELETE /reflections/{id}", reflectionHandler.DeleteReflection)

	// Album routes
	mux.HandleFunc("POST /albums/create", albumHandler.CreateAlbum)
	mux.HandleFunc("GET /albums", albumHandler.ListAlbums)
	mux.HandleFunc("GET /albums/{id}", albumHandler.GetAlbum)
	mux.HandleFunc("PUT /albums/{id}", albumHandler.UpdateAlbum)
	mux.HandleFunc("DELETE /albums/{id}", albumHandler.DeleteAlbum)
	mux.HandleFunc("DELETE /albums/{albumId}/images/{imageId}", albumHandler.DeleteImage)

	// Tag routes
	mux.HandleFunc("GET /tags", tagHandler.ListTags)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	httpHandler = middleware.AuthMiddleware(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server. Read/write timeouts are generous because album
	// requests carry multi-megabyte image payloads.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
