package main

import (
	"bytes"
	"context"
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"

	"atelier/internal/auth"
	"atelier/internal/config"
	"atelier/internal/domain"
	"atelier/internal/domain/services"
	"atelier/internal/mediatypes"
	"atelier/internal/repository/postgres"
	"atelier/internal/service"
	"atelier/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed content")
	clearData := flag.Bool("clear-data", false, "Clear all reflections, tags and albums (keep schema)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *clearData {
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	// Exit early if schema-only mode
	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Exit early if clear-data mode (just clear and exit)
	if *clearData {
		log.Println("🧹 Clearing existing content...")
		if err := clearContent(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	// Ensure the demo author exists in Supabase Auth
	demoEmail := getenv("SEED_EMAIL", "demo@atelier.dev")
	demoPassword := getenv("SEED_PASSWORD", "atelier-demo-password")

	adminClient := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey)
	authorID, err := adminClient.EnsureUser(demoEmail, demoPassword)
	if err != nil {
		log.Fatalf("Failed to ensure demo author: %v", err)
	}
	log.Printf("👤 Demo author ready: %s (%s)", demoEmail, authorID)

	// Create repositories and services (content goes through the same
	// code paths the API uses)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	reflectionRepo := postgres.NewReflectionRepository(repoConfig)
	tagRepo := postgres.NewTagRepository(repoConfig)
	albumRepo := postgres.NewAlbumRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	store := storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StorageBucket, logger)
	mediaRegistry, err := mediatypes.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load media type registry: %v", err)
	}

	reflectionService := service.NewReflectionService(reflectionRepo, tagRepo, txManager, logger)
	albumService := service.NewAlbumService(albumRepo, store, mediaRegistry, txManager, logger)

	author := domain.NewPrincipal(authorID)

	// Clear existing content so seeding stays repeatable
	log.Println("⚠️  Clearing existing content...")
	if err := clearContent(ctx, pool, tables); err != nil {
		log.Printf("Warning: Could not clear data: %v", err)
	}

	// Seed reflections
	log.Println("📝 Seeding reflections...")
	for i, req := range seedReflections() {
		reflection, err := reflectionService.CreateReflection(ctx, author, req)
		if err != nil {
			log.Printf("❌ Failed to create reflection '%s': %v", req.Title, err)
			continue
		}

		if req.Status == domain.StatusPublished {
			if reflection, err = reflectionService.PublishReflection(ctx, author, reflection.ID); err != nil {
				log.Printf("❌ Failed to publish reflection '%s': %v", req.Title, err)
				continue
			}
		}

		log.Printf("✅ Created reflection %d: %s (status: %s, slug: %s)",
			i+1, reflection.Title, reflection.Status, reflection.Slug)
	}

	// Seed one album with generated placeholder images
	log.Println("📷 Seeding album...")
	album, err := albumService.CreateAlbum(ctx, author, seedAlbum())
	if err != nil {
		log.Printf("❌ Failed to create album: %v", err)
	} else {
		log.Printf("✅ Created album: %s (%d images)", album.Title, len(album.Images))
	}

	log.Println("🎉 Seeding complete!")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	_, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"")
	if err != nil {
		return err
	}

	// Albums and images come first: reflections reference images for
	// their featured image.
	createAlbums := `
		CREATE TABLE IF NOT EXISTS ` + tables.Albums + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			uploaded_by UUID NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			location TEXT,
			taken_on DATE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createAlbums); err != nil {
		return err
	}

	createImages := `
		CREATE TABLE IF NOT EXISTS ` + tables.Images + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			album_id UUID NOT NULL REFERENCES ` + tables.Albums + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			url TEXT NOT NULL,
			storage_path TEXT NOT NULL,
			width INTEGER,
			height INTEGER,
			size_bytes BIGINT,
			alt TEXT,
			caption TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createImages); err != nil {
		return err
	}

	createReflections := `
		CREATE TABLE IF NOT EXISTS ` + tables.Reflections + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			author_id UUID NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			publish_date TIMESTAMPTZ,
			title TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			body TEXT NOT NULL,
			excerpt TEXT,
			featured_image_id UUID REFERENCES ` + tables.Images + `(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createReflections); err != nil {
		return err
	}

	createTags := `
		CREATE TABLE IF NOT EXISTS ` + tables.Tags + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL UNIQUE,
			slug TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createTags); err != nil {
		return err
	}

	createReflectionTags := `
		CREATE TABLE IF NOT EXISTS ` + tables.ReflectionTags + ` (
			reflection_id UUID NOT NULL REFERENCES ` + tables.Reflections + `(id) ON DELETE CASCADE,
			tag_id UUID NOT NULL REFERENCES ` + tables.Tags + `(id) ON DELETE CASCADE,
			assigned_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (reflection_id, tag_id)
		)
	`
	if _, err := pool.Exec(ctx, createReflectionTags); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `reflections_status_publish ON ` + tables.Reflections + `(status, publish_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `reflections_author ON ` + tables.Reflections + `(author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `images_album ON ` + tables.Images + `(album_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `reflection_tags_tag ON ` + tables.ReflectionTags + `(tag_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.ReflectionTags,
		tables.Reflections,
		tables.Tags,
		tables.Images,
		tables.Albums,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}

	return nil
}

// clearContent removes all content rows, child tables first
func clearContent(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.ReflectionTags,
		tables.Reflections,
		tables.Tags,
		tables.Images,
		tables.Albums,
	}

	for _, table := range tableNames {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	return nil
}

func seedReflections() []*services.CreateReflectionRequest {
	excerpt := "Notes from rebuilding this site with a Go backend."
	return []*services.CreateReflectionRequest{
		{
			Title:   "Rebuilding the Backend in Go",
			Body:    "The old backend grew out of a weekend project and it showed. This rewrite moves everything behind a small REST API: reflections with a draft lifecycle, albums backed by object storage, and one place where ownership rules live instead of five.",
			Excerpt: &excerpt,
			Status:  domain.StatusPublished,
			Tags:    []string{"Go", "Meta"},
		},
		{
			Title:  "Three Weeks of Film Photography",
			Body:   "I left the digital camera at home for three weeks and carried a film body instead. Thirty-six frames per roll changes how you look at a scene. Most of what I learned was about patience, not photography.",
			Status: domain.StatusPublished,
			Tags:   []string{"Photography"},
		},
		{
			Title:  "Draft: Ideas for the Next Trip",
			Body:   "Unsorted notes. The coast road in October, the night train option, whether the big lens earns its weight.",
			Status: domain.StatusDraft,
			Tags:   []string{"Travel"},
		},
	}
}

// seedAlbum builds an album request with small generated PNGs, so
// seeding exercises the real storage upload path.
func seedAlbum() *services.CreateAlbumRequest {
	location := "Dolomites, Italy"
	alt := "placeholder"
	return &services.CreateAlbumRequest{
		Title:    "Sample Album",
		Location: &location,
		Uploads: []services.ImageUpload{
			{
				Filename:    "sample-1.png",
				ContentType: "image/png",
				Data:        placeholderPNG(color.RGBA{R: 0x2b, G: 0x6c, B: 0xb0, A: 0xff}),
				Alt:         &alt,
			},
			{
				Filename:    "sample-2.png",
				ContentType: "image/png",
				Data:        placeholderPNG(color.RGBA{R: 0xb0, G: 0x6c, B: 0x2b, A: 0xff}),
			},
		},
	}
}

// placeholderPNG encodes a tiny solid-color PNG.
func placeholderPNG(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
