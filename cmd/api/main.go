package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docvault/internal/blob"
	"docvault/internal/cache"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/otel"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	shutdownTracing, err := otel.Init(context.Background(), loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Apply schema on first boot; no-op when the tables already exist
	if err := migration.EnsureMigrated(context.Background(), db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Select the blob backend: local directory tree or S3-compatible storage
	var blobs blob.Store
	switch cfg.Storage.Backend {
	case "s3":
		blobs, err = blob.NewMinIO(cfg.MinIO, cfg.Storage.MaxUploadBytes)
	default:
		blobs, err = blob.NewFS(cfg.Storage.Path, cfg.Storage.MaxUploadBytes)
	}
	if err != nil {
		log.Fatalf("failed to initialize blob storage: %v", err)
	}

	// Optional Redis-backed tag cache; the service works without it
	var tagCache *cache.TagCache
	if cfg.Redis.URL != "" {
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		tagCache = cache.NewTagCache(rdb)
	}

	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(blobs, docRepo, tagCache)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Leave headroom above the upload cap so oversize detection happens
		// in the validation path, not as a blind 413.
		BodyLimit: int(cfg.Storage.MaxUploadBytes) + 1<<20,
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(prom.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, docSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
