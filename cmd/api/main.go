package main

import (
	"context"
	"database/sql"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"normas/docs"
	"normas/internal/category"
	"normas/internal/config"
	"normas/internal/database"
	"normas/internal/database/migration"
	handlers "normas/internal/http/handler"
	"normas/internal/http/middleware"
	"normas/internal/logger"
	"normas/internal/metrics"
	"normas/internal/otel"
	"normas/internal/repository"
	"normas/internal/repository/memory"
	"normas/internal/repository/postgres"
	"normas/internal/service"
	"normas/internal/storage"
)

// bodyLimit leaves headroom above service.MaxUploadSize so oversize PDFs reach the editor's check.
const bodyLimit = 25 << 20

// @title Normas API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name apikey
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	appLog := logger.New(os.Stdout, cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, appLog)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}

	repo, db := openRepository(ctx, cfg, appLog)
	if db != nil {
		defer db.Close()
	}
	objStore := openStorage(cfg, appLog)

	if cfg.SeedSampleData && cfg.Database.InMemory() {
		seed(ctx, repo, appLog)
	}

	catalog := service.NewCatalog(repo, objStore, appLog)
	defer catalog.Close()
	if err := catalog.Start(ctx); err != nil {
		// The catalog stays usable and empty; POST /refresh retries.
		appLog.Error("catalog_initial_load_failed", err, nil)
	}

	editor := service.NewEditor(catalog, objStore, appLog)
	viewer := service.NewViewer(objStore, nil, time.Duration(cfg.DownloadTimeoutSec)*time.Second, appLog)
	reconciler := service.NewReconciler(repo, objStore, appLog)
	if cfg.ReconcileIntervalSec > 0 {
		go reconciler.Loop(ctx, time.Duration(cfg.ReconcileIntervalSec)*time.Second)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	catalogMetrics, err := metrics.NewCatalogCollector(reg)
	if err != nil {
		log.Fatalf("failed to register catalog metrics: %v", err)
	}
	catalogMetrics.Watch(catalog)
	defer catalogMetrics.Stop()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    bodyLimit,
		Immutable:    true,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(appLog))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	deps := handlers.Dependencies{
		Catalog:    catalog,
		Editor:     editor,
		Viewer:     viewer,
		Reconciler: reconciler,
		Store:      objStore,
		APIKey:     cfg.APIKey,
	}
	if db != nil {
		deps.DB = db
	}
	handlers.RegisterRoutes(app, deps)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		appLog.Info("server_shutdown", nil)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			appLog.Error("server_shutdown_failed", err, nil)
		}
	}()

	addr := ":" + cfg.Port
	appLog.Info("server_start", map[string]any{"addr": addr})
	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		appLog.Error("tracing_shutdown_failed", err, nil)
	}
}

// openRepository connects to PostgreSQL and migrates it, or returns the in-process store.
func openRepository(ctx context.Context, cfg *config.AppConfig, appLog *logger.Logger) (repository.DocumentRepository, *sql.DB) {
	if cfg.Database.InMemory() {
		appLog.Info("document_store_selected", map[string]any{"backend": "memory"})
		return memory.NewDocumentMemory(), nil
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := migration.EnsureMigrated(ctx, db, appLog, dbHost(cfg.Database)); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	appLog.Info("document_store_selected", map[string]any{"backend": "postgres"})
	return postgres.NewDocumentPostgres(db), db
}

// openStorage connects to MinIO, or returns the in-process store served under /files.
func openStorage(cfg *config.AppConfig, appLog *logger.Logger) storage.Storage {
	if cfg.MinIO.Endpoint == "" || cfg.MinIO.InMemory() {
		base := cfg.MinIO.PublicURL
		if base == "" {
			base = "http://" + cfg.AppHost + "/files"
		}
		appLog.Info("object_store_selected", map[string]any{"backend": "memory", "public_url": base})
		return storage.NewMemory(base, "")
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}
	appLog.Info("object_store_selected", map[string]any{"backend": "minio", "bucket": cfg.MinIO.Bucket})
	return objStore
}

func seed(ctx context.Context, repo repository.DocumentRepository, appLog *logger.Logger) {
	existing, err := repo.List(ctx)
	if err != nil || len(existing) > 0 {
		return
	}
	for _, doc := range category.SeedDocuments() {
		if _, err := repo.Create(ctx, &doc); err != nil {
			appLog.Error("seed_failed", err, map[string]any{"document_id": doc.ID})
			return
		}
	}
	appLog.Info("seed_loaded", map[string]any{"count": len(category.SeedDocuments())})
}

func dbHost(c config.DatabaseConfig) string {
	if c.URL != "" {
		if u, err := url.Parse(c.URL); err == nil {
			return u.Hostname()
		}
	}
	return c.Host
}
