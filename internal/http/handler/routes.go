package handler

import (
	"github.com/gofiber/fiber/v2"

	"normas/internal/http/middleware"
	"normas/internal/service"
	"normas/internal/storage"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	// DB is pinged by /health. Leave nil when the in-process store is used.
	DB         Pinger
	Catalog    service.DocumentCatalog
	Editor     service.DocumentEditor
	Viewer     service.DocumentViewer
	Reconciler service.OrphanReconciler
	Store      storage.Storage
	APIKey     string
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())

	app.Get("/", Index(deps.Catalog))
	app.Get("/categories/:id", CategoryView(deps.Catalog))
	app.Post("/refresh", Refresh(deps.Catalog))

	app.Get("/documents/:id", GetDocument(deps.Catalog))
	app.Get("/documents/:id/viewer", ViewDocument(deps.Catalog, deps.Viewer))
	app.Get("/documents/:id/download", DownloadDocument(deps.Catalog, deps.Viewer))

	app.Get("/files/:key", ServeFile(deps.Store))

	admin := app.Group("/admin", middleware.APIKey(deps.APIKey))
	admin.Get("/documents", ListAdminDocuments(deps.Catalog))
	admin.Post("/documents", CreateDocument(deps.Editor))
	admin.Put("/documents/:id", UpdateDocument(deps.Editor))
	admin.Delete("/documents/:id", DeleteDocument(deps.Catalog))
	admin.Post("/reconcile", Reconcile(deps.Reconciler))
}
