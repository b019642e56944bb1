package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"normas/internal/category"
	"normas/internal/model"
	"normas/internal/search"
	"normas/internal/service"
)

type categorySummary struct {
	category.Definition
	Count int `json:"count"`
}

type indexResponse struct {
	Categories []categorySummary `json:"categories"`
	Total      int               `json:"total"`
	Loading    bool              `json:"loading"`
}

type categoryResponse struct {
	Category  categorySummary  `json:"category"`
	Query     string           `json:"query"`
	Documents []model.Document `json:"documents"`
	Count     int              `json:"count"`
	Loading   bool             `json:"loading"`
}

type documentResponse struct {
	model.Document
	LastUpdated time.Time `json:"last_updated"`
}

type viewerResponse struct {
	service.Presentation
	DownloadURL string `json:"download_url,omitempty"`
}

// Index lists every category with its document count.
//
// @Summary Category index
// @Tags catalog
// @Produce json
// @Success 200 {object} indexResponse
// @Router / [get]
func Index(catalog service.DocumentCatalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs := catalog.List()
		counts := search.CountByCategory(docs)

		res := indexResponse{Loading: catalog.Loading()}
		for _, def := range category.All() {
			res.Categories = append(res.Categories, categorySummary{Definition: def, Count: counts[def.ID]})
			res.Total += counts[def.ID]
		}
		return c.JSON(res)
	}
}

// CategoryView lists the documents of one category, optionally filtered by q.
//
// @Summary Documents of a category
// @Tags catalog
// @Produce json
// @Param id path string true "Category id"
// @Param q query string false "Case-insensitive search over title, description and id"
// @Success 200 {object} categoryResponse
// @Failure 404 {object} errorPayload
// @Router /categories/{id} [get]
func CategoryView(catalog service.DocumentCatalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		def, ok := category.LookupID(c.Params("id"))
		if !ok {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "category not found")
		}

		all := catalog.List()
		query := c.Query("q")
		docs := search.Filter(all, def.ID, query)

		return c.JSON(categoryResponse{
			Category:  categorySummary{Definition: def, Count: search.CountByCategory(all)[def.ID]},
			Query:     query,
			Documents: docs,
			Count:     len(docs),
			Loading:   catalog.Loading(),
		})
	}
}

// Refresh re-fetches the catalog from the remote store.
//
// @Summary Refresh the catalog
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 502 {object} errorPayload
// @Router /refresh [post]
func Refresh(catalog service.DocumentCatalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := catalog.Refresh(c.UserContext()); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"count": len(catalog.List())})
	}
}

// GetDocument returns one cached document.
//
// @Summary Get a document
// @Tags documents
// @Produce json
// @Param id path string true "Document id"
// @Success 200 {object} documentResponse
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument(catalog service.DocumentCatalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, ok := catalog.Get(c.Params("id"))
		if !ok {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		return c.JSON(documentResponse{Document: doc, LastUpdated: doc.LastUpdated()})
	}
}

// ViewDocument returns how to present a document's PDF.
//
// @Summary Present a document
// @Tags documents
// @Produce json
// @Param id path string true "Document id"
// @Success 200 {object} viewerResponse
// @Failure 404 {object} errorPayload
// @Router /documents/{id}/viewer [get]
func ViewDocument(catalog service.DocumentCatalog, viewer service.DocumentViewer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, ok := catalog.Get(c.Params("id"))
		if !ok {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		res := viewerResponse{Presentation: viewer.Present(doc)}
		if res.Mode == service.ModeEmbedded {
			res.DownloadURL = "/documents/" + doc.ID + "/download"
		}
		return c.JSON(res)
	}
}

// DownloadDocument streams a document's PDF as an attachment named after its title.
//
// @Summary Download a document
// @Tags documents
// @Produce application/pdf
// @Param id path string true "Document id"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /documents/{id}/download [get]
func DownloadDocument(catalog service.DocumentCatalog, viewer service.DocumentViewer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, ok := catalog.Get(c.Params("id"))
		if !ok {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}

		rc, att, err := viewer.Download(c.UserContext(), doc)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Attachment(att.Name)
		c.Set(fiber.HeaderContentType, att.ContentType)
		// fasthttp closes rc once the body has been written.
		return c.SendStream(rc, int(att.Size))
	}
}
