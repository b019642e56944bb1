package handler

import (
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"normas/internal/model"
	"normas/internal/service"
)

type adminListResponse struct {
	Documents []model.Document `json:"documents"`
	Count     int              `json:"count"`
	Loading   bool             `json:"loading"`
}

// ListAdminDocuments lists every document regardless of category.
//
// @Summary List all documents
// @Tags admin
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} adminListResponse
// @Failure 401 {object} errorPayload
// @Router /admin/documents [get]
func ListAdminDocuments(catalog service.DocumentCatalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs := catalog.List()
		return c.JSON(adminListResponse{Documents: docs, Count: len(docs), Loading: catalog.Loading()})
	}
}

// CreateDocument creates a document from a multipart form with an optional PDF file.
//
// @Summary Create a document
// @Tags admin
// @Security ApiKeyAuth
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param category formData string true "Category id"
// @Param description formData string false "Description"
// @Param pdf_url formData string false "External PDF URL"
// @Param file formData file false "PDF file (max 20 MiB)"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /admin/documents [post]
func CreateDocument(editor service.DocumentEditor) fiber.Handler {
	return submit(editor, fiber.StatusCreated)
}

// UpdateDocument updates a document, replacing its PDF when a file is sent.
//
// @Summary Update a document
// @Tags admin
// @Security ApiKeyAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Document id"
// @Param title formData string true "Title"
// @Param category formData string true "Category id"
// @Param description formData string false "Description"
// @Param pdf_url formData string false "External PDF URL"
// @Param file formData file false "Replacement PDF file (max 20 MiB)"
// @Param remove_file formData boolean false "Drop the current upload when no file is sent"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /admin/documents/{id} [put]
func UpdateDocument(editor service.DocumentEditor) fiber.Handler {
	return submit(editor, fiber.StatusOK)
}

func submit(editor service.DocumentEditor, successStatus int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Values outlive the request, so copy them off fiber's reused buffers.
		draft := service.Draft{
			ID:          utils.CopyString(c.Params("id")),
			Title:       utils.CopyString(c.FormValue("title")),
			Category:    model.Category(utils.CopyString(c.FormValue("category"))),
			Description: utils.CopyString(c.FormValue("description")),
			PDFURL:      utils.CopyString(c.FormValue("pdf_url")),
		}
		draft.RemoveFile, _ = strconv.ParseBool(c.FormValue("remove_file"))

		file, closer, err := pendingFile(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		if closer != nil {
			defer closer.Close()
		}

		doc, err := editor.Submit(c.UserContext(), draft, file)
		if err != nil {
			return writeDraftError(c, err, draft)
		}
		return c.Status(successStatus).JSON(doc)
	}
}

// pendingFile returns the "file" part of a multipart request, or nil when none was sent.
func pendingFile(c *fiber.Ctx) (*service.PendingFile, io.Closer, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// Not a multipart body: a plain form without a file.
		return nil, nil, nil
	}
	files := form.File["file"]
	if len(files) == 0 {
		return nil, nil, nil
	}
	return openPart(files[0])
}

func openPart(fh *multipart.FileHeader) (*service.PendingFile, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.PendingFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     f,
	}, f, nil
}

// DeleteDocument deletes a document and its uploaded PDF.
//
// @Summary Delete a document
// @Tags admin
// @Security ApiKeyAuth
// @Param id path string true "Document id"
// @Success 204
// @Failure 404 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /admin/documents/{id} [delete]
func DeleteDocument(catalog service.DocumentCatalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := catalog.Delete(c.UserContext(), utils.CopyString(c.Params("id"))); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Reconcile runs one orphaned-object sweep.
//
// @Summary Remove orphaned PDFs
// @Tags admin
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} service.ReconcileReport
// @Failure 502 {object} errorPayload
// @Router /admin/reconcile [post]
func Reconcile(reconciler service.OrphanReconciler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := reconciler.Run(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(report)
	}
}
