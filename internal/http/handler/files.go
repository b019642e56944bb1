package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"normas/internal/storage"
)

// ServeFile streams a stored object by key.
//
// @Summary Stream a stored PDF
// @Tags files
// @Produce application/pdf
// @Param key path string true "Object key"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Router /files/{key} [get]
func ServeFile(store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, info, err := store.Get(c.UserContext(), c.Params("key"))
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusBadGateway, "REMOTE_ERROR", "object store unavailable")
		}

		ct := info.ContentType
		if ct == "" {
			ct = "application/pdf"
		}
		c.Set(fiber.HeaderContentType, ct)
		return c.SendStream(rc, int(info.Size))
	}
}
