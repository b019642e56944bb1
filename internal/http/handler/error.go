package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"normas/internal/http/middleware"
	"normas/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
	// Draft echoes the submitted form back so the client can keep it on failure.
	Draft *service.Draft `json:"draft,omitempty"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// classify maps a service error to its HTTP status, code and safe message.
func classify(err error) (int, string, string) {
	var (
		validation *service.ValidationError
		notFound   *service.NotFoundError
		upload     *service.UploadError
		remote     *service.RemoteError
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, "VALIDATION_ERROR", validation.Error()
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, "NOT_FOUND", "document not found"
	case errors.Is(err, service.ErrNoDocument):
		return fiber.StatusNotFound, "NO_DOCUMENT", "document has no pdf"
	case errors.As(err, &upload):
		return fiber.StatusBadGateway, "UPLOAD_ERROR", "file upload failed"
	case errors.As(err, &remote):
		return fiber.StatusBadGateway, "REMOTE_ERROR", "remote store unavailable"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

func writeServiceError(c *fiber.Ctx, err error) error {
	status, code, message := classify(err)
	return writeError(c, status, code, message)
}

// writeDraftError is writeServiceError that also returns the rejected draft.
func writeDraftError(c *fiber.Ctx, err error, draft service.Draft) error {
	status, code, message := classify(err)
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error:     errorEnvelope{Code: code, Message: message},
		Draft:     &draft,
	})
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "missing or invalid api key")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
