package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/blob"
	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError translates service-layer errors into the taxonomy callers
// can disambiguate: bad input, unknown target, or server failure.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrTitleRequired):
		return writeError(c, fiber.StatusBadRequest, "TITLE_REQUIRED", "title is required")
	case errors.Is(err, service.ErrFileRequired):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, blob.ErrExtensionNotAllowed):
		return writeError(c, fiber.StatusBadRequest, "FILE_TYPE_NOT_ALLOWED", "file type not allowed (allowed: pdf, docx, doc, txt)")
	case errors.Is(err, blob.ErrContentTypeNotAllowed):
		return writeError(c, fiber.StatusBadRequest, "CONTENT_TYPE_NOT_ALLOWED", "declared content type not allowed")
	case errors.Is(err, blob.ErrFileTooLarge):
		return writeError(c, fiber.StatusBadRequest, "FILE_TOO_LARGE", "file exceeds maximum allowed size")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "request body exceeds maximum allowed size")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
