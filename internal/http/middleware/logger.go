package middleware

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger emits one JSON object per request to stdout: ts, request_id, method,
// path, status, response size and latency in milliseconds.
func Logger() fiber.Handler {
	return LoggerWithWriter(os.Stdout)
}

// LoggerWithWriter is Logger with a custom destination, mainly for tests.
func LoggerWithWriter(w io.Writer) fiber.Handler {
	enc := json.NewEncoder(w)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Collect fields after the handler ran so the final status is seen.
		rid, _ := c.Locals(RequestIDLocalKey).(string)

		_ = enc.Encode(map[string]any{
			"ts":         start.UTC().Format(time.RFC3339Nano),
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"bytes":      len(c.Response().Body()),
			"latency":    float64(time.Since(start).Milliseconds()),
		})

		return err
	}
}
