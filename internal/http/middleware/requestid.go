package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID between client, server and response.
const RequestIDHeader = "X-Request-ID"

// RequestIDLocalKey is where the resolved ID lives in the request locals; the
// logger and the error payloads read it from there.
const RequestIDLocalKey = "request_id"

// RequestID tags every request with an ID: a client-supplied X-Request-ID is
// kept, otherwise a fresh UUID is minted. The ID is stored in the locals and
// echoed on the response so callers can correlate logs with replies.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := requestID(c)
		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	if id := c.Get(RequestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}
