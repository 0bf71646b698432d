package middlewares

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

const RequestIDHeader = "X-Request-ID"

func NewHTTPRequestIDMiddleware() fiber.Handler {
	return requestid.New(requestid.Config{
		Header: RequestIDHeader,
	})
}

func RequestIDFromContext(c fiber.Ctx) string {
	if requestID := requestid.FromContext(c); requestID != "" {
		return requestID
	}
	return c.Get(RequestIDHeader)
}
