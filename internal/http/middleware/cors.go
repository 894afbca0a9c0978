package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CORS allows browser extensions and bookmarklets hosted on the listed origins
// to call the API. An empty list or "*" allows any origin.
func CORS(origins []string) fiber.Handler {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin != "" {
			if _, ok := allowed[origin]; allowAll || ok {
				c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
				c.Set(fiber.HeaderVary, fiber.HeaderOrigin)
				c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				c.Set(fiber.HeaderAccessControlAllowHeaders, "Origin, Content-Type, Accept, "+UserIDHeader+", "+RequestIDHeader)
				c.Set(fiber.HeaderAccessControlMaxAge, "86400")
			}
		}

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
