package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	UserIDHeader = "X-User-ID"
	userIDKey    = "user_id"
)

// Identity reads the authenticated user id set by the upstream proxy. Requests
// without a valid id are rejected with 401.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(UserIDHeader)
		id, err := strconv.ParseUint(raw, 10, 64)
		if raw == "" || err != nil || id == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid " + UserIDHeader + " header",
			})
		}
		c.Locals(userIDKey, uint(id))
		return c.Next()
	}
}

// UserID returns the id stored by Identity, or false when the request is anonymous.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(userIDKey).(uint)
	return id, ok
}
