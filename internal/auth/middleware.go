package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const UserIDKey = "userID"

// Required is the bearer-token middleware for the REST surface. The
// websocket session authenticates per inbound frame instead.
func Required(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		userID, err := ValidateToken(tokenString, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// Optional records the caller's identity when a valid token is present but
// never rejects. Used on public share routes to attribute viewers.
func Optional(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if tokenString != "" {
			if userID, err := ValidateToken(tokenString, secret); err == nil {
				c.Locals(UserIDKey, userID)
			}
		}
		return c.Next()
	}
}

func UserIDFromCtx(c *fiber.Ctx) (uint64, bool) {
	id, ok := c.Locals(UserIDKey).(uint64)
	return id, ok
}
