package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// AdminMiddleware admits only the listed user ids. It runs after
// LocalAuthMiddleware; an empty list locks the admin routes entirely.
func AdminMiddleware(adminUserIDs []string) fiber.Handler {
	admins := make(map[string]struct{}, len(adminUserIDs))
	for _, id := range adminUserIDs {
		admins[id] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		userID := LocalString(c, LocalUserID)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if _, ok := admins[userID]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}

		return c.Next()
	}
}
