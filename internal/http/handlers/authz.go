package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

// RequireAdmin answers 401 unless the sid cookie is bound to an admin.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		a, err := auth.CurrentAdmin(c.UserContext(), sid)
		if err != nil || a == nil {
			log.Security(c, "access.denied.admin", map[string]any{"has_sid": sid != ""})
			return c.Status(fiber.StatusUnauthorized).JSON(errorBody{Error: services.ErrAuthRequired.Error()})
		}
		c.Locals("adminID", a.ID)
		c.Locals("admin", a)
		return c.Next()
	}
}
