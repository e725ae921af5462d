package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldnotes/sightings/internal/identity"
	"github.com/fieldnotes/sightings/internal/middleware"
)

// RegisterUserRoutes wires admin-only user management endpoints onto an
// already-authenticated router group.
func RegisterUserRoutes(r fiber.Router, ids *identity.Service) {
	r.Put("/users/:code/role", middleware.RequireRole(identity.RoleAdmin), func(c *fiber.Ctx) error {
		var req struct {
			Role string `json:"role"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		role, err := identity.ParseRole(req.Role)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		user, err := ids.SetRole(c.UserContext(), c.Params("code"), role)
		if err != nil {
			return err
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"user_code": user.UserCode,
			"role":      user.Role,
		})
	})
}
