package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldnotes/sightings/internal/identity"
	"github.com/fieldnotes/sightings/internal/middleware"
	"github.com/fieldnotes/sightings/internal/sightings"
)

// RegisterSightingRoutes wires sighting endpoints. Reads are public; writes
// require authentication and deletion is admin-only.
func RegisterSightingRoutes(r fiber.Router, h *sightings.Handler, authenticate fiber.Handler) {
	r.Get("/sightings", h.List)
	r.Get("/sightings/:code", h.Get)
	r.Post("/sightings", authenticate, h.Create)
	r.Put("/sightings/:code", authenticate, h.Update)
	r.Delete("/sightings/:code", authenticate, middleware.RequireRole(identity.RoleAdmin), h.Delete)
}
