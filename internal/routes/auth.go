package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldnotes/sightings/internal/auth"
)

// RegisterAuthRoutes wires account and credential endpoints. The rate limiter
// guards the two endpoints that accept guessable secrets.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/register", h.Register)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
		group.Post("/reset-password", rateLimiter, h.ResetPassword)
	} else {
		group.Post("/login", h.Login)
		group.Post("/reset-password", h.ResetPassword)
	}
	group.Post("/renew-token", h.Renew)
	group.Post("/set-password", h.SetPassword)
}
