package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nexus-hr/treasury/internal/auth"
)

// RegisterAuthRoutes wires operator login.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
}
