package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nexus-hr/treasury/internal/reporting"
	"github.com/nexus-hr/treasury/internal/topup"
	"github.com/nexus-hr/treasury/internal/webhook"
)

// RegisterWebhookRoutes wires the gateway callback. guard may be nil.
func RegisterWebhookRoutes(r fiber.Router, h *webhook.Handler, guard fiber.Handler) {
	if guard != nil {
		r.Post("/webhooks/sepay", guard, h.Receive)
		return
	}
	r.Post("/webhooks/sepay", h.Receive)
}

// RegisterTopupRoutes wires top-up intents. idempotency may be nil.
func RegisterTopupRoutes(r fiber.Router, h *topup.Handler, idempotency fiber.Handler) {
	if idempotency != nil {
		r.Post("/topups", idempotency, h.Create)
	} else {
		r.Post("/topups", h.Create)
	}
	r.Get("/topups/:code", h.Status)
}

// RegisterBankRoutes wires the read-only bank views.
func RegisterBankRoutes(r fiber.Router, h *reporting.Handler) {
	group := r.Group("/bank")
	group.Get("/snapshot", h.Snapshot)
	group.Get("/history", h.History)
	group.Get("/unmatched", h.Unmatched)
	group.Get("/stats", h.Stats)
}
