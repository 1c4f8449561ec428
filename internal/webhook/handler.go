package webhook

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler receives gateway webhooks.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a webhook handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Receive acknowledges every delivery it can parse so the gateway stops
// retrying. Storage failures return 500 and are safe to retry.
func (h *Handler) Receive(c *fiber.Ctx) error {
	out, err := h.service.Ingest(c.UserContext(), c.Body())
	if err != nil {
		if errors.Is(err, ErrMalformedPayload) {
			h.logger.Warn("webhook rejected", slog.Any("error", err))
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid json"})
		}
		h.logger.Error("webhook processing failed", slog.String("ref_id", out.RefID), slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
}
