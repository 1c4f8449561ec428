package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nexus-hr/treasury/internal/auth"
	"github.com/nexus-hr/treasury/internal/middleware"
	"github.com/nexus-hr/treasury/internal/reporting"
	"github.com/nexus-hr/treasury/internal/topup"
	"github.com/nexus-hr/treasury/internal/webhook"
)

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps, comps *Components) {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	RegisterHealthRoutes(app, d)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterWebhookRoutes(api, webhook.NewHandler(comps.Ingestion, d.Logger), middleware.WebhookAPIKey(d.Cfg.WebhookAPIKeyHash))
	RegisterAuthRoutes(api, auth.NewHandler(comps.Auth), middleware.LoginRateLimit(d.Cache, 5))

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(comps.Auth), middleware.Audit(d.Logger))
	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	RegisterTopupRoutes(protected, topup.NewHandler(comps.Topups), idempotency)
	RegisterBankRoutes(protected, reporting.NewHandler(comps.Reporting, d.Cfg.Location()))
	RegisterActorRoutes(protected, comps.Actors, d.Logger)
}
