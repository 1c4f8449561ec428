package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nexus-hr/treasury/internal/actor"
	"github.com/nexus-hr/treasury/internal/middleware"
)

// RegisterActorRoutes lets admins create operator accounts.
func RegisterActorRoutes(r fiber.Router, actors *actor.Service, logger *slog.Logger) {
	r.Post("/actors", middleware.RequireRole(actor.RoleAdmin), func(c *fiber.Ctx) error {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if req.Role != "" && req.Role != actor.RoleAdmin && req.Role != actor.RoleStaff {
			return fiber.NewError(http.StatusBadRequest, "role must be admin or staff")
		}

		a, err := actors.Register(c.UserContext(), actor.RegisterInput{Username: req.Username, Password: req.Password, Role: req.Role})
		switch {
		case errors.Is(err, actor.ErrDuplicateUsername):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, actor.ErrUsernameRequired), errors.Is(err, actor.ErrWeakPassword):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case err != nil:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}

		createdBy, _ := c.Locals(middleware.ActorIDKey).(string)
		logger.Info("actor created",
			slog.String("actor_id", a.ID),
			slog.String("username", a.Username),
			slog.String("role", a.Role),
			slog.String("created_by", createdBy),
		)
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"actor_id": a.ID,
			"username": a.Username,
			"role":     a.Role,
		})
	})
}
