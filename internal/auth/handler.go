package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nexus-hr/treasury/internal/actor"
)

// Handler exposes operator login.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ActorID     string `json:"actor_id"`
	Role        string `json:"role"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login validates credentials and returns an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	a, token, err := h.svc.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, actor.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(loginResponse{
		ActorID:     a.ID,
		Role:        a.Role,
		AccessToken: token.AccessToken,
		ExpiresIn:   token.ExpiresIn,
	})
}
