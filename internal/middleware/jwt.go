package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nexus-hr/treasury/internal/auth"
)

const (
	// ActorIDKey holds the authenticated actor id in fiber locals.
	ActorIDKey   = "actor_id"
	actorRoleKey = "actor_role"
)

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// JWTAuth rejects requests without a valid bearer token and exposes the
// actor id to handlers.
func JWTAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		claims, err := verifier.Verify(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals(ActorIDKey, claims.Subject)
		c.Locals(actorRoleKey, claims.Role)
		return c.Next()
	}
}

// RequireRole allows the request only when the authenticated actor holds role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if got, _ := c.Locals(actorRoleKey).(string); got != role {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}
