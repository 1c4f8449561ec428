package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const apiKeyScheme = "apikey "

// WebhookAPIKey checks "Authorization: Apikey <key>" against a bcrypt hash.
// An empty hash disables the check.
func WebhookAPIKey(hash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hash == "" {
			return c.Next()
		}
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) <= len(apiKeyScheme) || !strings.EqualFold(authz[:len(apiKeyScheme)], apiKeyScheme) {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "missing api key"})
		}
		key := strings.TrimSpace(authz[len(apiKeyScheme):])
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "invalid api key"})
		}
		return c.Next()
	}
}
