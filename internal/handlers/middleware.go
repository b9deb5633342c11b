package handlers

import (
	"strings"

	"organization_service/internal/models"
	"organization_service/internal/service"

	"github.com/gofiber/fiber/v3"
)

const claimsKey = "claims"

// RequireAuth parses the bearer token and stores the verified claims for the
// protected routes. Requests without a valid token never reach a handler.
func RequireAuth(jwtService *service.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		token, found := strings.CutPrefix(c.Get("Authorization"), "Bearer ")
		if !found || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}

		claims, err := jwtService.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

func claimsFrom(c fiber.Ctx) *models.Claims {
	claims, _ := c.Locals(claimsKey).(*models.Claims)
	return claims
}
