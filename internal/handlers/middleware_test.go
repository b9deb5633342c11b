package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"organization_service/internal/config"
	"organization_service/internal/service"

	"github.com/gofiber/fiber/v3"
)

func protectedTestApp(jwtService *service.JWTService) *fiber.App {
	app := fiber.New()
	app.Use("/protected", RequireAuth(jwtService))
	app.Get("/protected/whoami", func(c fiber.Ctx) error {
		claims := claimsFrom(c)
		if claims == nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{
			"principalId":  claims.PrincipalID,
			"isSuperAdmin": claims.IsSuperAdmin,
		})
	})
	return app
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	jwtService := service.NewJWTService(&config.Config{JWTSecret: "test-secret", JWTExpired: 1})
	app := protectedTestApp(jwtService)

	resp, err := app.Test(httptest.NewRequest("GET", "/protected/whoami", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status without token = %d, want %d", resp.StatusCode, fiber.StatusUnauthorized)
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	issuer := service.NewJWTService(&config.Config{JWTSecret: "secret-a", JWTExpired: 1})
	verifier := service.NewJWTService(&config.Config{JWTSecret: "secret-b", JWTExpired: 1})
	app := protectedTestApp(verifier)

	token, err := issuer.GenerateNewToken("68b100000000000000000001", "pastor", "pastor@example.org", false)
	if err != nil {
		t.Fatalf("GenerateNewToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status with foreign token = %d, want %d", resp.StatusCode, fiber.StatusUnauthorized)
	}
}

func TestRequireAuthPopulatesClaims(t *testing.T) {
	jwtService := service.NewJWTService(&config.Config{JWTSecret: "test-secret", JWTExpired: 1})
	app := protectedTestApp(jwtService)

	token, err := jwtService.GenerateNewToken("68b100000000000000000001", "pastor", "pastor@example.org", true)
	if err != nil {
		t.Fatalf("GenerateNewToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status with valid token = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}

	var body struct {
		PrincipalID  string `json:"principalId"`
		IsSuperAdmin bool   `json:"isSuperAdmin"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.PrincipalID != "68b100000000000000000001" {
		t.Errorf("principalId = %q, want the token's subject", body.PrincipalID)
	}
	if !body.IsSuperAdmin {
		t.Error("super admin flag should come through the claims")
	}
}
