package handlers

import (
	"organization_service/internal/models"
	"organization_service/internal/repository"
	"organization_service/internal/service"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type PrincipalHandler struct {
	principalRepo *repository.PrincipalRepository
	jwtService    *service.JWTService
}

func NewPrincipalHandler(principalRepo *repository.PrincipalRepository, jwtService *service.JWTService) *PrincipalHandler {
	return &PrincipalHandler{
		principalRepo: principalRepo,
		jwtService:    jwtService,
	}
}

func (h *PrincipalHandler) RegisterRoutes(app *fiber.App) {
	// Token issuance sits outside the protected group; it is how a caller
	// obtains the bearer token the group requires.
	app.Post("/auth/token", h.IssueToken)

	principalGroup := app.Group("/protected/org/principals")
	principalGroup.Post("/", h.CreatePrincipal)
	principalGroup.Get("/", h.GetAllPrincipals)
	principalGroup.Put("/:id/super-admin", h.SetSuperAdmin)
}

func (h *PrincipalHandler) IssueToken(c fiber.Ctx) error {
	var request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	principal, err := h.principalRepo.FindByEmail(c.Context(), request.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if principal == nil || !principal.IsActive || !h.principalRepo.VerifyPassword(principal, request.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := h.jwtService.GenerateNewToken(principal.ID.Hex(), principal.Username, principal.Email, principal.IsSuperAdmin)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"token": token,
		},
	})
}

func (h *PrincipalHandler) CreatePrincipal(c fiber.Ctx) error {
	var request struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if request.Email == "" || request.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	principal := &models.Principal{
		Email:    request.Email,
		Username: request.Username,
	}
	created, err := h.principalRepo.Create(c.Context(), principal, request.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": created,
	})
}

func (h *PrincipalHandler) GetAllPrincipals(c fiber.Ctx) error {
	page := fiber.Query(c, "page", 1)
	limit := fiber.Query(c, "limit", 10)

	principals, err := h.principalRepo.FindAll(c.Context(), page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": principals,
	})
}

func (h *PrincipalHandler) SetSuperAdmin(c fiber.Ctx) error {
	claims := claimsFrom(c)
	if claims == nil || !claims.IsSuperAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only a super admin may change the super admin flag",
		})
	}

	principalID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid principal ID format",
		})
	}

	var request struct {
		IsSuperAdmin bool `json:"isSuperAdmin"`
	}
	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.principalRepo.SetSuperAdmin(c.Context(), principalID, request.IsSuperAdmin); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
