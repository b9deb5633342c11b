package handlers

import (
	"context"
	"errors"
	"log"

	"organization_service/internal/models"
	"organization_service/internal/service"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type RoleHandler struct {
	roleService       *service.RoleService
	assignmentService *service.AssignmentService
}

func NewRoleHandler(roleService *service.RoleService, assignmentService *service.AssignmentService) *RoleHandler {
	return &RoleHandler{
		roleService:       roleService,
		assignmentService: assignmentService,
	}
}

func (h *RoleHandler) RegisterRoutes(app *fiber.App) {
	roleGroup := app.Group("/protected/org/roles")

	roleGroup.Get("/", h.GetAllRoles)
	roleGroup.Get("/:id", h.GetRoleByID)
	roleGroup.Get("/:id/principals", h.GetPrincipalsWithRole)
	roleGroup.Post("/", h.CreateRole)
	roleGroup.Put("/:id", h.UpdateRole)
	roleGroup.Delete("/:id", h.DeleteRole)

	assignmentGroup := app.Group("/protected/org/assignments")
	assignmentGroup.Post("/", h.Grant)
	assignmentGroup.Delete("/:id", h.Revoke)
	assignmentGroup.Get("/principals/:principalId", h.GetAssignments)
	assignmentGroup.Get("/entities/:entityId", h.GetAssignmentsForEntity)

	if err := h.roleService.CreateSystemRoles(context.Background()); err != nil {
		log.Printf("Error Loading System Roles: %s", err)
	}
}

func (h *RoleHandler) GetAllRoles(c fiber.Ctx) error {
	page := fiber.Query(c, "page", 1)
	limit := fiber.Query(c, "limit", 10)

	roles, err := h.roleService.GetAllRoles(c.Context(), page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": roles,
	})
}

func (h *RoleHandler) GetRoleByID(c fiber.Ctx) error {
	roleID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role ID format",
		})
	}

	role, err := h.roleService.GetRoleByID(c.Context(), roleID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": role,
	})
}

func (h *RoleHandler) CreateRole(c fiber.Ctx) error {
	var request struct {
		Name        string   `json:"name"`
		DisplayName string   `json:"displayName"`
		Level       int      `json:"level"`
		Permissions []string `json:"permissions"`
	}

	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	role, err := h.roleService.CreateRole(c.Context(), request.Name, request.DisplayName, request.Level, request.Permissions)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":     validationErr.Error(),
				"malformed": validationErr.Malformed,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": role,
	})
}

func (h *RoleHandler) UpdateRole(c fiber.Ctx) error {
	roleID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role ID format",
		})
	}

	var request struct {
		Name        string   `json:"name"`
		DisplayName string   `json:"displayName"`
		Permissions []string `json:"permissions"`
	}

	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	role, err := h.roleService.UpdateRole(c.Context(), roleID, request.Name, request.DisplayName, request.Permissions)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":     validationErr.Error(),
				"malformed": validationErr.Malformed,
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": role,
	})
}

func (h *RoleHandler) DeleteRole(c fiber.Ctx) error {
	roleID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role ID format",
		})
	}

	if err := h.roleService.DeleteRole(c.Context(), roleID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RoleHandler) Grant(c fiber.Ctx) error {
	var request struct {
		PrincipalID   string `json:"principalId"`
		RoleID        string `json:"roleId"`
		EntityID      string `json:"entityId"`
		GrantedBy     string `json:"grantedBy"`
		ExpiresInDays int    `json:"expiresInDays"`
	}

	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	principalID, err := bson.ObjectIDFromHex(request.PrincipalID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid principal ID format",
		})
	}
	roleID, err := bson.ObjectIDFromHex(request.RoleID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role ID format",
		})
	}
	entityID, err := bson.ObjectIDFromHex(request.EntityID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID format",
		})
	}
	grantedBy, err := bson.ObjectIDFromHex(request.GrantedBy)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid grantedBy ID format",
		})
	}

	assignment, err := h.assignmentService.Grant(c.Context(), principalID, roleID, entityID, grantedBy, request.ExpiresInDays)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": assignment,
	})
}

func (h *RoleHandler) Revoke(c fiber.Ctx) error {
	assignmentID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID format",
		})
	}

	if err := h.assignmentService.Revoke(c.Context(), assignmentID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RoleHandler) GetPrincipalsWithRole(c fiber.Ctx) error {
	roleID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role ID format",
		})
	}

	page := fiber.Query(c, "page", 1)
	limit := fiber.Query(c, "limit", 10)

	principalIDs, err := h.assignmentService.PrincipalsWithRole(c.Context(), roleID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	hexIDs := make([]string, len(principalIDs))
	for i, id := range principalIDs {
		hexIDs[i] = id.Hex()
	}

	return c.JSON(fiber.Map{
		"data": hexIDs,
	})
}

func (h *RoleHandler) GetAssignmentsForEntity(c fiber.Ctx) error {
	entityID, err := bson.ObjectIDFromHex(c.Params("entityId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID format",
		})
	}

	assignments, err := h.assignmentService.AssignmentsForEntity(c.Context(), entityID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": assignments,
	})
}

func (h *RoleHandler) GetAssignments(c fiber.Ctx) error {
	principalID, err := bson.ObjectIDFromHex(c.Params("principalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid principal ID format",
		})
	}

	assignments, err := h.assignmentService.GetAssignments(c.Context(), principalID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": assignments,
	})
}
