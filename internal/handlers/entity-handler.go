package handlers

import (
	"errors"

	"organization_service/internal/hierarchy"
	"organization_service/internal/models"
	"organization_service/internal/service"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var deleteBlocked = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "org_entity_delete_blocked_total",
		Help: "Soft deletes blocked by active descendants",
	},
	[]string{"level"},
)

type EntityHandler struct {
	entityService    *service.EntityService
	integrityService *service.IntegrityService
}

func NewEntityHandler(entityService *service.EntityService, integrityService *service.IntegrityService) *EntityHandler {
	return &EntityHandler{
		entityService:    entityService,
		integrityService: integrityService,
	}
}

func (h *EntityHandler) RegisterRoutes(app *fiber.App) {
	entityGroup := app.Group("/protected/org/entities")

	entityGroup.Post("/", h.CreateEntity)
	entityGroup.Get("/:id", h.GetEntity)
	entityGroup.Put("/:id", h.RenameEntity)
	entityGroup.Get("/:id/can-delete", h.CanDelete)
	entityGroup.Delete("/:id", h.DeactivateEntity)
	entityGroup.Post("/:id/reactivate", h.ReactivateEntity)
}

func (h *EntityHandler) RenameEntity(c fiber.Ctx) error {
	entityID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID format",
		})
	}

	var request struct {
		Name string `json:"name"`
	}
	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.entityService.RenameEntity(c.Context(), entityID, request.Name); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *EntityHandler) CreateEntity(c fiber.Ctx) error {
	var request struct {
		Name       string `json:"name"`
		EntityType string `json:"entityType"`
		ParentID   string `json:"parentId"`
	}

	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	parentID := bson.NilObjectID
	if request.ParentID != "" {
		var err error
		parentID, err = bson.ObjectIDFromHex(request.ParentID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid parent ID format",
			})
		}
	}

	entity, err := h.entityService.CreateEntity(c.Context(), request.Name, request.EntityType, parentID)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": validationErr.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": entity,
	})
}

func (h *EntityHandler) GetEntity(c fiber.Ctx) error {
	entityID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID format",
		})
	}

	entity, err := h.entityService.GetEntity(c.Context(), entityID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": entity,
	})
}

func (h *EntityHandler) CanDelete(c fiber.Ctx) error {
	entityID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID format",
		})
	}

	entity, err := h.entityService.GetEntity(c.Context(), entityID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.integrityService.CanDelete(c.Context(), entity); err != nil {
		var integrityErr *models.IntegrityError
		if errors.As(err, &integrityErr) {
			return c.JSON(fiber.Map{
				"data": fiber.Map{
					"canDelete":     false,
					"blockingLevel": hierarchy.LevelName(integrityErr.Level),
					"blockingCount": integrityErr.Count,
					"reason":        integrityErr.Error(),
				},
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"canDelete": true,
		},
	})
}

func (h *EntityHandler) DeactivateEntity(c fiber.Ctx) error {
	entityID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID format",
		})
	}

	if err := h.integrityService.DeactivateEntity(c.Context(), entityID); err != nil {
		var integrityErr *models.IntegrityError
		if errors.As(err, &integrityErr) {
			deleteBlocked.WithLabelValues(hierarchy.LevelName(integrityErr.Level)).Inc()
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":         integrityErr.Error(),
				"blockingLevel": hierarchy.LevelName(integrityErr.Level),
				"blockingCount": integrityErr.Count,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *EntityHandler) ReactivateEntity(c fiber.Ctx) error {
	entityID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID format",
		})
	}

	if err := h.entityService.ReactivateEntity(c.Context(), entityID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
