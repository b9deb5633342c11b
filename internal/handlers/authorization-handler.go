package handlers

import (
	"log"
	"strconv"
	"time"

	"organization_service/internal/repository"
	"organization_service/internal/service"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	// Counter for authorization checks by outcome
	authorizationChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "org_authorization_checks_total",
			Help: "Total number of authorization checks",
		},
		[]string{"decision"}, // decision: allow/deny
	)

	// Histogram for authorization check duration
	authorizationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "org_authorization_duration_seconds",
			Help:    "Time spent computing authorization decisions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"decision"},
	)

	// Counter for accessible-entity queries
	accessibleQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "org_accessible_queries_total",
			Help: "Total number of accessible entity set queries",
		},
	)
)

const accessibleCacheTTL = time.Minute

type AuthorizationHandler struct {
	authService   *service.AuthorizationService
	entityService *service.EntityService
	principalRepo *repository.PrincipalRepository
	redisRepo     *repository.RedisRepo
}

func NewAuthorizationHandler(authService *service.AuthorizationService, entityService *service.EntityService, principalRepo *repository.PrincipalRepository, redisRepo *repository.RedisRepo) *AuthorizationHandler {
	return &AuthorizationHandler{
		authService:   authService,
		entityService: entityService,
		principalRepo: principalRepo,
		redisRepo:     redisRepo,
	}
}

func (h *AuthorizationHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	orgGroup := app.Group("/protected/org")
	orgGroup.Post("/authorize", h.Authorize)
	orgGroup.Get("/accessible/:level", h.AccessibleEntities)
}

func (h *AuthorizationHandler) Authorize(c fiber.Ctx) error {
	claims := claimsFrom(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing authentication",
		})
	}

	var request struct {
		Permission string `json:"permission"`
		TargetID   string `json:"targetId"`
	}

	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	principalID, err := bson.ObjectIDFromHex(claims.PrincipalID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid principal ID in token",
		})
	}
	targetID, err := bson.ObjectIDFromHex(request.TargetID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid target ID format",
		})
	}

	principal, err := h.principalRepo.FindByID(c.Context(), principalID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	target, err := h.entityService.TargetFor(c.Context(), targetID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	start := time.Now()
	decision, err := h.authService.Authorize(c.Context(), principal, request.Permission, target)

	label := "deny"
	if decision != nil && decision.Allowed {
		label = "allow"
	}
	authorizationChecks.WithLabelValues(label).Inc()
	authorizationDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		// The decision is already a denial; the error means the check itself
		// could not complete.
		log.Printf("Authorization check failed for principal %s: %v", claims.PrincipalID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "authorization check failed",
			"data":  decision,
		})
	}

	return c.JSON(fiber.Map{
		"data": decision,
	})
}

func (h *AuthorizationHandler) AccessibleEntities(c fiber.Ctx) error {
	level, err := strconv.Atoi(c.Params("level"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid level",
		})
	}

	claims := claimsFrom(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing authentication",
		})
	}
	principalHex := claims.PrincipalID
	principalID, err := bson.ObjectIDFromHex(principalHex)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid principal ID in token",
		})
	}

	accessibleQueries.Inc()

	cacheKey := "org:accessible:" + principalHex + ":" + c.Params("level")
	var cached []string
	if h.redisRepo != nil {
		if err := h.redisRepo.GetStructCached(c.Context(), cacheKey, &cached); err == nil {
			return c.JSON(fiber.Map{
				"data": cached,
			})
		}
	}

	principal, err := h.principalRepo.FindByID(c.Context(), principalID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ids, err := h.authService.AccessibleEntityIDs(c.Context(), principal, level)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	hexIDs := make([]string, len(ids))
	for i, id := range ids {
		hexIDs[i] = id.Hex()
	}

	if h.redisRepo != nil {
		if _, err := h.redisRepo.SaveStructCached(c.Context(), cacheKey, hexIDs, accessibleCacheTTL); err != nil {
			log.Printf("Warning: failed to cache accessible set: %v", err)
		}
	}

	return c.JSON(fiber.Map{
		"data": hexIDs,
	})
}
