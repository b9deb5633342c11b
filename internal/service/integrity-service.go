package service

import (
	"context"
	"log"

	"organization_service/internal/events"
	"organization_service/internal/hierarchy"
	"organization_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// IntegrityService enforces leaf-first deletion: a hierarchy entity can be
// deactivated only when its entire subtree is already inactive.
type IntegrityService struct {
	entityRepo     EntityStore
	eventPublisher events.Publisher
}

func NewIntegrityService(entityRepo EntityStore, eventPublisher events.Publisher) *IntegrityService {
	return &IntegrityService{
		entityRepo:     entityRepo,
		eventPublisher: eventPublisher,
	}
}

// CanDelete checks every subordinate level in hierarchy order, immediate
// children first, and returns an IntegrityError naming the first level that
// still holds active descendants.
func (s *IntegrityService) CanDelete(ctx context.Context, entity *models.OrgEntity) error {
	root, err := hierarchy.New(entity.HierarchyPath)
	if err != nil {
		return &models.ConsistencyError{EntityID: entity.ID.Hex(), Detail: err.Error()}
	}

	for level := entity.HierarchyLevel + 1; level <= hierarchy.MaxLevel; level++ {
		count, err := s.entityRepo.CountDescendantsAtLevel(ctx, root, level, true)
		if err != nil {
			return err
		}
		if count > 0 {
			return &models.IntegrityError{Level: level, Count: count}
		}
	}

	return nil
}

// DeactivateEntity soft-deletes the entity. The guard runs directly before
// the update; a caller that ran CanDelete earlier still gets re-verified,
// which narrows the check-then-act window to this method.
func (s *IntegrityService) DeactivateEntity(ctx context.Context, entityID bson.ObjectID) error {
	entity, err := s.entityRepo.FindByID(ctx, entityID)
	if err != nil {
		return err
	}

	if !entity.IsActive {
		return nil
	}

	if err := s.CanDelete(ctx, entity); err != nil {
		return err
	}

	if err := s.entityRepo.Deactivate(ctx, entityID); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.PublishEntityDeactivated(ctx, entityID.Hex(), entity.EntityType, entity.Name); err != nil {
			log.Printf("Warning: Failed to publish entity deactivated event: %v", err)
		}
	}

	return nil
}
