package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"organization_service/internal/hierarchy"
	"organization_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type EntityService struct {
	entityRepo EntityStore
}

func NewEntityService(entityRepo EntityStore) *EntityService {
	return &EntityService{
		entityRepo: entityRepo,
	}
}

// CreateEntity creates one hierarchy node. The path is written in two phases:
// the document is inserted with a placeholder final segment, then the
// placeholder is overwritten with the generated ID. After that the path is
// immutable.
func (s *EntityService) CreateEntity(ctx context.Context, name, entityType string, parentID bson.ObjectID) (*models.OrgEntity, error) {
	level, ok := models.LevelForEntityType[entityType]
	if !ok {
		return nil, &models.ValidationError{Field: "entityType", Malformed: []string{entityType}}
	}

	var parentPath hierarchy.Path
	if level == hierarchy.LevelUnion {
		if !parentID.IsZero() {
			return nil, errors.New("a union cannot have a parent")
		}
	} else {
		if parentID.IsZero() {
			return nil, fmt.Errorf("a %s requires a parent", entityType)
		}
		parent, err := s.entityRepo.FindByID(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent: %w", err)
		}
		if !parent.IsActive {
			return nil, fmt.Errorf("cannot create %s under inactive %s '%s'", entityType, parent.EntityType, parent.Name)
		}
		if parent.HierarchyLevel != level-1 {
			return nil, fmt.Errorf("a %s cannot be created under a %s", entityType, parent.EntityType)
		}
		parentPath, err = hierarchy.New(parent.HierarchyPath)
		if err != nil {
			return nil, &models.ConsistencyError{EntityID: parent.ID.Hex(), Detail: err.Error()}
		}
	}

	provisional, err := hierarchy.Build(parentPath, hierarchy.PlaceholderSegment)
	if err != nil {
		return nil, err
	}

	entity := &models.OrgEntity{
		Name:           name,
		EntityType:     entityType,
		ParentID:       parentID,
		HierarchyPath:  provisional.String(),
		HierarchyLevel: level,
		IsActive:       true,
	}

	created, err := s.entityRepo.Create(ctx, entity)
	if err != nil {
		return nil, err
	}

	finalPath, err := provisional.ReplacePlaceholder(created.ID.Hex())
	if err != nil {
		return nil, err
	}
	if err := s.entityRepo.SetHierarchyPath(ctx, created.ID, finalPath); err != nil {
		return nil, fmt.Errorf("entity %s created but path fix-up failed: %w", created.ID.Hex(), err)
	}
	created.HierarchyPath = finalPath.String()

	log.Printf("Created %s '%s' at path %s", entityType, name, finalPath)
	return created, nil
}

func (s *EntityService) GetEntity(ctx context.Context, id bson.ObjectID) (*models.OrgEntity, error) {
	return s.entityRepo.FindByID(ctx, id)
}

// TargetFor converts an entity into the resolver's target shape, failing
// closed on a malformed path.
func (s *EntityService) TargetFor(ctx context.Context, id bson.ObjectID) (*models.Target, error) {
	entity, err := s.entityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := hierarchy.New(entity.HierarchyPath); err != nil {
		return nil, &models.ConsistencyError{EntityID: entity.ID.Hex(), Detail: err.Error()}
	}
	return &models.Target{
		ID:    entity.ID,
		Level: entity.HierarchyLevel,
		Path:  entity.HierarchyPath,
	}, nil
}

// RenameEntity changes the display name only. The hierarchy path is built
// from IDs and is untouched by renames.
func (s *EntityService) RenameEntity(ctx context.Context, id bson.ObjectID, name string) error {
	if name == "" {
		return errors.New("entity name cannot be empty")
	}
	if _, err := s.entityRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.entityRepo.Rename(ctx, id, name)
}

// ReactivateEntity reverses a soft delete. A child cannot come back under an
// inactive parent.
func (s *EntityService) ReactivateEntity(ctx context.Context, id bson.ObjectID) error {
	entity, err := s.entityRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if entity.IsActive {
		return nil
	}

	if !entity.ParentID.IsZero() {
		parent, err := s.entityRepo.FindByID(ctx, entity.ParentID)
		if err != nil {
			return fmt.Errorf("invalid parent: %w", err)
		}
		if !parent.IsActive {
			return fmt.Errorf("cannot reactivate '%s' while its parent '%s' is inactive", entity.Name, parent.Name)
		}
	}

	return s.entityRepo.Reactivate(ctx, id)
}
