package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"organization_service/internal/hierarchy"
	"organization_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type OrgEntityRepository struct {
	collection *mongo.Collection
}

func NewOrgEntityRepository(db *mongo.Database) *OrgEntityRepository {
	return &OrgEntityRepository{
		collection: db.Collection("OrgEntity"),
	}
}

func (r *OrgEntityRepository) Create(ctx context.Context, entity *models.OrgEntity) (*models.OrgEntity, error) {
	if entity.ID.IsZero() {
		entity.ID = bson.NewObjectID()
	}

	currentTime := int(time.Now().Unix())
	if entity.CreatedAt == 0 {
		entity.CreatedAt = currentTime
	}
	if entity.UpdatedAt == 0 {
		entity.UpdatedAt = currentTime
	}

	_, err := r.collection.InsertOne(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entity: %w", err)
	}

	return entity, nil
}

// SetHierarchyPath overwrites the path written at insert time. It exists only
// for the second phase of entity creation, replacing the placeholder segment
// with the real ID.
func (r *OrgEntityRepository) SetHierarchyPath(ctx context.Context, id bson.ObjectID, path hierarchy.Path) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"hierarchyPath": path.String()}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set hierarchy path: %w", err)
	}
	return nil
}

func (r *OrgEntityRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.OrgEntity, error) {
	var entity models.OrgEntity
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("entity with ID %s not found", id.Hex())
		}
		return nil, err
	}
	return &entity, nil
}

func (r *OrgEntityRepository) FindActiveByLevel(ctx context.Context, level int) ([]*models.OrgEntity, error) {
	filter := bson.M{"hierarchyLevel": level, "isActive": true}

	opts := options.Find()
	opts.SetSort(bson.M{"name": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entities []*models.OrgEntity
	if err = cursor.All(ctx, &entities); err != nil {
		return nil, err
	}

	return entities, nil
}

// FindActiveDescendantsAtLevel returns the active strict descendants of root
// at the given level. The filter is anchored and escaped through
// hierarchy.DescendantPattern so crafted IDs cannot widen the scan.
func (r *OrgEntityRepository) FindActiveDescendantsAtLevel(ctx context.Context, root hierarchy.Path, level int) ([]*models.OrgEntity, error) {
	filter := bson.M{
		"hierarchyLevel": level,
		"isActive":       true,
		"hierarchyPath":  bson.M{"$regex": hierarchy.DescendantPattern(root)},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entities []*models.OrgEntity
	if err = cursor.All(ctx, &entities); err != nil {
		return nil, err
	}

	return entities, nil
}

func (r *OrgEntityRepository) CountDescendantsAtLevel(ctx context.Context, root hierarchy.Path, level int, activeOnly bool) (int64, error) {
	filter := bson.M{
		"hierarchyLevel": level,
		"hierarchyPath":  bson.M{"$regex": hierarchy.DescendantPattern(root)},
	}
	if activeOnly {
		filter["isActive"] = true
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count descendants of %s at level %d: %w", root, level, err)
	}
	return count, nil
}

func (r *OrgEntityRepository) Deactivate(ctx context.Context, id bson.ObjectID) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": int(time.Now().Unix())}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate entity: %w", err)
	}
	return nil
}

func (r *OrgEntityRepository) Reactivate(ctx context.Context, id bson.ObjectID) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"isActive": true, "updatedAt": int(time.Now().Unix())}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reactivate entity: %w", err)
	}
	return nil
}

func (r *OrgEntityRepository) Rename(ctx context.Context, id bson.ObjectID, name string) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"name": name, "updatedAt": int(time.Now().Unix())}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to rename entity: %w", err)
	}
	return nil
}
