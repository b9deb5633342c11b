package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"organization_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type AssignmentRepository struct {
	collection *mongo.Collection
}

func NewAssignmentRepository(db *mongo.Database) *AssignmentRepository {
	return &AssignmentRepository{
		collection: db.Collection("Assignment"),
	}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error) {
	filter := bson.M{
		"principalId": assignment.PrincipalID,
		"roleId":      assignment.RoleID,
		"entityId":    assignment.EntityID,
		"isActive":    true,
	}

	var existing models.Assignment
	err := r.collection.FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		return nil, fmt.Errorf("principal already holds this role on this entity")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error checking existing assignment: %w", err)
	}

	if assignment.ID.IsZero() {
		assignment.ID = bson.NewObjectID()
	}

	currentTime := int(time.Now().Unix())
	if assignment.GrantedAt == 0 {
		assignment.GrantedAt = currentTime
	}

	if !assignment.IsActive {
		assignment.IsActive = true
	}

	_, err = r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return nil, fmt.Errorf("failed to insert assignment: %w", err)
	}

	return assignment, nil
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("assignment with ID %s not found", id.Hex())
		}
		return nil, err
	}
	return &assignment, nil
}

// FindByPrincipalID returns the principal's active assignments. Expired
// grants are swept to inactive first so they never reach the resolver.
func (r *AssignmentRepository) FindByPrincipalID(ctx context.Context, principalID bson.ObjectID) ([]*models.Assignment, error) {
	currentTime := int(time.Now().Unix())
	expiredFilter := bson.M{
		"principalId": principalID,
		"isActive":    true,
		"expiresAt":   bson.M{"$lt": currentTime, "$ne": 0},
	}

	update := bson.M{"$set": bson.M{"isActive": false}}
	_, err := r.collection.UpdateMany(ctx, expiredFilter, update)
	if err != nil {
		return nil, fmt.Errorf("error deactivating expired assignments: %w", err)
	}

	filter := bson.M{"principalId": principalID, "isActive": true}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []*models.Assignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *AssignmentRepository) FindByEntityID(ctx context.Context, entityID bson.ObjectID) ([]*models.Assignment, error) {
	filter := bson.M{"entityId": entityID, "isActive": true}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []*models.Assignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *AssignmentRepository) FindPrincipalsWithRole(ctx context.Context, roleID bson.ObjectID, page, limit int) ([]bson.ObjectID, error) {
	filter := bson.M{"roleId": roleID, "isActive": true}

	opts := options.Find()
	if page > 0 && limit > 0 {
		opts.SetSkip(int64((page - 1) * limit))
		opts.SetLimit(int64(limit))
	}

	opts.SetProjection(bson.M{"principalId": 1, "_id": 0})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		PrincipalID bson.ObjectID `bson:"principalId"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	principalIDs := make([]bson.ObjectID, len(results))
	for i, result := range results {
		principalIDs[i] = result.PrincipalID
	}

	return principalIDs, nil
}

func (r *AssignmentRepository) Deactivate(ctx context.Context, id bson.ObjectID) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"isActive": false}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate assignment: %w", err)
	}
	return nil
}

func (r *AssignmentRepository) DeactivateAllForPrincipal(ctx context.Context, principalID bson.ObjectID) error {
	filter := bson.M{"principalId": principalID, "isActive": true}
	update := bson.M{"$set": bson.M{"isActive": false}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate assignments: %w", err)
	}
	return nil
}
