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
	"golang.org/x/crypto/bcrypt"
)

type PrincipalRepository struct {
	collection *mongo.Collection
}

func NewPrincipalRepository(db *mongo.Database) *PrincipalRepository {
	return &PrincipalRepository{
		collection: db.Collection("Principal"),
	}
}

func (r *PrincipalRepository) Create(ctx context.Context, principal *models.Principal, password string) (*models.Principal, error) {
	existing, err := r.FindByEmail(ctx, principal.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking existing principal: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("principal with email '%s' already exists", principal.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	principal.PasswordHash = string(hash)

	if principal.ID.IsZero() {
		principal.ID = bson.NewObjectID()
	}

	currentTime := int(time.Now().Unix())
	principal.CreatedAt = currentTime
	principal.UpdatedAt = currentTime
	principal.IsActive = true

	_, err = r.collection.InsertOne(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("failed to insert principal: %w", err)
	}

	return principal, nil
}

func (r *PrincipalRepository) VerifyPassword(principal *models.Principal, password string) bool {
	if principal == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(password)) == nil
}

func (r *PrincipalRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Principal, error) {
	var principal models.Principal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&principal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("principal with ID %s not found", id.Hex())
		}
		return nil, err
	}
	return &principal, nil
}

func (r *PrincipalRepository) FindByEmail(ctx context.Context, email string) (*models.Principal, error) {
	var principal models.Principal
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&principal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &principal, nil
}

func (r *PrincipalRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Principal, error) {
	opts := options.Find()
	opts.SetSort(bson.M{"createdAt": -1})
	if page > 0 && limit > 0 {
		opts.SetSkip(int64((page - 1) * limit))
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var principals []*models.Principal
	if err = cursor.All(ctx, &principals); err != nil {
		return nil, err
	}

	return principals, nil
}

func (r *PrincipalRepository) SetSuperAdmin(ctx context.Context, id bson.ObjectID, isSuperAdmin bool) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"isSuperAdmin": isSuperAdmin, "updatedAt": int(time.Now().Unix())}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update super admin flag: %w", err)
	}
	return nil
}
