package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"organization_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// TeamMemberRepository backs the acs/acs_team scope predicate. Membership is
// an explicit record, never derived from hierarchy paths.
type TeamMemberRepository struct {
	collection *mongo.Collection
}

func NewTeamMemberRepository(db *mongo.Database) *TeamMemberRepository {
	return &TeamMemberRepository{
		collection: db.Collection("TeamMember"),
	}
}

func (r *TeamMemberRepository) AddMember(ctx context.Context, member *models.TeamMember) (*models.TeamMember, error) {
	filter := bson.M{
		"teamId":   member.TeamID,
		"memberId": member.MemberID,
		"isActive": true,
	}

	var existing models.TeamMember
	err := r.collection.FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		return nil, fmt.Errorf("member already belongs to this team")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error checking existing membership: %w", err)
	}

	if member.ID.IsZero() {
		member.ID = bson.NewObjectID()
	}
	if member.AddedAt == 0 {
		member.AddedAt = int(time.Now().Unix())
	}
	member.IsActive = true

	_, err = r.collection.InsertOne(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("failed to insert team member: %w", err)
	}

	return member, nil
}

func (r *TeamMemberRepository) RemoveMember(ctx context.Context, teamID, memberID bson.ObjectID) error {
	filter := bson.M{"teamId": teamID, "memberId": memberID, "isActive": true}
	update := bson.M{"$set": bson.M{"isActive": false}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	return nil
}

func (r *TeamMemberRepository) IsMember(ctx context.Context, teamID, memberID bson.ObjectID) (bool, error) {
	filter := bson.M{"teamId": teamID, "memberId": memberID, "isActive": true}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("error checking team membership: %w", err)
	}
	return count > 0, nil
}

func (r *TeamMemberRepository) FindByTeamID(ctx context.Context, teamID bson.ObjectID) ([]*models.TeamMember, error) {
	filter := bson.M{"teamId": teamID, "isActive": true}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []*models.TeamMember
	if err = cursor.All(ctx, &members); err != nil {
		return nil, err
	}

	return members, nil
}
