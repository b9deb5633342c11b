package service

import (
	"context"

	"organization_service/internal/hierarchy"
	"organization_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Store interfaces are declared on the consumer side so the services can be
// exercised against in-memory fakes. The mongo repositories satisfy them.

type RoleStore interface {
	Create(ctx context.Context, role *models.Role) (*models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id bson.ObjectID) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	FindByLevel(ctx context.Context, level int) ([]*models.Role, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Role, error)
}

type AssignmentStore interface {
	Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Assignment, error)
	FindByPrincipalID(ctx context.Context, principalID bson.ObjectID) ([]*models.Assignment, error)
	FindByEntityID(ctx context.Context, entityID bson.ObjectID) ([]*models.Assignment, error)
	FindPrincipalsWithRole(ctx context.Context, roleID bson.ObjectID, page, limit int) ([]bson.ObjectID, error)
	Deactivate(ctx context.Context, id bson.ObjectID) error
	DeactivateAllForPrincipal(ctx context.Context, principalID bson.ObjectID) error
}

type EntityStore interface {
	Create(ctx context.Context, entity *models.OrgEntity) (*models.OrgEntity, error)
	SetHierarchyPath(ctx context.Context, id bson.ObjectID, path hierarchy.Path) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.OrgEntity, error)
	FindActiveByLevel(ctx context.Context, level int) ([]*models.OrgEntity, error)
	FindActiveDescendantsAtLevel(ctx context.Context, root hierarchy.Path, level int) ([]*models.OrgEntity, error)
	CountDescendantsAtLevel(ctx context.Context, root hierarchy.Path, level int, activeOnly bool) (int64, error)
	Deactivate(ctx context.Context, id bson.ObjectID) error
	Reactivate(ctx context.Context, id bson.ObjectID) error
	Rename(ctx context.Context, id bson.ObjectID, name string) error
}

type PrincipalStore interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Principal, error)
}

type MembershipStore interface {
	IsMember(ctx context.Context, teamID, memberID bson.ObjectID) (bool, error)
}
