package models

import (
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Entity types of the organizational hierarchy. Teams and ACS teams and
// services all live at the deepest level under a church.
const (
	EntityTypeUnion      = "union"
	EntityTypeConference = "conference"
	EntityTypeChurch     = "church"
	EntityTypeTeam       = "team"
	EntityTypeService    = "service"
)

// LevelForEntityType maps an entity type to its hierarchy level.
var LevelForEntityType = map[string]int{
	EntityTypeUnion:      0,
	EntityTypeConference: 1,
	EntityTypeChurch:     2,
	EntityTypeTeam:       3,
	EntityTypeService:    3,
}

type Principal struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string        `bson:"email" json:"email" validate:"required,email"`
	Username     string        `bson:"username,omitempty" json:"username"`
	PasswordHash string        `bson:"passwordHash" json:"-"`
	IsSuperAdmin bool          `bson:"isSuperAdmin" json:"isSuperAdmin"`
	IsActive     bool          `bson:"isActive" json:"isActive"`
	CreatedAt    int           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    int           `bson:"updatedAt" json:"updatedAt"`
}

type Role struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name" validate:"required"`
	DisplayName string        `bson:"displayName,omitempty" json:"displayName"`
	Level       int           `bson:"level" json:"level"`
	Permissions []string      `bson:"permissions" json:"permissions"`
	IsSystem    bool          `bson:"isSystem" json:"isSystem"`
	CreatedAt   int           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int           `bson:"updatedAt" json:"updatedAt"`
}

// Assignment binds a principal to one entity at one hierarchy level via one
// role.
type Assignment struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	PrincipalID bson.ObjectID `bson:"principalId" json:"principalId"`
	RoleID      bson.ObjectID `bson:"roleId" json:"roleId"`
	EntityID    bson.ObjectID `bson:"entityId" json:"entityId"`
	GrantedBy   bson.ObjectID `bson:"grantedBy" json:"grantedBy"`
	GrantedAt   int           `bson:"grantedAt" json:"grantedAt"`
	ExpiresAt   int           `bson:"expiresAt,omitempty" json:"expiresAt"`
	IsActive    bool          `bson:"isActive" json:"isActive"`
}

// OrgEntity is one node of the hierarchy. HierarchyPath is assigned at
// creation and never mutated afterwards, except to replace the placeholder
// segment written before the entity's own ID existed.
type OrgEntity struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string        `bson:"name" json:"name" validate:"required"`
	EntityType     string        `bson:"entityType" json:"entityType"`
	ParentID       bson.ObjectID `bson:"parentId,omitempty" json:"parentId"`
	HierarchyPath  string        `bson:"hierarchyPath" json:"hierarchyPath"`
	HierarchyLevel int           `bson:"hierarchyLevel" json:"hierarchyLevel"`
	IsActive       bool          `bson:"isActive" json:"isActive"`
	CreatedAt      int           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      int           `bson:"updatedAt" json:"updatedAt"`
}

// TeamMember records membership in an ACS team grouping. The acs/acs_team
// permission scopes resolve against this collection, not against paths.
type TeamMember struct {
	ID       bson.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamID   bson.ObjectID `bson:"teamId" json:"teamId"`
	MemberID bson.ObjectID `bson:"memberId" json:"memberId"`
	AddedBy  bson.ObjectID `bson:"addedBy" json:"addedBy"`
	AddedAt  int           `bson:"addedAt" json:"addedAt"`
	IsActive bool          `bson:"isActive" json:"isActive"`
}

// Target identifies the entity an access check is evaluated against.
type Target struct {
	ID    bson.ObjectID `json:"id"`
	Level int           `json:"level"`
	Path  string        `json:"path"`
}

// Decision is the outcome of an authorization check. A denial is a normal
// result, not an error; Permission and Granted carry diagnostics for the
// caller's messaging.
type Decision struct {
	Allowed    bool     `json:"allowed"`
	Reason     string   `json:"reason,omitempty"`
	Permission string   `json:"permission,omitempty"`
	Granted    []string `json:"granted,omitempty"`
}

type Claims struct {
	jwt.RegisteredClaims
	Id           string
	PrincipalID  string
	Username     string
	Email        string
	IsSuperAdmin bool
}
