package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"organization_service/internal/hierarchy"
	"organization_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// In-memory stores backing the service tests. They mirror the repository
// contracts, including the mongo.ErrNoDocuments sentinel on name lookups.

type memRoleStore struct {
	mu     sync.Mutex
	roles  map[bson.ObjectID]*models.Role
	writes int
}

func newMemRoleStore() *memRoleStore {
	return &memRoleStore{roles: make(map[bson.ObjectID]*models.Role)}
}

func (s *memRoleStore) Create(ctx context.Context, role *models.Role) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == role.Name {
			return nil, fmt.Errorf("role with name '%s' already exists", role.Name)
		}
	}
	if role.ID.IsZero() {
		role.ID = bson.NewObjectID()
	}
	copied := *role
	s.roles[role.ID] = &copied
	s.writes++
	return role, nil
}

func (s *memRoleStore) Update(ctx context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *role
	s.roles[role.ID] = &copied
	s.writes++
	return nil
}

func (s *memRoleStore) Delete(ctx context.Context, id bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, id)
	s.writes++
	return nil
}

func (s *memRoleStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return nil, fmt.Errorf("role with ID %s not found", id.Hex())
	}
	copied := *role
	return &copied, nil
}

func (s *memRoleStore) FindByName(ctx context.Context, name string) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, role := range s.roles {
		if role.Name == name {
			copied := *role
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *memRoleStore) FindByLevel(ctx context.Context, level int) ([]*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.Role
	for _, role := range s.roles {
		if role.Level == level {
			copied := *role
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *memRoleStore) FindAll(ctx context.Context, page, limit int) ([]*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.Role
	for _, role := range s.roles {
		copied := *role
		result = append(result, &copied)
	}
	return result, nil
}

type memAssignmentStore struct {
	mu          sync.Mutex
	assignments []*models.Assignment
}

func newMemAssignmentStore() *memAssignmentStore {
	return &memAssignmentStore{}
}

func (s *memAssignmentStore) Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.IsActive &&
			existing.PrincipalID == assignment.PrincipalID &&
			existing.RoleID == assignment.RoleID &&
			existing.EntityID == assignment.EntityID {
			return nil, fmt.Errorf("principal already holds this role on this entity")
		}
	}
	if assignment.ID.IsZero() {
		assignment.ID = bson.NewObjectID()
	}
	assignment.IsActive = true
	copied := *assignment
	s.assignments = append(s.assignments, &copied)
	return assignment, nil
}

func (s *memAssignmentStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, assignment := range s.assignments {
		if assignment.ID == id {
			copied := *assignment
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("assignment with ID %s not found", id.Hex())
}

func (s *memAssignmentStore) FindByPrincipalID(ctx context.Context, principalID bson.ObjectID) ([]*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := int(time.Now().Unix())
	var result []*models.Assignment
	for _, assignment := range s.assignments {
		if assignment.PrincipalID != principalID || !assignment.IsActive {
			continue
		}
		if assignment.ExpiresAt != 0 && assignment.ExpiresAt < now {
			assignment.IsActive = false
			continue
		}
		copied := *assignment
		result = append(result, &copied)
	}
	return result, nil
}

func (s *memAssignmentStore) FindByEntityID(ctx context.Context, entityID bson.ObjectID) ([]*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.Assignment
	for _, assignment := range s.assignments {
		if assignment.EntityID == entityID && assignment.IsActive {
			copied := *assignment
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *memAssignmentStore) FindPrincipalsWithRole(ctx context.Context, roleID bson.ObjectID, page, limit int) ([]bson.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []bson.ObjectID
	for _, assignment := range s.assignments {
		if assignment.RoleID == roleID && assignment.IsActive {
			result = append(result, assignment.PrincipalID)
		}
	}
	return result, nil
}

func (s *memAssignmentStore) Deactivate(ctx context.Context, id bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, assignment := range s.assignments {
		if assignment.ID == id {
			assignment.IsActive = false
		}
	}
	return nil
}

func (s *memAssignmentStore) DeactivateAllForPrincipal(ctx context.Context, principalID bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, assignment := range s.assignments {
		if assignment.PrincipalID == principalID {
			assignment.IsActive = false
		}
	}
	return nil
}

type memEntityStore struct {
	mu       sync.Mutex
	entities map[bson.ObjectID]*models.OrgEntity
}

func newMemEntityStore() *memEntityStore {
	return &memEntityStore{entities: make(map[bson.ObjectID]*models.OrgEntity)}
}

func (s *memEntityStore) Create(ctx context.Context, entity *models.OrgEntity) (*models.OrgEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entity.ID.IsZero() {
		entity.ID = bson.NewObjectID()
	}
	copied := *entity
	s.entities[entity.ID] = &copied
	return entity, nil
}

func (s *memEntityStore) SetHierarchyPath(ctx context.Context, id bson.ObjectID, path hierarchy.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity, ok := s.entities[id]
	if !ok {
		return fmt.Errorf("entity with ID %s not found", id.Hex())
	}
	entity.HierarchyPath = path.String()
	return nil
}

func (s *memEntityStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.OrgEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity, ok := s.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity with ID %s not found", id.Hex())
	}
	copied := *entity
	return &copied, nil
}

func (s *memEntityStore) FindActiveByLevel(ctx context.Context, level int) ([]*models.OrgEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.OrgEntity
	for _, entity := range s.entities {
		if entity.HierarchyLevel == level && entity.IsActive {
			copied := *entity
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *memEntityStore) FindActiveDescendantsAtLevel(ctx context.Context, root hierarchy.Path, level int) ([]*models.OrgEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.OrgEntity
	for _, entity := range s.entities {
		if entity.HierarchyLevel != level || !entity.IsActive {
			continue
		}
		path := hierarchy.Path(entity.HierarchyPath)
		if path != root && root.IsAncestorOf(path) {
			copied := *entity
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *memEntityStore) CountDescendantsAtLevel(ctx context.Context, root hierarchy.Path, level int, activeOnly bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, entity := range s.entities {
		if entity.HierarchyLevel != level {
			continue
		}
		if activeOnly && !entity.IsActive {
			continue
		}
		path := hierarchy.Path(entity.HierarchyPath)
		if path != root && root.IsAncestorOf(path) {
			count++
		}
	}
	return count, nil
}

func (s *memEntityStore) Deactivate(ctx context.Context, id bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entity, ok := s.entities[id]; ok {
		entity.IsActive = false
	}
	return nil
}

func (s *memEntityStore) Reactivate(ctx context.Context, id bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entity, ok := s.entities[id]; ok {
		entity.IsActive = true
	}
	return nil
}

func (s *memEntityStore) Rename(ctx context.Context, id bson.ObjectID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entity, ok := s.entities[id]; ok {
		entity.Name = name
	}
	return nil
}

type memPrincipalStore struct {
	mu         sync.Mutex
	principals map[bson.ObjectID]*models.Principal
}

func newMemPrincipalStore() *memPrincipalStore {
	return &memPrincipalStore{principals: make(map[bson.ObjectID]*models.Principal)}
}

func (s *memPrincipalStore) add(principal *models.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if principal.ID.IsZero() {
		principal.ID = bson.NewObjectID()
	}
	copied := *principal
	s.principals[principal.ID] = &copied
}

func (s *memPrincipalStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	principal, ok := s.principals[id]
	if !ok {
		return nil, fmt.Errorf("principal with ID %s not found", id.Hex())
	}
	copied := *principal
	return &copied, nil
}

type memMembershipStore struct {
	mu      sync.Mutex
	members map[bson.ObjectID]map[bson.ObjectID]bool
}

func newMemMembershipStore() *memMembershipStore {
	return &memMembershipStore{members: make(map[bson.ObjectID]map[bson.ObjectID]bool)}
}

func (s *memMembershipStore) add(teamID, memberID bson.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[teamID] == nil {
		s.members[teamID] = make(map[bson.ObjectID]bool)
	}
	s.members[teamID][memberID] = true
}

func (s *memMembershipStore) IsMember(ctx context.Context, teamID, memberID bson.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[teamID][memberID], nil
}

// addEntity seeds an entity with an explicit path, bypassing the creation
// flow, for tests that need a prebuilt tree.
func (s *memEntityStore) addEntity(entityType string, path hierarchy.Path, active bool) *models.OrgEntity {
	entity := &models.OrgEntity{
		ID:             bson.NewObjectID(),
		Name:           path.OwnID(),
		EntityType:     entityType,
		HierarchyPath:  path.String(),
		HierarchyLevel: path.Level(),
		IsActive:       active,
	}
	s.mu.Lock()
	s.entities[entity.ID] = entity
	s.mu.Unlock()
	return entity
}

func targetFor(entity *models.OrgEntity) *models.Target {
	return &models.Target{
		ID:    entity.ID,
		Level: entity.HierarchyLevel,
		Path:  entity.HierarchyPath,
	}
}

// fixture wires the services against in-memory stores and a small prebuilt
// tree: one union, two conferences, one church under each.
type fixture struct {
	roles       *memRoleStore
	entities    *memEntityStore
	assignments *memAssignmentStore
	principals  *memPrincipalStore
	memberships *memMembershipStore

	roleService       *RoleService
	entityService     *EntityService
	assignmentService *AssignmentService
	authService       *AuthorizationService
	integrityService  *IntegrityService

	union       *models.OrgEntity
	conference1 *models.OrgEntity
	conference2 *models.OrgEntity
	church1     *models.OrgEntity
	church2     *models.OrgEntity
}

func newFixture() *fixture {
	f := &fixture{
		roles:       newMemRoleStore(),
		entities:    newMemEntityStore(),
		assignments: newMemAssignmentStore(),
		principals:  newMemPrincipalStore(),
		memberships: newMemMembershipStore(),
	}

	f.roleService = NewRoleService(f.roles)
	f.entityService = NewEntityService(f.entities)
	f.assignmentService = NewAssignmentService(f.assignments, f.roles, f.entities, f.principals, nil)
	f.authService = NewAuthorizationService(f.assignmentService, f.memberships, nil)
	f.integrityService = NewIntegrityService(f.entities, nil)

	f.union = f.entities.addEntity(models.EntityTypeUnion, "u1", true)
	f.conference1 = f.entities.addEntity(models.EntityTypeConference, "u1/c1", true)
	f.conference2 = f.entities.addEntity(models.EntityTypeConference, "u1/c2", true)
	f.church1 = f.entities.addEntity(models.EntityTypeChurch, "u1/c1/ch1", true)
	f.church2 = f.entities.addEntity(models.EntityTypeChurch, "u1/c2/ch2", true)

	return f
}

func (f *fixture) addPrincipal(t *testing.T, superAdmin bool) *models.Principal {
	t.Helper()
	principal := &models.Principal{
		Email:        "member@example.org",
		IsSuperAdmin: superAdmin,
		IsActive:     true,
	}
	f.principals.add(principal)
	return principal
}

func (f *fixture) addRole(t *testing.T, name string, level int, perms []string) *models.Role {
	t.Helper()
	role, err := f.roles.Create(context.Background(), &models.Role{
		Name:        name,
		Level:       level,
		Permissions: perms,
	})
	if err != nil {
		t.Fatalf("creating role %s: %v", name, err)
	}
	return role
}

func (f *fixture) grant(t *testing.T, principal *models.Principal, role *models.Role, entity *models.OrgEntity) *models.Assignment {
	t.Helper()
	assignment, err := f.assignmentService.Grant(context.Background(), principal.ID, role.ID, entity.ID, principal.ID, 0)
	if err != nil {
		t.Fatalf("granting %s on %s: %v", role.Name, entity.Name, err)
	}
	return assignment
}
