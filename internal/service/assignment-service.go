package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"organization_service/internal/events"
	"organization_service/internal/hierarchy"
	"organization_service/internal/models"
	"organization_service/internal/permissions"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ResolvedAssignment bundles an assignment with its role and its entity so
// the resolver never re-fetches them per scope check.
type ResolvedAssignment struct {
	Assignment *models.Assignment
	Role       *models.Role
	Entity     *models.OrgEntity
}

type AssignmentService struct {
	assignmentRepo AssignmentStore
	roleRepo       RoleStore
	entityRepo     EntityStore
	principalRepo  PrincipalStore
	eventPublisher events.Publisher

	// Serializes grant/revoke per principal so concurrent mutations of one
	// principal's assignment list cannot lose updates.
	grantLocks sync.Map
}

func NewAssignmentService(assignmentRepo AssignmentStore, roleRepo RoleStore, entityRepo EntityStore, principalRepo PrincipalStore, eventPublisher events.Publisher) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		roleRepo:       roleRepo,
		entityRepo:     entityRepo,
		principalRepo:  principalRepo,
		eventPublisher: eventPublisher,
	}
}

func (s *AssignmentService) lockPrincipal(principalID bson.ObjectID) func() {
	value, _ := s.grantLocks.LoadOrStore(principalID.Hex(), &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *AssignmentService) Grant(
	ctx context.Context,
	principalID, roleID, entityID, grantedBy bson.ObjectID,
	expiresInDays int,
) (*models.Assignment, error) {
	unlock := s.lockPrincipal(principalID)
	defer unlock()

	principal, err := s.principalRepo.FindByID(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("invalid principal: %w", err)
	}
	if !principal.IsActive {
		return nil, errors.New("cannot grant role to inactive principal")
	}

	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("invalid role: %w", err)
	}

	entity, err := s.entityRepo.FindByID(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("invalid entity: %w", err)
	}
	if !entity.IsActive {
		return nil, errors.New("cannot grant role on inactive entity")
	}
	if entity.HierarchyLevel != role.Level {
		return nil, fmt.Errorf("role '%s' is bound to %s level, entity '%s' is a %s",
			role.Name, hierarchy.LevelName(role.Level), entity.Name, hierarchy.LevelName(entity.HierarchyLevel))
	}

	assignment := &models.Assignment{
		PrincipalID: principalID,
		RoleID:      roleID,
		EntityID:    entityID,
		GrantedBy:   grantedBy,
		GrantedAt:   int(time.Now().Unix()),
		IsActive:    true,
	}

	if expiresInDays > 0 {
		expiryTime := time.Now().AddDate(0, 0, expiresInDays)
		assignment.ExpiresAt = int(expiryTime.Unix())
	}

	created, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.PublishRoleGranted(ctx, principalID.Hex(), role.Name, entityID.Hex(), grantedBy.Hex()); err != nil {
			log.Printf("Warning: Failed to publish role granted event: %v", err)
		}
	}

	return created, nil
}

func (s *AssignmentService) Revoke(ctx context.Context, assignmentID bson.ObjectID) error {
	assignment, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		return err
	}

	unlock := s.lockPrincipal(assignment.PrincipalID)
	defer unlock()

	if !assignment.IsActive {
		return nil
	}

	if err := s.assignmentRepo.Deactivate(ctx, assignmentID); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.PublishRoleRevoked(ctx, assignment.PrincipalID.Hex(), assignment.RoleID.Hex(), assignment.EntityID.Hex()); err != nil {
			log.Printf("Warning: Failed to publish role revoked event: %v", err)
		}
	}

	return nil
}

func (s *AssignmentService) RevokeAllForPrincipal(ctx context.Context, principalID bson.ObjectID) error {
	unlock := s.lockPrincipal(principalID)
	defer unlock()

	return s.assignmentRepo.DeactivateAllForPrincipal(ctx, principalID)
}

func (s *AssignmentService) GetAssignments(ctx context.Context, principalID bson.ObjectID) ([]*models.Assignment, error) {
	return s.assignmentRepo.FindByPrincipalID(ctx, principalID)
}

// AssignmentsForEntity lists who holds what on one entity, the reverse of the
// per-principal view.
func (s *AssignmentService) AssignmentsForEntity(ctx context.Context, entityID bson.ObjectID) ([]*models.Assignment, error) {
	return s.assignmentRepo.FindByEntityID(ctx, entityID)
}

func (s *AssignmentService) PrincipalsWithRole(ctx context.Context, roleID bson.ObjectID, page, limit int) ([]bson.ObjectID, error) {
	if _, err := s.roleRepo.FindByID(ctx, roleID); err != nil {
		return nil, fmt.Errorf("invalid role: %w", err)
	}
	return s.assignmentRepo.FindPrincipalsWithRole(ctx, roleID, page, limit)
}

// AssignmentsAtOrAbove resolves the principal's active assignments whose role
// sits at or above the target level. A union-level grant covers conference,
// church and team targets; the numeric comparison runs the other way because
// union is level zero.
func (s *AssignmentService) AssignmentsAtOrAbove(ctx context.Context, principalID bson.ObjectID, targetLevel int) ([]*ResolvedAssignment, error) {
	assignments, err := s.assignmentRepo.FindByPrincipalID(ctx, principalID)
	if err != nil {
		return nil, err
	}

	var resolved []*ResolvedAssignment
	for _, assignment := range assignments {
		role, err := s.roleRepo.FindByID(ctx, assignment.RoleID)
		if err != nil {
			log.Printf("Skipping assignment %s: %v", assignment.ID.Hex(), err)
			continue
		}
		if role.Level > targetLevel {
			continue
		}

		entity, err := s.entityRepo.FindByID(ctx, assignment.EntityID)
		if err != nil {
			log.Printf("Skipping assignment %s: %v", assignment.ID.Hex(), err)
			continue
		}

		resolved = append(resolved, &ResolvedAssignment{
			Assignment: assignment,
			Role:       role,
			Entity:     entity,
		})
	}

	return resolved, nil
}

// AccessibleEntityIDs computes the set of active entity IDs at the given
// level the principal may see, the union across all of their assignments.
func (s *AssignmentService) AccessibleEntityIDs(ctx context.Context, principal *models.Principal, level int) ([]bson.ObjectID, error) {
	if principal.IsSuperAdmin {
		return s.allActiveIDs(ctx, level)
	}

	resolved, err := s.AssignmentsAtOrAbove(ctx, principal.ID, level)
	if err != nil {
		return nil, err
	}

	seen := make(map[bson.ObjectID]struct{})
	var ids []bson.ObjectID
	collect := func(id bson.ObjectID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, ra := range resolved {
		scope := widestScope(ra.Role.Permissions)

		if scope == permissions.ScopeAll {
			all, err := s.allActiveIDs(ctx, level)
			if err != nil {
				return nil, err
			}
			for _, id := range all {
				collect(id)
			}
			continue
		}

		root, err := hierarchy.New(ra.Entity.HierarchyPath)
		if err != nil {
			return nil, &models.ConsistencyError{EntityID: ra.Entity.ID.Hex(), Detail: err.Error()}
		}

		if ra.Entity.HierarchyLevel == level && ra.Entity.IsActive {
			collect(ra.Entity.ID)
		}

		if scope != permissions.ScopeSubordinate {
			continue
		}

		descendants, err := s.entityRepo.FindActiveDescendantsAtLevel(ctx, root, level)
		if err != nil {
			return nil, err
		}
		for _, entity := range descendants {
			collect(entity.ID)
		}
	}

	return ids, nil
}

// HighestLevel returns the most senior hierarchy level among the principal's
// assignments (union is numerically lowest). The second return is false when
// the principal holds no assignment.
func (s *AssignmentService) HighestLevel(ctx context.Context, principalID bson.ObjectID) (int, bool, error) {
	resolved, err := s.AssignmentsAtOrAbove(ctx, principalID, hierarchy.MaxLevel)
	if err != nil {
		return 0, false, err
	}
	if len(resolved) == 0 {
		return 0, false, nil
	}

	highest := hierarchy.MaxLevel
	for _, ra := range resolved {
		if ra.Role.Level < highest {
			highest = ra.Role.Level
		}
	}
	return highest, true, nil
}

func (s *AssignmentService) allActiveIDs(ctx context.Context, level int) ([]bson.ObjectID, error) {
	entities, err := s.entityRepo.FindActiveByLevel(ctx, level)
	if err != nil {
		return nil, err
	}
	ids := make([]bson.ObjectID, len(entities))
	for i, entity := range entities {
		ids[i] = entity.ID
	}
	return ids, nil
}

// widestScope ranks the scopes granted by a role's permission list. Used for
// entity-set derivation, where the broadest reach wins; per-permission scope
// checks stay with the resolver.
func widestScope(granted []string) permissions.Scope {
	widest := permissions.ScopeOwn
	for _, raw := range granted {
		p, err := permissions.Parse(raw)
		if err != nil {
			continue
		}
		switch p.EffectiveScope() {
		case permissions.ScopeAll:
			return permissions.ScopeAll
		case permissions.ScopeSubordinate:
			widest = permissions.ScopeSubordinate
		}
	}
	return widest
}
