package service

import (
	"context"
	"log"

	"organization_service/internal/events"
	"organization_service/internal/hierarchy"
	"organization_service/internal/models"
	"organization_service/internal/permissions"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuthorizationService is the engine's public entry point. Authorize and
// AccessibleEntityIDs are the only two operations the rest of the system
// calls; both are pure reads over snapshot data and safe to run concurrently.
type AuthorizationService struct {
	assignments    *AssignmentService
	memberships    MembershipStore
	eventPublisher events.Publisher
}

func NewAuthorizationService(assignments *AssignmentService, memberships MembershipStore, eventPublisher events.Publisher) *AuthorizationService {
	return &AuthorizationService{
		assignments:    assignments,
		memberships:    memberships,
		eventPublisher: eventPublisher,
	}
}

func allow() *models.Decision {
	return &models.Decision{Allowed: true}
}

// Authorize decides whether the principal may perform the required permission
// on the target. A denial is a normal outcome carried in the decision, never
// an error. An error return means the check itself could not be completed; the
// accompanying decision is always a denial, a broken check never fails open.
func (s *AuthorizationService) Authorize(ctx context.Context, principal *models.Principal, requiredPermission string, target *models.Target) (*models.Decision, error) {
	if principal.IsSuperAdmin {
		return allow(), nil
	}

	targetPath, err := hierarchy.New(target.Path)
	if err != nil {
		fault := &models.ConsistencyError{EntityID: target.ID.Hex(), Detail: err.Error()}
		log.Printf("Authorization failed closed for principal %s on target %s: %v", principal.ID.Hex(), target.ID.Hex(), fault)
		return s.deny(ctx, principal, requiredPermission, "target entity is inconsistent", nil), fault
	}

	resolved, err := s.assignments.AssignmentsAtOrAbove(ctx, principal.ID, target.Level)
	if err != nil {
		return s.deny(ctx, principal, requiredPermission, "could not resolve assignments", nil), err
	}

	var granted []string
	for _, ra := range resolved {
		granted = append(granted, ra.Role.Permissions...)

		grants := permissions.MatchingGrants(ra.Role.Permissions, requiredPermission)
		if len(grants) == 0 {
			continue
		}

		entityPath, err := hierarchy.New(ra.Entity.HierarchyPath)
		if err != nil {
			fault := &models.ConsistencyError{EntityID: ra.Entity.ID.Hex(), Detail: err.Error()}
			log.Printf("Authorization failed closed for principal %s, assignment %s: %v", principal.ID.Hex(), ra.Assignment.ID.Hex(), fault)
			return s.deny(ctx, principal, requiredPermission, "assignment entity is inconsistent", granted), fault
		}

		for _, grant := range grants {
			ok, err := s.scopeCovers(ctx, grant.EffectiveScope(), principal, ra, entityPath, target, targetPath)
			if err != nil {
				return s.deny(ctx, principal, requiredPermission, "could not evaluate scope", granted), err
			}
			if ok {
				return allow(), nil
			}
		}
	}

	return s.deny(ctx, principal, requiredPermission, "insufficient permissions", granted), nil
}

func (s *AuthorizationService) scopeCovers(
	ctx context.Context,
	scope permissions.Scope,
	principal *models.Principal,
	ra *ResolvedAssignment,
	entityPath hierarchy.Path,
	target *models.Target,
	targetPath hierarchy.Path,
) (bool, error) {
	switch scope {
	case permissions.ScopeAll, permissions.ScopePublic:
		return true, nil
	case permissions.ScopeOwn:
		return ra.Assignment.EntityID == target.ID, nil
	case permissions.ScopeSelf:
		return target.ID == principal.ID, nil
	case permissions.ScopeSubordinate:
		return entityPath.IsAncestorOf(targetPath), nil
	case permissions.ScopeACSTeam, permissions.ScopeACS:
		if target.ID == ra.Assignment.EntityID {
			return true, nil
		}
		return s.memberships.IsMember(ctx, ra.Assignment.EntityID, target.ID)
	default:
		return false, nil
	}
}

// AccessibleEntityIDs is the second public entry point, used to build scoped
// list queries ("all churches this principal may see").
func (s *AuthorizationService) AccessibleEntityIDs(ctx context.Context, principal *models.Principal, level int) ([]bson.ObjectID, error) {
	return s.assignments.AccessibleEntityIDs(ctx, principal, level)
}

func (s *AuthorizationService) deny(ctx context.Context, principal *models.Principal, requiredPermission, reason string, granted []string) *models.Decision {
	if s.eventPublisher != nil {
		if err := s.eventPublisher.PublishAccessDenied(ctx, principal.ID.Hex(), requiredPermission, reason); err != nil {
			log.Printf("Warning: Failed to publish access denied event: %v", err)
		}
	}

	return &models.Decision{
		Allowed:    false,
		Reason:     reason,
		Permission: requiredPermission,
		Granted:    granted,
	}
}
