package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"organization_service/internal/hierarchy"
	"organization_service/internal/models"
	"organization_service/internal/permissions"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type RoleService struct {
	roleRepo RoleStore
}

func NewRoleService(roleRepo RoleStore) *RoleService {
	return &RoleService{
		roleRepo: roleRepo,
	}
}

type systemRoleDefinition struct {
	name        string
	displayName string
	level       int
	permissions []string
}

// The built-in role table. Re-asserted at every process start; seeding is
// idempotent, an unchanged definition is never rewritten.
var systemRoles = []systemRoleDefinition{
	{
		name:        "super_admin",
		displayName: "Super Administrator",
		level:       hierarchy.LevelUnion,
		permissions: []string{"*"},
	},
	{
		name:        "union_admin",
		displayName: "Union Administrator",
		level:       hierarchy.LevelUnion,
		permissions: []string{
			"users.*", "roles.*", "conferences.*", "churches.*",
			"teams.*", "services.*", "events.*", "stories.*",
		},
	},
	{
		name:        "conference_admin",
		displayName: "Conference Administrator",
		level:       hierarchy.LevelConference,
		permissions: []string{
			"users.create:subordinate", "users.read:subordinate", "users.update:subordinate",
			"churches.create:subordinate", "churches.read:subordinate", "churches.update:subordinate",
			"churches.delete:subordinate",
			"teams.read:subordinate",
			"services.read:subordinate",
			"events.read:subordinate",
			"stories.read:subordinate",
		},
	},
	{
		name:        "church_pastor",
		displayName: "Church Pastor",
		level:       hierarchy.LevelChurch,
		permissions: []string{
			"users.create:own", "users.read:own", "users.update:own",
			"teams.create:own", "teams.read:own", "teams.update:own", "teams.delete:own",
			"services.create:own", "services.read:own", "services.update:own", "services.delete:own",
			"events.create:own", "events.read:own", "events.update:own",
			"stories.create:own", "stories.read:own",
		},
	},
	{
		name:        "church_acs_leader",
		displayName: "ACS Team Leader",
		level:       hierarchy.LevelChurch,
		permissions: []string{
			"users.read:acs_team",
			"teams.read:acs_team", "teams.update:acs_team",
			"events.create:acs_team", "events.read:acs_team",
			"users.update:self",
		},
	},
	{
		name:        "church_team_member",
		displayName: "Church Team Member",
		level:       hierarchy.LevelChurch,
		permissions: []string{
			"teams.read:own",
			"services.read:own",
			"events.read:own",
			"users.read:self", "users.update:self",
		},
	},
	{
		name:        "church_viewer",
		displayName: "Church Viewer",
		level:       hierarchy.LevelChurch,
		permissions: []string{
			"services.read:public",
			"stories.read:public",
		},
	},
}

// CreateSystemRoles upserts the built-in role table by name. Running it a
// second time with unchanged definitions writes nothing.
func (s *RoleService) CreateSystemRoles(ctx context.Context) error {
	for _, def := range systemRoles {
		existing, err := s.roleRepo.FindByName(ctx, def.name)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("error looking up system role '%s': %w", def.name, err)
		}

		if existing == nil {
			role := &models.Role{
				Name:        def.name,
				DisplayName: def.displayName,
				Level:       def.level,
				Permissions: def.permissions,
				IsSystem:    true,
			}
			if _, err := s.roleRepo.Create(ctx, role); err != nil {
				return fmt.Errorf("failed to create system role '%s': %w", def.name, err)
			}
			log.Printf("Created system role '%s'", def.name)
			continue
		}

		if existing.DisplayName == def.displayName &&
			existing.Level == def.level &&
			existing.IsSystem &&
			slices.Equal(existing.Permissions, def.permissions) {
			continue
		}

		existing.DisplayName = def.displayName
		existing.Level = def.level
		existing.Permissions = def.permissions
		existing.IsSystem = true
		if err := s.roleRepo.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update system role '%s': %w", def.name, err)
		}
		log.Printf("Re-asserted system role '%s'", def.name)
	}

	return nil
}

func (s *RoleService) CreateRole(ctx context.Context, name, displayName string, level int, perms []string) (*models.Role, error) {
	if level < hierarchy.LevelUnion || level > hierarchy.LevelChurch {
		return nil, fmt.Errorf("roles can only be bound to union, conference or church level, got %d", level)
	}

	if malformed := permissions.Validate(perms); len(malformed) > 0 {
		return nil, &models.ValidationError{Field: "permissions", Malformed: malformed}
	}

	role := &models.Role{
		Name:        name,
		DisplayName: displayName,
		Level:       level,
		Permissions: perms,
		IsSystem:    false,
	}

	return s.roleRepo.Create(ctx, role)
}

func (s *RoleService) UpdateRole(ctx context.Context, id bson.ObjectID, name, displayName string, perms []string) (*models.Role, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if role.IsSystem && role.Name != name {
		return nil, errors.New("cannot rename a system role")
	}

	if malformed := permissions.Validate(perms); len(malformed) > 0 {
		return nil, &models.ValidationError{Field: "permissions", Malformed: malformed}
	}

	role.Name = name
	role.DisplayName = displayName
	role.Permissions = perms

	err = s.roleRepo.Update(ctx, role)
	if err != nil {
		return nil, err
	}

	return role, nil
}

func (s *RoleService) DeleteRole(ctx context.Context, id bson.ObjectID) error {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if role.IsSystem {
		return errors.New("cannot delete system role")
	}

	return s.roleRepo.Delete(ctx, id)
}

func (s *RoleService) GetRoleByID(ctx context.Context, id bson.ObjectID) (*models.Role, error) {
	return s.roleRepo.FindByID(ctx, id)
}

func (s *RoleService) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	return s.roleRepo.FindByName(ctx, name)
}

func (s *RoleService) GetRolesByLevel(ctx context.Context, level int) ([]*models.Role, error) {
	return s.roleRepo.FindByLevel(ctx, level)
}

func (s *RoleService) GetAllRoles(ctx context.Context, page, limit int) ([]*models.Role, error) {
	return s.roleRepo.FindAll(ctx, page, limit)
}
