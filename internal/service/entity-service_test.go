package service

import (
	"context"
	"errors"
	"testing"

	"organization_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCreateEntityPathFixup(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	union, err := f.entityService.CreateEntity(ctx, "North Union", models.EntityTypeUnion, bson.NilObjectID)
	if err != nil {
		t.Fatalf("creating union: %v", err)
	}
	if union.HierarchyPath != union.ID.Hex() {
		t.Errorf("union path = %q, want its own ID %q", union.HierarchyPath, union.ID.Hex())
	}
	if union.HierarchyLevel != 0 {
		t.Errorf("union level = %d, want 0", union.HierarchyLevel)
	}

	conference, err := f.entityService.CreateEntity(ctx, "East Conference", models.EntityTypeConference, union.ID)
	if err != nil {
		t.Fatalf("creating conference: %v", err)
	}
	wantPath := union.ID.Hex() + "/" + conference.ID.Hex()
	if conference.HierarchyPath != wantPath {
		t.Errorf("conference path = %q, want %q", conference.HierarchyPath, wantPath)
	}
	if conference.HierarchyLevel != 1 {
		t.Errorf("conference level = %d, want 1", conference.HierarchyLevel)
	}

	// The fixed-up path must be persisted, not just returned.
	stored, err := f.entities.FindByID(ctx, conference.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.HierarchyPath != wantPath {
		t.Errorf("stored path = %q, want %q", stored.HierarchyPath, wantPath)
	}
}

func TestCreateEntityParentRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.entityService.CreateEntity(ctx, "Rogue Union", models.EntityTypeUnion, f.union.ID); err == nil {
		t.Error("a union must not have a parent")
	}
	if _, err := f.entityService.CreateEntity(ctx, "Orphan Church", models.EntityTypeChurch, bson.NilObjectID); err == nil {
		t.Error("a church requires a parent")
	}
	if _, err := f.entityService.CreateEntity(ctx, "Skipped Level", models.EntityTypeChurch, f.union.ID); err == nil {
		t.Error("a church cannot be created directly under a union")
	}
	if _, err := f.entityService.CreateEntity(ctx, "Upside Down", models.EntityTypeConference, f.church1.ID); err == nil {
		t.Error("a conference cannot be created under a church")
	}
}

func TestCreateEntityInactiveParent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	closed := f.entities.addEntity(models.EntityTypeChurch, "u1/c1/ch9", false)

	if _, err := f.entityService.CreateEntity(ctx, "New Team", models.EntityTypeTeam, closed.ID); err == nil {
		t.Error("creating under an inactive parent must fail")
	}
}

func TestCreateEntityUnknownType(t *testing.T) {
	f := newFixture()

	_, err := f.entityService.CreateEntity(context.Background(), "Mystery", "district", bson.NilObjectID)
	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for unknown entity type, got %v", err)
	}
}

func TestRenameEntity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.entityService.RenameEntity(ctx, f.church1.ID, "Renamed Church"); err != nil {
		t.Fatalf("RenameEntity: %v", err)
	}

	church, err := f.entities.FindByID(ctx, f.church1.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if church.Name != "Renamed Church" {
		t.Errorf("name = %q, want %q", church.Name, "Renamed Church")
	}
	if church.HierarchyPath != "u1/c1/ch1" {
		t.Errorf("rename must not touch the hierarchy path, got %q", church.HierarchyPath)
	}

	if err := f.entityService.RenameEntity(ctx, f.church1.ID, ""); err == nil {
		t.Error("an empty name must be rejected")
	}
	if err := f.entityService.RenameEntity(ctx, bson.NewObjectID(), "Ghost"); err == nil {
		t.Error("renaming an unknown entity must fail")
	}
}

func TestReactivateEntity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.integrityService.DeactivateEntity(ctx, f.church1.ID); err != nil {
		t.Fatalf("deactivating church1: %v", err)
	}

	if err := f.entityService.ReactivateEntity(ctx, f.church1.ID); err != nil {
		t.Fatalf("ReactivateEntity: %v", err)
	}
	church, err := f.entities.FindByID(ctx, f.church1.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !church.IsActive {
		t.Error("church should be active after reactivation")
	}

	// Reactivating an already active entity is a no-op.
	if err := f.entityService.ReactivateEntity(ctx, f.church1.ID); err != nil {
		t.Errorf("reactivating an active entity should be a no-op, got %v", err)
	}
}

func TestReactivateUnderInactiveParent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Build a real parent-child pair through the service so ParentID is set.
	union, err := f.entityService.CreateEntity(ctx, "South Union", models.EntityTypeUnion, bson.NilObjectID)
	if err != nil {
		t.Fatalf("creating union: %v", err)
	}
	conference, err := f.entityService.CreateEntity(ctx, "West Conference", models.EntityTypeConference, union.ID)
	if err != nil {
		t.Fatalf("creating conference: %v", err)
	}

	if err := f.integrityService.DeactivateEntity(ctx, conference.ID); err != nil {
		t.Fatalf("deactivating conference: %v", err)
	}
	if err := f.integrityService.DeactivateEntity(ctx, union.ID); err != nil {
		t.Fatalf("deactivating union: %v", err)
	}

	if err := f.entityService.ReactivateEntity(ctx, conference.ID); err == nil {
		t.Error("a child must not come back under an inactive parent")
	}

	if err := f.entityService.ReactivateEntity(ctx, union.ID); err != nil {
		t.Fatalf("reactivating union: %v", err)
	}
	if err := f.entityService.ReactivateEntity(ctx, conference.ID); err != nil {
		t.Errorf("reactivation should succeed once the parent is active, got %v", err)
	}
}

func TestTargetForFailsClosedOnBadPath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	broken := f.entities.addEntity(models.EntityTypeChurch, "u1/c1/ch8", true)
	if err := f.entities.SetHierarchyPath(ctx, broken.ID, ""); err != nil {
		t.Fatalf("breaking path: %v", err)
	}

	_, err := f.entityService.TargetFor(ctx, broken.ID)
	var consistencyErr *models.ConsistencyError
	if !errors.As(err, &consistencyErr) {
		t.Errorf("expected ConsistencyError, got %v", err)
	}

	target, err := f.entityService.TargetFor(ctx, f.church1.ID)
	if err != nil {
		t.Fatalf("TargetFor valid entity: %v", err)
	}
	if target.ID != f.church1.ID || target.Level != 2 || target.Path != "u1/c1/ch1" {
		t.Errorf("unexpected target %+v", target)
	}
}
