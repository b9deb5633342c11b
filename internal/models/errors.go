package models

import (
	"fmt"
	"strings"

	"organization_service/internal/hierarchy"
)

// ValidationError rejects malformed input before any state changes. Malformed
// lists every bad entry so the caller can fix them in one round trip.
type ValidationError struct {
	Field     string
	Malformed []string
}

func (e *ValidationError) Error() string {
	if len(e.Malformed) == 0 {
		return fmt.Sprintf("validation failed for %s", e.Field)
	}
	return fmt.Sprintf("validation failed for %s: malformed entries [%s]", e.Field, strings.Join(e.Malformed, ", "))
}

// IntegrityError blocks a soft delete while active descendants exist. It
// names the first blocking level and its count so the caller can guide the
// user to delete children first.
type IntegrityError struct {
	Level int
	Count int64
}

func (e *IntegrityError) Error() string {
	plural := hierarchy.LevelPlural(e.Level)
	return fmt.Sprintf("%d active %s still exist, delete %s first", e.Count, plural, plural)
}

// ConsistencyError marks an entity whose hierarchy path is missing or
// malformed. It is a data-integrity bug; the request carrying it fails
// closed.
type ConsistencyError struct {
	EntityID string
	Detail   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("entity %s has an inconsistent hierarchy path: %s", e.EntityID, e.Detail)
}
