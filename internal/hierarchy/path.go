// Package hierarchy implements the materialized ancestry path used by every
// organization entity (Union, Conference, Church, Team, Service) and the
// subtree queries built on top of it.
package hierarchy

import (
	"fmt"
	"regexp"
	"strings"
)

// Separator joins ancestor IDs inside a materialized path.
const Separator = "/"

// PlaceholderSegment is written as the final path segment when an entity is
// persisted before its own ID is known. It is replaced with the real ID right
// after creation.
const PlaceholderSegment = "pending"

// Hierarchy levels, ordinal depth from the root. Union is the most senior.
const (
	LevelUnion      = 0
	LevelConference = 1
	LevelChurch     = 2
	LevelTeam       = 3
)

// MaxLevel is the deepest level in the hierarchy. Teams and services share it.
const MaxLevel = LevelTeam

var levelNames = map[int]string{
	LevelUnion:      "union",
	LevelConference: "conference",
	LevelChurch:     "church",
	LevelTeam:       "team",
}

var levelPlurals = map[int]string{
	LevelUnion:      "unions",
	LevelConference: "conferences",
	LevelChurch:     "churches",
	LevelTeam:       "teams",
}

// LevelName returns the singular entity name for a level, or "unknown".
func LevelName(level int) string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return "unknown"
}

// LevelPlural returns the plural entity name for a level, or "entities".
func LevelPlural(level int) string {
	if name, ok := levelPlurals[level]; ok {
		return name
	}
	return "entities"
}

// Path is a validated materialized ancestry path, ancestor IDs joined by the
// separator down to and including the owning entity's ID.
type Path string

// New validates a raw path string. Empty paths and empty segments are
// rejected; an entity carrying one is a data-integrity fault.
func New(raw string) (Path, error) {
	if raw == "" {
		return "", fmt.Errorf("hierarchy path is empty")
	}
	for _, segment := range strings.Split(raw, Separator) {
		if segment == "" {
			return "", fmt.Errorf("hierarchy path '%s' contains an empty segment", raw)
		}
	}
	return Path(raw), nil
}

// Build appends ownID to the parent path. The parent path is empty for a
// union. The ID may not be empty or contain the separator.
func Build(parent Path, ownID string) (Path, error) {
	if ownID == "" {
		return "", fmt.Errorf("cannot build hierarchy path: entity ID is empty")
	}
	if strings.Contains(ownID, Separator) {
		return "", fmt.Errorf("cannot build hierarchy path: entity ID '%s' contains '%s'", ownID, Separator)
	}
	if parent == "" {
		return Path(ownID), nil
	}
	return Path(string(parent) + Separator + ownID), nil
}

func (p Path) String() string {
	return string(p)
}

// Level is the ordinal depth encoded by the path.
func (p Path) Level() int {
	return strings.Count(string(p), Separator)
}

// Segments returns the ancestor IDs in root-first order.
func (p Path) Segments() []string {
	return strings.Split(string(p), Separator)
}

// OwnID returns the final segment, the owning entity's ID.
func (p Path) OwnID() string {
	segments := p.Segments()
	return segments[len(segments)-1]
}

// IsAncestorOf reports whether target lies in p's subtree. A path is an
// ancestor of itself; own-scope checks rely on that.
func (p Path) IsAncestorOf(target Path) bool {
	if p == target {
		return true
	}
	return strings.HasPrefix(string(target), string(p)+Separator)
}

// ReplacePlaceholder swaps the trailing placeholder segment for the real ID
// in the second phase of entity creation.
func (p Path) ReplacePlaceholder(ownID string) (Path, error) {
	if p.OwnID() != PlaceholderSegment {
		return "", fmt.Errorf("hierarchy path '%s' carries no placeholder segment", p)
	}
	segments := p.Segments()
	if len(segments) == 1 {
		return Build("", ownID)
	}
	parent := Path(strings.Join(segments[:len(segments)-1], Separator))
	return Build(parent, ownID)
}

// DescendantPattern builds the anchored, escaped regex matching every strict
// descendant of root. All subtree scans go through this one function so that
// regex metacharacters in entity IDs can never widen a filter.
func DescendantPattern(root Path) string {
	return "^" + regexp.QuoteMeta(string(root)+Separator)
}
