// Package permissions implements the permission string grammar
// "resource.action[:scope]" and its evaluation against a role's grant list.
package permissions

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Scope is the breadth of entities a granted permission applies to.
type Scope string

const (
	ScopeNone        Scope = ""
	ScopeSelf        Scope = "self"
	ScopeOwn         Scope = "own"
	ScopeSubordinate Scope = "subordinate"
	ScopeAll         Scope = "all"
	ScopeACSTeam     Scope = "acs_team"
	ScopeACS         Scope = "acs"
	ScopePublic      Scope = "public"
)

const (
	// Wildcard grants every permission.
	Wildcard = "*"
	// WildcardAll is the legacy spelling of Wildcard still present in
	// older role documents.
	WildcardAll = "all"
)

var grammarPattern = regexp.MustCompile(`^[a-z_]+\.([a-z_]+|\*)(:[a-z_]+)?$`)

var knownScopes = map[Scope]bool{
	ScopeSelf:        true,
	ScopeOwn:         true,
	ScopeSubordinate: true,
	ScopeAll:         true,
	ScopeACSTeam:     true,
	ScopeACS:         true,
	ScopePublic:      true,
}

// Permission is the parsed form of a permission string.
type Permission struct {
	Resource string
	Action   string
	Scope    Scope
}

func (p Permission) String() string {
	s := p.Resource + "." + p.Action
	if p.Scope != ScopeNone {
		s += ":" + string(p.Scope)
	}
	return s
}

// IsWildcard reports whether the permission grants everything.
func (p Permission) IsWildcard() bool {
	return p.Resource == Wildcard
}

// EffectiveScope resolves the scope a grant actually carries. Exact entries
// without a suffix default to own. Wildcard entries have no place to carry a
// suffix; they cover the assignment entity's subtree, never sibling
// organizations.
func (p Permission) EffectiveScope() Scope {
	if p.Scope != ScopeNone {
		return p.Scope
	}
	if p.Resource == Wildcard || p.Action == Wildcard {
		return ScopeSubordinate
	}
	return ScopeOwn
}

// Parse validates raw against the grammar and returns its parsed form.
func Parse(raw string) (Permission, error) {
	if raw == Wildcard || raw == WildcardAll {
		return Permission{Resource: Wildcard, Action: Wildcard}, nil
	}

	if !grammarPattern.MatchString(raw) {
		return Permission{}, fmt.Errorf("permission '%s' does not match resource.action[:scope]", raw)
	}

	rest := raw
	scope := ScopeNone
	if idx := strings.Index(rest, ":"); idx >= 0 {
		scope = Scope(rest[idx+1:])
		rest = rest[:idx]
		if !knownScopes[scope] {
			return Permission{}, fmt.Errorf("permission '%s' has unknown scope '%s'", raw, scope)
		}
	}

	resource, action, _ := strings.Cut(rest, ".")
	return Permission{Resource: resource, Action: action, Scope: scope}, nil
}

// Validate checks a list of permission strings and returns every malformed
// entry, so callers can report them all at once instead of one per attempt.
func Validate(raws []string) []string {
	var malformed []string
	for _, raw := range raws {
		if _, err := Parse(raw); err != nil {
			malformed = append(malformed, raw)
		}
	}
	return malformed
}

// Matches reports whether the grant list covers the required permission.
// Scope suffixes are intentionally ignored here: a role granting
// "users.create:subordinate" satisfies a requirement of "users.create".
// Whether the concrete target falls inside the granted scope is a separate
// check performed by the resolver.
func Matches(granted []string, required string) bool {
	if slices.Contains(granted, Wildcard) || slices.Contains(granted, WildcardAll) {
		return true
	}

	if slices.Contains(granted, required) {
		return true
	}

	base := required
	if idx := strings.Index(base, ":"); idx >= 0 {
		base = base[:idx]
	}
	if slices.Contains(granted, base) {
		return true
	}
	resource, _, found := strings.Cut(base, ".")
	if found && slices.Contains(granted, resource+"."+Wildcard) {
		return true
	}

	for _, g := range granted {
		idx := strings.Index(g, ":")
		if idx < 0 {
			continue
		}
		if g[:idx] == base {
			return true
		}
	}

	return false
}

// MatchingGrants returns every parsed grant entry that covers the required
// permission, under exactly the same rule Matches applies: an action wildcard
// counts only in its verbatim "resource.*" spelling, never with a scope
// suffix. The resolver walks these to evaluate each entry's scope against the
// concrete target. Malformed entries are skipped; they cannot be persisted
// through the catalog in the first place.
func MatchingGrants(granted []string, required string) []Permission {
	base := required
	if idx := strings.Index(base, ":"); idx >= 0 {
		base = base[:idx]
	}
	resource, _, _ := strings.Cut(base, ".")

	var matches []Permission
	for _, g := range granted {
		p, err := Parse(g)
		if err != nil {
			continue
		}
		if p.IsWildcard() {
			matches = append(matches, p)
			continue
		}
		if p.Resource != resource {
			continue
		}
		if p.Action == Wildcard {
			if p.Scope == ScopeNone {
				matches = append(matches, p)
			}
			continue
		}
		if p.Resource+"."+p.Action == base {
			matches = append(matches, p)
		}
	}
	return matches
}
