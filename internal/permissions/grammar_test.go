package permissions

import (
	"slices"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Permission
		wantErr bool
	}{
		{
			name: "plain resource action",
			raw:  "users.create",
			want: Permission{Resource: "users", Action: "create"},
		},
		{
			name: "with scope suffix",
			raw:  "users.create:subordinate",
			want: Permission{Resource: "users", Action: "create", Scope: ScopeSubordinate},
		},
		{
			name: "action wildcard",
			raw:  "teams.*",
			want: Permission{Resource: "teams", Action: "*"},
		},
		{
			name: "global wildcard",
			raw:  "*",
			want: Permission{Resource: "*", Action: "*"},
		},
		{
			name: "legacy all spelling",
			raw:  "all",
			want: Permission{Resource: "*", Action: "*"},
		},
		{
			name: "acs team scope",
			raw:  "events.read:acs_team",
			want: Permission{Resource: "events", Action: "read", Scope: ScopeACSTeam},
		},
		{
			name:    "missing action",
			raw:     "users",
			wantErr: true,
		},
		{
			name:    "empty string",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "uppercase resource",
			raw:     "Users.create",
			wantErr: true,
		},
		{
			name:    "unknown scope",
			raw:     "users.create:everywhere",
			wantErr: true,
		},
		{
			name:    "trailing colon",
			raw:     "users.create:",
			wantErr: true,
		},
		{
			name:    "embedded space",
			raw:     "users .create",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %+v", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required string
		want     bool
	}{
		{
			name:     "wildcard covers anything",
			granted:  []string{"*"},
			required: "users.create",
			want:     true,
		},
		{
			name:     "legacy all covers anything",
			granted:  []string{"all"},
			required: "roles.delete",
			want:     true,
		},
		{
			name:     "verbatim match",
			granted:  []string{"users.create"},
			required: "users.create",
			want:     true,
		},
		{
			name:     "resource wildcard covers any action",
			granted:  []string{"users.*"},
			required: "users.delete",
			want:     true,
		},
		{
			name:     "scope suffix on grant is ignored",
			granted:  []string{"users.create:subordinate"},
			required: "users.create",
			want:     true,
		},
		{
			name:     "scope suffix on requirement is ignored",
			granted:  []string{"users.create"},
			required: "users.create:own",
			want:     true,
		},
		{
			name:     "different action does not match",
			granted:  []string{"users.create"},
			required: "users.delete",
			want:     false,
		},
		{
			name:     "different resource does not match",
			granted:  []string{"users.*"},
			required: "teams.read",
			want:     false,
		},
		{
			name:     "empty grant list denies",
			granted:  nil,
			required: "users.read",
			want:     false,
		},
		{
			name:     "read only role cannot write",
			granted:  []string{"services.read:public", "stories.read:public"},
			required: "services.update",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.granted, tt.required); got != tt.want {
				t.Errorf("Matches(%v, %q) = %v, want %v", tt.granted, tt.required, got, tt.want)
			}
		})
	}
}

func TestEffectiveScope(t *testing.T) {
	tests := []struct {
		raw  string
		want Scope
	}{
		{"users.create", ScopeOwn},
		{"users.create:subordinate", ScopeSubordinate},
		{"users.read:self", ScopeSelf},
		{"services.read:public", ScopePublic},
		{"teams.*", ScopeSubordinate},
		{"*", ScopeSubordinate},
		{"all", ScopeSubordinate},
	}

	for _, tt := range tests {
		p, err := Parse(tt.raw)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", tt.raw, err)
		}
		if got := p.EffectiveScope(); got != tt.want {
			t.Errorf("EffectiveScope(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestValidateReportsEveryMalformedEntry(t *testing.T) {
	raws := []string{
		"users.create",
		"bogus",
		"teams.read:own",
		"Broken.read",
		"events.read:nowhere",
	}

	malformed := Validate(raws)
	want := []string{"bogus", "Broken.read", "events.read:nowhere"}
	if !slices.Equal(malformed, want) {
		t.Errorf("Validate returned %v, want %v", malformed, want)
	}

	if got := Validate([]string{"users.create", "*"}); got != nil {
		t.Errorf("Validate on well-formed list returned %v, want nil", got)
	}
}

func TestMatchingGrants(t *testing.T) {
	granted := []string{
		"users.create:subordinate",
		"users.*",
		"users.delete:own",
		"teams.read",
		"*",
	}

	grants := MatchingGrants(granted, "users.create")
	if len(grants) != 3 {
		t.Fatalf("MatchingGrants returned %d entries, want 3: %+v", len(grants), grants)
	}

	scopes := make([]Scope, len(grants))
	for i, g := range grants {
		scopes[i] = g.EffectiveScope()
	}
	want := []Scope{ScopeSubordinate, ScopeSubordinate, ScopeSubordinate}
	if !slices.Equal(scopes, want) {
		t.Errorf("effective scopes = %v, want %v", scopes, want)
	}

	if got := MatchingGrants([]string{"teams.read"}, "users.read"); len(got) != 0 {
		t.Errorf("MatchingGrants across resources returned %+v, want none", got)
	}
}

func TestMatchingGrantsAgreesWithMatches(t *testing.T) {
	// A scope suffix on an action wildcard takes the entry out of the
	// verbatim "resource.*" rule. Both evaluators must refuse it; the
	// resolver must never be more permissive than the matcher.
	tests := []struct {
		granted  []string
		required string
	}{
		{[]string{"users.*:subordinate"}, "users.create"},
		{[]string{"users.*:own"}, "users.delete"},
		{[]string{"users.*"}, "users.create"},
		{[]string{"users.create:subordinate"}, "users.create"},
		{[]string{"teams.*:subordinate"}, "users.read"},
	}

	for _, tt := range tests {
		matched := Matches(tt.granted, tt.required)
		grants := MatchingGrants(tt.granted, tt.required)
		if matched != (len(grants) > 0) {
			t.Errorf("Matches(%v, %q) = %v but MatchingGrants returned %d entries",
				tt.granted, tt.required, matched, len(grants))
		}
	}

	if got := MatchingGrants([]string{"users.*:subordinate"}, "users.create"); len(got) != 0 {
		t.Errorf("scoped action wildcard must not resolve, got %+v", got)
	}
}
