package ruleset

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// PriestKey is the key of the unrestricted fallback role.
const PriestKey = "p"

// GenderPair is a value indexed by Gender. YAML may give a single scalar
// (used for both genders) or a two-element sequence whose entries may be null.
type GenderPair [2]string

// For returns the value for g.
func (p GenderPair) For(g Gender) string { return p[g] }

// UnmarshalYAML normalizes a scalar or a two-element sequence into the pair.
func (p *GenderPair) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*p = GenderPair{s, s}
		return nil
	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: gendered pair must have exactly 2 entries, got %d", node.Line, len(node.Content))
		}
		var out GenderPair
		for i, n := range node.Content {
			if n.Tag == "!!null" {
				continue
			}
			if err := n.Decode(&out[i]); err != nil {
				return err
			}
		}
		*p = out
		return nil
	default:
		return fmt.Errorf("line %d: gendered pair must be a string or a 2-element list", node.Line)
	}
}

// Role is a profession from which a deity draws worshippers.
//
// Precondition: Key must be non-empty and at least one of Names must be set after loading.
type Role struct {
	Key                   string      `yaml:"key"`
	Names                 GenderPair  `yaml:"name"`
	PluralName            string      `yaml:"plural"`
	Titles                GenderPair  `yaml:"title"`
	Greeting              string      `yaml:"greeting"`
	AlignmentRestrictions []Alignment `yaml:"alignments"`
	RaceRestrictions      []string    `yaml:"races"`
	Gods                  []string    `yaml:"gods"`
}

// SelectableAsDeity reports whether a deity may be chosen for this role.
// Roles without a plural name (the Priest) only exist as a fallback.
func (r *Role) SelectableAsDeity() bool {
	return r.PluralName != "" && len(r.Gods) == len(Alignments)
}

// Permits reports whether a worshipper of alignment a may take this role.
//
// Postcondition: Returns true when the role is unrestricted.
func (r *Role) Permits(a Alignment) bool {
	return len(r.AlignmentRestrictions) == 0 || slices.Contains(r.AlignmentRestrictions, a)
}

// PermitsRace reports whether a worshipper of race raceID may take this role.
//
// Postcondition: Returns true when the role is unrestricted.
func (r *Role) PermitsRace(raceID string) bool {
	return len(r.RaceRestrictions) == 0 || slices.Contains(r.RaceRestrictions, raceID)
}

// Name returns the role name for g.
func (r *Role) Name(g Gender) string { return r.Names.For(g) }

// Title returns the starting rank title for g.
func (r *Role) Title(g Gender) string { return r.Titles.For(g) }

// ForcedGender returns the only gender the role admits when one name is unset.
//
// Postcondition: ok is false when both genders are allowed.
func (r *Role) ForcedGender() (g Gender, ok bool) {
	switch {
	case r.Names[Male] == "" && r.Names[Female] != "":
		return Female, true
	case r.Names[Female] == "" && r.Names[Male] != "":
		return Male, true
	default:
		return 0, false
	}
}

// GodFor returns the name of the role's god of alignment a.
//
// Postcondition: Returns "" when the role has no pantheon.
func (r *Role) GodFor(a Alignment) string {
	if int(a) < 0 || int(a) >= len(r.Gods) {
		return ""
	}
	return r.Gods[a]
}

func (r *Role) validate() error {
	if r.Key == "" {
		return fmt.Errorf("role key must not be empty")
	}
	if r.Names[Male] == "" && r.Names[Female] == "" {
		return fmt.Errorf("role %q must have a name", r.Key)
	}
	if r.Titles[Male] == "" && r.Titles[Female] == "" {
		return fmt.Errorf("role %q must have a title", r.Key)
	}
	if len(r.Gods) != 0 && len(r.Gods) != len(Alignments) {
		return fmt.Errorf("role %q must list %d gods, got %d", r.Key, len(Alignments), len(r.Gods))
	}
	if r.Greeting == "" {
		r.Greeting = "Hello"
	}
	return nil
}
