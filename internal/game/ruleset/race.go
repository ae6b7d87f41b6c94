package ruleset

import (
	"fmt"
	"slices"
)

// Race is a worshipper's race and the alignments it may hold.
//
// Precondition: ID must be non-empty and Alignments non-empty after loading.
type Race struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	Alignments []Alignment `yaml:"alignments"`
}

// Permits reports whether members of the race may hold alignment a.
func (r *Race) Permits(a Alignment) bool {
	return slices.Contains(r.Alignments, a)
}

// DisplayName returns Name, falling back to ID.
//
// Postcondition: Returns a non-empty string.
func (r *Race) DisplayName() string {
	if r.Name == "" {
		return r.ID
	}
	return r.Name
}

func (r *Race) validate() error {
	if r.ID == "" {
		return fmt.Errorf("race id must not be empty")
	}
	if len(r.Alignments) == 0 {
		return fmt.Errorf("race %q must permit at least one alignment", r.ID)
	}
	return nil
}
