// Package ruleset defines the static character data of the simulation:
// roles, races, alignments, genders and the deity table, loaded from YAML.
package ruleset

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Alignment is a worshipper's and deity's moral alignment.
type Alignment int

const (
	Lawful Alignment = iota
	Neutral
	Chaotic
)

// Alignments lists every alignment in table order.
var Alignments = []Alignment{Lawful, Neutral, Chaotic}

// String returns the capitalized alignment name.
func (a Alignment) String() string {
	switch a {
	case Lawful:
		return "Lawful"
	case Neutral:
		return "Neutral"
	case Chaotic:
		return "Chaotic"
	default:
		return "Unknown"
	}
}

// Key returns the one-letter selection key: "l", "n" or "c".
func (a Alignment) Key() string {
	return strings.ToLower(a.String()[:1])
}

// ParseAlignment accepts either the selection key or the full name, case-insensitively.
//
// Postcondition: Returns the alignment or an error wrapping ErrUnknownAlignment.
func ParseAlignment(s string) (Alignment, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, a := range Alignments {
		if v == a.Key() || v == strings.ToLower(a.String()) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlignment, s)
}

// UnmarshalYAML decodes an alignment written as a key or a name.
func (a *Alignment) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseAlignment(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Gender indexes the gendered name and title pairs of a role.
type Gender int

const (
	Male Gender = iota
	Female
)

// Genders lists both genders in pair order.
var Genders = []Gender{Male, Female}

// String returns "male" or "female".
func (g Gender) String() string {
	if g == Female {
		return "female"
	}
	return "male"
}

// ParseGender accepts "male", "female", "m" or "f".
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return Male, nil
	case "f", "female":
		return Female, nil
	default:
		return 0, fmt.Errorf("ruleset: unknown gender %q", s)
	}
}

// Pronouns holds the subject, object and possessive pronoun for a gender.
type Pronouns struct {
	He  string
	Him string
	His string
}

// Pronouns returns the pronoun set for g.
func (g Gender) Pronouns() Pronouns {
	if g == Female {
		return Pronouns{He: "she", Him: "her", His: "her"}
	}
	return Pronouns{He: "he", Him: "him", His: "his"}
}
