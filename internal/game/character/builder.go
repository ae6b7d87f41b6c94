package character

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cory-johannsen/whatfools/internal/game/dice"
	"github.com/cory-johannsen/whatfools/internal/game/ruleset"
)

// ErrIncompatibleRace is returned when a requested race cannot hold the alignment at all.
var ErrIncompatibleRace = errors.New("race does not permit alignment")

// BuildOptions carries the optional worshipper choices.
type BuildOptions struct {
	// RaceHint selects a race by id; empty picks one at random.
	RaceHint string
	// Gender fixes the gender; nil picks one at random unless the role forces it.
	Gender *ruleset.Gender
	// Discovery enables the leniency mode in which death is prevented.
	Discovery bool
}

// Build creates the worshipper of a deity of role and alignment a.
//
// Gender comes from the role when it only admits one, then from opts, then at random.
// Without a race hint, a random eligible race is chosen; with probability 1/len(roles)
// (or always, when no race is eligible) the worshipper becomes a Priest of a race
// that merely permits the alignment. A hinted race that the role forbids but the
// alignment permits also makes the worshipper a Priest.
//
// Precondition: rs, role and roller must be non-nil.
// Postcondition: Returns a worshipper whose (role, race, alignment) satisfies every
// restriction or whose role is the Priest; or an error wrapping ruleset.ErrUnknownRace
// or ErrIncompatibleRace.
func Build(rs *ruleset.Ruleset, role *ruleset.Role, a ruleset.Alignment, opts BuildOptions, roller *dice.Roller) (*Worshipper, error) {
	if rs == nil || role == nil || roller == nil {
		return nil, errors.New("character: ruleset, role and roller must be non-nil")
	}

	gender, forced := role.ForcedGender()
	if !forced {
		if opts.Gender != nil {
			gender = *opts.Gender
		} else {
			gender = dice.Choice(roller, ruleset.Genders)
		}
	}

	eligible, allowed := rs.EligibleRaces(role, a)

	var race *ruleset.Race
	if opts.RaceHint != "" {
		hinted, err := rs.Race(opts.RaceHint)
		if err != nil {
			return nil, err
		}
		switch {
		case slices.Contains(eligible, hinted):
			race = hinted
		case slices.Contains(allowed, hinted):
			race, role = hinted, rs.Priest()
		default:
			return nil, fmt.Errorf("%w: %s cannot be %s", ErrIncompatibleRace, hinted.ID, a)
		}
	} else {
		if len(allowed) == 0 {
			return nil, fmt.Errorf("%w: no race can be %s", ErrIncompatibleRace, a)
		}
		if len(eligible) > 0 && dice.Choice(roller, rs.RoleKeys()) != ruleset.PriestKey {
			race = dice.Choice(roller, eligible)
		} else {
			role = rs.Priest()
			race = dice.Choice(roller, allowed)
		}
	}

	w := New(role, race, a, gender)
	w.Discovery = opts.Discovery
	return w, nil
}
