package ruleset

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownRole is returned when a role key is not in the ruleset.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownAlignment is returned when an alignment key cannot be parsed.
	ErrUnknownAlignment = errors.New("unknown alignment")
	// ErrUnknownRace is returned when a race id is not in the ruleset.
	ErrUnknownRace = errors.New("unknown race")
)

//go:embed content
var defaultContent embed.FS

// Ruleset holds every role and race, preserving file order, with lookup by key.
type Ruleset struct {
	Roles []*Role
	Races []*Race

	roles map[string]*Role
	races map[string]*Race
}

// NewRuleset indexes roles and races and validates them.
//
// Precondition: roles and races must be non-nil entries.
// Postcondition: Returns a Ruleset with a Priest role, or a non-nil error.
func NewRuleset(roles []*Role, races []*Race) (*Ruleset, error) {
	rs := &Ruleset{
		roles: make(map[string]*Role, len(roles)),
		races: make(map[string]*Race, len(races)),
	}
	var errs []string
	for _, r := range roles {
		if err := r.validate(); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if _, dup := rs.roles[r.Key]; dup {
			errs = append(errs, fmt.Sprintf("duplicate role key %q", r.Key))
			continue
		}
		rs.roles[r.Key] = r
		rs.Roles = append(rs.Roles, r)
	}
	for _, r := range races {
		if err := r.validate(); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if _, dup := rs.races[r.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate race id %q", r.ID))
			continue
		}
		rs.races[r.ID] = r
		rs.Races = append(rs.Races, r)
	}
	if _, ok := rs.roles[PriestKey]; !ok {
		errs = append(errs, fmt.Sprintf("ruleset must define the fallback role %q", PriestKey))
	}
	for _, r := range rs.Roles {
		for _, id := range r.RaceRestrictions {
			if _, ok := rs.races[id]; !ok {
				errs = append(errs, fmt.Sprintf("role %q restricts to undefined race %q", r.Key, id))
			}
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("ruleset validation failed: %s", strings.Join(errs, "; "))
	}
	return rs, nil
}

// Default returns the ruleset built from the embedded content files.
//
// Postcondition: Returns a valid Ruleset or a non-nil error.
func Default() (*Ruleset, error) {
	sub, err := fs.Sub(defaultContent, "content")
	if err != nil {
		return nil, fmt.Errorf("opening embedded content: %w", err)
	}
	return LoadFS(sub)
}

// Load reads roles/*.yaml and races/*.yaml under dir.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns a valid Ruleset or a non-nil error.
func Load(dir string) (*Ruleset, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads roles/*.yaml and races/*.yaml from fsys.
//
// Postcondition: Returns a valid Ruleset or a non-nil error.
func LoadFS(fsys fs.FS) (*Ruleset, error) {
	var roles []*Role
	if err := decodeAll(fsys, "roles", &roles); err != nil {
		return nil, err
	}
	var races []*Race
	if err := decodeAll(fsys, "races", &races); err != nil {
		return nil, err
	}
	return NewRuleset(roles, races)
}

// decodeAll appends the YAML list found in every .yaml file of dir to out.
func decodeAll[T any](fsys fs.FS, dir string, out *[]*T) error {
	files, err := yamlFiles(fsys, dir)
	if err != nil {
		return err
	}
	for _, p := range files {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		var items []*T
		if err := yaml.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("parsing %s: %w", p, err)
		}
		*out = append(*out, items...)
	}
	return nil
}

func yamlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, path.Join(dir, name))
		}
	}
	return paths, nil
}

// Role returns the role with key.
//
// Postcondition: Returns the role or an error wrapping ErrUnknownRole.
func (rs *Ruleset) Role(key string) (*Role, error) {
	r, ok := rs.roles[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, key)
	}
	return r, nil
}

// Race returns the race with id.
//
// Postcondition: Returns the race or an error wrapping ErrUnknownRace.
func (rs *Ruleset) Race(id string) (*Race, error) {
	r, ok := rs.races[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRace, id)
	}
	return r, nil
}

// Priest returns the unrestricted fallback role.
func (rs *Ruleset) Priest() *Role {
	return rs.roles[PriestKey]
}

// RoleKeys returns every role key in file order, including the Priest.
func (rs *Ruleset) RoleKeys() []string {
	keys := make([]string, 0, len(rs.Roles))
	for _, r := range rs.Roles {
		keys = append(keys, r.Key)
	}
	return keys
}

// DeityRoles returns the roles a deity may be drawn from.
func (rs *Ruleset) DeityRoles() []*Role {
	var out []*Role
	for _, r := range rs.Roles {
		if r.SelectableAsDeity() {
			out = append(out, r)
		}
	}
	return out
}

// EligibleRaces partitions the races for a worshipper of role and alignment a.
// allowed holds races that permit a; eligible is the subset that role also permits.
//
// Postcondition: eligible ⊆ allowed; both preserve file order.
func (rs *Ruleset) EligibleRaces(role *Role, a Alignment) (eligible, allowed []*Race) {
	for _, race := range rs.Races {
		if !race.Permits(a) {
			continue
		}
		allowed = append(allowed, race)
		if role.Permits(a) && role.PermitsRace(race.ID) {
			eligible = append(eligible, race)
		}
	}
	return eligible, allowed
}
