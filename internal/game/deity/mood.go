package deity

// PrayerKind identifies which of the three prayers the worshipper offers.
type PrayerKind int

const (
	// PrayerHelp is the intercessory prayer of a worshipper in trouble.
	PrayerHelp PrayerKind = iota
	// PrayerSacrifice offers a slain monster on an altar.
	PrayerSacrifice
	// PrayerBlessing asks for a boon while near an altar.
	PrayerBlessing
)

// String returns the lowercase prayer name.
func (k PrayerKind) String() string {
	switch k {
	case PrayerHelp:
		return "help"
	case PrayerSacrifice:
		return "sacrifice"
	case PrayerBlessing:
		return "blessing"
	default:
		return "unknown"
	}
}

// ParsePrayerKind returns the prayer kind named s, as produced by String.
func ParsePrayerKind(s string) (PrayerKind, bool) {
	for _, k := range []PrayerKind{PrayerHelp, PrayerSacrifice, PrayerBlessing} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Mood is the deity's disposition toward a prayer.
type Mood int

const (
	MoodFavorable Mood = iota
	MoodNeutral
	MoodHostile
)

// String returns the lowercase mood name.
func (m Mood) String() string {
	switch m {
	case MoodFavorable:
		return "favorable"
	case MoodNeutral:
		return "neutral"
	case MoodHostile:
		return "hostile"
	default:
		return "unknown"
	}
}

// MoodFor derives the mood from the prayer timeout and the trouble level.
// The cutoff is 200 for trouble level 1 and 100 otherwise.
//
// Postcondition: timeout <= cutoff/2 is favorable, timeout <= cutoff is neutral,
// anything above is hostile.
func MoodFor(timeout float64, trouble int) Mood {
	cutoff := 100.0
	if trouble == 1 {
		cutoff = 200
	}
	switch {
	case timeout > cutoff:
		return MoodHostile
	case timeout > cutoff*0.5:
		return MoodNeutral
	default:
		return MoodFavorable
	}
}
