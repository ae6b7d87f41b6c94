package deity

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/whatfools/internal/game/ruleset"
)

var prayerLines = map[PrayerKind][]string{
	PrayerHelp: {
		`"Oh mighty %s, hear my plea..."`,
		`"Dear %s, I need your help."`,
		`"Help me, %s!"`,
		`"HELP!"`,
		`"Hey, %s, how about a hand for your chosen one..."`,
		`"%s, if you help me out here I'll never ask you for anything again..."`,
		`"%s, you are generous and wise, your virtue far surpassing that of all other gods..."`,
	},
	PrayerSacrifice: {
		`"O %s, accept this humble sacrifice..."`,
		`"Accept this sacrifice into your heavens, oh %s..."`,
	},
	PrayerBlessing: {
		`"O great and powerful %s, I crave a boon."`,
		`"%s, I beseech thee, bestow upon me some sign of favor."`,
	},
}

// PrayerLineCount returns how many flavor lines exist for kind.
func PrayerLineCount(kind PrayerKind) int { return len(prayerLines[kind]) }

// PrayerLine returns flavor line variant of kind addressed to god.
// Out-of-range variants wrap around.
func PrayerLine(kind PrayerKind, variant int, god string) string {
	lines := prayerLines[kind]
	if len(lines) == 0 {
		return ""
	}
	line := lines[((variant%len(lines))+len(lines))%len(lines)]
	if !strings.Contains(line, "%s") {
		return line
	}
	return fmt.Sprintf(line, god)
}

// Epithets returns the insults a hostile deity may use for a worshipper of gender g.
func Epithets(g ruleset.Gender) []string {
	out := []string{"so-and-so", "pathetic mortal", "weakling"}
	if g == ruleset.Male {
		out = append(out, "S.O.B")
	}
	return out
}
