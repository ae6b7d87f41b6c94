// Package handlers turns a run into text: it narrates engine events, asks a
// human deity for decisions over a line connection and drives Telnet sessions.
package handlers

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cory-johannsen/whatfools/internal/frontend/telnet"
	"github.com/cory-johannsen/whatfools/internal/game/character"
	"github.com/cory-johannsen/whatfools/internal/game/deity"
	"github.com/cory-johannsen/whatfools/internal/game/engine"
	"github.com/cory-johannsen/whatfools/internal/game/event"
	"github.com/cory-johannsen/whatfools/internal/game/ruleset"
)

// NarratorOptions tunes the narration.
type NarratorOptions struct {
	// Color wraps lines in ANSI styles.
	Color bool
	// Verbose also narrates the worshipper's progress and every combat round.
	Verbose bool
}

// amuletProperties is the Hall of Spoilers entry read at the endgame.
var amuletProperties = []string{
	"You get clairvoyance, if it is not blocked.",
	"When casting spells, your energy is drained.",
	"Hunger is increased (additional to normal amulet hunger).",
	"Your luck timeout is increased.",
	"Monster difficulty will depend on your deepest level reached, not your current dungeon level.",
	"Monsters are less likely to be generated asleep.",
	"...",
}

var sacredBook = []string{
	"It is written in your most sacred book:",
	"",
	"   After the Creation, the cruel god Moloch rebelled against the",
	"   authority of Marduk the Creator.  Moloch stole from Marduk the most",
	"   powerful of all the artifacts of the gods, the Amulet of Yendor,",
	"   and he hid it in the dark cavities of Gehennom, the Under World,",
	"   where he now lurks, and bides his time.",
	"",
	"You seek to possess the Amulet, and with it to gain deserved ascendance over the other gods.",
	"",
}

// Narrator renders the events of one run as lines of text.
// It remembers the last punishment to word the minion summoning; it is not
// safe for concurrent use.
type Narrator struct {
	deity      *deity.Deity
	worshipper character.Snapshot
	p          ruleset.Pronouns
	title      cases.Caser
	opts       NarratorOptions
	lastPunish string
}

// NewNarrator returns a narrator for the run of d's worshipper w.
//
// Precondition: d must be non-nil.
func NewNarrator(d *deity.Deity, w character.Snapshot, opts NarratorOptions) *Narrator {
	if d == nil {
		panic("handlers: NewNarrator precondition violated: deity must be non-nil")
	}
	return &Narrator{
		deity:      d,
		worshipper: w,
		p:          w.Gender.Pronouns(),
		title:      cases.Title(language.English),
		opts:       opts,
	}
}

// He returns the capitalized subject pronoun of the worshipper.
func (n *Narrator) He() string { return n.title.String(n.p.He) }

// His returns the capitalized possessive pronoun of the worshipper.
func (n *Narrator) His() string { return n.title.String(n.p.His) }

func (n *Narrator) style(color, text string) string {
	if !n.opts.Color || text == "" {
		return text
	}
	return telnet.Colorize(color, text)
}

// Intro returns the opening scroll introducing the chosen one.
func (n *Narrator) Intro() []string {
	lines := append([]string(nil), sacredBook...)
	w := n.worshipper
	lines = append(lines, fmt.Sprintf(
		"One young %s, now a newly trained %s, has been heralded from birth as your instrument.  "+
			"%s is destined to recover the Amulet for you, or die in the attempt.  "+
			"%s hour of destiny has come.  May %s go bravely with you!",
		w.Race, w.Title, n.He(), n.His(), n.p.He))
	return lines
}

// IsDetail reports whether kind is narrated only in verbose mode.
func IsDetail(kind event.Kind) bool {
	switch kind {
	case event.KindAscend, event.KindDescend, event.KindAltarFound, event.KindAltarLost,
		event.KindGold, event.KindItems, event.KindJunk, event.KindMinionTurn,
		event.KindMonster, event.KindRound, event.KindSpared, event.KindSlain,
		event.KindDecision, event.KindInvalidDecision:
		return true
	}
	return false
}

// RenderAll renders events in order, honoring the verbosity setting.
func (n *Narrator) RenderAll(events []event.Event) []string {
	var lines []string
	for _, e := range events {
		lines = append(lines, n.Render(e)...)
	}
	return lines
}

// Render returns the lines narrating e; it may be empty.
func (n *Narrator) Render(e event.Event) []string {
	if IsDetail(e.Kind) {
		if !n.opts.Verbose {
			return nil
		}
		if line := n.detail(e); line != "" {
			return []string{n.style(telnet.Dim, line)}
		}
		return nil
	}

	switch e.Kind {
	case event.KindRunStarted:
		role := n.deity.Role
		return []string{
			fmt.Sprintf("%s, %s, %s protector of %s.", e.Name, n.deity.Name, n.deity.Alignment, role.PluralName),
			"Your chosen one has just entered the dungeon.",
			"...",
		}
	case event.KindAmulet:
		return []string{n.style(telnet.BrightYellow, fmt.Sprintf("%s got the Amulet! Awesome!", n.He()))}
	case event.KindAstralPlane:
		return []string{n.style(telnet.BrightCyan, "You sense your chosen one's presence on the Astral Plane...")}
	case event.KindPrayer:
		kind, _ := deity.ParsePrayerKind(e.Prayer)
		god := n.deity.Name
		if len(e.Names) > 0 {
			god = e.Names[0]
		}
		return []string{n.style(telnet.Cyan, deity.PrayerLine(kind, e.Variant, god))}
	case event.KindMood:
		if line := n.mood(e); line != "" {
			return []string{n.style(moodColor(e.Name), line)}
		}
		return nil
	case event.KindHealed:
		return []string{n.style(telnet.Green, fmt.Sprintf("Okay, you send a generic healing blessing %s way.", n.p.His))}
	case event.KindHealFailed:
		return []string{n.style(telnet.Red, fmt.Sprintf("Hm, %s died anyway; I guess the healing wasn't what %s needed.", n.p.He, n.p.He))}
	case event.KindIgnored:
		if e.Prayer == deity.PrayerBlessing.String() {
			return []string{fmt.Sprintf("Makes sense; %s should have to do better!", n.p.He)}
		}
		return []string{"Yeah, let 'em deal with it."}
	case event.KindSacrifice:
		return []string{n.sacrifice(e.Name)}
	case event.KindBoon:
		if e.Name == deity.BoonLavish {
			return []string{n.style(telnet.Green, fmt.Sprintf("Okay, you send some magical junk %s way.", n.p.His))}
		}
		return []string{n.style(telnet.Green, fmt.Sprintf("Okay, you bless some of %s junk.", n.p.His))}
	case event.KindPunish:
		n.lastPunish = e.Name
		return n.punish(e.Name)
	case event.KindMinions:
		if n.lastPunish != string(deity.PunishZap) {
			return nil
		}
		return []string{
			fmt.Sprintf("Damn! %s didn't even feel it!", n.He()),
			"Musta had one of those godproof silver dragon scale mails!",
			"Perhaps summoning some minions will do the trick...",
			n.style(telnet.BrightYellow, "*SHAZAM*"),
		}
	case event.KindWithdrawn:
		return nil
	case event.KindOffering:
		return []string{n.style(telnet.BrightWhite, fmt.Sprintf(
			`"Oh %s, your humble servant offers to your glory the object of this sacred quest..."`, n.deity.Name))}
	case event.KindEndgame:
		return n.endgame(e.Names)
	case event.KindDied:
		return []string{n.style(telnet.BrightRed, "Argh! Your chosen one just died!"), "All the other gods laugh at you."}
	case event.KindQuit:
		return []string{n.style(telnet.BrightRed, fmt.Sprintf("What the?!? Your chosen one just quit %s quest!", n.p.His)), "All the other gods laugh at you."}
	case event.KindWon:
		return nil
	}
	return nil
}

func (n *Narrator) detail(e event.Event) string {
	switch e.Kind {
	case event.KindAscend:
		return fmt.Sprintf("%s climbs back up to level %d.", n.He(), e.Level)
	case event.KindDescend:
		return fmt.Sprintf("%s descends to level %d.", n.He(), e.Level)
	case event.KindAltarFound:
		return fmt.Sprintf("%s has found one of your altars on level %d.", n.He(), e.Level)
	case event.KindAltarLost:
		return fmt.Sprintf("%s wanders away from your altar.", n.He())
	case event.KindGold:
		return fmt.Sprintf("%s picks up some gold (+%d points).", n.He(), e.Amount)
	case event.KindItems:
		return fmt.Sprintf("%s finds some useful items.", n.He())
	case event.KindJunk:
		return fmt.Sprintf("%s finds nothing but junk.", n.He())
	case event.KindMinionTurn:
		return fmt.Sprintf("Your minions keep %s busy.", n.p.Him)
	case event.KindMonster:
		return fmt.Sprintf("A monster (toughness %d, %d HP) attacks %s.", e.Toughness, e.MonsterHP, n.p.Him)
	case event.KindRound:
		return n.round(e)
	case event.KindSpared:
		return fmt.Sprintf("%s should be dead, but fate spares %s.", n.He(), n.p.Him)
	case event.KindSlain:
		return fmt.Sprintf("%s slays the monster (+%d points).", n.He(), e.Amount)
	case event.KindDecision:
		return fmt.Sprintf("You chose to %s.", e.Name)
	case event.KindInvalidDecision:
		return fmt.Sprintf("%q is not one of your options.", e.Name)
	}
	return ""
}

func (n *Narrator) round(e event.Event) string {
	if e.Name == "pray" {
		if e.Taken > 0 {
			return fmt.Sprintf("The monster hits %s for %d while %s prays.", n.p.Him, e.Taken, n.p.He)
		}
		return ""
	}
	var b strings.Builder
	switch {
	case e.Amount == 0:
		fmt.Fprintf(&b, "%s misses.", n.He())
	case e.Multiplier > 1:
		fmt.Fprintf(&b, "%s calls on %s gear and hits for %d.", n.He(), n.p.His, e.Amount)
	default:
		fmt.Fprintf(&b, "%s hits for %d.", n.He(), e.Amount)
	}
	if e.Taken > 0 {
		fmt.Fprintf(&b, " The monster hits back for %d.", e.Taken)
	}
	return b.String()
}

func moodColor(mood string) string {
	switch mood {
	case deity.MoodHostile.String():
		return telnet.Red
	case deity.MoodNeutral.String():
		return telnet.Yellow
	default:
		return telnet.BrightWhite
	}
}

func (n *Narrator) mood(e event.Event) string {
	epithet := "mortal"
	if len(e.Names) > 0 {
		epithet = e.Names[0]
	}
	hostile, neutral := e.Name == deity.MoodHostile.String(), e.Name == deity.MoodNeutral.String()
	if e.Prayer == deity.PrayerBlessing.String() {
		switch {
		case hostile:
			return fmt.Sprintf("That %s has the audacity to ask for your help?", epithet)
		case neutral:
			return fmt.Sprintf("Hm, pretty presumptuous of %s to ask for help.", n.p.Him)
		}
		return ""
	}
	switch {
	case hostile:
		return fmt.Sprintf("That %s is praying for help!", epithet)
	case neutral:
		return fmt.Sprintf("Sounds like %s needs some help.", n.p.He)
	}
	return "Oh no! Your chosen one is praying for help!"
}

func (n *Narrator) sacrifice(tier string) string {
	switch tier {
	case deity.SacrificeGreat.String():
		return n.style(telnet.Green, " (Wow, what a great sacrifice! The other gods will be jealous!)")
	case deity.SacrificeDecent.String():
		return " (A pretty decent sacrifice.)"
	}
	return " (Not that great a sacrifice.)"
}

func (n *Narrator) punish(name string) []string {
	var lines []string
	var sound string
	switch deity.Punishment(name) {
	case deity.PunishZap:
		lines, sound = []string{"Hells yeah! Make with the lightning!"}, "*CRAK*"
	case deity.PunishDrain:
		lines, sound = []string{"All right! Time for some level drain action!"}, "*WOMP*"
	case deity.PunishBall:
		lines, sound = []string{fmt.Sprintf("This iron ball and chain should teach %s a lesson!", n.p.Him)}, "*THRUD*"
	case deity.PunishCurse:
		lines, sound = []string{fmt.Sprintf("Let %s equipment be blackened with a foul curse!", n.p.His)}, "*SHUM*"
	case deity.PunishMinion:
		lines, sound = []string{fmt.Sprintf("Your minions will make short work of %s!", n.p.Him)}, "*SHAZAM*"
	default:
		return nil
	}
	lines[0] = n.style(telnet.BrightRed, lines[0])
	return append(lines, n.style(telnet.BrightYellow, sound))
}

func (n *Narrator) endgame(rivals []string) []string {
	lines := []string{
		n.style(telnet.BrightWhite, "You feel a rush of power as your chosen one places the Amulet of Yendor on your altar. At last, the Amulet is yours!"),
		"",
	}
	if len(rivals) == 2 {
		lines = append(lines, fmt.Sprintf(
			"You rush to the Hall of Spoilers to review the Amulet's capabilities, already dreaming of primacy over %s and %s.",
			rivals[0], rivals[1]))
	} else {
		lines = append(lines, "You rush to the Hall of Spoilers to review the Amulet's capabilities.")
	}
	lines = append(lines, "", "| Amulet of Yendor", "|", "| When carried, you get all of the following (mostly bad):")
	for _, prop := range amuletProperties {
		lines = append(lines, "|  * "+prop)
	}
	return append(lines,
		"",
		"Hmm...",
		"",
		"Perhaps Moloch would be amenable to taking the Amulet back. You begin casting about for another chosen one to carry out this important task...",
	)
}

// Summary returns the closing score lines for r.
func (n *Narrator) Summary(r engine.Result) []string {
	end := "dying"
	switch r.State {
	case character.StateWon:
		end = "sacrificing the Amulet"
	case character.StateQuit:
		end = "quitting"
	}
	plural := "s"
	if r.FinalScore == 1 {
		plural = ""
	}
	lines := []string{fmt.Sprintf("Your chosen one scored %d point%s before %s.", r.FinalScore, plural, end)}
	if r.State == character.StateQuit {
		return append(lines, fmt.Sprintf("Because %s quit, you get none of that.", n.p.He))
	}
	return append(lines, n.style(telnet.BrightYellow, fmt.Sprintf("Your tithe of that is %d points.", r.Tithe)))
}
