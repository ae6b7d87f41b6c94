package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/cory-johannsen/whatfools/internal/frontend/telnet"
	"github.com/cory-johannsen/whatfools/internal/game/deity"
)

// LineConn is a line-oriented text connection to a human player.
type LineConn interface {
	ReadLine(ctx context.Context) (string, error)
	WriteLine(text string) error
	WritePrompt(prompt string) error
}

// LineDeity is a deity.DecisionPort that asks a human over a LineConn.
// It accepts an option's shortcut letter or its full key and re-asks on
// anything else, so it only ever returns an offered key or withdraw.
type LineDeity struct {
	conn  LineConn
	color bool
	// BeforePrompt, when set, is called before each question so that the
	// narration of the turn so far reaches the player first.
	BeforePrompt func() error
}

// NewLineDeity returns a LineDeity asking over conn.
//
// Precondition: conn must be non-nil.
func NewLineDeity(conn LineConn, color bool) *LineDeity {
	if conn == nil {
		panic("handlers: NewLineDeity precondition violated: conn must be non-nil")
	}
	return &LineDeity{conn: conn, color: color}
}

// PresentOptions writes the question for prompt and reads answers until one
// names an option.
//
// Precondition: options must be non-empty.
// Postcondition: Returns a key of options or deity.OptionWithdraw, or the read error.
func (d *LineDeity) PresentOptions(ctx context.Context, prompt deity.Prompt, options []deity.Option) (deity.OptionKey, error) {
	if len(options) == 0 {
		panic("handlers: LineDeity.PresentOptions precondition violated: options must be non-empty")
	}
	if d.BeforePrompt != nil {
		if err := d.BeforePrompt(); err != nil {
			return "", err
		}
	}
	question := Question(prompt, options)
	if d.color {
		question = telnet.Colorize(telnet.Bold, question)
	}
	if err := d.conn.WriteLine(question); err != nil {
		return "", fmt.Errorf("writing question: %w", err)
	}
	for {
		if err := d.conn.WritePrompt("> "); err != nil {
			return "", fmt.Errorf("writing prompt: %w", err)
		}
		line, err := d.conn.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		if key, ok := ParseAnswer(line, options); ok {
			return key, nil
		}
		if err := d.conn.WriteLine(fmt.Sprintf("Please answer %s.", answerList(options))); err != nil {
			return "", fmt.Errorf("writing hint: %w", err)
		}
	}
}

// ParseAnswer maps a typed answer to an offered key. The first letter matches
// a shortcut; a full key name also matches. "q" or "quit" withdraws.
func ParseAnswer(line string, options []deity.Option) (deity.OptionKey, bool) {
	answer := strings.ToLower(strings.TrimSpace(line))
	if answer == "" {
		return "", false
	}
	if answer == "q" || answer == "quit" || answer == string(deity.OptionWithdraw) {
		return deity.OptionWithdraw, true
	}
	for _, o := range options {
		if answer == o.Shortcut || answer == string(o.Key) {
			return o.Key, true
		}
	}
	return "", false
}

// Question phrases the menu of options the way the deity is asked, e.g.
// "Do you want to [h]elp, [i]gnore, or [s]mite him?". Withdrawing is
// mentioned once at the end rather than listed.
func Question(prompt deity.Prompt, options []deity.Option) string {
	p := prompt.Worshipper.Gender.Pronouns()
	labels := make([]string, 0, len(options))
	for _, o := range options {
		if o.Key == deity.OptionWithdraw {
			continue
		}
		labels = append(labels, optionLabel(o, prompt.Kind, p.Him, p.His))
	}
	var b strings.Builder
	b.WriteString("Do you want to ")
	for i, l := range labels {
		switch {
		case i == 0:
		case i == len(labels)-1:
			b.WriteString(", or ")
		default:
			b.WriteString(", ")
		}
		b.WriteString(l)
	}
	if prompt.Kind == deity.PrayerHelp {
		b.WriteString(" " + p.Him)
	}
	b.WriteString("? (q to abandon your chosen one)")
	return b.String()
}

func optionLabel(o deity.Option, kind deity.PrayerKind, him, his string) string {
	if kind == deity.PrayerBlessing {
		switch o.Key {
		case deity.OptionBoon:
			return "[g]rant " + him + " a boon"
		case deity.OptionIgnore:
			return "[i]gnore " + him
		case deity.OptionSmite:
			return "[s]mite " + him + " for " + his + " impudence"
		}
	}
	switch o.Key {
	case deity.OptionHeal:
		return "[h]elp"
	case deity.OptionIgnore:
		return "[i]gnore"
	case deity.OptionSmite:
		return "[s]mite"
	}
	return fmt.Sprintf("[%s] %s", o.Shortcut, o.Key)
}

func answerList(options []deity.Option) string {
	letters := make([]string, 0, len(options)+1)
	for _, o := range options {
		if o.Key != deity.OptionWithdraw {
			letters = append(letters, o.Shortcut)
		}
	}
	letters = append(letters, "q")
	return strings.Join(letters, ", ")
}
