package deity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/whatfools/internal/game/character"
	"github.com/cory-johannsen/whatfools/internal/game/deity"
	"github.com/cory-johannsen/whatfools/internal/game/dice"
	"github.com/cory-johannsen/whatfools/internal/game/event"
	"github.com/cory-johannsen/whatfools/internal/game/ruleset"
	"github.com/cory-johannsen/whatfools/internal/testutil"
)

// recordingPort replays answers in order and records what it was shown.
type recordingPort struct {
	answers []deity.OptionKey
	err     error
	prompts []deity.Prompt
	options [][]deity.Option
}

func (p *recordingPort) PresentOptions(_ context.Context, prompt deity.Prompt, options []deity.Option) (deity.OptionKey, error) {
	p.prompts = append(p.prompts, prompt)
	p.options = append(p.options, options)
	if p.err != nil {
		return "", p.err
	}
	key := p.answers[0]
	p.answers = p.answers[1:]
	return key, nil
}

func keys(options []deity.Option) []deity.OptionKey {
	out := make([]deity.OptionKey, 0, len(options))
	for _, o := range options {
		out = append(out, o.Key)
	}
	return out
}

func kinds(events []event.Event) []event.Kind {
	out := make([]event.Kind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	deity  *deity.Deity
	w      *character.Worshipper
	rec    *event.Recorder
	source *testutil.ScriptedSource
}

func newFixture(t *testing.T, a ruleset.Alignment, port deity.DecisionPort, ints ...int) *fixture {
	t.Helper()
	rs, err := ruleset.Default()
	require.NoError(t, err)
	wizard, err := rs.Role("w")
	require.NoError(t, err)
	human, err := rs.Race("human")
	require.NoError(t, err)

	src := testutil.NewScriptedSource(ints...)
	rec := &event.Recorder{}
	roller := dice.NewLoggedRoller(src, zaptest.NewLogger(t))
	d, err := deity.New(wizard, a, port, roller, rec, zaptest.NewLogger(t))
	require.NoError(t, err)
	return &fixture{deity: d, w: character.New(wizard, human, a, ruleset.Male), rec: rec, source: src}
}

func TestMoodFor_Scenarios(t *testing.T) {
	assert.Equal(t, deity.MoodHostile, deity.MoodFor(150, 0))
	assert.Equal(t, deity.MoodNeutral, deity.MoodFor(60, 0))
	assert.Equal(t, deity.MoodFavorable, deity.MoodFor(30, 0))
	assert.Equal(t, deity.MoodNeutral, deity.MoodFor(150, 1))
	assert.Equal(t, deity.MoodFavorable, deity.MoodFor(50, 0), "half the cutoff is still favorable")
	assert.Equal(t, deity.MoodNeutral, deity.MoodFor(100, 0), "the cutoff itself is neutral")
	assert.Equal(t, deity.MoodHostile, deity.MoodFor(150, 3))
}

func TestParsePrayerKind(t *testing.T) {
	for _, k := range []deity.PrayerKind{deity.PrayerHelp, deity.PrayerSacrifice, deity.PrayerBlessing} {
		got, ok := deity.ParsePrayerKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := deity.ParsePrayerKind("curse")
	assert.False(t, ok)
}

func TestNew_PriestHasNoPantheon(t *testing.T) {
	rs, err := ruleset.Default()
	require.NoError(t, err)
	roller := dice.NewLoggedRoller(testutil.MaxSource{}, zaptest.NewLogger(t))
	_, err = deity.New(rs.Priest(), ruleset.Neutral, deity.MoodPolicy{}, roller, &event.Recorder{}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, deity.ErrNoPantheon)
}

func TestDeity_NameAndRivals(t *testing.T) {
	f := newFixture(t, ruleset.Neutral, deity.MoodPolicy{})
	assert.Equal(t, "Thoth", f.deity.Name)
	assert.Equal(t, []string{"Ptah", "Anhur"}, f.deity.Rivals())
}

func TestHelp_FavorableHeal(t *testing.T) {
	port := &recordingPort{answers: []deity.OptionKey{deity.OptionHeal}}
	// prayer line, heal-failure check
	f := newFixture(t, ruleset.Neutral, port, 0, 5)
	f.w.PrayerTimeout = 0
	f.w.HP = 2

	require.NoError(t, f.deity.HandlePrayer(context.Background(), f.w, deity.PrayerHelp, 2))

	assert.Equal(t, f.w.MaxHP, f.w.HP)
	assert.Equal(t, 0.0, f.w.PrayerTimeout, "a zero draw resets the timeout to zero")
	require.Len(t, port.options, 1)
	assert.Equal(t, []deity.OptionKey{deity.OptionHeal, deity.OptionIgnore, deity.OptionSmite, deity.OptionWithdraw}, keys(port.options[0]))
	assert.Equal(t, deity.MoodFavorable, port.prompts[0].Mood)
	assert.Equal(t, 2, port.prompts[0].Trouble)
	assert.Equal(t, "Thoth", port.prompts[0].Deity)
	assert.Equal(t, 2, port.prompts[0].Worshipper.HP)
	assert.Equal(t, []event.Kind{event.KindPrayer, event.KindMood, event.KindDecision, event.KindHealed}, kinds(f.rec.Drain()))
}

func TestHelp_HealFailsOneTimeInThirtyOne(t *testing.T) {
	port := &recordingPort{answers: []deity.OptionKey{deity.OptionHeal}}
	f := newFixture(t, ruleset.Neutral, port, 0, 0)
	f.w.PrayerTimeout = 0

	require.NoError(t, f.deity.HandlePrayer(context.Background(), f.w, deity.PrayerHelp, 1))

	assert.Equal(t, 0, f.w.HP)
	assert.Equal(t, character.StateDead, f.w.State())
	assert.Contains(t, kinds(f.rec.Drain()), event.KindHealFailed)
}

func TestHelp_NeutralAndHostileOrdering(t *testing.T) {
	port := &recordingPort{answers: []deity.OptionKey{deity.OptionIgnore, deity.OptionIgnore}}
	f := newFixture(t, ruleset.Neutral, port)
	f.w.MaxHP, f.w.HP = 21, 3

	f.w.PrayerTimeout = 150
	require.NoError(t, f.deity.HandlePrayer(context.Background(), f.w, deity.PrayerHelp, 1))
	assert.Equal(t, []deity.OptionKey{deity.OptionIgnore, deity.OptionHeal, deity.OptionSmite, deity.OptionWithdraw}, keys(port.options[0]))
	assert.Equal(t, 10, f.w.HP, "ignoring leaves half of MaxHP")

	f.w.PrayerTimeout = 250
	require.NoError(t, f.deity.HandlePrayer(context.Background(), f.w, deity.PrayerHelp, 1))
	assert.Equal(t, []deity.OptionKey{deity.OptionSmite, deity.OptionIgnore, deity.OptionHeal, deity.OptionWithdraw}, keys(port.options[1]))
	assert.Equal(t, deity.MoodHostile, port.prompts[1].Mood)
	assert.Contains(t, deity.Epithets(ruleset.Male), port.prompts[1].Epithet)
}

func TestDecision_InvalidKeyIsRepresented(t *testing.T) {
	port := &recordingPort{answers: []deity.OptionKey{"bogus", deity.OptionBoon, deity.OptionIgnore}}
	f := newFixture(t, ruleset.Neutral, port)
	f.w.PrayerTimeout = 80 // neutral; a help prayer never offers a boon

	require.NoError(t, f.deity.HandlePrayer(context.Background(), f.w, deity.PrayerHelp, 2))

	require.Len(t, port.prompts, 3, "bogus and boon are both rejected")
	assert.Equal(t, port.prompts[0], port.prompts[2], "the same prompt is re-issued")
	events := f.rec.Drain()
	assert.Equal(t, []event.Kind{
		event.KindPrayer, event.KindMood, event.KindInvalidDecision, event.KindInvalidDecision,
		event.KindDecision, event.KindIgnored,
	}, kinds(events))
}

func TestDecision_WithdrawQuits(t *testing.T) {
	port := &recordingPort{answers: []deity.OptionKey{deity.OptionWithdraw}}
	f := newFixture(t, ruleset.Lawful, port)

	require.NoError(t, f.deity.HandlePrayer(context.Background(), f.w, deity.PrayerBlessing, 0))

	assert.Equal(t, character.StateQuit, f.w.State())
	assert.Contains(t, kinds(f.rec.Drain()), event.KindWithdrawn)
}

func TestDecision_PortErrorIsWrapped(t *testing.T) {
	port := &recordingPort{err: context.Canceled}
	f := newFixture(t, ruleset.Lawful, port)
	hp := f.w.HP

	err := f.deity.HandlePrayer(context.Background(), f.w, deity.PrayerHelp, 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, hp, f.w.HP)
	assert.True(t, f.w.Alive())
}

func TestSacrifice_GreatChaoticGrantsBoonAutomatically(t *testing.T) {
	port := &recordingPort{}
	// prayer line, lavish check misses, modest boon die rolls 1
	f := newFixture(t, ruleset.Chaotic, port, 0, 1, 0)

	require.NoError(t, f.deity.HandlePrayer(context.Background(), f.w, deity.PrayerSacrifice, 10))

	assert.Empty(t, port.prompts, "sacrifice never consults the port")
	assert.Equal(t, 0.0, f.w.PrayerTimeout)
	assert.Equal(t, character.InitialItemPoints+10, f.w.ItemPoints)
	events := f.rec.Drain()
	require.Equal(t, []event.Kind{event.KindPrayer, event.KindSacrifice, event.KindBoon}, kinds(events))
	assert.Equal(t, "great", events[1].Name)
	assert.Equal(t, "modest", events[2].Name)
}

func TestSacrifice_PoorNeverGrantsBoon(t *testing.T) {
	f := newFixture(t, ruleset.Lawful, &recordingPort{})

	require.NoError(t, f.deity.HandlePrayer(context.Background(), f.w, deity.PrayerSacrifice, 1))

	assert.Equal(t, 0.0, f.w.PrayerTimeout, "1 x 300 wipes the starting timeout")
	assert.Equal(t, character.InitialItemPoints, f.w.ItemPoints)
}

func TestSacrifice_LawfulMultiplier(t *testing.T) {
	f := newFixture(t, ruleset.Lawful, &recordingPort{})
	f.w.PrayerTimeout = 1000

	require.NoError(t, f.deity.HandlePrayer(context.Background(), f.w, deity.PrayerSacrifice, 3))

	assert.Equal(t, 100.0, f.w.PrayerTimeout)
	assert.Equal(t, "decent", f.rec.Drain()[1].Name)
}

func TestBlessing_BoonResetsTimeout(t *testing.T) {
	port := &recordingPort{answers: []deity.OptionKey{deity.OptionBoon}}
	// prayer line, lavish check hits, lavish die rolls 1
	f := newFixture(t, ruleset.Neutral, port, 0, 0, 0)
	f.w.PrayerTimeout = 10
	f.source.WithFloats(0)

	require.NoError(t, f.deity.HandlePrayer(context.Background(), f.w, deity.PrayerBlessing, 0))

	assert.Equal(t, []deity.OptionKey{deity.OptionBoon, deity.OptionIgnore, deity.OptionSmite, deity.OptionWithdraw}, keys(port.options[0]))
	assert.Equal(t, character.InitialItemPoints+100, f.w.ItemPoints)
	assert.Equal(t, 0.0, f.w.PrayerTimeout)
}

func TestPunish_EachKind(t *testing.T) {
	cases := []struct {
		name  string
		ints  []int
		check func(t *testing.T, w *character.Worshipper)
	}{
		{"zap", []int{0}, func(t *testing.T, w *character.Worshipper) {
			assert.Equal(t, character.InitialItemPoints-1, w.ItemPoints)
			assert.Equal(t, character.InitialHP-1, w.HP)
			assert.Equal(t, deity.MinionTurns, w.StackedMonsters, "a zap shrugged off brings minions")
		}},
		{"drain", []int{1}, func(t *testing.T, w *character.Worshipper) {
			assert.Equal(t, 13, w.MaxHP)
			assert.Equal(t, 13, w.HP)
		}},
		{"ball", []int{2, 0}, func(t *testing.T, w *character.Worshipper) {
			assert.Equal(t, character.InitialItemPoints-10, w.ItemPoints)
		}},
		{"curse", []int{3, 30}, func(t *testing.T, w *character.Worshipper) {
			assert.Equal(t, character.InitialItemPoints-50, w.ItemPoints)
		}},
		{"minion", []int{4}, func(t *testing.T, w *character.Worshipper) {
			assert.Equal(t, deity.MinionTurns, w.StackedMonsters)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, ruleset.Neutral, deity.MoodPolicy{}, tc.ints...)
			f.source.WithFloats(0.5, 0.5)
			p := f.deity.Punish(f.w)
			assert.Equal(t, deity.Punishment(tc.name), p)
			tc.check(t, f.w)
		})
	}
}

func TestPunish_ZapCostsStaySmall(t *testing.T) {
	// Rates 50 and 100: even a draw deep in the tail costs one point each.
	f := newFixture(t, ruleset.Neutral, deity.MoodPolicy{}, 0)
	f.source.WithFloats(0.999, 0.999)
	require.Equal(t, deity.PunishZap, f.deity.Punish(f.w))
	assert.Equal(t, character.InitialItemPoints-1, f.w.ItemPoints)
	assert.Equal(t, character.InitialHP-1, f.w.HP)
}

func TestPrayerLine_SubstitutesGod(t *testing.T) {
	assert.Equal(t, `"Help me, Thoth!"`, deity.PrayerLine(deity.PrayerHelp, 2, "Thoth"))
	assert.Equal(t, `"HELP!"`, deity.PrayerLine(deity.PrayerHelp, 3, "Thoth"))
	assert.Equal(t, 7, deity.PrayerLineCount(deity.PrayerHelp))
	assert.Len(t, deity.Epithets(ruleset.Female), 3)
	assert.Len(t, deity.Epithets(ruleset.Male), 4)
}

func TestProperty_PrayersPreserveInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rs, err := ruleset.Default()
		require.NoError(rt, err)
		role := rapid.SampledFrom(rs.DeityRoles()).Draw(rt, "role")
		a := rapid.SampledFrom(ruleset.Alignments).Draw(rt, "alignment")
		seed := rapid.Int64().Draw(rt, "seed")

		roller := dice.NewLoggedRoller(dice.NewSeededSource(seed), zaptest.NewLogger(t))
		d, err := deity.New(role, a, deity.MoodPolicy{}, roller, &event.Recorder{}, zaptest.NewLogger(t))
		require.NoError(rt, err)
		human, err := rs.Race("human")
		require.NoError(rt, err)
		w := character.New(role, human, a, ruleset.Female)

		prayers := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 30).Draw(rt, "prayers")
		for _, k := range prayers {
			if !w.Alive() {
				break
			}
			w.PrayerTimeout = rapid.Float64Range(0, 400).Draw(rt, "timeout")
			arg := rapid.IntRange(1, 40).Draw(rt, "arg")
			require.NoError(rt, d.HandlePrayer(context.Background(), w, deity.PrayerKind(k), arg))
			if w.HP < 0 || w.HP > w.MaxHP || w.MaxHP < 1 || w.ItemPoints < 0 || w.PrayerTimeout < 0 {
				rt.Fatalf("invariant broken: %+v", w)
			}
		}
	})
}
