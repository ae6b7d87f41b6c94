package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/game/deity"
	"github.com/cory-johannsen/whatfools/internal/game/dice"
)

// ChooseHook is the global function a deity script must define.
// It is called as choose(prompt, options) and must return an option key.
const ChooseHook = "choose"

var (
	// ErrMissingHook is returned when a script does not define ChooseHook.
	ErrMissingHook = errors.New("script does not define choose")
	// ErrInvalidChoice is returned when choose returns anything but an offered key.
	ErrInvalidChoice = errors.New("script returned an invalid choice")
)

// Policy is a deity.DecisionPort backed by a Lua script.
//
// Policy is safe for concurrent use; calls into the VM are serialized.
type Policy struct {
	mu     sync.Mutex
	L      *lua.LState
	name   string
	limit  int
	logger *zap.Logger
}

// NewPolicy loads the deity script at path.
//
// Precondition: roller and logger must be non-nil; instLimit >= 0 (0 uses DefaultInstructionLimit).
// Postcondition: Returns a Policy whose script defines choose, or a non-nil error.
func NewPolicy(path string, instLimit int, roller *dice.Roller, logger *zap.Logger) (*Policy, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading deity script %q: %w", path, err)
	}
	return NewPolicyFromSource(path, string(src), instLimit, roller, logger)
}

// NewPolicyFromSource loads a deity script from src; name identifies it in logs and errors.
//
// Precondition: roller and logger must be non-nil; instLimit >= 0.
// Postcondition: Returns a Policy whose script defines choose, or a non-nil error.
func NewPolicyFromSource(name, src string, instLimit int, roller *dice.Roller, logger *zap.Logger) (*Policy, error) {
	if roller == nil || logger == nil {
		panic("scripting: NewPolicyFromSource precondition violated: roller and logger must be non-nil")
	}
	L := NewSandboxedState()
	registerModules(L, name, roller, logger)

	release := withBudget(context.Background(), L, instLimit)
	err := L.DoString(src)
	release()
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	if L.GetGlobal(ChooseHook).Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("scripting: %q: %w", name, ErrMissingHook)
	}
	return &Policy{L: L, name: name, limit: instLimit, logger: logger}, nil
}

// PresentOptions calls choose(prompt, options) and returns the key it picks.
// Lua runtime errors, an exhausted instruction budget and invalid choices are
// returned as errors and logged at Warn level.
//
// Precondition: options must be non-empty.
// Postcondition: Returns one of the keys of options or deity.OptionWithdraw, or a non-nil error.
func (p *Policy) PresentOptions(ctx context.Context, prompt deity.Prompt, options []deity.Option) (deity.OptionKey, error) {
	if len(options) == 0 {
		panic("scripting: Policy.PresentOptions precondition violated: options must be non-empty")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	release := withBudget(ctx, p.L, p.limit)
	err := p.L.CallByParam(lua.P{
		Fn:      p.L.GetGlobal(ChooseHook),
		NRet:    1,
		Protect: true,
	}, promptTable(p.L, prompt), optionsTable(p.L, options))
	release()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		p.logger.Warn("scripting: Lua runtime error",
			zap.String("script", p.name),
			zap.Stringer("prayer", prompt.Kind),
			zap.Error(err),
		)
		return "", fmt.Errorf("scripting: %q: %w", p.name, err)
	}

	ret := p.L.Get(-1)
	p.L.Pop(1)

	key := deity.OptionKey(lua.LVAsString(ret))
	valid := key == deity.OptionWithdraw || slices.ContainsFunc(options, func(o deity.Option) bool {
		return o.Key == key
	})
	if !valid {
		p.logger.Warn("scripting: invalid choice",
			zap.String("script", p.name),
			zap.String("returned", ret.String()),
		)
		return "", fmt.Errorf("scripting: %q returned %s: %w", p.name, ret.String(), ErrInvalidChoice)
	}
	return key, nil
}

// Close releases the Lua VM.
func (p *Policy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.L.Close()
}

func promptTable(L *lua.LState, prompt deity.Prompt) *lua.LTable {
	w := prompt.Worshipper
	wt := L.NewTable()
	L.SetField(wt, "role", lua.LString(w.Role))
	L.SetField(wt, "race", lua.LString(w.Race))
	L.SetField(wt, "title", lua.LString(w.Title))
	L.SetField(wt, "alignment", lua.LString(w.Alignment.String()))
	L.SetField(wt, "gender", lua.LString(w.Gender.String()))
	L.SetField(wt, "hp", lua.LNumber(w.HP))
	L.SetField(wt, "max_hp", lua.LNumber(w.MaxHP))
	L.SetField(wt, "item_points", lua.LNumber(w.ItemPoints))
	L.SetField(wt, "score", lua.LNumber(w.Score))
	L.SetField(wt, "level", lua.LNumber(w.DungeonLevel))
	L.SetField(wt, "prayer_timeout", lua.LNumber(w.PrayerTimeout))
	L.SetField(wt, "has_amulet", lua.LBool(w.HasAmulet))
	L.SetField(wt, "near_altar", lua.LBool(w.NearAltar))

	t := L.NewTable()
	L.SetField(t, "kind", lua.LString(prompt.Kind.String()))
	L.SetField(t, "mood", lua.LString(prompt.Mood.String()))
	L.SetField(t, "trouble", lua.LNumber(prompt.Trouble))
	L.SetField(t, "deity", lua.LString(prompt.Deity))
	L.SetField(t, "epithet", lua.LString(prompt.Epithet))
	L.SetField(t, "worshipper", wt)
	return t
}

func optionsTable(L *lua.LState, options []deity.Option) *lua.LTable {
	t := L.NewTable()
	for _, o := range options {
		t.Append(lua.LString(o.Key))
	}
	return t
}
