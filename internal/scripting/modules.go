package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/game/dice"
)

// registerModules defines the engine global with its log and dice tables.
//
// Precondition: L must be from NewSandboxedState; roller and logger must be non-nil.
// Postcondition: engine.log.{debug,info,warn,error} and engine.dice.{roll,one_in} are defined in L.
func registerModules(L *lua.LState, script string, roller *dice.Roller, logger *zap.Logger) {
	engine := L.NewTable()
	L.SetField(engine, "log", newLogModule(L, script, logger))
	L.SetField(engine, "dice", newDiceModule(L, roller))
	L.SetGlobal("engine", engine)
}

func newLogModule(L *lua.LState, script string, logger *zap.Logger) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
		"error": logger.Error,
	}
	for name, fn := range levels {
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("script", script))
			return 0
		}))
	}
	return mod
}

func newDiceModule(L *lua.LState, roller *dice.Roller) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.RaiseError("engine.dice.roll: %v", err)
			return 0
		}
		sum := 0
		for _, d := range res.Dice {
			sum += d
		}
		t := L.NewTable()
		L.SetField(t, "dice", lua.LNumber(sum))
		L.SetField(t, "modifier", lua.LNumber(res.Modifier))
		L.SetField(t, "total", lua.LNumber(res.Total()))
		L.Push(t)
		return 1
	}))
	L.SetField(mod, "one_in", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n < 1 {
			L.ArgError(1, "must be >= 1")
			return 0
		}
		L.Push(lua.LBool(roller.OneIn(n)))
		return 1
	}))
	return mod
}
