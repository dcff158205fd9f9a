package scripting

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/robot"
	"github.com/cory-johannsen/gridbot/internal/game/session"
)

// binding connects one Lua state to one robot of a session. It remembers the
// last engine error raised into Lua so the caller can recover it.
type binding struct {
	sess    *session.Session
	idx     int
	logger  *zap.Logger
	output  []string
	lastErr error
}

// act runs a mutating robot action; an engine error becomes a Lua error.
func (b *binding) act(L *lua.LState, action session.Action) {
	if err := b.sess.Act(b.idx, action); err != nil {
		b.lastErr = err
		L.RaiseError("%s", err.Error())
	}
}

// query runs fn against the robot under the session lock.
func (b *binding) query(L *lua.LState, fn func(r *robot.Robot) lua.LValue) lua.LValue {
	var v lua.LValue = lua.LNil
	if err := b.sess.Inspect(b.idx, func(r *robot.Robot) error {
		v = fn(r)
		return nil
	}); err != nil {
		b.lastErr = err
		L.RaiseError("%s", err.Error())
	}
	return v
}

func (b *binding) boolFn(fn func(r *robot.Robot) bool) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(b.query(L, func(r *robot.Robot) lua.LValue { return lua.LBool(fn(r)) }))
		return 1
	}
}

func (b *binding) actFn(fn session.Action) lua.LGFunction {
	return func(L *lua.LState) int {
		b.act(L, fn)
		return 0
	}
}

// registerModules installs the bot table, the engine.log table and a print
// that captures output.
func (b *binding) registerModules(L *lua.LState) {
	bot := L.NewTable()
	L.SetFuncs(bot, map[string]lua.LGFunction{
		"move": func(L *lua.LState) int {
			steps := L.OptInt(1, 1)
			b.act(L, func(r *robot.Robot) ([]event.Event, error) { return r.Move(steps) })
			return 0
		},
		"turn_left":   b.actFn((*robot.Robot).TurnLeft),
		"put":         b.actFn((*robot.Robot).Put),
		"build_wall":  b.actFn((*robot.Robot).BuildWall),
		"remove_wall": b.actFn((*robot.Robot).RemoveWall),
		"take": func(L *lua.LState) int {
			name := L.OptString(1, "")
			b.act(L, func(r *robot.Robot) ([]event.Event, error) { return r.Take(name) })
			return 0
		},
		"report": func(L *lua.LState) int {
			msg := L.CheckString(1)
			b.act(L, func(r *robot.Robot) ([]event.Event, error) {
				r.Report(msg)
				return nil, nil
			})
			return 0
		},
		"set_trace": func(L *lua.LState) int {
			color := L.CheckString(1)
			b.act(L, func(r *robot.Robot) ([]event.Event, error) { return r.SetTrace(color) })
			return 0
		},
		"set_speed": func(L *lua.LState) int {
			secs := float64(L.CheckNumber(1))
			b.act(L, func(r *robot.Robot) ([]event.Event, error) { return r.SetSpeed(secs) })
			return 0
		},
		"read_message": func(L *lua.LState) int {
			wait := float64(L.OptNumber(1, 0))
			var msg string
			b.act(L, func(r *robot.Robot) ([]event.Event, error) {
				m, evs, err := r.ReadMessage(wait)
				msg = m
				return evs, err
			})
			L.Push(lua.LString(msg))
			return 1
		},

		"front_is_clear": b.boolFn((*robot.Robot).FrontIsClear),
		"right_is_clear": b.boolFn((*robot.Robot).RightIsClear),
		"wall_in_front":  b.boolFn((*robot.Robot).WallInFront),
		"wall_on_right":  b.boolFn((*robot.Robot).WallOnRight),
		"on_flag":        b.boolFn((*robot.Robot).OnFlag),
		"carries_flag":   b.boolFn((*robot.Robot).CarriesFlag),
		"message_here":   b.boolFn((*robot.Robot).MessageHere),
		"carries_object": b.boolFn((*robot.Robot).CarriesObject),
		"at_goal":        b.boolFn((*robot.Robot).AtGoal),
		"done":           b.boolFn((*robot.Robot).Done),
		"on_object": func(L *lua.LState) int {
			name := L.OptString(1, "")
			L.Push(b.query(L, func(r *robot.Robot) lua.LValue { return lua.LBool(r.OnObject(name)) }))
			return 1
		},
		"object_here": func(L *lua.LState) int {
			L.Push(b.query(L, func(r *robot.Robot) lua.LValue {
				if name, ok := r.ObjectHere(); ok {
					return lua.LString(name)
				}
				return lua.LNil
			}))
			return 1
		},
		"has_object": func(L *lua.LState) int {
			name := L.OptString(1, "")
			L.Push(b.query(L, func(r *robot.Robot) lua.LValue { return lua.LNumber(r.HasObject(name)) }))
			return 1
		},
		"position": func(L *lua.LState) int {
			var x, y int
			b.query(L, func(r *robot.Robot) lua.LValue {
				x, y = r.Position()
				return lua.LNil
			})
			L.Push(lua.LNumber(x))
			L.Push(lua.LNumber(y))
			return 2
		},
	})
	L.SetGlobal("bot", bot)

	engine := L.NewTable()
	log := L.NewTable()
	L.SetFuncs(log, map[string]lua.LGFunction{
		"debug": b.logFn(b.logger.Debug),
		"info":  b.logFn(b.logger.Info),
		"warn":  b.logFn(b.logger.Warn),
	})
	L.SetField(engine, "log", log)
	L.SetGlobal("engine", engine)

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		line := strings.Join(parts, "\t")
		b.output = append(b.output, line)
		b.logger.Debug("program output", zap.String("line", line))
		return 0
	}))
}

func (b *binding) logFn(log func(string, ...zap.Field)) lua.LGFunction {
	return func(L *lua.LState) int {
		log(L.CheckString(1), zap.Int("robot", b.idx), zap.String("session", b.sess.ID))
		return 0
	}
}
