package lua

import (
	"fmt"
	"time"

	"github.com/Shopify/go-lua"
	"github.com/aretw0/scripthost/internal/logging"
	"github.com/aretw0/scripthost/pkg/domain"
)

// openHost installs the global host table:
//
//	host.name()                      -> script name
//	host.log([level,] msg)           level: debug|info|warn|error
//	host.call(fn, ...)               -> native function result
//	host.yield()
//	host.wait(ms)
//	host.key_pressed(key)            key name ("F5") or code
//	host.set_interval(ms)
//	host.pause() / host.resume()
//	host.abort()
//	host.setting(section, key, default)
//
// With a nil script (discovery) every function raises an error.
func openHost(l *lua.State, s *script) {
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "name", Function: bound(s, hostName)},
		{Name: "log", Function: bound(s, hostLog)},
		{Name: "call", Function: bound(s, hostCall)},
		{Name: "yield", Function: bound(s, hostYield)},
		{Name: "wait", Function: bound(s, hostWait)},
		{Name: "key_pressed", Function: bound(s, hostKeyPressed)},
		{Name: "set_interval", Function: bound(s, hostSetInterval)},
		{Name: "pause", Function: bound(s, func(_ *script, _ *lua.State) int { s.rt.Pause(); return 0 })},
		{Name: "resume", Function: bound(s, func(_ *script, _ *lua.State) int { s.rt.Resume(); return 0 })},
		{Name: "abort", Function: bound(s, func(_ *script, _ *lua.State) int { s.rt.Abort(); return 0 })},
		{Name: "setting", Function: bound(s, hostSetting)},
	}, 0)
	l.SetGlobal("host")
}

func bound(s *script, fn func(s *script, l *lua.State) int) lua.Function {
	return func(l *lua.State) int {
		if s == nil {
			lua.Errorf(l, "host functions are not available while the module loads")
		}
		return fn(s, l)
	}
}

func hostName(s *script, l *lua.State) int {
	l.PushString(s.rt.Name())
	return 1
}

func hostLog(s *script, l *lua.State) int {
	level, msg := "info", lua.CheckString(l, 1)
	if l.Top() >= 2 {
		level, msg = msg, lua.CheckString(l, 2)
	}
	s.rt.Logger().Log(s.ctx, logging.ParseLevel(level), msg)
	return 0
}

func hostCall(s *script, l *lua.State) int {
	name := lua.CheckString(l, 1)
	args := make([]any, 0, l.Top()-1)
	for i := 2; i <= l.Top(); i++ {
		args = append(args, toGo(l, i))
	}
	out, err := s.rt.Call(s.ctx, name, args...)
	if err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
	pushGo(l, out)
	return 1
}

func hostYield(s *script, l *lua.State) int {
	if err := s.rt.Yield(s.ctx); err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
	return 0
}

func hostWait(s *script, l *lua.State) int {
	ms := lua.CheckNumber(l, 1)
	if err := s.rt.Wait(s.ctx, time.Duration(ms*float64(time.Millisecond))); err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
	return 0
}

func hostKeyPressed(s *script, l *lua.State) int {
	var k domain.Key
	if l.IsNumber(1) {
		n, _ := l.ToInteger(1)
		if n < 1 || n > int(domain.MaxKey) {
			lua.ArgumentError(l, 1, fmt.Sprintf("key code out of range: %d", n))
		}
		k = domain.Key(n)
	} else {
		parsed, err := domain.ParseKey(lua.CheckString(l, 1))
		if err != nil {
			lua.ArgumentError(l, 1, err.Error())
		}
		k = parsed
	}
	l.PushBoolean(s.rt.IsKeyPressed(k))
	return 1
}

func hostSetInterval(s *script, l *lua.State) int {
	ms := lua.CheckNumber(l, 1)
	s.rt.SetInterval(time.Duration(ms * float64(time.Millisecond)))
	return 0
}

// hostSetting returns a value typed after the default: a number default
// yields a number, a boolean default a boolean, anything else a string.
func hostSetting(s *script, l *lua.State) int {
	section := lua.CheckString(l, 1)
	key := lua.CheckString(l, 2)
	st := s.rt.Settings()
	switch l.TypeOf(3) {
	case lua.TypeNumber:
		def, _ := l.ToNumber(3)
		l.PushNumber(st.GetFloat(section, key, def))
	case lua.TypeBoolean:
		l.PushBoolean(st.GetBool(section, key, l.ToBoolean(3)))
	default:
		def, _ := l.ToString(3)
		l.PushString(st.GetString(section, key, def))
	}
	return 1
}

// toGo converts a Lua value; tables become their string form.
func toGo(l *lua.State, i int) any {
	switch l.TypeOf(i) {
	case lua.TypeNil, lua.TypeNone:
		return nil
	case lua.TypeBoolean:
		return l.ToBoolean(i)
	case lua.TypeNumber:
		n, _ := l.ToNumber(i)
		if n == float64(int64(n)) {
			return int64(n)
		}
		return n
	case lua.TypeString:
		s, _ := l.ToString(i)
		return s
	default:
		s, _ := lua.ToStringMeta(l, i)
		l.Pop(1)
		return s
	}
}

func pushGo(l *lua.State, v any) {
	switch vv := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(vv)
	case int:
		l.PushInteger(vv)
	case int64:
		l.PushNumber(float64(vv))
	case float64:
		l.PushNumber(vv)
	case string:
		l.PushString(vv)
	case []byte:
		l.PushString(string(vv))
	case fmt.Stringer:
		l.PushString(vv.String())
	default:
		l.PushString(fmt.Sprint(vv))
	}
}
