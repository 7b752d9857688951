package script

import (
	"strings"

	"github.com/jscyril/golang_music_sync/api"
	lua "github.com/yuin/gopher-lua"
)

// hostFuncs maps Lua global names to the callbacks they expose. Indices
// are 0-based, times follow the callback they wrap.
func (d *Driver) hostFuncs() map[string]lua.LGFunction {
	h := d.host
	return map[string]lua.LGFunction{
		"add_marker": func(L *lua.LState) int {
			L.Push(lua.LBool(h.OnAddMarker(L.CheckString(1), float64(L.CheckNumber(2)))))
			return 1
		},
		"edit_marker": func(L *lua.LState) int {
			ref := checkRef(L, 1)
			L.Push(lua.LBool(h.OnEditMarker(ref, L.OptString(2, ""), float64(L.CheckNumber(3)))))
			return 1
		},
		"get_marker": func(L *lua.LState) int {
			info, ok := h.OnGetMarker(checkRef(L, 1))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(info.Name))
			L.Push(lua.LNumber(info.Position))
			return 2
		},
		"get_marker_count": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.OnGetMarkerCount()))
			return 1
		},
		"set_loop_point": func(L *lua.LState) int {
			L.Push(lua.LBool(h.OnSetLoopPoint(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))))
			return 1
		},
		"set_pause": func(L *lua.LState) int {
			L.Push(lua.LBool(h.OnSetPause(L.CheckBool(1), float64(L.OptNumber(2, 0)))))
			return 1
		},
		"set_position": func(L *lua.LState) int {
			L.Push(lua.LBool(h.OnSetPosition(float64(L.CheckNumber(1)))))
			return 1
		},
		"set_param": func(L *lua.LState) int {
			ref := checkRef(L, 1)
			L.Push(lua.LBool(h.OnSetParameter(ref, float64(L.CheckNumber(2)), float64(L.OptNumber(3, 0)))))
			return 1
		},
		"set_volume":    channelFunc(h.OnSetVolume),
		"set_pan_left":  channelFunc(h.OnSetPanLeft),
		"set_pan_right": channelFunc(h.OnSetPanRight),
		"set_reverb":    channelFunc(h.OnSetReverbLevel),
		"apply_preset": func(L *lua.LState) int {
			ref := checkRef(L, 1)
			L.Push(lua.LBool(h.OnApplyPreset(ref, float64(L.OptNumber(2, 0)))))
			return 1
		},
		"get_preset_count": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.OnGetPresetCount()))
			return 1
		},
		"get_preset_name": func(L *lua.LState) int {
			name, ok := h.OnGetPresetName(L.CheckInt(1))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(name))
			return 1
		},
		"print": printFunc(d, api.PrintInfo),
		"debug": printFunc(d, api.PrintDebug),
		"warn":  printFunc(d, api.PrintWarn),
	}
}

// channelFunc wraps a console callback taking (channel, level, seconds)
func channelFunc(fn func(ch int, level, seconds float64) bool) lua.LGFunction {
	return func(L *lua.LState) int {
		ok := fn(L.CheckInt(1), float64(L.CheckNumber(2)), float64(L.OptNumber(3, 0)))
		L.Push(lua.LBool(ok))
		return 1
	}
}

func printFunc(d *Driver, level int) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		d.host.OnPrint(level, d.name, strings.Join(parts, "\t"))
		return 0
	}
}

// checkRef reads a number as an index or a string as a name
func checkRef(L *lua.LState, n int) api.Ref {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		return api.ByIndex(int(v))
	case lua.LString:
		return api.ByName(string(v))
	}
	L.ArgError(n, "index or name expected")
	return api.Ref{}
}
