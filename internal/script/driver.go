package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jscyril/golang_music_sync/api"
	apperrors "github.com/jscyril/golang_music_sync/pkg/errors"
	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"
)

// Handler names looked up as Lua globals
const (
	HandlerInit        = "on_init"
	HandlerLoad        = "on_load"
	HandlerUnload      = "on_unload"
	HandlerUpdate      = "on_update"
	HandlerMarker      = "on_marker"
	HandlerCursor      = "on_cursor"
	HandlerRecalibrate = "on_recalibrate"
	HandlerParam       = "on_param"
	HandlerSeek        = "on_seek"
	HandlerTrackEnd    = "on_track_end"
)

// globals removed from the sandbox after the base library is opened
var unsafeGlobals = []string{"dofile", "loadfile", "load", "loadstring", "require", "module"}

var (
	runtimeErrLine = regexp.MustCompile(`:(\d+):\s*(.*)`)
	syntaxErrLine  = regexp.MustCompile(`line:(\d+)\(column:\d+\)\s*(.*)`)
)

// Driver runs one user script in a sandboxed Lua state and forwards
// synchronizer events to its handlers. A Driver is not safe for
// concurrent use; it runs on the frame goroutine with its host.
type Driver struct {
	name    string
	host    api.ScriptCallbacks
	state   *lua.LState
	source  string
	lastErr error
	onError func(*apperrors.ScriptError)
	log     *logrus.Entry
}

// NewDriver creates a driver calling back into host. name labels chunks
// and print output.
func NewDriver(name string, host api.ScriptCallbacks, log *logrus.Entry) *Driver {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Driver{
		name: name,
		host: host,
		log:  log.WithField("script", name),
	}
}

// SetErrorHandler registers fn to receive every script failure
func (d *Driver) SetErrorHandler(fn func(*apperrors.ScriptError)) {
	d.onError = fn
}

// Load compiles and runs src in a fresh sandbox. On failure the previously
// loaded script stays active.
func (d *Driver) Load(src string) error {
	L := d.newState()
	fn, err := L.Load(strings.NewReader(src), d.name)
	if err == nil {
		L.Push(fn)
		err = L.PCall(0, 0, nil)
	}
	if err != nil {
		L.Close()
		return d.fail(err)
	}

	if d.state != nil {
		d.state.Close()
	}
	d.state = L
	d.source = src
	d.lastErr = nil
	d.log.Debug("script loaded")
	return nil
}

// Reload runs the current source again in a fresh sandbox
func (d *Driver) Reload() error {
	if d.state == nil {
		return apperrors.ErrScriptNotLoaded
	}
	return d.Load(d.source)
}

// Loaded reports whether a script is active
func (d *Driver) Loaded() bool { return d.state != nil }

// Err returns the last failure, or nil
func (d *Driver) Err() error { return d.lastErr }

// Execute runs chunk in the loaded sandbox and returns its results joined
// by tabs
func (d *Driver) Execute(chunk string) (string, error) {
	if d.state == nil {
		return "", apperrors.ErrScriptNotLoaded
	}
	L := d.state
	top := L.GetTop()
	defer L.SetTop(top)

	fn, err := L.Load(strings.NewReader(chunk), "execute")
	if err != nil {
		return "", d.fail(err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return "", d.fail(err)
	}

	n := L.GetTop() - top
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = L.Get(top + 1 + i).String()
	}
	return strings.Join(parts, "\t"), nil
}

// Close releases the Lua state. Safe to call repeatedly.
func (d *Driver) Close() {
	if d.state != nil {
		d.state.Close()
		d.state = nil
	}
}

// OnInit calls on_init
func (d *Driver) OnInit() { d.call(HandlerInit) }

// OnLoad calls on_load
func (d *Driver) OnLoad() { d.call(HandlerLoad) }

// OnUnload calls on_unload
func (d *Driver) OnUnload() { d.call(HandlerUnload) }

// OnTrackEnd calls on_track_end
func (d *Driver) OnTrackEnd() { d.call(HandlerTrackEnd) }

// OnUpdate calls on_update(delta, total)
func (d *Driver) OnUpdate(delta, total float64) {
	d.call(HandlerUpdate, lua.LNumber(delta), lua.LNumber(total))
}

// OnSeek calls on_seek(seconds)
func (d *Driver) OnSeek(seconds float64) {
	d.call(HandlerSeek, lua.LNumber(seconds))
}

// OnMarkerCrossed calls on_marker(name, seconds, clock)
func (d *Driver) OnMarkerCrossed(m *api.Marker, targetClock uint64) {
	d.call(HandlerMarker, lua.LString(m.Name), lua.LNumber(m.Position), lua.LNumber(targetClock))
}

// OnCursorChanged calls on_cursor(new, old)
func (d *Driver) OnCursorChanged(newIndex, oldIndex int) {
	d.call(HandlerCursor, lua.LNumber(newIndex), lua.LNumber(oldIndex))
}

// OnMarkersRecalibrated calls on_recalibrate
func (d *Driver) OnMarkersRecalibrated() { d.call(HandlerRecalibrate) }

// OnParameterChanged calls on_param(index, value)
func (d *Driver) OnParameterChanged(index int, value float64) {
	d.call(HandlerParam, lua.LNumber(index), lua.LNumber(value))
}

// call invokes the named global if the script defines it
func (d *Driver) call(handler string, args ...lua.LValue) bool {
	if d.state == nil {
		return false
	}
	fn := d.state.GetGlobal(handler)
	if fn.Type() != lua.LTFunction {
		return true
	}
	err := d.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
	if err != nil {
		d.fail(err)
		return false
	}
	return true
}

// fail converts a Lua error, records it and reports it
func (d *Driver) fail(err error) error {
	serr := parseError(err)
	d.lastErr = serr
	d.log.WithField("line", serr.Line).Warn(serr.Message)
	if d.onError != nil {
		d.onError(serr)
	}
	return serr
}

// parseError extracts the line number from a gopher-lua error message
func parseError(err error) *apperrors.ScriptError {
	msg := err.Error()
	if apiErr, ok := err.(*lua.ApiError); ok && apiErr.Object != nil {
		msg = apiErr.Object.String()
	}
	msg = strings.TrimSpace(strings.SplitN(msg, "\n", 2)[0])

	for _, re := range []*regexp.Regexp{syntaxErrLine, runtimeErrLine} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, convErr := strconv.Atoi(m[1])
			if convErr == nil {
				return &apperrors.ScriptError{Line: line, Message: strings.TrimSpace(m[2])}
			}
		}
	}
	return &apperrors.ScriptError{Message: msg}
}

// newState opens the sandboxed libraries and registers the host functions
func (d *Driver) newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	for name, fn := range d.hostFuncs() {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return L
}

// String describes the driver for logs
func (d *Driver) String() string {
	return fmt.Sprintf("script %s (loaded=%v)", d.name, d.Loaded())
}
