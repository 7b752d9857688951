package script

import (
	"errors"
	"testing"

	"github.com/jscyril/golang_music_sync/api"
	apperrors "github.com/jscyril/golang_music_sync/pkg/errors"
)

type call struct {
	name string
	args []interface{}
}

// fakeHost records every callback and answers from a fixed marker list
type fakeHost struct {
	calls   []call
	markers []api.MarkerInfo
	prints  []string
	levels  []int
}

func (h *fakeHost) record(name string, args ...interface{}) {
	h.calls = append(h.calls, call{name, args})
}

func (h *fakeHost) OnAddMarker(name string, ms float64) bool {
	h.record("add_marker", name, ms)
	h.markers = append(h.markers, api.MarkerInfo{Name: name, Position: ms})
	return true
}

func (h *fakeHost) OnEditMarker(ref api.Ref, name string, ms float64) bool {
	h.record("edit_marker", ref, name, ms)
	return true
}

func (h *fakeHost) OnGetMarker(ref api.Ref) (api.MarkerInfo, bool) {
	if ref.ByName {
		for _, m := range h.markers {
			if m.Name == ref.Name {
				return m, true
			}
		}
		return api.MarkerInfo{}, false
	}
	if ref.Index < 0 || ref.Index >= len(h.markers) {
		return api.MarkerInfo{}, false
	}
	return h.markers[ref.Index], true
}

func (h *fakeHost) OnGetMarkerCount() int { return len(h.markers) }

func (h *fakeHost) OnSetLoopPoint(startMs, endMs float64) bool {
	h.record("set_loop_point", startMs, endMs)
	return true
}

func (h *fakeHost) OnSetPause(pause bool, seconds float64) bool {
	h.record("set_pause", pause, seconds)
	return true
}

func (h *fakeHost) OnSetPosition(seconds float64) bool {
	h.record("set_position", seconds)
	return true
}

func (h *fakeHost) OnSetParameter(ref api.Ref, value, seconds float64) bool {
	h.record("set_param", ref, value, seconds)
	return true
}

func (h *fakeHost) OnSetVolume(ch int, level, seconds float64) bool {
	h.record("set_volume", ch, level, seconds)
	return ch == 0
}

func (h *fakeHost) OnSetPanLeft(ch int, level, seconds float64) bool     { return true }
func (h *fakeHost) OnSetPanRight(ch int, level, seconds float64) bool    { return true }
func (h *fakeHost) OnSetReverbLevel(ch int, level, seconds float64) bool { return true }

func (h *fakeHost) OnGetPresetCount() int { return 1 }

func (h *fakeHost) OnGetPresetName(index int) (string, bool) {
	if index != 0 {
		return "", false
	}
	return "calm", true
}

func (h *fakeHost) OnApplyPreset(ref api.Ref, seconds float64) bool {
	h.record("apply_preset", ref, seconds)
	return true
}

func (h *fakeHost) OnPrint(level int, name, message string) {
	h.levels = append(h.levels, level)
	h.prints = append(h.prints, message)
}

func newTestDriver(t *testing.T, src string) (*Driver, *fakeHost) {
	t.Helper()
	h := &fakeHost{}
	d := NewDriver("test", h, nil)
	if err := d.Load(src); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(d.Close)
	return d, h
}

func TestDriver_MarkerHandlerCallsHost(t *testing.T) {
	d, h := newTestDriver(t, `
function on_marker(name, seconds, clock)
  set_param("intensity", seconds, 0.5)
  add_marker(name .. "-seen", clock)
end
`)

	d.OnMarkerCrossed(&api.Marker{Name: "drop", Position: 4}, 9600)

	if len(h.calls) != 2 {
		t.Fatalf("calls = %+v, want 2", h.calls)
	}
	p := h.calls[0]
	if p.name != "set_param" || p.args[0] != api.ByName("intensity") || p.args[1] != 4.0 || p.args[2] != 0.5 {
		t.Errorf("set_param call = %+v", p)
	}
	a := h.calls[1]
	if a.name != "add_marker" || a.args[0] != "drop-seen" || a.args[1] != 9600.0 {
		t.Errorf("add_marker call = %+v", a)
	}
}

func TestDriver_MissingHandlersAreNoops(t *testing.T) {
	d, h := newTestDriver(t, `x = 1`)

	d.OnInit()
	d.OnUpdate(0.016, 1)
	d.OnCursorChanged(1, 0)
	d.OnParameterChanged(0, 1)
	d.OnSeek(2)
	d.OnTrackEnd()

	if len(h.calls) != 0 || d.Err() != nil {
		t.Errorf("calls = %v err = %v", h.calls, d.Err())
	}
}

func TestDriver_Sandbox(t *testing.T) {
	d, _ := newTestDriver(t, ``)

	tests := []struct {
		chunk string
		want  string
	}{
		{"return dofile", "nil"},
		{"return loadfile", "nil"},
		{"return load", "nil"},
		{"return require", "nil"},
		{"return os", "nil"},
		{"return io", "nil"},
		{"return type(string.format)", "function"},
		{"return math.floor(2.7)", "2"},
		{"return table.concat({1, 2}, ',')", "1,2"},
	}
	for _, tt := range tests {
		t.Run(tt.chunk, func(t *testing.T) {
			got, err := d.Execute(tt.chunk)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Execute(%q) = %q, want %q", tt.chunk, got, tt.want)
			}
		})
	}
}

func TestDriver_ExecuteJoinsResults(t *testing.T) {
	d, _ := newTestDriver(t, `count = 3`)

	got, err := d.Execute(`return count, "ok"`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "3\tok" {
		t.Errorf("Execute() = %q, want %q", got, "3\tok")
	}
}

func TestDriver_SyntaxErrorLine(t *testing.T) {
	h := &fakeHost{}
	d := NewDriver("test", h, nil)
	defer d.Close()

	var reported *apperrors.ScriptError
	d.SetErrorHandler(func(e *apperrors.ScriptError) { reported = e })

	err := d.Load("x = 1\nlocal = 3\n")
	var serr *apperrors.ScriptError
	if !errors.As(err, &serr) {
		t.Fatalf("Load() error = %v, want ScriptError", err)
	}
	if serr.Line != 2 {
		t.Errorf("Line = %d, want 2", serr.Line)
	}
	if reported != serr {
		t.Error("error handler not called with the load error")
	}
	if d.Loaded() {
		t.Error("Loaded() = true after failed load")
	}
}

func TestDriver_RuntimeErrorReported(t *testing.T) {
	d, _ := newTestDriver(t, `
function on_update(dt, total)
  error("boom")
end
function on_seek(s)
  seeked = s
end
`)
	var reported []*apperrors.ScriptError
	d.SetErrorHandler(func(e *apperrors.ScriptError) { reported = append(reported, e) })

	d.OnUpdate(0.016, 0.016)
	d.OnSeek(2.5)

	if len(reported) != 1 {
		t.Fatalf("reported = %v, want 1 error", reported)
	}
	if reported[0].Line != 3 || reported[0].Message != "boom" {
		t.Errorf("error = %+v, want line 3 boom", reported[0])
	}
	if got, _ := d.Execute("return seeked"); got != "2.5" {
		t.Errorf("seeked = %q, want 2.5 after earlier handler failed", got)
	}
}

func TestDriver_FailedLoadKeepsPrevious(t *testing.T) {
	d, _ := newTestDriver(t, `version = 1`)

	if err := d.Load(`version = `); err == nil {
		t.Fatal("Load() of broken source succeeded")
	}
	if got, _ := d.Execute("return version"); got != "1" {
		t.Errorf("version = %q, want 1", got)
	}

	if _, err := d.Execute(`version = 2`); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := d.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got, _ := d.Execute("return version"); got != "1" {
		t.Errorf("version after Reload = %q, want 1", got)
	}
}

func TestDriver_NotLoaded(t *testing.T) {
	d := NewDriver("test", &fakeHost{}, nil)

	if _, err := d.Execute("return 1"); !errors.Is(err, apperrors.ErrScriptNotLoaded) {
		t.Errorf("Execute() error = %v, want ErrScriptNotLoaded", err)
	}
	if err := d.Reload(); !errors.Is(err, apperrors.ErrScriptNotLoaded) {
		t.Errorf("Reload() error = %v, want ErrScriptNotLoaded", err)
	}
	d.OnInit()
	d.Close()
	d.Close()
}

func TestDriver_HostFunctions(t *testing.T) {
	d, h := newTestDriver(t, ``)
	h.markers = []api.MarkerInfo{{Name: "intro", Position: 0}, {Name: "verse", Position: 8000}}

	tests := []struct {
		chunk string
		want  string
	}{
		{"return get_marker_count()", "2"},
		{"return get_marker(1)", "verse\t8000"},
		{"return get_marker('intro')", "intro\t0"},
		{"return get_marker(5)", "nil"},
		{"return set_volume(0, 0.5)", "true"},
		{"return set_volume(3, 0.5)", "false"},
		{"return get_preset_count(), get_preset_name(0), get_preset_name(1)", "1\tcalm\tnil"},
		{"return set_pause(true)", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.chunk, func(t *testing.T) {
			got, err := d.Execute(tt.chunk)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Execute(%q) = %q, want %q", tt.chunk, got, tt.want)
			}
		})
	}

	if _, err := d.Execute("return get_marker({})"); err == nil {
		t.Error("get_marker with a table argument did not fail")
	}
}

func TestDriver_Print(t *testing.T) {
	_, h := newTestDriver(t, `print("a", 1, true) warn("careful")`)

	if len(h.prints) != 2 {
		t.Fatalf("prints = %v", h.prints)
	}
	if h.prints[0] != "a\t1\ttrue" || h.levels[0] != api.PrintInfo {
		t.Errorf("print = %q level %d", h.prints[0], h.levels[0])
	}
	if h.prints[1] != "careful" || h.levels[1] != api.PrintWarn {
		t.Errorf("warn = %q level %d", h.prints[1], h.levels[1])
	}
}
