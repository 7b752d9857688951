package api

// Transport is the per-track boundary with the native playback engine
type Transport interface {
	Position() (float64, error)
	SetPosition(seconds float64) error
	Length() float64
	Paused() bool
	SetPause(pause bool, fadeSeconds float64) error
	DSPClock() uint64
	SampleRate() int
	TransitionTo(dest, inTime float64, fadeIn bool, outTime float64, fadeOut bool, targetClock uint64) error
	SetLoopPoints(start, end float64) error
}

// Mixer is implemented by transports that expose per-channel mix controls.
// Channel 0 is the main bus.
type Mixer interface {
	SetChannelVolume(ch int, level float64)
	SetChannelPanLeft(ch int, level float64)
	SetChannelPanRight(ch int, level float64)
	SetChannelReverb(ch int, level float64)
}

// Engine is the owned handle to the audio output shared by all tracks
type Engine interface {
	Suspend() error
	Resume() error
	Suspended() bool
}

// EventSink receives synchronization events on the frame goroutine
type EventSink interface {
	OnMarkerCrossed(m *Marker, targetClock uint64)
	OnCursorChanged(newIndex, oldIndex int)
	OnMarkersRecalibrated()
	OnParameterChanged(index int, value float64)
}

// ScriptCallbacks is the inbound surface a script may call into. Every
// method degrades to a false/zero result on bad input instead of failing.
type ScriptCallbacks interface {
	OnAddMarker(name string, ms float64) bool
	OnEditMarker(ref Ref, name string, ms float64) bool
	OnGetMarker(ref Ref) (MarkerInfo, bool)
	OnGetMarkerCount() int
	OnSetLoopPoint(startMs, endMs float64) bool
	OnSetPause(pause bool, seconds float64) bool
	OnSetPosition(seconds float64) bool
	OnSetParameter(ref Ref, value, seconds float64) bool

	OnSetVolume(ch int, level, seconds float64) bool
	OnSetPanLeft(ch int, level, seconds float64) bool
	OnSetPanRight(ch int, level, seconds float64) bool
	OnSetReverbLevel(ch int, level, seconds float64) bool

	OnGetPresetCount() int
	OnGetPresetName(index int) (string, bool)
	OnApplyPreset(ref Ref, seconds float64) bool

	OnPrint(level int, name, message string)
}

// Print levels passed to ScriptCallbacks.OnPrint
const (
	PrintDebug = iota
	PrintInfo
	PrintWarn
	PrintError
)
