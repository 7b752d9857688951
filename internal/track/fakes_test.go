package track

import (
	"errors"

	"github.com/jscyril/golang_music_sync/api"
)

var errTransport = errors.New("transport failure")

type transitionCall struct {
	dest        float64
	targetClock uint64
}

// fakeTransport is a manually advanced transport. Tests move pos directly.
type fakeTransport struct {
	pos    float64
	length float64
	paused bool
	clock  uint64
	sr     int

	// truncate simulates the engine rounding a seek target
	truncate func(float64) float64

	posErr        error
	transitionErr error

	pauseCalls  []bool
	seeks       []float64
	transitions []transitionCall
	loopStart   float64
	loopEnd     float64
	mix         []string
}

func newFakeTransport(length float64) *fakeTransport {
	return &fakeTransport{length: length, sr: 48000}
}

func (f *fakeTransport) Position() (float64, error) {
	if f.posErr != nil {
		return 0, f.posErr
	}
	return f.pos, nil
}

func (f *fakeTransport) SetPosition(seconds float64) error {
	f.seeks = append(f.seeks, seconds)
	if f.truncate != nil {
		seconds = f.truncate(seconds)
	}
	f.pos = seconds
	return nil
}

func (f *fakeTransport) Length() float64  { return f.length }
func (f *fakeTransport) Paused() bool     { return f.paused }
func (f *fakeTransport) DSPClock() uint64 { return f.clock }
func (f *fakeTransport) SampleRate() int  { return f.sr }

func (f *fakeTransport) SetPause(pause bool, _ float64) error {
	f.pauseCalls = append(f.pauseCalls, pause)
	f.paused = pause
	return nil
}

func (f *fakeTransport) TransitionTo(dest, _ float64, _ bool, _ float64, _ bool, targetClock uint64) error {
	if f.transitionErr != nil {
		return f.transitionErr
	}
	f.transitions = append(f.transitions, transitionCall{dest, targetClock})
	return nil
}

func (f *fakeTransport) SetLoopPoints(start, end float64) error {
	f.loopStart, f.loopEnd = start, end
	return nil
}

func (f *fakeTransport) SetChannelVolume(int, float64)   { f.mix = append(f.mix, "volume") }
func (f *fakeTransport) SetChannelPanLeft(int, float64)  { f.mix = append(f.mix, "pan_left") }
func (f *fakeTransport) SetChannelPanRight(int, float64) { f.mix = append(f.mix, "pan_right") }
func (f *fakeTransport) SetChannelReverb(int, float64)   { f.mix = append(f.mix, "reverb") }

type fakeEngine struct {
	suspended bool
	suspends  int
	resumes   int
}

func (e *fakeEngine) Suspend() error {
	e.suspends++
	e.suspended = true
	return nil
}

func (e *fakeEngine) Resume() error {
	e.resumes++
	e.suspended = false
	return nil
}

func (e *fakeEngine) Suspended() bool { return e.suspended }

type crossing struct {
	name  string
	clock uint64
}

// recordingSink captures outbound events
type recordingSink struct {
	crossed      []crossing
	cursors      [][2]int
	recalibrated int
	params       []api.ParameterPayload
	seeks        []float64
	trackEnds    int
}

func (r *recordingSink) OnMarkerCrossed(m *api.Marker, clock uint64) {
	r.crossed = append(r.crossed, crossing{m.Name, clock})
}
func (r *recordingSink) OnCursorChanged(n, o int) { r.cursors = append(r.cursors, [2]int{n, o}) }
func (r *recordingSink) OnMarkersRecalibrated()   { r.recalibrated++ }
func (r *recordingSink) OnParameterChanged(i int, v float64) {
	r.params = append(r.params, api.ParameterPayload{Index: i, Value: v})
}
func (r *recordingSink) OnSeek(seconds float64) { r.seeks = append(r.seeks, seconds) }
func (r *recordingSink) OnTrackEnd()            { r.trackEnds++ }
