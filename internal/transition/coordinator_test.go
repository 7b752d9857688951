package transition

import (
	"errors"
	"testing"

	"github.com/jscyril/golang_music_sync/api"
	synerrors "github.com/jscyril/golang_music_sync/pkg/errors"
)

type transitionCall struct {
	dest        float64
	inTime      float64
	fadeIn      bool
	outTime     float64
	fadeOut     bool
	targetClock uint64
}

// fakeTransport records TransitionTo calls; the other methods are inert
type fakeTransport struct {
	calls []transitionCall
	err   error
}

func (f *fakeTransport) Position() (float64, error)       { return 0, nil }
func (f *fakeTransport) SetPosition(float64) error        { return nil }
func (f *fakeTransport) Length() float64                  { return 0 }
func (f *fakeTransport) Paused() bool                     { return false }
func (f *fakeTransport) SetPause(bool, float64) error     { return nil }
func (f *fakeTransport) DSPClock() uint64                 { return 0 }
func (f *fakeTransport) SampleRate() int                  { return 48000 }
func (f *fakeTransport) SetLoopPoints(_, _ float64) error { return nil }

func (f *fakeTransport) TransitionTo(dest, in float64, fadeIn bool, out float64, fadeOut bool, clock uint64) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, transitionCall{dest, in, fadeIn, out, fadeOut, clock})
	return nil
}

func markers() (src, dest *api.Marker) {
	dest = &api.Marker{Name: "b", Position: 16}
	src = &api.Marker{Name: "a-end", Position: 8, Transition: &api.Transition{
		Destination: dest, InTime: 0.5, FadeIn: true, OutTime: 0.25, FadeOut: true,
	}}
	return src, dest
}

func TestBegin_CommandsTransport(t *testing.T) {
	tr := &fakeTransport{}
	var started int
	c := NewCoordinator(tr, Listener{Started: func(*api.Marker, *api.Transition, uint64) { started++ }}, nil)
	src, _ := markers()

	if err := c.Begin(src, 4800); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if c.State() != Pending || c.Active() != src.Transition || c.Source() != src {
		t.Errorf("state = %v active = %v", c.State(), c.Active())
	}
	want := transitionCall{16, 0.5, true, 0.25, true, 4800}
	if len(tr.calls) != 1 || tr.calls[0] != want {
		t.Errorf("transport calls = %+v, want [%+v]", tr.calls, want)
	}
	if started != 1 {
		t.Errorf("started = %d, want 1", started)
	}
}

func TestBegin_IgnoredWhilePending(t *testing.T) {
	tr := &fakeTransport{}
	c := NewCoordinator(tr, Listener{}, nil)
	src, dest := markers()
	other := &api.Marker{Name: "x", Transition: &api.Transition{Destination: dest}}

	c.Begin(src, 0)
	err := c.Begin(other, 0)
	if !errors.Is(err, synerrors.ErrTransitionPending) {
		t.Errorf("second Begin() error = %v, want ErrTransitionPending", err)
	}
	if len(tr.calls) != 1 || c.Active() != src.Transition {
		t.Errorf("second candidate was not ignored: calls %d", len(tr.calls))
	}
}

func TestBegin_NoTransition(t *testing.T) {
	tr := &fakeTransport{}
	c := NewCoordinator(tr, Listener{}, nil)

	tests := []*api.Marker{
		nil,
		{Name: "plain"},
		{Name: "dangling", Transition: &api.Transition{}},
	}
	for _, m := range tests {
		if err := c.Begin(m, 0); err != nil {
			t.Errorf("Begin(%v) error = %v", m, err)
		}
	}
	if c.Pending() || len(tr.calls) != 0 {
		t.Error("coordinator left idle state without a transition")
	}
}

func TestBegin_TransportFailureStaysIdle(t *testing.T) {
	boom := errors.New("device lost")
	c := NewCoordinator(&fakeTransport{err: boom}, Listener{}, nil)
	src, _ := markers()

	err := c.Begin(src, 0)
	if !errors.Is(err, boom) {
		t.Errorf("Begin() error = %v, want wrapping %v", err, boom)
	}
	if c.Pending() {
		t.Error("Pending() = true after transport failure")
	}
}

func TestCross(t *testing.T) {
	var finished *api.Transition
	c := NewCoordinator(&fakeTransport{}, Listener{Finished: func(tr *api.Transition) { finished = tr }}, nil)
	src, dest := markers()
	c.Begin(src, 0)

	if c.Cross(src) {
		t.Error("Cross(source) resolved the transition")
	}
	if !c.Cross(dest) {
		t.Fatal("Cross(destination) = false")
	}
	if c.Pending() || finished != src.Transition {
		t.Errorf("pending = %v finished = %v", c.Pending(), finished)
	}
	if c.Cross(dest) {
		t.Error("Cross() on idle coordinator = true")
	}
}

func TestAbort_Idempotent(t *testing.T) {
	aborted := 0
	c := NewCoordinator(&fakeTransport{}, Listener{Aborted: func(*api.Transition) { aborted++ }}, nil)
	src, _ := markers()
	c.Begin(src, 0)

	c.Abort()
	c.Abort()

	if c.Pending() || aborted != 1 {
		t.Errorf("pending = %v aborted = %d, want false 1", c.Pending(), aborted)
	}
}
