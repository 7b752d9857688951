package audio

import (
	"errors"
	"math"
	"testing"

	"github.com/faiface/beep"
	apperrors "github.com/jscyril/golang_music_sync/pkg/errors"
)

// indexSource emits its own frame index on both channels
type indexSource struct {
	n      int
	pos    int
	closed bool
}

func (s *indexSource) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.n {
		return 0, false
	}
	i := 0
	for ; i < len(samples) && s.pos < s.n; i++ {
		samples[i] = [2]float64{float64(s.pos), float64(s.pos)}
		s.pos++
	}
	return i, true
}

func (s *indexSource) Err() error    { return nil }
func (s *indexSource) Len() int      { return s.n }
func (s *indexSource) Position() int { return s.pos }
func (s *indexSource) Close() error  { s.closed = true; return nil }

func (s *indexSource) Seek(p int) error {
	if p < 0 || p > s.n {
		return errors.New("seek out of range")
	}
	s.pos = p
	return nil
}

// testFormat makes one frame equal one millisecond
var testFormat = beep.Format{SampleRate: 1000, NumChannels: 2, Precision: 2}

func newTestTrack() (*Track, *indexSource) {
	src := &indexSource{n: 1000}
	return NewTrack("test", src, testFormat), src
}

func stream(t *Track, n int) [][2]float64 {
	samples := make([][2]float64, n)
	t.Stream(samples)
	return samples
}

func TestTrack_LoopsBetweenLoopPoints(t *testing.T) {
	tr, _ := newTestTrack()
	if err := tr.SetLoopPoints(0.25, 0.5); err != nil {
		t.Fatalf("SetLoopPoints() error = %v", err)
	}
	if err := tr.SetPosition(0.45); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}

	s := stream(tr, 100)

	if s[49][0] != 499 || s[50][0] != 250 {
		t.Errorf("frames around the wrap = %v %v, want 499 250", s[49][0], s[50][0])
	}
	if pos, _ := tr.Position(); pos != 0.3 {
		t.Errorf("Position() = %v, want 0.3", pos)
	}
	if tr.DSPClock() != 100 {
		t.Errorf("DSPClock() = %d, want 100", tr.DSPClock())
	}
}

func TestTrack_TransitionJumpsAtTargetClock(t *testing.T) {
	tr, _ := newTestTrack()
	if err := tr.TransitionTo(0.125, 0, false, 0, false, 100); err != nil {
		t.Fatalf("TransitionTo() error = %v", err)
	}

	s := stream(tr, 200)

	if s[99][0] != 99 || s[100][0] != 125 {
		t.Errorf("frames around the jump = %v %v, want 99 125", s[99][0], s[100][0])
	}
	if tr.Scheduled() {
		t.Error("Scheduled() = true after the jump")
	}
}

func TestTrack_TransitionFades(t *testing.T) {
	tr, _ := newTestTrack()
	tr.TransitionTo(0.5, 0.125, true, 0.125, true, 250)

	s := stream(tr, 400)

	tests := []struct {
		frame int
		want  float64
	}{
		{100, 100},       // before the fade-out
		{200, 200 * 0.4}, // 50 frames before the target
		{250, 0},         // fade-in starts at silence
		{300, 550 * 0.4}, // 50 frames into the fade-in
		{380, 630},
	}
	for _, tt := range tests {
		if got := s[tt.frame][0]; math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("frame %d = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

func TestTrack_PauseFadeStopsPlayhead(t *testing.T) {
	tr, _ := newTestTrack()
	if err := tr.SetPause(true, 0.125); err != nil {
		t.Fatalf("SetPause() error = %v", err)
	}
	if !tr.Paused() {
		t.Error("Paused() = false during the fade")
	}

	s := stream(tr, 200)

	if s[199][0] != 0 {
		t.Errorf("last frame = %v, want silence", s[199][0])
	}
	pos, _ := tr.Position()
	if pos < 0.123 || pos > 0.126 {
		t.Errorf("Position() = %v, want about 0.125", pos)
	}
	if tr.DSPClock() != 200 {
		t.Errorf("DSPClock() = %d, want 200 while paused", tr.DSPClock())
	}

	tr.SetPause(false, 0)
	s = stream(tr, 2)
	if s[1][0]-s[0][0] != 1 || s[0][0] == 0 {
		t.Errorf("frames after resume = %v, want consecutive indices", s)
	}
}

func TestTrack_SetPositionTruncatesToFrame(t *testing.T) {
	tr, _ := newTestTrack()

	tests := []struct {
		seconds float64
		want    float64
	}{
		{0.2567, 0.256},
		{-1, 0},
		{5, 1},
	}
	for _, tt := range tests {
		if err := tr.SetPosition(tt.seconds); err != nil {
			t.Fatalf("SetPosition(%v) error = %v", tt.seconds, err)
		}
		if got, _ := tr.Position(); got != tt.want {
			t.Errorf("SetPosition(%v) then Position() = %v, want %v", tt.seconds, got, tt.want)
		}
	}

	if err := tr.SetPosition(math.NaN()); !errors.Is(err, apperrors.ErrNonFinite) {
		t.Errorf("SetPosition(NaN) error = %v, want ErrNonFinite", err)
	}
}

func TestTrack_SetLoopPointsKeepsRegion(t *testing.T) {
	tr, _ := newTestTrack()

	tr.SetLoopPoints(0.5, 0.25)
	start, end := tr.LoopPoints()
	if start != 0.5 || end != 0.501 {
		t.Errorf("LoopPoints() = %v %v, want 0.5 0.501", start, end)
	}
}

func TestTrack_MainBusMix(t *testing.T) {
	tr, _ := newTestTrack()
	tr.SetPosition(0.5)
	tr.SetChannelVolume(0, 0.5)
	tr.SetChannelPanLeft(0, 0)
	tr.SetChannelVolume(3, 0)

	s := stream(tr, 1)
	if s[0][0] != 0 || s[0][1] != 250 {
		t.Errorf("frame = %v, want [0 250]", s[0])
	}
}

func TestTrack_Release(t *testing.T) {
	tr, src := newTestTrack()

	if err := tr.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := tr.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
	if !src.closed {
		t.Error("source not closed")
	}
	if _, ok := tr.Stream(make([][2]float64, 4)); ok {
		t.Error("Stream() ok after Release")
	}
	if _, err := tr.Position(); !errors.Is(err, apperrors.ErrNotLoaded) {
		t.Errorf("Position() error = %v, want ErrNotLoaded", err)
	}
}
