package audio

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/jscyril/golang_music_sync/api"
	apperrors "github.com/jscyril/golang_music_sync/pkg/errors"
)

// Ensure Track implements the transport and mixer interfaces at compile time
var (
	_ api.Transport = (*Track)(nil)
	_ api.Mixer     = (*Track)(nil)
)

// channelMix holds the values forwarded for one console channel
type channelMix struct {
	volume   float64
	panLeft  float64
	panRight float64
	reverb   float64
}

var defaultMix = channelMix{volume: 1, panLeft: 1, panRight: 1}

// scheduledJump is a transition waiting for its target clock
type scheduledJump struct {
	dest      int
	target    uint64
	inFrames  uint64
	outFrames uint64
	fadeIn    bool
	fadeOut   bool
}

// Track plays one decoded stream and exposes it as a transport. The
// stream loops between the loop points. Position and the DSP clock are
// counted in frames of the source's own sample rate.
type Track struct {
	mu     sync.Mutex
	id     string
	source beep.StreamSeekCloser
	format beep.Format
	length int

	pos   int
	clock uint64

	loopStart int
	loopEnd   int

	paused bool
	silent bool
	gain   float64
	step   float64 // per-frame gain change of a pause fade

	jump        *scheduledJump
	fadeInStart uint64
	fadeInLen   uint64

	mix []channelMix
}

// NewTrack wraps an already decoded source
func NewTrack(id string, source beep.StreamSeekCloser, format beep.Format) *Track {
	length := source.Len()
	return &Track{
		id:      id,
		source:  source,
		format:  format,
		length:  length,
		loopEnd: length,
		gain:    1,
		mix:     []channelMix{defaultMix},
	}
}

// OpenTrack decodes the file at path
func OpenTrack(id, path string) (*Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewSyncError("open", id, err)
	}
	source, format, err := DecodeAudio(file, path)
	if err != nil {
		file.Close()
		return nil, apperrors.NewSyncError("decode", id, err)
	}
	return NewTrack(id, source, format), nil
}

// Play adds the track to e's output, resampling if the rates differ
func (t *Track) Play(e *Engine) error {
	var s beep.Streamer = t
	if sr := beep.SampleRate(e.SampleRate()); sr != 0 && sr != t.format.SampleRate {
		s = beep.Resample(4, t.format.SampleRate, sr, t)
	}
	if err := e.Play(s); err != nil {
		return apperrors.NewSyncError("play", t.id, err)
	}
	return nil
}

// Release closes the source. The engine drops the track on its next read.
func (t *Track) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.source == nil {
		return nil
	}
	err := t.source.Close()
	t.source = nil
	t.jump = nil
	return err
}

// Stream implements beep.Streamer
func (t *Track) Stream(samples [][2]float64) (n int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.source == nil {
		return 0, false
	}

	filled, stalls := 0, 0
	for filled < len(samples) {
		if t.silent || stalls > 1 {
			for i := range samples[filled:] {
				samples[filled+i] = [2]float64{}
			}
			t.clock += uint64(len(samples) - filled)
			break
		}
		if t.jump != nil && t.clock >= t.jump.target {
			t.doJump()
		}
		if t.pos >= t.loopEnd {
			t.seekFrame(t.loopStart)
		}

		chunk := len(samples) - filled
		if rest := t.loopEnd - t.pos; rest < chunk {
			chunk = rest
		}
		if t.jump != nil {
			if rest := t.jump.target - t.clock; rest < uint64(chunk) {
				chunk = int(rest)
			}
		}
		if chunk <= 0 {
			stalls++
			continue
		}

		got, sok := t.source.Stream(samples[filled : filled+chunk])
		if !sok || got == 0 {
			// the decoder ran out before the reported length
			stalls++
			t.pos = t.loopEnd
			continue
		}
		stalls = 0
		done := t.render(samples[filled : filled+got])
		t.pos += done
		filled += done
		if done < got {
			// a pause fade ended inside the chunk
			t.seekFrame(t.pos)
		}
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (t *Track) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.source == nil {
		return nil
	}
	return t.source.Err()
}

// render applies fades and the main bus mix, advancing the clock. It
// returns early when a pause fade completes.
func (t *Track) render(samples [][2]float64) int {
	m := t.mix[0]
	for i := range samples {
		g := m.volume * t.pauseGain() * t.transitionGain()
		samples[i][0] *= g * m.panLeft
		samples[i][1] *= g * m.panRight
		t.clock++
		if t.silent {
			return i + 1
		}
	}
	return len(samples)
}

// pauseGain advances the pause fade by one frame
func (t *Track) pauseGain() float64 {
	if t.step == 0 {
		return t.gain
	}
	t.gain += t.step
	switch {
	case t.gain <= 0:
		t.gain, t.step = 0, 0
		t.silent = t.paused
	case t.gain >= 1:
		t.gain, t.step = 1, 0
	}
	return t.gain
}

// transitionGain is the fade-out before a scheduled jump or the fade-in after it
func (t *Track) transitionGain() float64 {
	if j := t.jump; j != nil && j.fadeOut && j.outFrames > 0 && t.clock+j.outFrames > j.target {
		return float64(j.target-t.clock) / float64(j.outFrames)
	}
	if t.fadeInLen > 0 && t.clock < t.fadeInStart+t.fadeInLen {
		return float64(t.clock-t.fadeInStart) / float64(t.fadeInLen)
	}
	return 1
}

func (t *Track) doJump() {
	j := t.jump
	t.jump = nil
	t.seekFrame(j.dest)
	t.fadeInLen = 0
	if j.fadeIn && j.inFrames > 0 {
		t.fadeInStart = t.clock
		t.fadeInLen = j.inFrames
	}
}

func (t *Track) seekFrame(frame int) {
	if err := t.source.Seek(frame); err == nil {
		t.pos = frame
	}
}

// frames converts seconds to a frame index clamped to [0, length]
func (t *Track) frames(seconds float64) int {
	n := t.format.SampleRate.N(secondsToDuration(seconds))
	if n < 0 {
		return 0
	}
	if n > t.length {
		return t.length
	}
	return n
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func (t *Track) seconds(frames int) float64 {
	return float64(frames) / float64(t.format.SampleRate)
}

// Position returns the playhead in seconds
func (t *Track) Position() (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.source == nil {
		return 0, apperrors.ErrNotLoaded
	}
	return t.seconds(t.pos), nil
}

// SetPosition moves the playhead, truncated to a frame boundary
func (t *Track) SetPosition(seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return apperrors.ErrNonFinite
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.source == nil {
		return apperrors.ErrNotLoaded
	}
	frame := t.frames(seconds)
	if err := t.source.Seek(frame); err != nil {
		return fmt.Errorf("seek to %d: %w", frame, err)
	}
	t.pos = frame
	return nil
}

// Length returns the duration in seconds
func (t *Track) Length() float64 {
	return t.seconds(t.length)
}

// Paused reports the requested pause state, including a pause still fading out
func (t *Track) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// SetPause pauses or resumes, fading over fadeSeconds
func (t *Track) SetPause(pause bool, fadeSeconds float64) error {
	if math.IsNaN(fadeSeconds) {
		return apperrors.ErrNonFinite
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	fade := t.frames(fadeSeconds)
	if fadeSeconds > 0 && fade == 0 {
		fade = 1
	}
	t.paused = pause
	if pause {
		if fade == 0 || t.silent {
			t.gain, t.step, t.silent = 0, 0, true
			return nil
		}
		t.step = -t.gain / float64(fade)
		if t.step == 0 {
			t.silent = true
		}
		return nil
	}

	t.silent = false
	if fade == 0 {
		t.gain, t.step = 1, 0
		return nil
	}
	t.step = (1 - t.gain) / float64(fade)
	return nil
}

// DSPClock returns the number of frames rendered since the track was created
func (t *Track) DSPClock() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clock
}

// SampleRate returns the source rate
func (t *Track) SampleRate() int {
	return int(t.format.SampleRate)
}

// TransitionTo schedules a jump to dest at targetClock. A target already
// in the past jumps on the next read. A later call replaces the schedule.
func (t *Track) TransitionTo(dest, inTime float64, fadeIn bool, outTime float64, fadeOut bool, targetClock uint64) error {
	for _, v := range []float64{dest, inTime, outTime} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperrors.ErrNonFinite
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.source == nil {
		return apperrors.ErrNotLoaded
	}
	t.jump = &scheduledJump{
		dest:      t.frames(dest),
		target:    targetClock,
		inFrames:  uint64(t.frames(inTime)),
		outFrames: uint64(t.frames(outTime)),
		fadeIn:    fadeIn,
		fadeOut:   fadeOut,
	}
	return nil
}

// Scheduled reports whether a transition is waiting for its clock
func (t *Track) Scheduled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.jump != nil
}

// SetLoopPoints sets the region the stream wraps within
func (t *Track) SetLoopPoints(start, end float64) error {
	if math.IsNaN(start) || math.IsNaN(end) {
		return apperrors.ErrNonFinite
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s, e := t.frames(start), t.frames(end)
	if e <= s {
		if s >= t.length {
			s = t.length - 1
		}
		e = s + 1
	}
	t.loopStart, t.loopEnd = s, e
	return nil
}

// LoopPoints returns the loop region in seconds
func (t *Track) LoopPoints() (start, end float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seconds(t.loopStart), t.seconds(t.loopEnd)
}

// SetChannelVolume sets the gain of channel ch
func (t *Track) SetChannelVolume(ch int, level float64) {
	t.setMix(ch, func(m *channelMix) { m.volume = level })
}

// SetChannelPanLeft sets the left output level of channel ch
func (t *Track) SetChannelPanLeft(ch int, level float64) {
	t.setMix(ch, func(m *channelMix) { m.panLeft = level })
}

// SetChannelPanRight sets the right output level of channel ch
func (t *Track) SetChannelPanRight(ch int, level float64) {
	t.setMix(ch, func(m *channelMix) { m.panRight = level })
}

// SetChannelReverb records the send level. The track renders no reverb.
func (t *Track) SetChannelReverb(ch int, level float64) {
	t.setMix(ch, func(m *channelMix) { m.reverb = level })
}

// setMix updates channel ch. Only channel 0 is rendered; the others are
// kept for stems that share this track's clock.
func (t *Track) setMix(ch int, fn func(*channelMix)) {
	if ch < 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.mix) <= ch {
		t.mix = append(t.mix, defaultMix)
	}
	fn(&t.mix[ch])
}
