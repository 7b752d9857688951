package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/jscyril/golang_music_sync/api"
	apperrors "github.com/jscyril/golang_music_sync/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Ensure Engine implements the Engine interface at compile time
var _ api.Engine = (*Engine)(nil)

// State is the lifecycle state of an Engine
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateResetting
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateResetting:
		return "resetting"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// device is the audio output the engine drives
type device interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Clear()
	Close()
}

// speakerDevice plays through the beep speaker package
type speakerDevice struct{}

func (speakerDevice) Init(sr beep.SampleRate, bufferSize int) error {
	return speaker.Init(sr, bufferSize)
}
func (speakerDevice) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerDevice) Lock()                { speaker.Lock() }
func (speakerDevice) Unlock()              { speaker.Unlock() }
func (speakerDevice) Clear()               { speaker.Clear() }
func (speakerDevice) Close()               { speaker.Close() }

// Engine owns the audio output shared by every track. All tracks are
// mixed under one root control so the whole output can be suspended.
type Engine struct {
	mu         sync.Mutex
	state      State
	dev        device
	sampleRate beep.SampleRate
	level      float64

	mixer  *beep.Mixer
	root   *beep.Ctrl
	volume *effects.Volume

	log *logrus.Entry
}

// NewEngine creates an uninitialized engine playing through the speaker
func NewEngine(log *logrus.Entry) *Engine {
	return newEngine(speakerDevice{}, log)
}

func newEngine(dev device, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{
		dev:   dev,
		level: 0.5,
		log:   log.WithField("component", "engine"),
	}
}

// Init opens the output at sampleRate with the given buffer duration
func (e *Engine) Init(sampleRate int, buffer time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUninitialized {
		return fmt.Errorf("init from %s: %w", e.state, apperrors.ErrEngineState)
	}
	sr := beep.SampleRate(sampleRate)
	if err := e.dev.Init(sr, sr.N(buffer)); err != nil {
		return apperrors.NewSyncError("speaker_init", "", err)
	}
	e.sampleRate = sr
	e.start()
	e.state = StateReady
	e.log.WithField("sample_rate", sampleRate).Info("audio engine ready")
	return nil
}

// start builds a fresh mixer graph and hands it to the device
func (e *Engine) start() {
	e.mixer = &beep.Mixer{}
	e.root = &beep.Ctrl{Streamer: e.mixer}
	e.volume = &effects.Volume{Streamer: e.root, Base: 2}
	e.applyLevel()
	e.dev.Play(e.volume)
}

// applyLevel maps the 0-1 level onto the volume effect
func (e *Engine) applyLevel() {
	e.volume.Volume = e.level*2 - 1
	e.volume.Silent = e.level == 0
}

// Reset drops every playing stream and rebuilds the output graph
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateReady {
		return fmt.Errorf("reset from %s: %w", e.state, apperrors.ErrEngineState)
	}
	e.state = StateResetting
	e.dev.Clear()
	e.start()
	e.state = StateReady
	e.log.Debug("audio engine reset")
	return nil
}

// Shutdown closes the output. Safe to call repeatedly.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateShutdown:
		return nil
	case StateUninitialized:
		e.state = StateShutdown
		return nil
	}
	e.dev.Clear()
	e.dev.Close()
	e.mixer, e.root, e.volume = nil, nil, nil
	e.state = StateShutdown
	e.log.Info("audio engine shut down")
	return nil
}

// State returns the lifecycle state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SampleRate returns the output rate, 0 before Init
func (e *Engine) SampleRate() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int(e.sampleRate)
}

// Play adds s to the output mix
func (e *Engine) Play(s beep.Streamer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateReady {
		return fmt.Errorf("play from %s: %w", e.state, apperrors.ErrEngineState)
	}
	e.dev.Lock()
	e.mixer.Add(s)
	e.dev.Unlock()
	return nil
}

// Suspend silences the whole output and stops every stream from advancing
func (e *Engine) Suspend() error {
	return e.setSuspended(true)
}

// Resume undoes Suspend
func (e *Engine) Resume() error {
	return e.setSuspended(false)
}

func (e *Engine) setSuspended(suspended bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateReady {
		return fmt.Errorf("suspend from %s: %w", e.state, apperrors.ErrEngineState)
	}
	e.dev.Lock()
	e.root.Paused = suspended
	e.dev.Unlock()
	e.log.WithField("suspended", suspended).Debug("audio engine suspension changed")
	return nil
}

// Suspended reports whether the output is suspended
func (e *Engine) Suspended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.root == nil {
		return false
	}
	e.dev.Lock()
	defer e.dev.Unlock()
	return e.root.Paused
}

// SetVolume sets the master level (0.0 to 1.0)
func (e *Engine) SetVolume(level float64) error {
	if level < 0 || level > 1 {
		return apperrors.ErrInvalidVolume
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.level = level
	if e.volume != nil {
		e.dev.Lock()
		e.applyLevel()
		e.dev.Unlock()
	}
	return nil
}

// Volume returns the master level
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}
