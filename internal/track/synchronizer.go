package track

import (
	"math"
	"time"

	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/markers"
	"github.com/jscyril/golang_music_sync/internal/mixer"
	"github.com/jscyril/golang_music_sync/internal/params"
	"github.com/jscyril/golang_music_sync/internal/ramp"
	"github.com/jscyril/golang_music_sync/internal/transition"
	"github.com/jscyril/golang_music_sync/pkg/events"
	"github.com/sirupsen/logrus"
)

const (
	// endEpsilon is how far before the loop end a one-shot track parks
	endEpsilon = 0.001

	// jumpTolerance is the slack allowed between the frame delta and the
	// distance the transport moved before a move counts as a jump
	jumpTolerance = 0.1
)

// Optional sink extensions, checked at call time
type (
	seekSink     interface{ OnSeek(seconds float64) }
	updateSink   interface{ OnUpdate(delta, total float64) }
	trackEndSink interface{ OnTrackEnd() }
)

// Synchronizer drives one track: it feeds transport progress to the
// marker store, starts transitions, enforces loop and one-shot playback
// and gates pause and seek while a transition is in flight. All methods
// run on the frame goroutine.
type Synchronizer struct {
	id        string
	transport api.Transport
	engine    api.Engine

	store   *markers.Store
	coord   *transition.Coordinator
	sched   *ramp.Scheduler
	params  *params.Registry
	console *mixer.Console
	presets *mixer.Presets

	bus       *events.EventBus
	sink      api.EventSink
	listeners []func(api.Event)
	log       *logrus.Entry

	loaded        bool
	looping       bool
	loopStart     float64
	loopEnd       float64
	lastPosition  float64
	hasLast       bool
	resync        bool
	autoSuspended bool
	elapsed       float64

	// bumped by every seek so a frame in progress does not overwrite the
	// position a listener seeked to
	seekSeq uint64
}

// New creates an unloaded synchronizer for transport. engine, bus and log
// may be nil. A transport that also implements api.Mixer receives the
// console's channel values.
func New(id string, transport api.Transport, engine api.Engine, bus *events.EventBus, log *logrus.Entry) *Synchronizer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("track", id)

	s := &Synchronizer{
		id:        id,
		transport: transport,
		engine:    engine,
		sched:     ramp.NewScheduler(),
		presets:   mixer.NewPresets(),
		bus:       bus,
		log:       log,
	}
	s.store = markers.NewStore(markers.Hooks{
		OnMarker:        s.onMarker,
		OnCursorChanged: s.onCursorChanged,
		OnRecalibrated:  s.onRecalibrated,
	}, log)
	s.coord = transition.NewCoordinator(transport, transition.Listener{
		Started:  s.onTransitionStarted,
		Finished: func(t *api.Transition) { s.publish(api.EventTransitionFinished, t) },
		Aborted:  func(t *api.Transition) { s.publish(api.EventTransitionAborted, t) },
	}, log)
	s.params = params.NewRegistry(s.sched, s.onParameterChanged, log)

	var out api.Mixer
	if m, ok := transport.(api.Mixer); ok {
		out = m
	}
	s.console = mixer.NewConsole(s.sched, out, log)
	return s
}

// ID returns the track identifier
func (s *Synchronizer) ID() string { return s.id }

// SetSink routes outbound events to sink, typically a script driver
func (s *Synchronizer) SetSink(sink api.EventSink) { s.sink = sink }

// Loaded reports whether a track is loaded
func (s *Synchronizer) Loaded() bool { return s.loaded }

// Scheduler returns the ramp scheduler ticked by Update
func (s *Synchronizer) Scheduler() *ramp.Scheduler { return s.sched }

// Params returns the parameter registry
func (s *Synchronizer) Params() *params.Registry { return s.params }

// Console returns the mix console
func (s *Synchronizer) Console() *mixer.Console { return s.console }

// Presets returns the mix presets
func (s *Synchronizer) Presets() *mixer.Presets { return s.presets }

// Pending reports whether a transition is in flight
func (s *Synchronizer) Pending() bool { return s.coord.Pending() }

// Update runs one frame. delta is the wall time since the previous frame.
func (s *Synchronizer) Update(delta time.Duration) {
	s.sched.Tick(delta)
	if !s.loaded {
		return
	}
	s.elapsed += delta.Seconds()
	seq := s.seekSeq

	pos, err := s.transport.Position()
	if err != nil {
		s.log.WithError(err).Error("read position")
		s.resync = true
		return
	}
	switch {
	case !s.hasLast:
		s.store.SeekTo(pos)
	case s.resync:
		s.store.Resync(pos, s.wrapLength())
	}
	if s.resync || !s.hasLast {
		s.resync = false
		s.hasLast = true
		s.lastPosition = pos
	}

	pending := s.coord.Pending()
	wrapped := pos < s.lastPosition

	switch {
	case pending && s.jumped(pos, delta):
		s.land(pos, delta)
	case !s.looping && !pending && wrapped:
		s.stopAtEnd()
		return
	case s.looping && wrapped && !s.fullRegion():
		// markers from the loop start up to pos fire as overdue
		s.store.SeekTo(s.loopStart)
	}

	if !s.transport.Paused() {
		length := s.wrapLength()
		clock := s.transport.DSPClock()
		sr := s.transport.SampleRate()

		if !s.coord.Pending() {
			if m, dist, ok := s.store.NextTransition(pos, length); ok && dist <= api.Lookahead {
				if err := s.coord.Begin(m, markers.ProjectClock(clock, sr, dist)); err != nil && !s.coord.Pending() {
					s.resync = true
				}
			}
		}
		s.store.Advance(pos, length, clock, sr)
	}

	if s.seekSeq == seq {
		s.lastPosition = pos
	}

	if u, ok := s.sink.(updateSink); ok {
		u.OnUpdate(delta.Seconds(), s.elapsed)
	}
}

// jumped reports a discontinuity larger than the frame explains
func (s *Synchronizer) jumped(pos float64, delta time.Duration) bool {
	return pos < s.lastPosition || pos > s.lastPosition+delta.Seconds()+jumpTolerance
}

// land re-points the store after the transport jumped while a transition
// was pending. Landing on the destination lets it fire on this frame.
func (s *Synchronizer) land(pos float64, delta time.Duration) {
	dest := s.coord.Active().Destination
	if !s.store.Contains(dest) {
		s.coord.Abort()
		s.store.SeekTo(pos)
		return
	}

	d := dest.Position
	if pos >= d-jumpTolerance && pos <= d+delta.Seconds()+jumpTolerance {
		s.store.SeekTo(math.Min(d, pos))
		return
	}

	s.log.WithFields(logrus.Fields{
		"position":    pos,
		"destination": dest.Name,
	}).Warn("transport jumped away from the transition destination")
	s.coord.Abort()
	s.store.SeekTo(pos)
}

// stopAtEnd turns a wrap of a non-looping transport into a stop at the
// loop end
func (s *Synchronizer) stopAtEnd() {
	end := s.loopEnd - endEpsilon
	if end < 0 {
		end = 0
	}
	if err := s.transport.SetPosition(end); err != nil {
		s.log.WithError(err).Error("park at track end")
		s.resync = true
	}
	if err := s.transport.SetPause(true, 0); err != nil {
		s.log.WithError(err).Error("pause at track end")
		s.resync = true
	}
	if s.engine != nil {
		if err := s.engine.Suspend(); err != nil {
			s.log.WithError(err).Error("suspend engine")
		}
	}
	s.autoSuspended = true

	committed, err := s.transport.Position()
	if err != nil {
		committed = end
		s.resync = true
	}
	s.seekSeq++
	s.lastPosition = committed
	s.store.SeekTo(committed)

	s.log.WithField("position", committed).Debug("track ended, engine suspended")
	s.publish(api.EventAutoSuspend, committed)
	if e, ok := s.sink.(trackEndSink); ok {
		e.OnTrackEnd()
	}
}

// SetPause pauses or resumes playback with a fade of seconds. It is
// refused while a transition is pending. Resuming a track that was
// suspended at its end restarts it from 0.
func (s *Synchronizer) SetPause(pause bool, seconds float64) bool {
	if !s.loaded {
		return false
	}
	if s.coord.Pending() {
		s.log.WithField("pause", pause).Debug("pause refused, transition pending")
		return false
	}

	if !pause && (s.autoSuspended || (s.engine != nil && s.engine.Suspended())) {
		if err := s.transport.SetPosition(0); err != nil {
			s.log.WithError(err).Error("rewind after track end")
			s.resync = true
		}
		s.seekSeq++
		s.lastPosition = 0
		s.store.SeekTo(0)
		if s.engine != nil && s.engine.Suspended() {
			if err := s.engine.Resume(); err != nil {
				s.log.WithError(err).Error("resume engine")
			}
		}
		s.autoSuspended = false
	}

	if err := s.transport.SetPause(pause, seconds); err != nil {
		s.log.WithError(err).Error("set pause")
		s.resync = true
		return false
	}
	s.publish(api.EventPause, pause)
	return true
}

// Paused reports the transport's pause state
func (s *Synchronizer) Paused() bool {
	return s.transport.Paused()
}

// SetPosition seeks to seconds without replaying skipped markers. It is
// refused while a transition is pending. The position reported to
// listeners is the one the transport committed.
func (s *Synchronizer) SetPosition(seconds float64) bool {
	if !s.loaded || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return false
	}
	if s.coord.Pending() {
		s.log.WithField("position", seconds).Debug("seek refused, transition pending")
		return false
	}

	seconds = math.Max(0, seconds)
	if l := s.transport.Length(); l > 0 && seconds > l {
		seconds = l
	}
	if err := s.transport.SetPosition(seconds); err != nil {
		s.log.WithError(err).Error("seek")
		s.resync = true
		return false
	}

	committed, err := s.transport.Position()
	if err != nil {
		s.log.WithError(err).Error("read position after seek")
		committed = seconds
		s.resync = true
	}
	s.seekSeq++
	s.lastPosition = committed
	s.hasLast = true
	s.store.SeekTo(committed)

	s.publish(api.EventSeek, committed)
	if sk, ok := s.sink.(seekSink); ok {
		sk.OnSeek(committed)
	}
	return true
}

// Position returns the transport position, or the last known one when the
// transport cannot be read
func (s *Synchronizer) Position() float64 {
	pos, err := s.transport.Position()
	if err != nil {
		return s.lastPosition
	}
	return pos
}

// Looping reports whether the track loops
func (s *Synchronizer) Looping() bool { return s.looping }

// SetLooping switches between looping and one-shot playback
func (s *Synchronizer) SetLooping(looping bool) {
	s.looping = looping
	s.store.Invalidate()
}

// LoopPoints returns the loop region in seconds
func (s *Synchronizer) LoopPoints() (start, end float64) {
	return s.loopStart, s.loopEnd
}

// SetLoopPoints clamps and applies the loop region. The end lies in
// [start+0.001, length] and the start in [0, end-0.001].
func (s *Synchronizer) SetLoopPoints(start, end float64) bool {
	if math.IsNaN(start) || math.IsNaN(end) {
		return false
	}
	length := s.transport.Length()
	if length <= 0 {
		return false
	}
	end = math.Min(math.Max(end, endEpsilon), length)
	start = math.Min(math.Max(start, 0), end-endEpsilon)
	if start < 0 {
		start = 0
	}

	if err := s.transport.SetLoopPoints(start, end); err != nil {
		s.log.WithError(err).Error("set loop points")
		return false
	}
	s.loopStart, s.loopEnd = start, end
	s.store.Invalidate()
	return true
}

// fullRegion reports whether the loop covers the whole track, in which
// case the store wraps markers across the end by itself
func (s *Synchronizer) fullRegion() bool {
	return s.loopStart <= 0 && s.loopEnd >= s.transport.Length()-endEpsilon
}

// wrapLength is the track length handed to the store. Zero disables
// wrap-around lookahead, as for one-shot playback or a partial loop.
func (s *Synchronizer) wrapLength() float64 {
	if !s.looping || !s.fullRegion() {
		return 0
	}
	return s.transport.Length()
}

// Status summarizes the track for display
func (s *Synchronizer) Status() api.TrackStatus {
	st := api.TrackStatus{
		Position:   s.Position(),
		Length:     s.transport.Length(),
		Paused:     s.transport.Paused(),
		Looping:    s.looping,
		LoopStart:  s.loopStart,
		LoopEnd:    s.loopEnd,
		Cursor:     s.store.Cursor(),
		Markers:    s.Markers(),
		Transition: s.coord.Active(),
		Clock:      s.transport.DSPClock(),
	}
	return st
}

func (s *Synchronizer) onMarker(m *api.Marker, targetClock uint64) {
	s.coord.Cross(m)
	if s.sink != nil {
		s.sink.OnMarkerCrossed(m, targetClock)
	}
	s.publish(api.EventMarkerCrossed, api.MarkerCrossedPayload{
		Marker:      api.MarkerInfo{Name: m.Name, Position: m.Position * 1000},
		TargetClock: targetClock,
	})
}

func (s *Synchronizer) onCursorChanged(newIndex, oldIndex int) {
	if s.sink != nil {
		s.sink.OnCursorChanged(newIndex, oldIndex)
	}
	s.publish(api.EventCursorChanged, api.CursorPayload{New: newIndex, Old: oldIndex})
}

func (s *Synchronizer) onRecalibrated() {
	if t := s.coord.Active(); t != nil && !s.store.Contains(t.Destination) {
		s.coord.Abort()
	}
	if s.sink != nil {
		s.sink.OnMarkersRecalibrated()
	}
	s.publish(api.EventMarkersRecalibrated, nil)
}

func (s *Synchronizer) onParameterChanged(index int, value float64) {
	if s.sink != nil {
		s.sink.OnParameterChanged(index, value)
	}
	s.publish(api.EventParameterChanged, api.ParameterPayload{Index: index, Value: value})
}

func (s *Synchronizer) onTransitionStarted(source *api.Marker, t *api.Transition, _ uint64) {
	s.publish(api.EventTransitionStarted, t)
}

// AddListener registers fn to receive every published event synchronously
// on the frame goroutine. Unlike bus subscribers, listeners never miss an
// event.
func (s *Synchronizer) AddListener(fn func(api.Event)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Synchronizer) publish(typ api.EventType, payload interface{}) {
	ev := api.Event{Type: typ, Track: s.id, Payload: payload}
	for _, fn := range s.listeners {
		fn(ev)
	}
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
