package sequence

import (
	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/cue"
	"github.com/sirupsen/logrus"
)

// Host installs transitions on the markers of a loaded track
type Host interface {
	SetTransition(source, dest api.Ref, inTime float64, fadeIn bool, outTime float64, fadeOut bool) bool
	ClearTransition(source api.Ref) bool
}

// Options are the fade timings of section moves
type Options struct {
	InTime  float64
	FadeIn  bool
	OutTime float64
	FadeOut bool
}

// DefaultOptions cross-fades over a tenth of a second
var DefaultOptions = Options{InTime: 0.1, FadeIn: true, OutTime: 0.1, FadeOut: true}

// Sequencer moves playback between sections by keeping one transition
// armed on the current section's exit marker. It runs on the frame
// goroutine, fed by Handle.
type Sequencer struct {
	host   Host
	queue  *Queue
	opts   Options
	armed  string // exit marker carrying our transition
	queued int    // section index to move to instead of the queue's next, or -1
	log    *logrus.Entry
}

// NewSequencer creates a sequencer over queue. Call Arm once the track is loaded.
func NewSequencer(host Host, queue *Queue, opts Options, log *logrus.Entry) *Sequencer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Sequencer{
		host:   host,
		queue:  queue,
		opts:   opts,
		queued: -1,
		log:    log.WithField("component", "sequencer"),
	}
}

// SectionsFromSheet converts sheet section records
func SectionsFromSheet(sheet *cue.Sheet) []Section {
	out := make([]Section, len(sheet.Sections))
	for i, r := range sheet.Sections {
		out[i] = Section{Name: r.Name, Entry: r.Entry, Exit: r.Exit}
	}
	return out
}

// Queue returns the section queue
func (s *Sequencer) Queue() *Queue { return s.queue }

// Armed returns the exit marker currently carrying a transition
func (s *Sequencer) Armed() string { return s.armed }

// Enqueue makes the named section the next one, overriding the queue order
func (s *Sequencer) Enqueue(name string) bool {
	i := s.queue.IndexOf(name)
	if i == -1 {
		return false
	}
	s.queued = i
	return s.Arm()
}

// Arm installs the transition from the current section's exit to the
// entry of the section that follows it. With nothing to follow, any armed
// transition is removed and playback runs past the exit.
func (s *Sequencer) Arm() bool {
	s.disarm()

	cur, ok := s.queue.Current()
	if !ok {
		return false
	}
	next, ok := s.following()
	if !ok {
		return false
	}
	o := s.opts
	if !s.host.SetTransition(api.ByName(cur.Exit), api.ByName(next.Entry), o.InTime, o.FadeIn, o.OutTime, o.FadeOut) {
		s.log.WithFields(logrus.Fields{"from": cur.Name, "to": next.Name}).Warn("section markers missing")
		return false
	}
	s.armed = cur.Exit
	s.log.WithFields(logrus.Fields{"from": cur.Name, "to": next.Name}).Debug("section move armed")
	return true
}

func (s *Sequencer) following() (Section, bool) {
	if s.queued != -1 {
		all := s.queue.GetAll()
		if s.queued < len(all) {
			return all[s.queued], true
		}
		s.queued = -1
	}
	return s.queue.Peek()
}

func (s *Sequencer) disarm() {
	if s.armed != "" {
		s.host.ClearTransition(api.ByName(s.armed))
		s.armed = ""
	}
}

// Handle advances the queue when the armed exit marker is crossed. It
// reports whether the event moved to another section.
func (s *Sequencer) Handle(ev api.Event) bool {
	if ev.Type != api.EventMarkerCrossed || s.armed == "" {
		return false
	}
	p, ok := ev.Payload.(api.MarkerCrossedPayload)
	if !ok || p.Marker.Name != s.armed {
		return false
	}

	if s.queued != -1 {
		if err := s.queue.JumpTo(s.queued); err != nil {
			s.log.WithError(err).Warn("queued section vanished")
		}
		s.queued = -1
	} else {
		s.queue.Next()
	}
	cur, _ := s.queue.Current()
	s.log.WithField("section", cur.Name).Info("entered section")

	// the transition in flight keeps its own copy; re-arming is safe
	s.Arm()
	return true
}

// Disarm removes the armed transition but keeps any queued section
func (s *Sequencer) Disarm() { s.disarm() }

// Stop removes the armed transition
func (s *Sequencer) Stop() {
	s.disarm()
	s.queued = -1
}
