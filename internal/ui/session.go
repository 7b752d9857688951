package ui

import (
	"fmt"
	"time"

	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/cue"
	"github.com/jscyril/golang_music_sync/internal/sequence"
	"github.com/jscyril/golang_music_sync/internal/track"
	"github.com/sirupsen/logrus"
)

// Session bundles what a frame driver advances: the synchronizer, its
// event subscription and the optional sequencer. Frame must be called from
// a single goroutine.
type Session struct {
	Sync      *track.Synchronizer
	Info      api.TrackInfo
	Sheet     *cue.Sheet
	SheetPath string
	Sequencer *sequence.Sequencer
	Events    <-chan api.Event
	Log       *logrus.Entry
}

// Attach hooks the sequencer directly to the synchronizer so section moves
// follow every marker crossing, including ones the subscription dropped.
// Call it once after Sequencer is set.
func (s *Session) Attach() {
	if s.Sequencer == nil {
		return
	}
	seq := s.Sequencer
	s.Sync.AddListener(func(ev api.Event) { seq.Handle(ev) })
}

// Frame advances the synchronizer by delta and returns the events it
// published. Section moves were applied during the update by Attach.
func (s *Session) Frame(delta time.Duration) []api.Event {
	s.Sync.Update(delta)
	return s.drain()
}

// drain empties the subscription without blocking
func (s *Session) drain() []api.Event {
	var out []api.Event
	s.drainInto(func(ev api.Event) { out = append(out, ev) })
	return out
}

// drainInto hands every pending event to fn
func (s *Session) drainInto(fn func(api.Event)) {
	for {
		select {
		case ev, ok := <-s.Events:
			if !ok {
				return
			}
			fn(ev)
		default:
			return
		}
	}
}

// Save writes the current markers back to the cue sheet file. The
// sequencer's armed transition is left out.
func (s *Session) Save() error {
	if s.Sheet == nil || s.SheetPath == "" {
		return fmt.Errorf("no cue sheet to save")
	}
	if s.Sequencer != nil {
		s.Sequencer.Disarm()
		defer s.Sequencer.Arm()
	}
	s.Sync.ExportSheet(s.Sheet)
	if err := s.Sheet.Save(s.SheetPath); err != nil {
		return err
	}
	s.log().WithField("path", s.SheetPath).Info("cue sheet saved")
	return nil
}

// NextSection queues the section after the current one
func (s *Session) NextSection() bool {
	if s.Sequencer == nil {
		return false
	}
	q := s.Sequencer.Queue()
	if q.Len() == 0 {
		return false
	}
	all := q.GetAll()
	return s.Sequencer.Enqueue(all[(q.Index()+1)%len(all)].Name)
}

// SectionName returns the current section, or ""
func (s *Session) SectionName() string {
	if s.Sequencer == nil {
		return ""
	}
	cur, _ := s.Sequencer.Queue().Current()
	return cur.Name
}

func (s *Session) log() *logrus.Entry {
	if s.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return s.Log
}

// Describe renders an event for the event log
func Describe(ev api.Event) string {
	switch p := ev.Payload.(type) {
	case api.MarkerCrossedPayload:
		return fmt.Sprintf("%s %s @ %.3fs", ev.Type, p.Marker.Name, p.Marker.Position/1000)
	case api.CursorPayload:
		return fmt.Sprintf("%s %d -> %d", ev.Type, p.Old, p.New)
	case api.ParameterPayload:
		return fmt.Sprintf("%s #%d = %g", ev.Type, p.Index, p.Value)
	case float64:
		return fmt.Sprintf("%s %.3f", ev.Type, p)
	case bool:
		return fmt.Sprintf("%s %v", ev.Type, p)
	case *api.Transition:
		if p != nil && p.Destination != nil {
			return fmt.Sprintf("%s -> %s", ev.Type, p.Destination.Name)
		}
	case error:
		return fmt.Sprintf("%s %v", ev.Type, p)
	}
	return ev.Type.String()
}
