package transition

import (
	"github.com/jscyril/golang_music_sync/api"
	synerrors "github.com/jscyril/golang_music_sync/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State of the coordinator
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Listener is told about coordinator state changes. Any field may be nil.
type Listener struct {
	Started  func(source *api.Marker, t *api.Transition, targetClock uint64)
	Finished func(t *api.Transition)
	Aborted  func(t *api.Transition)
}

// Coordinator commands cross-fades on a transport and tracks the one
// transition that may be in flight. While a transition is pending the
// owning synchronizer refuses pause and seek requests.
type Coordinator struct {
	transport api.Transport
	active    *api.Transition
	source    *api.Marker
	listener  Listener
	log       *logrus.Entry
}

// NewCoordinator creates an idle coordinator driving transport
func NewCoordinator(transport api.Transport, listener Listener, log *logrus.Entry) *Coordinator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Coordinator{transport: transport, listener: listener, log: log}
}

// State returns Idle or Pending
func (c *Coordinator) State() State {
	if c.active != nil {
		return Pending
	}
	return Idle
}

// Pending reports whether a transition is in flight
func (c *Coordinator) Pending() bool { return c.active != nil }

// Active returns the transition in flight, or nil
func (c *Coordinator) Active() *api.Transition { return c.active }

// Source returns the marker whose transition is in flight, or nil
func (c *Coordinator) Source() *api.Marker { return c.source }

// Begin starts the transition carried by source, scheduled for targetClock.
// A candidate found while another transition is pending is ignored. When
// the transport rejects the command the coordinator stays idle and the
// error is returned so the caller can re-synchronize.
func (c *Coordinator) Begin(source *api.Marker, targetClock uint64) error {
	if source == nil || source.Transition == nil || source.Transition.Destination == nil {
		return nil
	}
	if c.active != nil {
		if c.active != source.Transition {
			c.log.WithField("marker", source.Name).Debug("transition ignored, another is pending")
		}
		return synerrors.ErrTransitionPending
	}

	t := source.Transition
	err := c.transport.TransitionTo(t.Destination.Position, t.InTime, t.FadeIn, t.OutTime, t.FadeOut, targetClock)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"marker":      source.Name,
			"destination": t.Destination.Name,
		}).Error("transport rejected transition")
		return synerrors.NewSyncError("transition", source.Name, err)
	}

	c.active = t
	c.source = source
	c.log.WithFields(logrus.Fields{
		"marker":      source.Name,
		"destination": t.Destination.Name,
		"clock":       targetClock,
	}).Debug("transition pending")
	if c.listener.Started != nil {
		c.listener.Started(source, t, targetClock)
	}
	return nil
}

// Cross resolves the pending transition when m is its destination.
// It reports whether the coordinator went idle.
func (c *Coordinator) Cross(m *api.Marker) bool {
	if c.active == nil || m == nil || c.active.Destination != m {
		return false
	}
	t := c.active
	c.active = nil
	c.source = nil
	if c.listener.Finished != nil {
		c.listener.Finished(t)
	}
	return true
}

// Abort drops the pending transition without waiting for its destination.
// Safe to call when idle.
func (c *Coordinator) Abort() {
	if c.active == nil {
		return
	}
	t := c.active
	c.active = nil
	c.source = nil
	c.log.Debug("transition aborted")
	if c.listener.Aborted != nil {
		c.listener.Aborted(t)
	}
}
