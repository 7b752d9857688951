package ramp

import (
	"math"
	"sync"
	"time"
)

// TickInterval is the default frame period used by the drivers (50 Hz)
const TickInterval = 20 * time.Millisecond

// Scheduler advances every active ramp once per Tick. One scheduler is
// shared by all parameters of a track so a frame runs a single pass.
type Scheduler struct {
	mu     sync.Mutex
	active []*Controller
	now    time.Duration
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Tick advances all active ramps by dt
func (s *Scheduler) Tick(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}

	s.mu.Lock()
	s.now += dt
	// Snapshot so commits may start or cancel ramps
	pending := make([]*Controller, len(s.active))
	copy(pending, s.active)
	s.mu.Unlock()

	for _, c := range pending {
		c.step(dt)
	}
}

// Active returns the number of ramps in flight
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Elapsed returns the total time ticked so far
func (s *Scheduler) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Scheduler) add(c *Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.active {
		if a == c {
			return
		}
	}
	s.active = append(s.active, c)
}

func (s *Scheduler) remove(c *Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.active {
		if a == c {
			s.active = append(s.active[:i], s.active[i+1:]...)
			return
		}
	}
}

// Controller linearly interpolates one scalar toward a target over time.
// Every interpolated value is handed to the commit function.
type Controller struct {
	sched  *Scheduler
	commit func(float64)

	mu      sync.Mutex
	current float64
	start   float64
	target  float64
	elapsed time.Duration
	total   time.Duration
	active  bool
}

// NewController creates a controller holding initial. commit may be nil.
func NewController(sched *Scheduler, initial float64, commit func(float64)) *Controller {
	if commit == nil {
		commit = func(float64) {}
	}
	return &Controller{
		sched:   sched,
		commit:  commit,
		current: initial,
		target:  initial,
	}
}

// Value returns the current interpolated value
func (c *Controller) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Target returns the value the controller is heading toward
func (c *Controller) Target() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Active reports whether a ramp is in flight
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// TransitionTo ramps to target over seconds, superseding any ramp in
// flight from the current interpolated value. A non-positive duration or
// an unchanged value commits at once. Non-finite input is ignored.
func (c *Controller) TransitionTo(target, seconds float64) bool {
	if math.IsNaN(target) || math.IsInf(target, 0) || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return false
	}

	c.mu.Lock()
	wasActive := c.active
	c.active = false
	if seconds <= 0 || c.current == target || c.sched == nil {
		c.current = target
		c.target = target
		c.mu.Unlock()
		if wasActive && c.sched != nil {
			c.sched.remove(c)
		}
		c.commit(target)
		return true
	}

	c.start = c.current
	c.target = target
	c.elapsed = 0
	c.total = time.Duration(seconds * float64(time.Second))
	c.active = true
	c.mu.Unlock()

	c.sched.add(c)
	return true
}

// Set commits value immediately, cancelling any ramp
func (c *Controller) Set(value float64) bool {
	return c.TransitionTo(value, 0)
}

// Clear cancels the ramp in flight without committing. Safe to call any
// number of times.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.active = false
	c.target = c.current
	c.mu.Unlock()

	if c.sched != nil {
		c.sched.remove(c)
	}
}

func (c *Controller) step(dt time.Duration) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}

	c.elapsed += dt
	done := c.elapsed >= c.total
	if done {
		// Land exactly on target to avoid float drift
		c.current = c.target
		c.active = false
	} else {
		t := float64(c.elapsed) / float64(c.total)
		c.current = c.start + (c.target-c.start)*t
	}
	value := c.current
	c.mu.Unlock()

	if done {
		c.sched.remove(c)
	}
	c.commit(value)
}
