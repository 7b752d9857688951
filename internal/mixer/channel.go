package mixer

import (
	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/params"
	"github.com/jscyril/golang_music_sync/internal/ramp"
)

// Channel defaults
const (
	DefaultVolume   = 1.0
	DefaultReverb   = 0.0
	DefaultPanLeft  = 100.0
	DefaultPanRight = 100.0

	// panScale converts the 0..100 pan controls to the transport's 0..1 range
	panScale = 0.01
)

var (
	volumeDomain   = params.Domain{Low: 0, High: 1.25, Step: 0.01}
	reverbDomain   = params.Domain{Low: 0, High: 2, Step: 0.01}
	panLeftDomain  = params.Domain{Low: 100, High: 0, Step: 1}
	panRightDomain = params.Domain{Low: 0, High: 100, Step: 1}
)

// Channel is one console strip. Every control ramps on the console's
// scheduler and forwards committed values to the transport mixer.
type Channel struct {
	index int
	name  string

	volume   *params.Parameter
	panLeft  *params.Parameter
	panRight *params.Parameter
	reverb   *params.Parameter

	console *Console
}

func newChannel(c *Console, index int, name string, sched *ramp.Scheduler) *Channel {
	ch := &Channel{index: index, name: name, console: c}
	ch.volume = params.NewNumber("volume", 0, volumeDomain, DefaultVolume, false, sched,
		func(_ int, v float64) { ch.send(func(m api.Mixer) { m.SetChannelVolume(ch.index, v) }) })
	ch.panLeft = params.NewNumber("pan_left", 1, panLeftDomain, DefaultPanLeft, true, sched,
		func(_ int, v float64) { ch.send(func(m api.Mixer) { m.SetChannelPanLeft(ch.index, v*panScale) }) })
	ch.panRight = params.NewNumber("pan_right", 2, panRightDomain, DefaultPanRight, true, sched,
		func(_ int, v float64) { ch.send(func(m api.Mixer) { m.SetChannelPanRight(ch.index, v*panScale) }) })
	ch.reverb = params.NewNumber("reverb", 3, reverbDomain, DefaultReverb, false, sched,
		func(_ int, v float64) { ch.send(func(m api.Mixer) { m.SetChannelReverb(ch.index, v) }) })
	return ch
}

func (ch *Channel) send(fn func(api.Mixer)) {
	if out := ch.console.output(); out != nil {
		fn(out)
	}
}

// Index returns the channel's position in the console. 0 is the main bus.
func (ch *Channel) Index() int { return ch.index }

// Name returns the channel name
func (ch *Channel) Name() string { return ch.name }

// SetName renames the channel
func (ch *Channel) SetName(name string) { ch.name = name }

func (ch *Channel) Volume() float64   { return ch.volume.Value() }
func (ch *Channel) PanLeft() float64  { return ch.panLeft.Value() }
func (ch *Channel) PanRight() float64 { return ch.panRight.Value() }
func (ch *Channel) Reverb() float64   { return ch.reverb.Value() }

// SetVolume ramps the channel gain to level over seconds
func (ch *Channel) SetVolume(level, seconds float64) bool {
	return ch.volume.TransitionTo(level, seconds)
}

// SetPanLeft ramps the left pan control. 100 is hard left.
func (ch *Channel) SetPanLeft(level, seconds float64) bool {
	return ch.panLeft.TransitionTo(level, seconds)
}

// SetPanRight ramps the right pan control. 100 is hard right.
func (ch *Channel) SetPanRight(level, seconds float64) bool {
	return ch.panRight.TransitionTo(level, seconds)
}

// SetReverb ramps the reverb send level
func (ch *Channel) SetReverb(level, seconds float64) bool {
	return ch.reverb.TransitionTo(level, seconds)
}

// Apply ramps every control present in s. The name is applied at once.
func (ch *Channel) Apply(s api.ChannelSettings, seconds float64) {
	if s.Name != nil {
		ch.name = *s.Name
	}
	if s.Volume != nil {
		ch.SetVolume(*s.Volume, seconds)
	}
	if s.PanLeft != nil {
		ch.SetPanLeft(*s.PanLeft, seconds)
	}
	if s.PanRight != nil {
		ch.SetPanRight(*s.PanRight, seconds)
	}
	if s.Reverb != nil {
		ch.SetReverb(*s.Reverb, seconds)
	}
}

// Settings returns the channel's committed values
func (ch *Channel) Settings() api.ChannelSettings {
	name := ch.name
	vol, pl, pr, rev := ch.Volume(), ch.PanLeft(), ch.PanRight(), ch.Reverb()
	return api.ChannelSettings{Name: &name, Volume: &vol, PanLeft: &pl, PanRight: &pr, Reverb: &rev}
}

// Reset ramps all controls back to their defaults
func (ch *Channel) Reset(seconds float64) {
	for _, p := range ch.controls() {
		p.Reset(seconds)
	}
}

// Clear stops every ramp without committing
func (ch *Channel) Clear() {
	for _, p := range ch.controls() {
		p.Clear()
	}
}

// Sync pushes the committed values to the transport, used after the
// output changes
func (ch *Channel) Sync() {
	ch.send(func(m api.Mixer) {
		m.SetChannelVolume(ch.index, ch.Volume())
		m.SetChannelPanLeft(ch.index, ch.PanLeft()*panScale)
		m.SetChannelPanRight(ch.index, ch.PanRight()*panScale)
		m.SetChannelReverb(ch.index, ch.Reverb())
	})
}

func (ch *Channel) controls() []*params.Parameter {
	return []*params.Parameter{ch.volume, ch.panLeft, ch.panRight, ch.reverb}
}

// DefaultSettings returns the settings of a freshly created channel
func DefaultSettings(name string) api.ChannelSettings {
	vol, pl, pr, rev := DefaultVolume, DefaultPanLeft, DefaultPanRight, DefaultReverb
	return api.ChannelSettings{Name: &name, Volume: &vol, PanLeft: &pl, PanRight: &pr, Reverb: &rev}
}
