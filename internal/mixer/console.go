package mixer

import (
	"sync"

	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/ramp"
	"github.com/sirupsen/logrus"
)

// MainChannel is the name given to channel 0
const MainChannel = "main"

// Console owns the mix channels of one track
type Console struct {
	channels []*Channel
	sched    *ramp.Scheduler
	out      api.Mixer
	mu       sync.RWMutex
	log      *logrus.Entry
}

// NewConsole creates a console with only the main bus. out may be nil.
func NewConsole(sched *ramp.Scheduler, out api.Mixer, log *logrus.Entry) *Console {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Console{sched: sched, out: out, log: log}
	c.channels = []*Channel{newChannel(c, 0, MainChannel, sched)}
	return c
}

func (c *Console) output() api.Mixer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.out
}

// SetOutput routes committed values to out and pushes the current mix to it
func (c *Console) SetOutput(out api.Mixer) {
	c.mu.Lock()
	c.out = out
	c.mu.Unlock()
	for _, ch := range c.channels {
		ch.Sync()
	}
}

// AddChannel appends a channel with default settings
func (c *Console) AddChannel(name string) *Channel {
	ch := newChannel(c, len(c.channels), name, c.sched)
	c.channels = append(c.channels, ch)
	return ch
}

// Len returns the number of channels including the main bus
func (c *Console) Len() int { return len(c.channels) }

// Channel returns the channel at index i
func (c *Console) Channel(i int) (*Channel, bool) {
	if i < 0 || i >= len(c.channels) {
		return nil, false
	}
	return c.channels[i], true
}

// Channels returns the channels in index order
func (c *Console) Channels() []*Channel {
	return append([]*Channel(nil), c.channels...)
}

// ApplySettings ramps each channel toward the matching entry of settings.
// Extra entries are ignored and missing ones leave their channel alone.
func (c *Console) ApplySettings(settings []api.ChannelSettings, seconds float64) {
	if len(settings) > len(c.channels) {
		c.log.WithFields(logrus.Fields{
			"settings": len(settings),
			"channels": len(c.channels),
		}).Debug("more channel settings than channels")
	}
	for i, s := range settings {
		if i >= len(c.channels) {
			break
		}
		c.channels[i].Apply(s, seconds)
	}
}

// CurrentSettings snapshots every channel
func (c *Console) CurrentSettings() []api.ChannelSettings {
	out := make([]api.ChannelSettings, len(c.channels))
	for i, ch := range c.channels {
		out[i] = ch.Settings()
	}
	return out
}

// DefaultSettings returns default settings for every channel, keeping names
func (c *Console) DefaultSettings() []api.ChannelSettings {
	out := make([]api.ChannelSettings, len(c.channels))
	for i, ch := range c.channels {
		out[i] = DefaultSettings(ch.name)
	}
	return out
}

// Reset ramps every channel to its defaults
func (c *Console) Reset(seconds float64) {
	for _, ch := range c.channels {
		ch.Reset(seconds)
	}
}

// Clear stops all ramps and drops every channel except a fresh main bus.
// Safe to call repeatedly.
func (c *Console) Clear() {
	for _, ch := range c.channels {
		ch.Clear()
	}
	c.channels = []*Channel{newChannel(c, 0, MainChannel, c.sched)}
}
