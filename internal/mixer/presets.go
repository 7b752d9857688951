package mixer

import (
	"sync"

	"github.com/jscyril/golang_music_sync/api"
	synerrors "github.com/jscyril/golang_music_sync/pkg/errors"
)

// Presets is an ordered list of named mix snapshots
type Presets struct {
	presets []api.Preset
	mu      sync.RWMutex
}

// NewPresets creates an empty preset list
func NewPresets() *Presets {
	return &Presets{}
}

// Add appends presets. A preset named like an existing one replaces it.
func (p *Presets) Add(presets ...api.Preset) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, preset := range presets {
		if i := p.indexOf(preset.Name); i != -1 {
			p.presets[i] = preset
			continue
		}
		p.presets = append(p.presets, preset)
	}
}

// Len returns the number of presets
func (p *Presets) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.presets)
}

// At returns the preset at index i
func (p *Presets) At(i int) (api.Preset, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if i < 0 || i >= len(p.presets) {
		return api.Preset{}, false
	}
	return p.presets[i], true
}

// FindByName returns the preset called name
func (p *Presets) FindByName(name string) (api.Preset, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if i := p.indexOf(name); i != -1 {
		return p.presets[i], nil
	}
	return api.Preset{}, synerrors.ErrPresetNotFound
}

// Get resolves ref by index or name
func (p *Presets) Get(ref api.Ref) (api.Preset, bool) {
	if ref.ByName {
		preset, err := p.FindByName(ref.Name)
		return preset, err == nil
	}
	return p.At(ref.Index)
}

// Names returns preset names in order
func (p *Presets) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.presets))
	for i, preset := range p.presets {
		names[i] = preset.Name
	}
	return names
}

// Update pads or truncates every preset to channelCount channels. Padded
// channels carry no values so applying them leaves the channel alone.
func (p *Presets) Update(channelCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if channelCount < 0 {
		channelCount = 0
	}
	for i := range p.presets {
		chs := p.presets[i].Channels
		if len(chs) > channelCount {
			chs = chs[:channelCount]
		}
		for len(chs) < channelCount {
			chs = append(chs, api.ChannelSettings{})
		}
		p.presets[i].Channels = chs
	}
}

// Clear removes all presets
func (p *Presets) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.presets = nil
}

func (p *Presets) indexOf(name string) int {
	for i, preset := range p.presets {
		if preset.Name == name {
			return i
		}
	}
	return -1
}
