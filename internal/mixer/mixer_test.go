package mixer

import (
	"math"
	"testing"

	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/ramp"
)

type mixCall struct {
	control string
	ch      int
	level   float64
}

type fakeMixer struct {
	calls []mixCall
}

func (f *fakeMixer) SetChannelVolume(ch int, v float64) {
	f.calls = append(f.calls, mixCall{"volume", ch, v})
}
func (f *fakeMixer) SetChannelPanLeft(ch int, v float64) {
	f.calls = append(f.calls, mixCall{"pan_left", ch, v})
}
func (f *fakeMixer) SetChannelPanRight(ch int, v float64) {
	f.calls = append(f.calls, mixCall{"pan_right", ch, v})
}
func (f *fakeMixer) SetChannelReverb(ch int, v float64) {
	f.calls = append(f.calls, mixCall{"reverb", ch, v})
}

func ptr(v float64) *float64 { return &v }

func TestChannel_Defaults(t *testing.T) {
	c := NewConsole(ramp.NewScheduler(), nil, nil)
	ch, ok := c.Channel(0)
	if !ok {
		t.Fatal("Channel(0) missing")
	}
	if ch.Name() != MainChannel {
		t.Errorf("Name() = %q, want %q", ch.Name(), MainChannel)
	}
	if ch.Volume() != 1 || ch.Reverb() != 0 || ch.PanLeft() != 100 || ch.PanRight() != 100 {
		t.Errorf("defaults = %v %v %v %v", ch.Volume(), ch.Reverb(), ch.PanLeft(), ch.PanRight())
	}
}

func TestChannel_ForwardsScaledPan(t *testing.T) {
	out := &fakeMixer{}
	c := NewConsole(ramp.NewScheduler(), out, nil)
	ch := c.AddChannel("drums")

	ch.SetPanLeft(40, 0)
	ch.SetPanRight(250, 0)
	ch.SetVolume(0.5, 0)

	want := []mixCall{
		{"pan_left", 1, 0.4},
		{"volume", 1, 0.5},
	}
	if len(out.calls) != len(want) {
		t.Fatalf("calls = %+v, want %+v", out.calls, want)
	}
	for i := range want {
		got := out.calls[i]
		if got.control != want[i].control || got.ch != want[i].ch || math.Abs(got.level-want[i].level) > 1e-9 {
			t.Errorf("call %d = %+v, want %+v", i, got, want[i])
		}
	}
	if ch.PanRight() != 100 {
		t.Errorf("PanRight() = %v, want clamp to 100", ch.PanRight())
	}
}

func TestChannel_VolumeRamps(t *testing.T) {
	sched := ramp.NewScheduler()
	c := NewConsole(sched, nil, nil)
	ch, _ := c.Channel(0)

	ch.SetVolume(0, 1)
	for i := 0; i < 25; i++ {
		sched.Tick(ramp.TickInterval)
	}
	if v := ch.Volume(); v != 0.5 {
		t.Errorf("Volume() halfway = %v, want 0.5", v)
	}
	for i := 0; i < 25; i++ {
		sched.Tick(ramp.TickInterval)
	}
	if v := ch.Volume(); v != 0 {
		t.Errorf("Volume() = %v, want 0", v)
	}
}

func TestConsole_ApplySettings(t *testing.T) {
	c := NewConsole(ramp.NewScheduler(), nil, nil)
	c.AddChannel("bass")

	name := "low end"
	c.ApplySettings([]api.ChannelSettings{
		{Volume: ptr(0.8)},
		{Name: &name, Reverb: ptr(1.5)},
		{Volume: ptr(0)},
	}, 0)

	main, _ := c.Channel(0)
	bass, _ := c.Channel(1)
	if main.Volume() != 0.8 || main.Reverb() != 0 {
		t.Errorf("main = %v/%v", main.Volume(), main.Reverb())
	}
	if bass.Name() != "low end" || bass.Reverb() != 1.5 || bass.Volume() != 1 {
		t.Errorf("bass = %s %v/%v", bass.Name(), bass.Volume(), bass.Reverb())
	}

	cur := c.CurrentSettings()
	if len(cur) != 2 || *cur[1].Reverb != 1.5 || *cur[0].Name != MainChannel {
		t.Errorf("CurrentSettings() = %+v", cur)
	}
}

func TestConsole_ResetAndClear(t *testing.T) {
	sched := ramp.NewScheduler()
	c := NewConsole(sched, nil, nil)
	ch := c.AddChannel("fx")
	ch.SetReverb(2, 0)

	c.Reset(0)
	if ch.Reverb() != 0 {
		t.Errorf("Reverb() after Reset = %v, want 0", ch.Reverb())
	}

	ch.SetVolume(0, 5)
	c.Clear()
	c.Clear()
	if sched.Active() != 0 {
		t.Errorf("active ramps after Clear = %d", sched.Active())
	}
	if c.Len() != 1 {
		t.Errorf("Len() after Clear = %d, want 1", c.Len())
	}
}

func TestConsole_SetOutputSyncs(t *testing.T) {
	c := NewConsole(ramp.NewScheduler(), nil, nil)
	c.AddChannel("keys")

	out := &fakeMixer{}
	c.SetOutput(out)
	if len(out.calls) != 8 {
		t.Errorf("sync calls = %d, want 8", len(out.calls))
	}
}

func TestPresets(t *testing.T) {
	p := NewPresets()
	p.Add(
		api.Preset{Name: "calm", Channels: []api.ChannelSettings{{Volume: ptr(0.5)}}},
		api.Preset{Name: "loud", Channels: []api.ChannelSettings{{Volume: ptr(1.2)}, {}, {}}},
	)
	p.Add(api.Preset{Name: "calm", Channels: []api.ChannelSettings{{Volume: ptr(0.4)}}})

	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}

	tests := []struct {
		ref  api.Ref
		name string
		ok   bool
	}{
		{api.ByIndex(0), "calm", true},
		{api.ByName("loud"), "loud", true},
		{api.ByIndex(2), "", false},
		{api.ByName("quiet"), "", false},
	}
	for _, tt := range tests {
		got, ok := p.Get(tt.ref)
		if ok != tt.ok || got.Name != tt.name {
			t.Errorf("Get(%+v) = %q, %v, want %q, %v", tt.ref, got.Name, ok, tt.name, tt.ok)
		}
	}

	calm, _ := p.At(0)
	if *calm.Channels[0].Volume != 0.4 {
		t.Errorf("replaced preset volume = %v, want 0.4", *calm.Channels[0].Volume)
	}

	p.Update(2)
	for _, name := range p.Names() {
		preset, _ := p.FindByName(name)
		if len(preset.Channels) != 2 {
			t.Errorf("%s has %d channels after Update(2)", name, len(preset.Channels))
		}
	}

	p.Clear()
	if p.Len() != 0 {
		t.Errorf("Len() after Clear = %d", p.Len())
	}
}
