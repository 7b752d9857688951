package track

import (
	"github.com/jscyril/golang_music_sync/api"
	"github.com/sirupsen/logrus"
)

var _ api.ScriptCallbacks = (*Synchronizer)(nil)

// OnAddMarker adds a marker at ms milliseconds
func (s *Synchronizer) OnAddMarker(name string, ms float64) bool {
	_, ok := s.AddMarker(name, ms/1000)
	return ok
}

// OnEditMarker renames and moves the referenced marker to ms milliseconds
func (s *Synchronizer) OnEditMarker(ref api.Ref, name string, ms float64) bool {
	return s.EditMarker(ref, name, ms/1000)
}

// OnGetMarker returns the referenced marker
func (s *Synchronizer) OnGetMarker(ref api.Ref) (api.MarkerInfo, bool) {
	return s.Marker(ref)
}

// OnGetMarkerCount returns the number of markers
func (s *Synchronizer) OnGetMarkerCount() int {
	return s.MarkerCount()
}

// OnSetLoopPoint sets the loop region in milliseconds
func (s *Synchronizer) OnSetLoopPoint(startMs, endMs float64) bool {
	return s.SetLoopPoints(startMs/1000, endMs/1000)
}

// OnSetPause pauses or resumes with a fade of seconds
func (s *Synchronizer) OnSetPause(pause bool, seconds float64) bool {
	return s.SetPause(pause, seconds)
}

// OnSetPosition seeks to seconds
func (s *Synchronizer) OnSetPosition(seconds float64) bool {
	return s.SetPosition(seconds)
}

// OnSetParameter ramps the referenced parameter to value
func (s *Synchronizer) OnSetParameter(ref api.Ref, value, seconds float64) bool {
	return s.params.Set(ref, value, seconds)
}

// OnSetVolume ramps the volume of console channel ch
func (s *Synchronizer) OnSetVolume(ch int, level, seconds float64) bool {
	c, ok := s.console.Channel(ch)
	return ok && c.SetVolume(level, seconds)
}

// OnSetPanLeft ramps the left pan of console channel ch
func (s *Synchronizer) OnSetPanLeft(ch int, level, seconds float64) bool {
	c, ok := s.console.Channel(ch)
	return ok && c.SetPanLeft(level, seconds)
}

// OnSetPanRight ramps the right pan of console channel ch
func (s *Synchronizer) OnSetPanRight(ch int, level, seconds float64) bool {
	c, ok := s.console.Channel(ch)
	return ok && c.SetPanRight(level, seconds)
}

// OnSetReverbLevel ramps the reverb send of console channel ch
func (s *Synchronizer) OnSetReverbLevel(ch int, level, seconds float64) bool {
	c, ok := s.console.Channel(ch)
	return ok && c.SetReverb(level, seconds)
}

// OnGetPresetCount returns the number of mix presets
func (s *Synchronizer) OnGetPresetCount() int {
	return s.presets.Len()
}

// OnGetPresetName returns the name of the preset at index
func (s *Synchronizer) OnGetPresetName(index int) (string, bool) {
	p, ok := s.presets.At(index)
	return p.Name, ok
}

// OnApplyPreset ramps the console to the referenced preset
func (s *Synchronizer) OnApplyPreset(ref api.Ref, seconds float64) bool {
	return s.ApplyPreset(ref, seconds)
}

// OnPrint logs a message from a script
func (s *Synchronizer) OnPrint(level int, name, message string) {
	entry := s.log.WithField("script", name)
	switch level {
	case api.PrintDebug:
		entry.Debug(message)
	case api.PrintWarn:
		entry.Warn(message)
	case api.PrintError:
		entry.Error(message)
	default:
		entry.Info(message)
	}
}

// ApplyPreset ramps the console to the referenced preset over seconds
func (s *Synchronizer) ApplyPreset(ref api.Ref, seconds float64) bool {
	p, ok := s.presets.Get(ref)
	if !ok {
		s.log.WithField("preset", ref).Debug("unknown preset")
		return false
	}
	s.console.ApplySettings(p.Channels, seconds)
	s.log.WithFields(logrus.Fields{"preset": p.Name, "seconds": seconds}).Debug("preset applied")
	return true
}

// ReportScriptError publishes a script failure to bus listeners
func (s *Synchronizer) ReportScriptError(err error) {
	s.log.WithError(err).Warn("script error")
	s.publish(api.EventScriptError, err)
}
