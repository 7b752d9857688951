package track

import (
	"math"

	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/cue"
	"github.com/sirupsen/logrus"
)

// LoadOptions describes what accompanies a track at load time
type LoadOptions struct {
	Markers  []*api.Marker
	Loop     *cue.Loop // nil covers the whole track
	Looping  bool
	Params   []api.ParamDesc
	Channels []string // extra console channels after the main bus
	Presets  []api.Preset
}

// OptionsFromSheet converts a cue sheet into load options
func OptionsFromSheet(sheet *cue.Sheet, s *Synchronizer) LoadOptions {
	markers, loop := sheet.Resolve(s.log)
	return LoadOptions{
		Markers:  markers,
		Loop:     loop,
		Looping:  sheet.Looping,
		Params:   sheet.ParamDescs(),
		Channels: sheet.Channels,
		Presets:  sheet.Presets,
	}
}

// Load replaces whatever is loaded with opts. The transport must already
// hold the audio so its length is known.
func (s *Synchronizer) Load(opts LoadOptions) {
	s.Unload()

	length := s.transport.Length()
	s.store.SetLength(length)
	s.store.Load(opts.Markers)
	s.params.Load(opts.Params)

	for _, name := range opts.Channels {
		s.console.AddChannel(name)
	}
	s.presets.Add(opts.Presets...)
	s.presets.Update(s.console.Len())

	s.looping = opts.Looping
	start, end := 0.0, length
	if opts.Loop != nil {
		start = opts.Loop.Start
		if !math.IsInf(opts.Loop.End, 0) {
			end = opts.Loop.End
		}
	}
	s.loopStart, s.loopEnd = 0, length
	s.SetLoopPoints(start, end)

	s.loaded = true
	s.hasLast = false
	s.resync = false
	s.elapsed = 0

	s.log.WithFields(logrus.Fields{
		"markers": s.store.Len(),
		"params":  s.params.Count(),
		"looping": s.looping,
	}).Info("track loaded")
}

// LoadSheet loads the markers, loop region, parameters and mix of sheet
func (s *Synchronizer) LoadSheet(sheet *cue.Sheet) {
	s.Load(OptionsFromSheet(sheet, s))
}

// Unload aborts any transition, stops every ramp and drops markers,
// parameters, channels and presets. Safe to call repeatedly.
func (s *Synchronizer) Unload() {
	s.coord.Abort()
	s.store.Clear()
	s.params.Clear()
	s.console.Clear()
	s.presets.Clear()
	s.loaded = false
	s.autoSuspended = false
	s.hasLast = false
}

// ExportSheet writes the current markers, loop region and looping flag
// into sheet
func (s *Synchronizer) ExportSheet(sheet *cue.Sheet) {
	sheet.SetMarkers(s.store.Markers(), &cue.Loop{Start: s.loopStart, End: s.loopEnd})
	sheet.Looping = s.looping
}
