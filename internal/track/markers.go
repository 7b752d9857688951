package track

import (
	"math"

	"github.com/jscyril/golang_music_sync/api"
)

// AddMarker inserts a marker at seconds and returns its detached copy
func (s *Synchronizer) AddMarker(name string, seconds float64) (api.MarkerInfo, bool) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return api.MarkerInfo{}, false
	}
	m := s.store.Push(&api.Marker{Name: name, Position: seconds})
	return info(m), true
}

// EditMarker renames and moves the referenced marker. An empty name keeps
// the current one.
func (s *Synchronizer) EditMarker(ref api.Ref, name string, seconds float64) bool {
	i := s.markerIndex(ref)
	if i == -1 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return false
	}
	m, _ := s.store.At(i)
	if name != "" {
		m.Name = name
	}
	return s.store.EditPositionAt(i, seconds)
}

// EraseMarker removes the referenced marker. Transitions pointing at it are
// dropped on the next frame.
func (s *Synchronizer) EraseMarker(ref api.Ref) bool {
	return s.store.EraseAt(s.markerIndex(ref))
}

// Marker returns a detached copy of the referenced marker
func (s *Synchronizer) Marker(ref api.Ref) (api.MarkerInfo, bool) {
	m, ok := s.store.At(s.markerIndex(ref))
	if !ok {
		return api.MarkerInfo{}, false
	}
	return info(m), true
}

// MarkerCount returns the number of markers
func (s *Synchronizer) MarkerCount() int { return s.store.Len() }

// Cursor returns the index of the next marker to fire
func (s *Synchronizer) Cursor() int { return s.store.Cursor() }

// Markers returns detached copies of all markers in order
func (s *Synchronizer) Markers() []api.MarkerInfo {
	all := s.store.Markers()
	out := make([]api.MarkerInfo, len(all))
	for i, m := range all {
		out[i] = info(m)
	}
	return out
}

// SetTransition installs a transition on the source marker toward dest.
// Both must be markers of this track.
func (s *Synchronizer) SetTransition(source, dest api.Ref, inTime float64, fadeIn bool, outTime float64, fadeOut bool) bool {
	src, ok := s.store.At(s.markerIndex(source))
	if !ok {
		return false
	}
	d, ok := s.store.At(s.markerIndex(dest))
	if !ok {
		return false
	}
	if math.IsNaN(inTime) || math.IsNaN(outTime) {
		return false
	}
	src.Transition = &api.Transition{
		Destination: d,
		InTime:      math.Max(0, inTime),
		FadeIn:      fadeIn,
		OutTime:     math.Max(0, outTime),
		FadeOut:     fadeOut,
	}
	return true
}

// ClearTransition removes the transition from the source marker. The
// transition already in flight, if any, is not affected.
func (s *Synchronizer) ClearTransition(source api.Ref) bool {
	src, ok := s.store.At(s.markerIndex(source))
	if !ok {
		return false
	}
	src.Transition = nil
	return true
}

// markerIndex resolves ref to an index, or -1
func (s *Synchronizer) markerIndex(ref api.Ref) int {
	if ref.ByName {
		return s.store.FindIndexByName(ref.Name)
	}
	if ref.Index < 0 || ref.Index >= s.store.Len() {
		return -1
	}
	return ref.Index
}

func info(m *api.Marker) api.MarkerInfo {
	return api.MarkerInfo{Name: m.Name, Position: m.Position * 1000}
}
