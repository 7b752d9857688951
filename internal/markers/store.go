package markers

import (
	"math"

	"github.com/jscyril/golang_music_sync/api"
	"github.com/sirupsen/logrus"
)

// Hooks receive store notifications. Any field may be nil.
type Hooks struct {
	// OnMarker fires when a marker enters the lookahead window. The cursor
	// has already moved past the marker.
	OnMarker func(m *api.Marker, targetClock uint64)
	// OnCursorChanged fires with the new and old cursor index
	OnCursorChanged func(newCursor, oldCursor int)
	// OnRecalibrated fires after a dirty store has been recalibrated
	OnRecalibrated func()
}

// Store is an ordered collection of markers with a traversal cursor
type Store struct {
	markers []*api.Marker
	cursor  int
	dirty   bool
	length  float64

	// The last fired marker and its position when it fired, used to keep a
	// recalibration from replaying markers already fired inside the
	// lookahead window.
	lastMarker *api.Marker
	lastFired  float64
	hasFired   bool

	// Position passed to the previous Advance
	lastCurrent float64
	hasLast     bool

	// How many loops of the transport ahead the marker under the cursor
	// lies. Lookahead across the track end fires markers of the next loop
	// before the transport wraps.
	ahead int

	// Bumped by SeekTo and Clear so an Advance in progress stops when a
	// listener repositions the store
	seq uint64

	hooks Hooks
	log   *logrus.Entry
}

// NewStore creates an empty store
func NewStore(hooks Hooks, log *logrus.Entry) *Store {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Store{hooks: hooks, log: log}
}

// SetHooks replaces the notification hooks
func (s *Store) SetHooks(hooks Hooks) {
	s.hooks = hooks
}

// SetLength sets the track length used to clamp marker positions
func (s *Store) SetLength(seconds float64) {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	s.length = seconds
}

// Length returns the track length used for clamping
func (s *Store) Length() float64 { return s.length }

// Len returns the number of markers
func (s *Store) Len() int { return len(s.markers) }

// Cursor returns the index of the next marker to fire
func (s *Store) Cursor() int { return s.cursor }

// Dirty reports whether the store awaits recalibration
func (s *Store) Dirty() bool { return s.dirty }

// At returns the marker at index i
func (s *Store) At(i int) (*api.Marker, bool) {
	if i < 0 || i >= len(s.markers) {
		return nil, false
	}
	return s.markers[i], true
}

// Markers returns a copy of the ordered marker slice
func (s *Store) Markers() []*api.Marker {
	return append([]*api.Marker(nil), s.markers...)
}

// IndexOf returns the index of m, or -1
func (s *Store) IndexOf(m *api.Marker) int {
	for i, mk := range s.markers {
		if mk == m {
			return i
		}
	}
	return -1
}

// Contains reports whether m is a member of the store
func (s *Store) Contains(m *api.Marker) bool {
	return m != nil && s.IndexOf(m) != -1
}

// FindByName returns the first marker named name
func (s *Store) FindByName(name string) (*api.Marker, bool) {
	i := s.FindIndexByName(name)
	if i == -1 {
		return nil, false
	}
	return s.markers[i], true
}

// FindIndexByName returns the index of the first marker named name, or -1
func (s *Store) FindIndexByName(name string) int {
	for i, m := range s.markers {
		if m.Name == name {
			return i
		}
	}
	return -1
}

func (s *Store) clamp(pos float64) float64 {
	if math.IsNaN(pos) || pos < 0 {
		return 0
	}
	if s.length > 0 && pos > s.length {
		return s.length
	}
	return pos
}

// insertIndex returns the slot after the last marker at or before pos,
// ignoring index skip
func (s *Store) insertIndex(pos float64, skip int) int {
	idx := 0
	for i, m := range s.markers {
		if i == skip {
			continue
		}
		if pos < m.Position {
			break
		}
		idx++
	}
	return idx
}

// Push inserts m in position order and returns it
func (s *Store) Push(m *api.Marker) *api.Marker {
	if m == nil {
		return nil
	}
	m.Position = s.clamp(m.Position)

	idx := s.insertIndex(m.Position, -1)
	s.markers = append(s.markers, nil)
	copy(s.markers[idx+1:], s.markers[idx:])
	s.markers[idx] = m

	s.dirty = true
	return m
}

// EraseAt removes the marker at index i
func (s *Store) EraseAt(i int) bool {
	if i < 0 || i >= len(s.markers) {
		return false
	}
	copy(s.markers[i:], s.markers[i+1:])
	s.markers[len(s.markers)-1] = nil
	s.markers = s.markers[:len(s.markers)-1]
	s.dirty = true
	return true
}

// Erase removes m by identity
func (s *Store) Erase(m *api.Marker) bool {
	return s.EraseAt(s.IndexOf(m))
}

// EditPosition moves m to pos, keeping the collection sorted
func (s *Store) EditPosition(m *api.Marker, pos float64) bool {
	return s.EditPositionAt(s.IndexOf(m), pos)
}

// EditPositionAt moves the marker at index i to pos. The store is marked
// dirty only when the marker changes slot.
func (s *Store) EditPositionAt(i int, pos float64) bool {
	if i < 0 || i >= len(s.markers) {
		return false
	}
	m := s.markers[i]
	pos = s.clamp(pos)
	if pos == m.Position {
		return true
	}

	newIndex := s.insertIndex(pos, i)
	m.Position = pos
	if newIndex == i {
		return true
	}

	copy(s.markers[i:], s.markers[i+1:])
	s.markers = s.markers[:len(s.markers)-1]
	s.markers = append(s.markers, nil)
	copy(s.markers[newIndex+1:], s.markers[newIndex:])
	s.markers[newIndex] = m

	s.dirty = true
	return true
}

// Invalidate marks the store for recalibration on the next Advance
func (s *Store) Invalidate() {
	s.dirty = true
}

// Clear removes all markers. Safe to call repeatedly.
func (s *Store) Clear() {
	for i := range s.markers {
		s.markers[i] = nil
	}
	s.markers = s.markers[:0]
	old := s.cursor
	s.cursor = 0
	s.hasFired = false
	s.lastMarker = nil
	s.hasLast = false
	s.ahead = 0
	s.dirty = false
	s.seq++
	if old != 0 && s.hooks.OnCursorChanged != nil {
		s.hooks.OnCursorChanged(0, old)
	}
}

// Load replaces the store contents with markers
func (s *Store) Load(markers []*api.Marker) {
	s.Clear()
	for _, m := range markers {
		s.Push(m)
	}
}

// firstAtOrAfter returns the index of the first marker with Position >= pos
func (s *Store) firstAtOrAfter(pos float64) int {
	for i, m := range s.markers {
		if m.Position >= pos {
			return i
		}
	}
	return len(s.markers)
}

// firstAfter returns the index of the first marker with Position > pos
func (s *Store) firstAfter(pos float64) int {
	for i, m := range s.markers {
		if m.Position > pos {
			return i
		}
	}
	return len(s.markers)
}

// wrapDistance normalizes d into half a track length either side of zero
func wrapDistance(d, trackLength float64) float64 {
	if trackLength <= 0 {
		return d
	}
	if d > trackLength/2 {
		d -= trackLength
	} else if d < -trackLength/2 {
		d += trackLength
	}
	return d
}

// calibrate points the cursor at the first marker at or after current.
// When a marker fired recently, either still ahead inside the lookahead
// window or passed during the last frame, the cursor resumes right after it
// so nothing is fired twice.
func (s *Store) calibrate(current, trackLength float64) {
	s.ahead = 0
	if s.hasFired && s.hasLast {
		d := wrapDistance(s.lastFired-current, trackLength)
		span := current - s.lastCurrent
		if span < 0 && trackLength > 0 {
			span += trackLength
		}
		if span < 0 {
			span = 0
		}
		if d <= api.Lookahead && d >= -(span+api.Lookahead) {
			s.cursor = s.resumeAfterFired()
			return
		}
	}
	s.cursor = s.firstAtOrAfter(current)
}

// resumeAfterFired returns the index following the last fired marker. Markers
// sharing its position that come after it in order have not fired yet.
func (s *Store) resumeAfterFired() int {
	if m := s.lastMarker; m != nil && m.Position == s.lastFired {
		if i := s.IndexOf(m); i != -1 {
			return i + 1
		}
	}
	return s.firstAfter(s.lastFired)
}

// cleanTransitions drops transitions whose destination left the store
func (s *Store) cleanTransitions() bool {
	altered := false
	for _, m := range s.markers {
		if m.Transition == nil {
			continue
		}
		if !s.Contains(m.Transition.Destination) {
			s.log.WithField("marker", m.Name).Warn("transition destination no longer exists, removing transition")
			m.Transition = nil
			altered = true
		}
	}
	return altered
}

// overdue reports whether pos was passed between the previous Advance and
// current without firing, which happens when a frame spans more than the
// lookahead window.
func (s *Store) overdue(pos, current float64) bool {
	if !s.hasLast {
		return false
	}
	if current >= s.lastCurrent {
		return pos >= s.lastCurrent && pos < current
	}
	// the transport wrapped during the frame
	return pos >= s.lastCurrent || pos < current
}

// effective projects the marker at pos, lying ahead loops past the
// transport's current pass, onto the timeline ahead of current. ok is false
// when the marker cannot be reached without a wrap and the track does not
// wrap.
func (s *Store) effective(pos, current, trackLength float64, ahead int) (float64, bool) {
	if ahead == 0 {
		if s.overdue(pos, current) {
			return current, true
		}
		if pos >= current {
			return pos, true
		}
		ahead = 1
	}
	if trackLength <= 0 {
		return 0, false
	}
	return pos + float64(ahead)*trackLength, true
}

// Advance fires every marker whose position falls within the lookahead
// window of current. clock is the sample clock at current.
func (s *Store) Advance(current, trackLength float64, clock uint64, samplerate int) {
	oldCursor := s.cursor
	seq := s.seq

	if s.hasLast && current < s.lastCurrent {
		// the transport wrapped: the cursor is one loop closer
		if s.ahead > 0 {
			s.ahead--
		} else if s.cursor >= len(s.markers) {
			s.cursor = 0
		}
	}

	if s.dirty {
		s.calibrate(current, trackLength)
		s.cleanTransitions()
		s.dirty = false
		if s.hooks.OnRecalibrated != nil {
			s.hooks.OnRecalibrated()
		}
	}

	for fired := 0; fired < len(s.markers); fired++ {
		n := len(s.markers)
		if n == 0 || s.dirty || s.seq != seq {
			// a listener mutated or repositioned the store
			break
		}
		idx, ahead := s.cursor, s.ahead
		if idx >= n {
			idx = 0
			ahead++
		}
		m := s.markers[idx]
		eff, ok := s.effective(m.Position, current, trackLength, ahead)
		if !ok || eff-current > api.Lookahead {
			break
		}

		target := ProjectClock(clock, samplerate, eff-current)
		s.cursor = idx + 1
		if s.cursor >= n {
			s.cursor = 0
			ahead++
		}
		s.ahead = ahead
		s.lastMarker = m
		s.lastFired = m.Position
		s.hasFired = true
		if s.hooks.OnMarker != nil {
			s.hooks.OnMarker(m, target)
		}
	}

	if s.seq != seq {
		return
	}
	s.lastCurrent = current
	s.hasLast = true

	if s.cursor != oldCursor && s.hooks.OnCursorChanged != nil {
		s.hooks.OnCursorChanged(s.cursor, oldCursor)
	}
}

// SeekTo recalibrates the cursor to pos without firing any marker
func (s *Store) SeekTo(pos float64) {
	old := s.cursor
	s.seq++
	s.hasFired = false
	s.lastMarker = nil
	s.ahead = 0
	s.lastCurrent = pos
	s.hasLast = true
	s.cursor = s.firstAtOrAfter(pos)
	if s.cursor != old && s.hooks.OnCursorChanged != nil {
		s.hooks.OnCursorChanged(s.cursor, old)
	}
}

// Resync recalibrates the cursor to pos after the transport state was
// unknown for a while. Unlike SeekTo it remembers the last fired marker, so
// a marker already fired inside the lookahead window does not fire again.
func (s *Store) Resync(pos, trackLength float64) {
	old := s.cursor
	s.seq++
	s.calibrate(pos, trackLength)
	s.lastCurrent = pos
	s.hasLast = true
	if s.cursor != old && s.hooks.OnCursorChanged != nil {
		s.hooks.OnCursorChanged(s.cursor, old)
	}
}

// NextTransition returns the next marker in traversal order carrying a
// transition with a live destination, and its distance from current.
func (s *Store) NextTransition(current, trackLength float64) (*api.Marker, float64, bool) {
	n := len(s.markers)
	if n == 0 {
		return nil, 0, false
	}

	start, ahead := s.cursor, s.ahead
	if s.dirty {
		// mirror the pending recalibration without committing it
		savedCursor, savedAhead := s.cursor, s.ahead
		s.calibrate(current, trackLength)
		start, ahead = s.cursor, s.ahead
		s.cursor, s.ahead = savedCursor, savedAhead
	}

	for i := 0; i < n; i++ {
		step := start + i
		m := s.markers[step%n]
		if m.Transition == nil || !s.Contains(m.Transition.Destination) {
			continue
		}
		eff, ok := s.effective(m.Position, current, trackLength, ahead+step/n)
		if !ok {
			return nil, 0, false
		}
		return m, eff - current, true
	}
	return nil, 0, false
}

// ProjectClock returns the sample clock seconds away from clock at samplerate,
// floored at zero
func ProjectClock(clock uint64, samplerate int, seconds float64) uint64 {
	offset := math.Round(float64(samplerate) * seconds)
	if offset < 0 {
		if uint64(-offset) > clock {
			return 0
		}
		return clock - uint64(-offset)
	}
	return clock + uint64(offset)
}
