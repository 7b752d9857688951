package sequence

import (
	"sync"

	apperrors "github.com/jscyril/golang_music_sync/pkg/errors"
)

// RepeatMode controls what follows the last section
type RepeatMode int

const (
	RepeatNone RepeatMode = iota // stop moving after the last section
	RepeatOne                    // loop the current section
	RepeatAll                    // cycle through every section
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "unknown"
	}
}

// Section is a span of the track entered at one marker and left at another
type Section struct {
	Name  string
	Entry string // marker name
	Exit  string // marker name
}

// Queue is the ordered list of sections with a current index
type Queue struct {
	sections   []Section
	index      int
	repeatMode RepeatMode
	mu         sync.RWMutex
}

// NewQueue creates a new empty queue
func NewQueue() *Queue {
	return &Queue{
		sections:   make([]Section, 0),
		repeatMode: RepeatNone,
	}
}

// Add adds sections to the end of the queue
func (q *Queue) Add(sections ...Section) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sections = append(q.sections, sections...)
}

// Set replaces the entire queue
func (q *Queue) Set(sections []Section) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sections = make([]Section, len(sections))
	copy(q.sections, sections)
	q.index = 0
}

// Clear removes all sections
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sections = make([]Section, 0)
	q.index = 0
}

// Current returns the current section
func (q *Queue) Current() (Section, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.index < 0 || q.index >= len(q.sections) {
		return Section{}, false
	}
	return q.sections[q.index], true
}

// Peek returns the section Next would move to without moving
func (q *Queue) Peek() (Section, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	i, ok := q.nextIndex()
	if !ok {
		return Section{}, false
	}
	return q.sections[i], true
}

// nextIndex must be called with the lock held
func (q *Queue) nextIndex() (int, bool) {
	n := len(q.sections)
	if n == 0 {
		return 0, false
	}
	switch q.repeatMode {
	case RepeatOne:
		return q.index, true
	case RepeatAll:
		return (q.index + 1) % n, true
	default:
		if q.index < n-1 {
			return q.index + 1, true
		}
		return 0, false // End of queue
	}
}

// Next moves to the next section and returns it
func (q *Queue) Next() (Section, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i, ok := q.nextIndex()
	if !ok {
		return Section{}, false
	}
	q.index = i
	return q.sections[i], true
}

// Previous moves to the previous section and returns it
func (q *Queue) Previous() (Section, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.sections) == 0 {
		return Section{}, false
	}

	switch q.repeatMode {
	case RepeatOne:
	case RepeatAll:
		q.index--
		if q.index < 0 {
			q.index = len(q.sections) - 1
		}
	default:
		if q.index > 0 {
			q.index--
		}
	}

	return q.sections[q.index], true
}

// JumpTo jumps to a specific index
func (q *Queue) JumpTo(index int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.sections) {
		return apperrors.ErrIndexOutOfRange
	}

	q.index = index
	return nil
}

// IndexOf returns the index of the named section, or -1
func (q *Queue) IndexOf(name string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for i, s := range q.sections {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Remove removes the section at index
func (q *Queue) Remove(index int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.sections) {
		return apperrors.ErrIndexOutOfRange
	}

	q.sections = append(q.sections[:index], q.sections[index+1:]...)

	// Adjust current index if needed
	if q.index > index {
		q.index--
	} else if q.index >= len(q.sections) && len(q.sections) > 0 {
		q.index = len(q.sections) - 1
	}

	return nil
}

// SetRepeatMode sets the repeat mode
func (q *Queue) SetRepeatMode(mode RepeatMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeatMode = mode
}

// GetRepeatMode returns the current repeat mode
func (q *Queue) GetRepeatMode() RepeatMode {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.repeatMode
}

// GetAll returns a copy of all sections
func (q *Queue) GetAll() []Section {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]Section, len(q.sections))
	copy(result, q.sections)
	return result
}

// Len returns the number of sections
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.sections)
}

// Index returns the current index
func (q *Queue) Index() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.index
}

// HasNext returns true if there's a next section
func (q *Queue) HasNext() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.nextIndex()
	return ok
}
