package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	ErrMarkerNotFound    = errors.New("marker not found")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrParamNotFound     = errors.New("parameter not found")
	ErrPresetNotFound    = errors.New("preset not found")
	ErrNonFinite         = errors.New("value is not finite")
	ErrTransitionPending = errors.New("transition in progress")
	ErrNotLoaded         = errors.New("track is not loaded")
	ErrInvalidFormat     = errors.New("unsupported audio format")
	ErrEngineState       = errors.New("audio engine is in the wrong state")
	ErrScriptNotLoaded   = errors.New("script is not loaded")
	ErrInvalidVolume     = errors.New("volume must be between 0.0 and 1.0")
)

// SyncError wraps errors with the operation and track that produced them
type SyncError struct {
	Op    string // Operation that failed
	Track string // Track ID if applicable
	Err   error  // Underlying error
}

func (e *SyncError) Error() string {
	if e.Track != "" {
		return fmt.Sprintf("%s failed for track %s: %v", e.Op, e.Track, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError
func NewSyncError(op, track string, err error) *SyncError {
	return &SyncError{Op: op, Track: track, Err: err}
}

// ScriptError is a failure raised by a user script
type ScriptError struct {
	Line    int // 0 if unknown
	Message string
}

func (e *ScriptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("script error at line %d: %s", e.Line, e.Message)
	}
	return "script error: " + e.Message
}

// SoundLoadError lists the sounds of a multi-sound load that failed to decode
type SoundLoadError struct {
	Indices []int
	Errs    []error
}

func (e *SoundLoadError) Error() string {
	parts := make([]string, len(e.Indices))
	for i, idx := range e.Indices {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return "sounds failed to load at indices: " + strings.Join(parts, ", ")
}

func (e *SoundLoadError) Unwrap() []error {
	return e.Errs
}
