package api

// EventType identifies a synchronization event published to local listeners
type EventType int

const (
	EventMarkerCrossed EventType = iota
	EventCursorChanged
	EventMarkersRecalibrated
	EventParameterChanged
	EventSeek
	EventPause
	EventTransitionStarted
	EventTransitionFinished
	EventTransitionAborted
	EventAutoSuspend
	EventScriptError
)

// AllEventTypes lists every event type in declaration order
var AllEventTypes = []EventType{
	EventMarkerCrossed,
	EventCursorChanged,
	EventMarkersRecalibrated,
	EventParameterChanged,
	EventSeek,
	EventPause,
	EventTransitionStarted,
	EventTransitionFinished,
	EventTransitionAborted,
	EventAutoSuspend,
	EventScriptError,
}

func (t EventType) String() string {
	switch t {
	case EventMarkerCrossed:
		return "marker"
	case EventCursorChanged:
		return "cursor"
	case EventMarkersRecalibrated:
		return "recalibrated"
	case EventParameterChanged:
		return "param"
	case EventSeek:
		return "seek"
	case EventPause:
		return "pause"
	case EventTransitionStarted:
		return "transition-start"
	case EventTransitionFinished:
		return "transition-end"
	case EventTransitionAborted:
		return "transition-abort"
	case EventAutoSuspend:
		return "auto-suspend"
	case EventScriptError:
		return "script-error"
	default:
		return "unknown"
	}
}

// Event is a message published on the event bus
type Event struct {
	Type    EventType
	Track   string
	Payload interface{}
}

// MarkerCrossedPayload accompanies EventMarkerCrossed
type MarkerCrossedPayload struct {
	Marker      MarkerInfo
	TargetClock uint64
}

// CursorPayload accompanies EventCursorChanged
type CursorPayload struct {
	New int
	Old int
}

// ParameterPayload accompanies EventParameterChanged
type ParameterPayload struct {
	Index int
	Value float64
}
