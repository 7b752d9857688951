package api

import "time"

// Lookahead is the window before a marker's position within which its
// crossing event fires, in seconds.
const Lookahead = 0.1

// Transition describes a cross-fade/seek toward another marker of the same store
type Transition struct {
	Destination *Marker `json:"-" yaml:"-"`
	InTime      float64 `json:"in_time" yaml:"in_time"`
	FadeIn      bool    `json:"fade_in" yaml:"fade_in"`
	OutTime     float64 `json:"out_time" yaml:"out_time"`
	FadeOut     bool    `json:"fade_out" yaml:"fade_out"`
}

// Marker is a named point in track time. Position is in seconds.
type Marker struct {
	Name       string      `json:"name" yaml:"name"`
	Position   float64     `json:"position" yaml:"position"`
	Transition *Transition `json:"transition,omitempty" yaml:"transition,omitempty"`
}

// MarkerInfo is a detached copy of a marker handed across the script boundary
type MarkerInfo struct {
	Name     string  `json:"name"`
	Position float64 `json:"position"` // milliseconds
}

// Ref addresses a marker, parameter or preset by index or by name
type Ref struct {
	Index  int
	Name   string
	ByName bool
}

// ByIndex returns a Ref addressing an item by its index
func ByIndex(i int) Ref {
	return Ref{Index: i}
}

// ByName returns a Ref addressing an item by its name
func ByName(name string) Ref {
	return Ref{Name: name, ByName: true}
}

// ParamType identifies how a parameter interprets its value
type ParamType int

const (
	ParamInt ParamType = iota
	ParamFloat
	ParamBool
	ParamLabeled
)

func (t ParamType) String() string {
	switch t {
	case ParamInt:
		return "int"
	case ParamFloat:
		return "float"
	case ParamBool:
		return "bool"
	case ParamLabeled:
		return "labeled"
	default:
		return "unknown"
	}
}

// ParamDesc describes a parameter to be registered at load time
type ParamDesc struct {
	Name    string    `json:"name" yaml:"name"`
	Type    ParamType `json:"type" yaml:"-"`
	Min     float64   `json:"min" yaml:"min"`
	Max     float64   `json:"max" yaml:"max"`
	Step    float64   `json:"step" yaml:"step"`
	Default float64   `json:"default" yaml:"default"`
	Labels  []string  `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// ChannelSettings holds mix values for one console channel. Nil fields are
// left untouched when applied.
type ChannelSettings struct {
	Name     *string  `json:"name,omitempty" yaml:"name,omitempty"`
	Volume   *float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
	PanLeft  *float64 `json:"pan_left,omitempty" yaml:"pan_left,omitempty"`
	PanRight *float64 `json:"pan_right,omitempty" yaml:"pan_right,omitempty"`
	Reverb   *float64 `json:"reverb,omitempty" yaml:"reverb,omitempty"`
}

// Preset is a named mix snapshot. Channels[0] is the main bus.
type Preset struct {
	Name     string            `json:"name" yaml:"name"`
	Channels []ChannelSettings `json:"channels" yaml:"channels"`
}

// TrackInfo is descriptive metadata read from an audio asset
type TrackInfo struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Album    string        `json:"album"`
	Duration time.Duration `json:"duration"`
	FilePath string        `json:"file_path"`
}

// TrackStatus summarizes a synchronizer for display
type TrackStatus struct {
	Position   float64
	Length     float64
	Paused     bool
	Looping    bool
	LoopStart  float64
	LoopEnd    float64
	Cursor     int
	Markers    []MarkerInfo
	Transition *Transition
	Clock      uint64
}
