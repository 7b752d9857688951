// Package cue reads and writes YAML cue sheets: the markers, transitions,
// loop points, parameters and mix presets that accompany an audio file.
package cue

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jscyril/golang_music_sync/api"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Reserved marker names that set loop points instead of creating markers
const (
	LoopStartName = "LoopStart"
	LoopEndName   = "LoopEnd"
)

// Sheet is the on-disk form of a cue sheet. Positions are in milliseconds.
type Sheet struct {
	Name       string          `yaml:"name,omitempty"`
	Audio      string          `yaml:"audio,omitempty"`
	Looping    bool            `yaml:"looping"`
	Loop       *LoopRecord     `yaml:"loop,omitempty"`
	Markers    []MarkerRecord  `yaml:"markers,omitempty"`
	Params     []ParamRecord   `yaml:"params,omitempty"`
	Channels   []string        `yaml:"channels,omitempty"`
	Presets    []api.Preset    `yaml:"presets,omitempty"`
	Sections   []SectionRecord `yaml:"sections,omitempty"`
	Script     string          `yaml:"script,omitempty"`
	ScriptFile string          `yaml:"script_file,omitempty"`

	dir string
}

// LoopRecord bounds the loop region
type LoopRecord struct {
	StartMs float64 `yaml:"start_ms"`
	EndMs   float64 `yaml:"end_ms"`
}

// MarkerRecord is a marker as written in a sheet
type MarkerRecord struct {
	Name       string            `yaml:"name"`
	PositionMs float64           `yaml:"position_ms"`
	Transition *TransitionRecord `yaml:"transition,omitempty"`
}

// TransitionRecord names its destination marker
type TransitionRecord struct {
	To      string  `yaml:"to"`
	InMs    float64 `yaml:"in_ms,omitempty"`
	FadeIn  bool    `yaml:"fade_in,omitempty"`
	OutMs   float64 `yaml:"out_ms,omitempty"`
	FadeOut bool    `yaml:"fade_out,omitempty"`
}

// SectionRecord names the markers a horizontal section enters and exits at
type SectionRecord struct {
	Name  string `yaml:"name"`
	Entry string `yaml:"entry"`
	Exit  string `yaml:"exit"`
}

// ParamRecord describes a script parameter
type ParamRecord struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Min     float64  `yaml:"min,omitempty"`
	Max     float64  `yaml:"max,omitempty"`
	Step    float64  `yaml:"step,omitempty"`
	Default float64  `yaml:"default,omitempty"`
	Labels  []string `yaml:"labels,omitempty"`
}

// Loop is a resolved loop region in seconds
type Loop struct {
	Start float64
	End   float64
}

var paramTypes = map[string]api.ParamType{
	"":        api.ParamFloat,
	"float":   api.ParamFloat,
	"number":  api.ParamFloat,
	"int":     api.ParamInt,
	"integer": api.ParamInt,
	"bool":    api.ParamBool,
	"boolean": api.ParamBool,
	"label":   api.ParamLabeled,
	"labeled": api.ParamLabeled,
	"labels":  api.ParamLabeled,
}

// ParseParamType maps a sheet type name to a parameter type
func ParseParamType(s string) (api.ParamType, bool) {
	t, ok := paramTypes[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// Parse decodes and validates a sheet. Unknown keys are rejected.
func Parse(data []byte) (*Sheet, error) {
	var s Sheet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse cue sheet: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads the sheet at path. Relative audio and script paths are
// resolved against the sheet's directory.
func Load(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cue sheet: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// Save writes the sheet to path
func (s *Sheet) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode cue sheet: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write cue sheet: %w", err)
	}
	return nil
}

// Validate checks names, positions and parameter types
func (s *Sheet) Validate() error {
	for i, m := range s.Markers {
		if m.Name == "" {
			return fmt.Errorf("marker %d: missing name", i)
		}
		if !finite(m.PositionMs) || m.PositionMs < 0 {
			return fmt.Errorf("marker %q: invalid position %v", m.Name, m.PositionMs)
		}
		if t := m.Transition; t != nil {
			if t.To == "" {
				return fmt.Errorf("marker %q: transition without destination", m.Name)
			}
			if !finite(t.InMs) || !finite(t.OutMs) || t.InMs < 0 || t.OutMs < 0 {
				return fmt.Errorf("marker %q: invalid transition timing", m.Name)
			}
		}
	}
	for _, p := range s.Params {
		if p.Name == "" {
			return fmt.Errorf("parameter without name")
		}
		typ, ok := ParseParamType(p.Type)
		if !ok {
			return fmt.Errorf("parameter %q: unknown type %q", p.Name, p.Type)
		}
		if typ == api.ParamLabeled && len(p.Labels) == 0 {
			return fmt.Errorf("parameter %q: labeled parameter without labels", p.Name)
		}
		if !finite(p.Min) || !finite(p.Max) || !finite(p.Default) {
			return fmt.Errorf("parameter %q: non-finite bounds", p.Name)
		}
	}
	names := make(map[string]bool, len(s.Markers))
	for _, m := range s.Markers {
		names[m.Name] = true
	}
	for _, sec := range s.Sections {
		if sec.Name == "" {
			return fmt.Errorf("section without name")
		}
		if !names[sec.Entry] || !names[sec.Exit] {
			return fmt.Errorf("section %q: unknown entry or exit marker", sec.Name)
		}
	}
	if l := s.Loop; l != nil {
		if !finite(l.StartMs) || !finite(l.EndMs) || l.StartMs < 0 || l.EndMs <= l.StartMs {
			return fmt.Errorf("invalid loop region %v..%v", l.StartMs, l.EndMs)
		}
	}
	return nil
}

// AudioPath returns the audio path resolved against the sheet directory
func (s *Sheet) AudioPath() string {
	return s.resolvePath(s.Audio)
}

// ScriptSource returns the inline script, or the contents of ScriptFile
func (s *Sheet) ScriptSource() (string, error) {
	if s.Script != "" || s.ScriptFile == "" {
		return s.Script, nil
	}
	data, err := os.ReadFile(s.resolvePath(s.ScriptFile))
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

func (s *Sheet) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || s.dir == "" {
		return p
	}
	return filepath.Join(s.dir, p)
}

// Resolve builds markers with linked transitions. Markers named LoopStart
// and LoopEnd become loop bounds, overriding the loop record. Transitions
// to names that are not in the sheet are dropped.
func (s *Sheet) Resolve(log *logrus.Entry) ([]*api.Marker, *Loop) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	var loop *Loop
	if s.Loop != nil {
		loop = &Loop{Start: s.Loop.StartMs / 1000, End: s.Loop.EndMs / 1000}
	}

	markers := make([]*api.Marker, 0, len(s.Markers))
	byName := make(map[string]*api.Marker, len(s.Markers))
	records := make([]MarkerRecord, 0, len(s.Markers))
	for _, r := range s.Markers {
		switch r.Name {
		case LoopStartName, LoopEndName:
			if loop == nil {
				loop = &Loop{Start: 0, End: math.Inf(1)}
			}
			if r.Name == LoopStartName {
				loop.Start = r.PositionMs / 1000
			} else {
				loop.End = r.PositionMs / 1000
			}
			continue
		}
		m := &api.Marker{Name: r.Name, Position: r.PositionMs / 1000}
		markers = append(markers, m)
		records = append(records, r)
		if _, dup := byName[r.Name]; !dup {
			byName[r.Name] = m
		}
	}

	for i, r := range records {
		if r.Transition == nil {
			continue
		}
		dest, ok := byName[r.Transition.To]
		if !ok {
			log.WithFields(logrus.Fields{
				"marker":      r.Name,
				"destination": r.Transition.To,
			}).Warn("transition destination not found, dropping transition")
			continue
		}
		markers[i].Transition = &api.Transition{
			Destination: dest,
			InTime:      r.Transition.InMs / 1000,
			FadeIn:      r.Transition.FadeIn,
			OutTime:     r.Transition.OutMs / 1000,
			FadeOut:     r.Transition.FadeOut,
		}
	}
	return markers, loop
}

// ParamDescs converts the parameter records
func (s *Sheet) ParamDescs() []api.ParamDesc {
	descs := make([]api.ParamDesc, 0, len(s.Params))
	for _, p := range s.Params {
		typ, _ := ParseParamType(p.Type)
		descs = append(descs, api.ParamDesc{
			Name:    p.Name,
			Type:    typ,
			Min:     p.Min,
			Max:     p.Max,
			Step:    p.Step,
			Default: p.Default,
			Labels:  p.Labels,
		})
	}
	return descs
}

// SetMarkers replaces the sheet's marker records with markers, keeping
// transitions whose destination is among them
func (s *Sheet) SetMarkers(markers []*api.Marker, loop *Loop) {
	records := make([]MarkerRecord, 0, len(markers))
	for _, m := range markers {
		r := MarkerRecord{Name: m.Name, PositionMs: m.Position * 1000}
		if t := m.Transition; t != nil && t.Destination != nil {
			r.Transition = &TransitionRecord{
				To:      t.Destination.Name,
				InMs:    t.InTime * 1000,
				FadeIn:  t.FadeIn,
				OutMs:   t.OutTime * 1000,
				FadeOut: t.FadeOut,
			}
		}
		records = append(records, r)
	}
	s.Markers = records
	if loop != nil && !math.IsInf(loop.End, 0) {
		s.Loop = &LoopRecord{StartMs: loop.Start * 1000, EndMs: loop.End * 1000}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
