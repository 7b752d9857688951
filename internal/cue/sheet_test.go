package cue

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/jscyril/golang_music_sync/api"
)

const sample = `
name: adaptive
audio: theme.ogg
looping: true
loop: {start_ms: 0, end_ms: 32000}
markers:
  - {name: intro, position_ms: 0}
  - {name: b, position_ms: 16000}
  - name: a-end
    position_ms: 8000
    transition: {to: b, in_ms: 500, fade_in: true, out_ms: 250, fade_out: true}
  - {name: broken, position_ms: 9000, transition: {to: nowhere}}
params:
  - {name: intensity, type: float, min: 0, max: 1, step: 0.1}
  - {name: layer, type: int, max: 3, default: 1}
  - {name: mood, type: labeled, labels: [calm, tense]}
  - {name: drums, type: bool, default: 1}
channels: [drums, bass]
presets:
  - name: calm
    channels:
      - {volume: 0.5}
      - {volume: 0, reverb: 1}
script: |
  function on_marker(name) print(name) end
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Name != "adaptive" || !s.Looping || len(s.Markers) != 4 {
		t.Errorf("sheet = %+v", s)
	}
	if len(s.Presets) != 1 || *s.Presets[0].Channels[1].Reverb != 1 {
		t.Errorf("presets = %+v", s.Presets)
	}
	if src, _ := s.ScriptSource(); src == "" {
		t.Error("inline script missing")
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "markers: []\nbpm: 120\n"},
		{"unnamed marker", "markers: [{position_ms: 10}]\n"},
		{"negative position", "markers: [{name: a, position_ms: -1}]\n"},
		{"transition without target", "markers: [{name: a, position_ms: 1, transition: {in_ms: 10}}]\n"},
		{"unknown param type", "params: [{name: x, type: vector}]\n"},
		{"labeled without labels", "params: [{name: x, type: labeled}]\n"},
		{"empty loop", "loop: {start_ms: 100, end_ms: 100}\n"},
		{"not yaml", "markers: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("Parse() error = nil")
			}
		})
	}
}

func TestResolve(t *testing.T) {
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	markers, loop := s.Resolve(nil)

	if len(markers) != 4 {
		t.Fatalf("markers = %d, want 4", len(markers))
	}
	if loop == nil || loop.Start != 0 || loop.End != 32 {
		t.Errorf("loop = %+v, want 0..32", loop)
	}

	byName := map[string]*api.Marker{}
	for _, m := range markers {
		byName[m.Name] = m
	}
	tr := byName["a-end"].Transition
	if tr == nil || tr.Destination != byName["b"] {
		t.Fatalf("a-end transition = %+v, want destination b", tr)
	}
	if tr.InTime != 0.5 || !tr.FadeIn || tr.OutTime != 0.25 || !tr.FadeOut {
		t.Errorf("timing = %+v", tr)
	}
	if byName["a-end"].Position != 8 {
		t.Errorf("position = %v, want 8", byName["a-end"].Position)
	}
	if byName["broken"].Transition != nil {
		t.Error("transition to unknown marker kept")
	}
}

func TestResolve_LoopMarkers(t *testing.T) {
	s, err := Parse([]byte(`
markers:
  - {name: LoopStart, position_ms: 2000}
  - {name: hit, position_ms: 3000}
`))
	if err != nil {
		t.Fatal(err)
	}
	markers, loop := s.Resolve(nil)
	if len(markers) != 1 || markers[0].Name != "hit" {
		t.Errorf("markers = %+v, want only hit", markers)
	}
	if loop == nil || loop.Start != 2 || !math.IsInf(loop.End, 1) {
		t.Errorf("loop = %+v, want 2..+Inf", loop)
	}
}

func TestParamDescs(t *testing.T) {
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	descs := s.ParamDescs()
	want := []api.ParamType{api.ParamFloat, api.ParamInt, api.ParamLabeled, api.ParamBool}
	if len(descs) != len(want) {
		t.Fatalf("descs = %d, want %d", len(descs), len(want))
	}
	for i, typ := range want {
		if descs[i].Type != typ {
			t.Errorf("descs[%d].Type = %v, want %v", i, descs[i].Type, typ)
		}
	}
}

func TestLoad_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	script := "function on_init() end"
	if err := os.WriteFile(filepath.Join(dir, "cue.lua"), []byte(script), 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "song.yaml")
	if err := os.WriteFile(path, []byte("audio: song.mp3\nscript_file: cue.lua\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.AudioPath() != filepath.Join(dir, "song.mp3") {
		t.Errorf("AudioPath() = %s", s.AudioPath())
	}
	if src, err := s.ScriptSource(); err != nil || src != script {
		t.Errorf("ScriptSource() = %q, %v", src, err)
	}
}

func TestSave_KeepsEditedMarkers(t *testing.T) {
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	markers, loop := s.Resolve(nil)
	markers = append(markers, &api.Marker{Name: "added", Position: 20})
	s.SetMarkers(markers, loop)

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got, _ := back.Resolve(nil)
	if len(got) != 5 || got[4].Name != "added" || got[4].Position != 20 {
		t.Errorf("reloaded markers = %+v", got)
	}
	if got[2].Transition == nil || got[2].Transition.Destination.Name != "b" {
		t.Error("transition lost on save")
	}
}
