package params

import (
	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/ramp"
	"github.com/sirupsen/logrus"
)

// Registry holds a track's parameters addressable by index and by name.
// Indices are assigned in load order and stay stable until the next Load.
type Registry struct {
	params   []*Parameter
	byName   map[string]*Parameter
	sched    *ramp.Scheduler
	onChange ChangeFunc
	log      *logrus.Entry
}

// NewRegistry creates an empty registry whose parameters ramp on sched and
// report committed changes to onChange
func NewRegistry(sched *ramp.Scheduler, onChange ChangeFunc, log *logrus.Entry) *Registry {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Registry{
		byName:   make(map[string]*Parameter),
		sched:    sched,
		onChange: onChange,
		log:      log,
	}
}

// Load replaces the registry contents with parameters built from descs
func (r *Registry) Load(descs []api.ParamDesc) {
	params := make([]*Parameter, 0, len(descs))
	byName := make(map[string]*Parameter, len(descs))

	for i, d := range descs {
		var p *Parameter
		switch d.Type {
		case api.ParamBool:
			p = NewBool(d.Name, i, d.Default != 0, r.sched, r.notify)
		case api.ParamLabeled:
			p = NewLabeled(d.Name, i, d.Labels, int(d.Default), r.sched, r.notify)
		default:
			p = NewNumber(d.Name, i, Domain{Low: d.Min, High: d.Max, Step: d.Step}, d.Default,
				d.Type == api.ParamInt, r.sched, r.notify)
		}
		params = append(params, p)
		if _, dup := byName[d.Name]; dup {
			r.log.WithField("param", d.Name).Warn("duplicate parameter name, first one wins")
			continue
		}
		byName[d.Name] = p
	}

	r.Clear()
	r.params = params
	r.byName = byName
}

func (r *Registry) notify(index int, value float64) {
	if r.onChange != nil {
		r.onChange(index, value)
	}
}

// Count returns the number of parameters
func (r *Registry) Count() int {
	return len(r.params)
}

// At returns the parameter at index i
func (r *Registry) At(i int) (*Parameter, bool) {
	if i < 0 || i >= len(r.params) {
		return nil, false
	}
	return r.params[i], true
}

// Get finds a parameter by index or name
func (r *Registry) Get(ref api.Ref) (*Parameter, bool) {
	if ref.ByName {
		p, ok := r.byName[ref.Name]
		return p, ok
	}
	return r.At(ref.Index)
}

// Set ramps the referenced parameter to value over seconds. Unknown
// references and non-finite values are ignored.
func (r *Registry) Set(ref api.Ref, value, seconds float64) bool {
	p, ok := r.Get(ref)
	if !ok {
		r.log.WithField("param", ref).Debug("set on unknown parameter ignored")
		return false
	}
	return p.TransitionTo(value, seconds)
}

// All returns the parameters in index order
func (r *Registry) All() []*Parameter {
	return append([]*Parameter(nil), r.params...)
}

// Reset returns every parameter to its default
func (r *Registry) Reset(seconds float64) {
	for _, p := range r.params {
		p.Reset(seconds)
	}
}

// Clear stops all ramps and empties the registry. Safe to call repeatedly.
func (r *Registry) Clear() {
	for _, p := range r.params {
		p.Clear()
	}
	r.params = nil
	r.byName = make(map[string]*Parameter)
}
