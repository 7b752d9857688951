package params

import (
	"math"

	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/ramp"
)

// ChangeFunc receives a parameter's index and newly committed value
type ChangeFunc func(index int, value float64)

// Domain bounds a numeric parameter. Low may exceed High, as in a pan
// control where 100 is hard left.
type Domain struct {
	Low  float64
	High float64
	Step float64 // 0 for continuous
}

// Min returns the smaller bound
func (d Domain) Min() float64 { return math.Min(d.Low, d.High) }

// Max returns the larger bound
func (d Domain) Max() float64 { return math.Max(d.Low, d.High) }

// Clamp limits v to the domain
func (d Domain) Clamp(v float64) float64 {
	return math.Max(d.Min(), math.Min(v, d.Max()))
}

// Parameter is a named scalar that ramps, clamps to its domain and notifies
// a sink whenever its committed value changes.
type Parameter struct {
	name         string
	index        int
	typ          api.ParamType
	domain       Domain
	labels       []string
	defaultValue float64

	value    float64
	ctrl     *ramp.Controller
	onChange ChangeFunc
}

func newParameter(name string, index int, typ api.ParamType, domain Domain, labels []string,
	defaultValue float64, sched *ramp.Scheduler, onChange ChangeFunc) *Parameter {
	p := &Parameter{
		name:     name,
		index:    index,
		typ:      typ,
		domain:   domain,
		labels:   labels,
		onChange: onChange,
	}
	p.defaultValue = p.quantize(defaultValue)
	p.value = p.defaultValue
	p.ctrl = ramp.NewController(sched, p.defaultValue, p.commit)
	return p
}

// NewNumber creates an Int or Float parameter
func NewNumber(name string, index int, domain Domain, defaultValue float64, isInteger bool,
	sched *ramp.Scheduler, onChange ChangeFunc) *Parameter {
	typ := api.ParamFloat
	if isInteger {
		typ = api.ParamInt
	}
	return newParameter(name, index, typ, domain, nil, defaultValue, sched, onChange)
}

// NewBool creates a parameter holding 0 or 1
func NewBool(name string, index int, defaultValue bool, sched *ramp.Scheduler, onChange ChangeFunc) *Parameter {
	def := 0.0
	if defaultValue {
		def = 1
	}
	return newParameter(name, index, api.ParamBool, Domain{Low: 0, High: 1}, nil, def, sched, onChange)
}

// NewLabeled creates a parameter whose value indexes into labels
func NewLabeled(name string, index int, labels []string, defaultIndex int,
	sched *ramp.Scheduler, onChange ChangeFunc) *Parameter {
	high := float64(len(labels) - 1)
	if high < 0 {
		high = 0
	}
	return newParameter(name, index, api.ParamLabeled, Domain{Low: 0, High: high},
		append([]string(nil), labels...), float64(defaultIndex), sched, onChange)
}

// Name returns the parameter name
func (p *Parameter) Name() string { return p.name }

// Index returns the parameter's stable index
func (p *Parameter) Index() int { return p.index }

// Type returns the parameter type
func (p *Parameter) Type() api.ParamType { return p.typ }

// Domain returns the parameter's bounds
func (p *Parameter) Domain() Domain { return p.domain }

// Default returns the default value
func (p *Parameter) Default() float64 { return p.defaultValue }

// Value returns the last committed value
func (p *Parameter) Value() float64 { return p.value }

// Ramping reports whether a ramp is in flight
func (p *Parameter) Ramping() bool { return p.ctrl.Active() }

// Set commits v immediately
func (p *Parameter) Set(v float64) bool {
	return p.ctrl.TransitionTo(p.domain.Clamp(v), 0)
}

// TransitionTo ramps the value to v over seconds
func (p *Parameter) TransitionTo(v, seconds float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return p.ctrl.TransitionTo(p.domain.Clamp(v), seconds)
}

// Reset ramps back to the default value
func (p *Parameter) Reset(seconds float64) {
	p.ctrl.TransitionTo(p.defaultValue, seconds)
}

// Clear stops any ramp in flight without committing
func (p *Parameter) Clear() {
	p.ctrl.Clear()
}

// Label returns the label for the current value of a labeled parameter
func (p *Parameter) Label() string {
	i := int(p.value)
	if i < 0 || i >= len(p.labels) {
		return ""
	}
	return p.labels[i]
}

// Labels returns a copy of the labels
func (p *Parameter) Labels() []string {
	return append([]string(nil), p.labels...)
}

// SetLabel selects a label by name. Unknown names are ignored.
func (p *Parameter) SetLabel(name string) bool {
	for i, l := range p.labels {
		if l == name {
			return p.Set(float64(i))
		}
	}
	return false
}

func (p *Parameter) commit(raw float64) {
	v := p.quantize(raw)
	if v == p.value {
		return
	}
	p.value = v
	if p.onChange != nil {
		p.onChange(p.index, v)
	}
}

// quantize rounds after interpolation and clamps into the domain
func (p *Parameter) quantize(v float64) float64 {
	switch p.typ {
	case api.ParamInt, api.ParamLabeled:
		v = math.Round(v)
	case api.ParamBool:
		if v >= 0.5 {
			v = 1
		} else {
			v = 0
		}
	case api.ParamFloat:
		if step := p.domain.Step; step > 0 {
			lo := p.domain.Min()
			v = math.Round((v-lo)/step)*step + lo
		}
	}
	return p.domain.Clamp(v)
}
