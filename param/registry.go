package param

import (
	"fmt"
	"sort"

	"github.com/refgeo/refgeo/geom"
)

// Factory builds a parameterisation over the models of an experiment.
type Factory func(exp *geom.Experiment) (Parameterisation, error)

// The registry maps a parameterisation kind identifier to its factory,
// resolved when configuration is loaded. It replaces runtime extension-point
// scanning with an explicit compile-time-checked table; registration happens
// in init and is not synchronised for later concurrent mutation.
var registry = map[string]Factory{}

// Register installs a factory under kind. Empty kinds, nil factories and
// duplicate registrations are programmer errors and panic.
func Register(kind string, f Factory) {
	if kind == "" || f == nil {
		panic("param: Register with empty kind or nil factory")
	}
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("param: duplicate registration of kind %q", kind))
	}
	registry[kind] = f
}

// New resolves kind and builds a parameterisation over exp's models.
// Returns ErrUnknownKind for an unregistered kind and ErrNilModel for a
// nil experiment.
func New(kind string, exp *geom.Experiment) (Parameterisation, error) {
	if exp == nil {
		return nil, ErrNilModel
	}
	f, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}

	return f(exp)
}

// Kinds returns the registered kind identifiers, sorted.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

func init() {
	Register("detector.panel", func(exp *geom.Experiment) (Parameterisation, error) {
		return NewDetectorParameterisation(exp.Panel)
	})
	Register("beam.orientation", func(exp *geom.Experiment) (Parameterisation, error) {
		return NewBeamParameterisation(exp.Beam, exp.Goniometer)
	})
	Register("crystal.orientation", func(exp *geom.Experiment) (Parameterisation, error) {
		return NewCrystalOrientationParameterisation(exp.Crystal)
	})
	Register("crystal.cell", func(exp *geom.Experiment) (Parameterisation, error) {
		return NewCrystalCellParameterisation(exp.Crystal)
	})
}
