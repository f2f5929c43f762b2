package param

import "errors"

var (
	// ErrDimensionMismatch is returned when a supplied parameter vector or
	// fixed-mask length does not match the parameterisation. This is a
	// programmer/configuration error: fail fast, never retried.
	ErrDimensionMismatch = errors.New("param: parameter vector length mismatch")

	// ErrUnknownKind is returned by the registry for an unregistered
	// parameterisation identifier.
	ErrUnknownKind = errors.New("param: unknown parameterisation kind")

	// ErrNilModel is returned when a constructor receives a nil model.
	ErrNilModel = errors.New("param: nil model")
)

// Parameterisation is one physical sub-model viewed as a vector of free
// parameters.
//
// Contracts:
//   - len(Params()) == NumFree() == number of false entries in Fixed().
//   - SetParams(Params()) leaves the underlying model unchanged
//     (round-trip law).
//   - SetFixed changes NumFree; callers must re-query lengths afterwards.
//   - Values are taken as-is; degenerate models surface at prediction time.
type Parameterisation interface {
	// Tag identifies the parameterisation in diagnostics.
	Tag() string

	// NumTotal is the count of underlying parameters, fixed or not.
	NumTotal() int

	// NumFree is the count of currently free parameters.
	NumFree() int

	// Params returns a copy of the free parameter values in order.
	Params() []float64

	// SetParams assigns the free parameter values and recomposes the model.
	// Returns ErrDimensionMismatch if len(p) != NumFree().
	SetParams(p []float64) error

	// SetFixed installs a fixed mask over all underlying parameters and
	// recomposes. Returns ErrDimensionMismatch if len(mask) != NumTotal().
	SetFixed(mask []bool) error

	// Fixed returns a copy of the current fixed mask.
	Fixed() []bool

	// Compose recomputes the owned model's state and the state derivatives
	// for every free parameter from the current values.
	Compose() error
}

// base carries the value/mask bookkeeping shared by every concrete
// parameterisation.
type base struct {
	tag   string
	vals  []float64
	fixed []bool
}

func newBase(tag string, n int) base {
	return base{tag: tag, vals: make([]float64, n), fixed: make([]bool, n)}
}

func (b *base) Tag() string   { return b.tag }
func (b *base) NumTotal() int { return len(b.vals) }

func (b *base) NumFree() int {
	n := 0
	for _, f := range b.fixed {
		if !f {
			n++
		}
	}

	return n
}

func (b *base) Params() []float64 {
	out := make([]float64, 0, b.NumFree())
	for i, v := range b.vals {
		if !b.fixed[i] {
			out = append(out, v)
		}
	}

	return out
}

// setFree writes p into the unfixed slots. Length is validated here so the
// concrete SetParams implementations only add the Compose call.
func (b *base) setFree(p []float64) error {
	if len(p) != b.NumFree() {
		return ErrDimensionMismatch
	}
	j := 0
	for i := range b.vals {
		if !b.fixed[i] {
			b.vals[i] = p[j]
			j++
		}
	}

	return nil
}

func (b *base) setMask(mask []bool) error {
	if len(mask) != len(b.fixed) {
		return ErrDimensionMismatch
	}
	copy(b.fixed, mask)

	return nil
}

func (b *base) Fixed() []bool {
	out := make([]bool, len(b.fixed))
	copy(out, b.fixed)

	return out
}

// freeIndices lists the indices of unfixed parameters, in order.
func (b *base) freeIndices() []int {
	idx := make([]int, 0, b.NumFree())
	for i, f := range b.fixed {
		if !f {
			idx = append(idx, i)
		}
	}

	return idx
}

// Angular free parameters are expressed in milliradians; cell parameters
// scale the triangular cell matrix entries by 1e5. Both keep every free
// parameter of order unity for well-scaled normal equations.
const (
	mrad      = 1e-3
	cellScale = 1e-5
)
