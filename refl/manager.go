package refl

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Dims is the number of observable components per reflection: X (mm),
// Y (mm) and the rotation angle Phi (rad).
const Dims = 3

var (
	// ErrNoObservations is returned when a manager is built over an empty
	// observation list.
	ErrNoObservations = errors.New("refl: no observations")

	// ErrBadVariance is returned when any observation carries a
	// non-positive variance component.
	ErrBadVariance = errors.New("refl: non-positive variance")
)

// Observation is one measured reflection centroid. Observed, Variance and
// the identifying fields are immutable inputs; Calc and Resid are rewritten
// by the target function every iteration.
type Observation struct {
	// Experiment indexes the owning experiment in multi-experiment runs.
	Experiment int

	// HKL is the Miller index of the reflection.
	HKL [3]int

	// Branch selects which of the two reflecting-angle solutions this
	// observation belongs to.
	Branch bool

	// Observed holds the measured (X, Y, Phi) centroid.
	Observed [Dims]float64

	// Variance holds the per-component centroid variance.
	Variance [Dims]float64

	// Calc is the currently predicted centroid.
	Calc [Dims]float64

	// Resid is Calc - Observed for the current parameter vector.
	Resid [Dims]float64

	rejected bool
}

// Rejected reports whether the observation has been excluded as an outlier.
func (o *Observation) Rejected() bool { return o.rejected }

// Weights returns the inverse-variance weights for the observation.
func (o *Observation) Weights() [Dims]float64 {
	var w [Dims]float64
	for i, v := range o.Variance {
		w[i] = 1 / v
	}

	return w
}

// Manager owns the ordered observation collection and its active/rejected
// partition. Not safe for concurrent mutation.
type Manager struct {
	obs []Observation
}

// NewManager copies obs into a new manager. Returns ErrNoObservations for
// an empty list and ErrBadVariance if any variance component is <= 0.
func NewManager(obs []Observation) (*Manager, error) {
	if len(obs) == 0 {
		return nil, ErrNoObservations
	}
	for i := range obs {
		for _, v := range obs[i].Variance {
			if v <= 0 {
				return nil, ErrBadVariance
			}
		}
	}
	owned := make([]Observation, len(obs))
	copy(owned, obs)

	return &Manager{obs: owned}, nil
}

// Len returns the total observation count, rejected included.
func (m *Manager) Len() int { return len(m.obs) }

// NumActive returns the count of observations used for fitting.
func (m *Manager) NumActive() int { return m.Len() - m.NumRejected() }

// NumRejected returns the count of rejected outliers.
func (m *Manager) NumRejected() int {
	n := 0
	for i := range m.obs {
		if m.obs[i].rejected {
			n++
		}
	}

	return n
}

// All returns pointers to every observation in input order, rejected ones
// included (kept for reporting).
func (m *Manager) All() []*Observation {
	out := make([]*Observation, len(m.obs))
	for i := range m.obs {
		out[i] = &m.obs[i]
	}

	return out
}

// Working returns pointers to the active observations in stable input
// order. The pointed-to records are live: the target function writes Calc
// and Resid through them.
func (m *Manager) Working() []*Observation {
	out := make([]*Observation, 0, len(m.obs))
	for i := range m.obs {
		if !m.obs[i].rejected {
			out = append(out, &m.obs[i])
		}
	}

	return out
}

// FilterOutliers rejects active observations whose residual in any
// dimension falls outside median ± multiplier·IQR of that dimension's
// current residual distribution. A multiplier <= 0 disables filtering.
// Returns the number of newly rejected observations.
//
// This is a one-shot pass run before the refinement loop; it never
// un-rejects, so the active count is non-increasing over a run.
func (m *Manager) FilterOutliers(multiplier float64) int {
	if multiplier <= 0 {
		return 0
	}
	active := m.Working()
	if len(active) == 0 {
		return 0
	}

	var lo, hi [Dims]float64
	for d := 0; d < Dims; d++ {
		resid := make([]float64, len(active))
		for i, o := range active {
			resid[i] = o.Resid[d]
		}
		sort.Float64s(resid)

		median := stat.Quantile(0.5, stat.Empirical, resid, nil)
		iqr := stat.Quantile(0.75, stat.Empirical, resid, nil) -
			stat.Quantile(0.25, stat.Empirical, resid, nil)
		lo[d], hi[d] = median-multiplier*iqr, median+multiplier*iqr
	}

	rejected := 0
	for _, o := range active {
		for d := 0; d < Dims; d++ {
			if o.Resid[d] < lo[d] || o.Resid[d] > hi[d] {
				o.rejected = true
				rejected++

				break
			}
		}
	}

	return rejected
}
