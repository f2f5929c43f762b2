// SPDX-License-Identifier: MIT
// Package engine: terminal states, options and sentinel errors.

package engine

import (
	"errors"
	"log/slog"

	"github.com/refgeo/refgeo/refl"
)

var (
	// ErrSingularNormalEquations is returned when the information matrix
	// JᵀWJ is not positive definite (Cholesky factorisation fails), e.g.
	// with fewer active observations than free parameters. Fatal: the run
	// transitions to Failed with history preserved.
	ErrSingularNormalEquations = errors.New("engine: singular normal equations")

	// ErrLineSearchExhausted is returned when the quasi-Newton strategy
	// cannot find a non-increasing step within its backtracking budget.
	// Fatal: the run transitions to Failed with history preserved.
	ErrLineSearchExhausted = errors.New("engine: line search exhausted")

	// ErrAlreadyRun is returned when Run is invoked on an engine that has
	// already terminated; build a fresh engine per run.
	ErrAlreadyRun = errors.New("engine: refinement already run")

	// ErrBadOptions is returned for invalid options or nil dependencies.
	ErrBadOptions = errors.New("engine: invalid options")
)

// Status is the refinement run's lifecycle state.
type Status int

const (
	// NotStarted: Run has not been called.
	NotStarted Status = iota
	// Running: inside the iteration loop.
	Running
	// Converged: every RMSD dimension reached its threshold.
	Converged
	// MaxIterationsReached: the iteration cap fired before convergence.
	// A legitimate terminal state - callers decide whether to accept the
	// unconverged fit.
	MaxIterationsReached
	// Failed: the solver could not produce a valid step.
	Failed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Running:
		return "Running"
	case Converged:
		return "Converged"
	case MaxIterationsReached:
		return "MaxIterationsReached"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Algorithm selects the solver strategy.
type Algorithm int

const (
	// GaussNewton solves the weighted normal equations each iteration.
	GaussNewton Algorithm = iota
	// QuasiNewton uses a blended diagonal curvature estimate with a
	// backtracking line search; typically more, cheaper iterations.
	QuasiNewton
)

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	switch a {
	case GaussNewton:
		return "GaussNewton"
	case QuasiNewton:
		return "QuasiNewton"
	default:
		return "Unknown"
	}
}

// Options is the externally supplied configuration for one run. It is
// read-only for the duration of the run.
type Options struct {
	// Algorithm selects the solver strategy.
	Algorithm Algorithm

	// MaxIterations caps the number of parameter steps. Zero is legal:
	// the run evaluates once and terminates in MaxIterationsReached.
	MaxIterations int

	// Thresholds are the per-dimension RMSD cutoffs for convergence,
	// in the observable units (mm, mm, rad).
	Thresholds [refl.Dims]float64

	// OutlierIQRMultiplier enables one interquartile-range filtering pass
	// over the initial residuals when > 0; <= 0 disables filtering.
	OutlierIQRMultiplier float64

	// Logger receives per-iteration diagnostics; nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions returns GaussNewton with a 20-iteration cap and no
// outlier filtering. Thresholds must still be set by the caller.
func DefaultOptions() Options {
	return Options{
		Algorithm:     GaussNewton,
		MaxIterations: 20,
	}
}

// HistoryEntry is one accepted iteration's record. Entry 0 is the initial
// evaluation before any step.
type HistoryEntry struct {
	// Iteration is 0 for the initial evaluation, then 1..N.
	Iteration int

	// Params is a snapshot copy of the global free-parameter vector after
	// this iteration's step (for entry 0, the input vector).
	Params []float64

	// RMSD per observable dimension at this iteration.
	RMSD [refl.Dims]float64

	// StepNorm is the Euclidean norm of the applied step (0 for entry 0).
	StepNorm float64

	// SSR is the weighted sum of squared residuals.
	SSR float64
}

// Result is the outcome of a refinement run. On Failed it still carries
// the last good parameter vector and the full history.
type Result struct {
	Status     Status
	Params     []float64
	RMSD       [refl.Dims]float64
	History    []HistoryEntry
	Iterations int
}
