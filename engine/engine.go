// SPDX-License-Identifier: MIT
// Package engine: the shared iteration loop.

package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"github.com/refgeo/refgeo/param"
	"github.com/refgeo/refgeo/refl"
	"github.com/refgeo/refgeo/target"
)

// solver is one step-proposal strategy. proposeStep receives the current
// evaluation and a try callback that scores a candidate step (weighted SSR
// at base+step) without committing it; it returns the step to apply, or a
// fatal error.
type solver interface {
	proposeStep(ev *target.Evaluation, try func(step []float64) (float64, error)) ([]float64, error)
}

// Engine drives one refinement run over a composite parameterisation and
// a target function. An engine is single-use: build a new one per run.
type Engine struct {
	comp *param.Composite
	tgt  *target.Target
	opts Options
	log  *slog.Logger

	status Status
}

// New validates the wiring and returns a ready-to-run engine.
//
// Errors: ErrBadOptions for nil dependencies, a negative iteration cap or
// a non-positive threshold.
func New(comp *param.Composite, tgt *target.Target, opts Options) (*Engine, error) {
	if comp == nil || tgt == nil {
		return nil, fmt.Errorf("%w: nil composite or target", ErrBadOptions)
	}
	if opts.MaxIterations < 0 {
		return nil, fmt.Errorf("%w: negative iteration cap", ErrBadOptions)
	}
	for d := 0; d < refl.Dims; d++ {
		if opts.Thresholds[d] <= 0 {
			return nil, fmt.Errorf("%w: threshold %d must be positive", ErrBadOptions, d)
		}
	}
	switch opts.Algorithm {
	case GaussNewton, QuasiNewton:
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrBadOptions, int(opts.Algorithm))
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{comp: comp, tgt: tgt, opts: opts, log: log, status: NotStarted}, nil
}

// Status reports the engine's lifecycle state.
func (e *Engine) Status() Status { return e.status }

// Run executes the refinement loop and returns its terminal result.
//
// The loop: evaluate the target at the current parameters, optionally
// filter outliers once and re-evaluate, record history entry 0, then while
// the RMSDs miss the thresholds and the iteration cap allows, ask the
// solver for a step, apply it and re-evaluate. Solver failure terminates
// the run in Failed with the pre-step parameters intact.
//
// Errors: ErrAlreadyRun on reuse; evaluation errors from target are
// wrapped and returned alongside a Failed result when they occur before
// any history exists, otherwise the run terminates in Failed with a nil
// error and the failure reason in the log.
func (e *Engine) Run() (*Result, error) {
	if e.status != NotStarted {
		return nil, ErrAlreadyRun
	}
	e.status = Running

	ev, err := e.tgt.Evaluate()
	if err != nil {
		e.status = Failed
		return nil, fmt.Errorf("engine: initial evaluation: %w", err)
	}

	if m := e.opts.OutlierIQRMultiplier; m > 0 {
		if n := e.tgt.Manager().FilterOutliers(m); n > 0 {
			e.log.Info("outliers rejected", "count", n, "multiplier", m)
			ev, err = e.tgt.Evaluate()
			if err != nil {
				e.status = Failed
				return nil, fmt.Errorf("engine: post-filter evaluation: %w", err)
			}
		}
	}

	res := &Result{Status: Running}
	e.record(res, 0, ev, 0)
	e.log.Info("initial", "rmsd", ev.RMSD, "ssr", ev.SSR, "used", ev.Used)

	sol, err := e.newSolver()
	if err != nil {
		e.status = Failed
		return nil, err
	}

	for iter := 1; ; iter++ {
		if target.Achieved(ev.RMSD, e.opts.Thresholds) {
			return e.finish(res, Converged), nil
		}
		if iter > e.opts.MaxIterations {
			return e.finish(res, MaxIterationsReached), nil
		}

		base := e.comp.Params()
		minUsable := ev.Used
		step, serr := sol.proposeStep(ev, func(cand []float64) (float64, error) {
			return e.trySSR(base, cand, minUsable)
		})
		if serr != nil {
			e.log.Error("step proposal failed", "iteration", iter, "err", serr)
			// Restore base in case a try left candidate params applied.
			if rerr := e.comp.SetParams(base); rerr != nil {
				serr = fmt.Errorf("%w (restore: %v)", serr, rerr)
			}
			e.finish(res, Failed)
			return res, serr
		}

		next := make([]float64, len(base))
		floats.AddTo(next, base, step)
		if err := e.comp.SetParams(next); err != nil {
			e.finish(res, Failed)
			return res, fmt.Errorf("engine: apply step: %w", err)
		}
		ev, err = e.tgt.Evaluate()
		if err != nil {
			// Step produced an unusable geometry; roll back.
			if rerr := e.comp.SetParams(base); rerr != nil {
				err = fmt.Errorf("%w (restore: %v)", err, rerr)
			}
			e.finish(res, Failed)
			return res, fmt.Errorf("engine: evaluation at iteration %d: %w", iter, err)
		}
		e.record(res, iter, ev, floats.Norm(step, 2))
		e.log.Info("iteration", "n", iter, "rmsd", ev.RMSD, "ssr", ev.SSR,
			"step_norm", floats.Norm(step, 2))
	}
}

// errStepSheds rejects a line-search candidate that predicts fewer usable
// observations than the current iterate: its SSR is not comparable and a
// "decrease" bought by dropping observations must not be accepted.
var errStepSheds = errors.New("engine: step sheds usable observations")

// trySSR scores base+step without leaving it applied.
func (e *Engine) trySSR(base, step []float64, minUsable int) (float64, error) {
	cand := make([]float64, len(base))
	floats.AddTo(cand, base, step)
	if err := e.comp.SetParams(cand); err != nil {
		return 0, err
	}
	ssr, usable, err := e.tgt.WeightedSSR()
	if rerr := e.comp.SetParams(base); rerr != nil && err == nil {
		err = rerr
	}
	if err == nil && usable < minUsable {
		return 0, errStepSheds
	}
	return ssr, err
}

func (e *Engine) newSolver() (solver, error) {
	switch e.opts.Algorithm {
	case GaussNewton:
		return &gaussNewton{}, nil
	case QuasiNewton:
		return &quasiNewton{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm", ErrBadOptions)
	}
}

func (e *Engine) record(res *Result, iter int, ev *target.Evaluation, stepNorm float64) {
	snap := e.comp.Params()
	res.History = append(res.History, HistoryEntry{
		Iteration: iter,
		Params:    snap,
		RMSD:      ev.RMSD,
		StepNorm:  stepNorm,
		SSR:       ev.SSR,
	})
	res.Params = append([]float64(nil), snap...)
	res.RMSD = ev.RMSD
	res.Iterations = iter
}

func (e *Engine) finish(res *Result, st Status) *Result {
	e.status = st
	res.Status = st
	e.log.Info("finished", "status", st.String(), "iterations", res.Iterations)
	return res
}
