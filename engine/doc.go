// SPDX-License-Identifier: MIT
// Package engine drives the iterative refinement loop: evaluate the
// target, propose a parameter step through the configured solver strategy,
// apply it through the composite parameterisation, record history, and
// decide between continuing, converging and failing.
//
// State machine:
//
//	NotStarted → Running → {Converged, MaxIterationsReached, Failed}
//
// Two interchangeable solver strategies share the loop:
//
//   - GaussNewton - forms the weighted normal equations (JᵀWJ)Δ = −JᵀWr
//     and solves by Cholesky factorisation; a factorisation failure is
//     ErrSingularNormalEquations and fatal for the run.
//   - QuasiNewton - keeps a diagonal curvature estimate blended across
//     iterations, steps along −g/c, and backtracks geometrically when the
//     weighted SSR would rise; exhausting the backtracking budget is
//     ErrLineSearchExhausted and fatal.
//
// Both strategies produce identical terminal semantics (status, RMSDs,
// history shape); callers select one in Options without changing any
// downstream consumer. Fatal conditions keep the last successfully
// computed parameter vector and the history intact for diagnostics.
// MaxIterationsReached is a legitimate terminal state, not an error.
package engine
