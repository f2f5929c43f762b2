// SPDX-License-Identifier: MIT
// Package engine: diagonal-curvature quasi-Newton step with backtracking.

package engine

import (
	"fmt"

	"github.com/refgeo/refgeo/target"
)

// maxHalvings caps the backtracking line search.
const maxHalvings = 10

// ssrSlack tolerates floating-point noise when comparing candidate and
// current objective values.
const ssrSlack = 1e-10

// quasiNewton scales the gradient by a per-parameter diagonal curvature
// estimate, 2·Σᵢ wᵢJᵢⱼ², blended 50/50 with the previous iteration's
// estimate to damp oscillation. A backtracking line search halves the
// step until the weighted SSR does not increase.
type quasiNewton struct {
	prevCurv []float64
}

// proposeStep computes g = 2JᵀWr and c, takes step_j = -g_j/c_j, then
// backtracks via try. Exhausting the halving budget is fatal.
func (q *quasiNewton) proposeStep(ev *target.Evaluation, try func([]float64) (float64, error)) ([]float64, error) {
	rows, cols := ev.Jacobian.Dims()

	grad := make([]float64, cols)
	curv := make([]float64, cols)
	for i := 0; i < rows; i++ {
		wr := ev.Weights.AtVec(i) * ev.Residuals.AtVec(i)
		w := ev.Weights.AtVec(i)
		for j := 0; j < cols; j++ {
			jij := ev.Jacobian.At(i, j)
			grad[j] += 2 * jij * wr
			curv[j] += 2 * w * jij * jij
		}
	}
	if q.prevCurv != nil {
		for j := 0; j < cols; j++ {
			curv[j] = 0.5 * (curv[j] + q.prevCurv[j])
		}
	}
	q.prevCurv = append(q.prevCurv[:0], curv...)

	full := make([]float64, cols)
	for j := 0; j < cols; j++ {
		if curv[j] != 0 {
			full[j] = -grad[j] / curv[j]
		}
	}

	alpha := 1.0
	cand := make([]float64, cols)
	for k := 0; k <= maxHalvings; k++ {
		for j := 0; j < cols; j++ {
			cand[j] = alpha * full[j]
		}
		ssr, err := try(cand)
		if err == nil && ssr <= ev.SSR*(1+ssrSlack) {
			return cand, nil
		}
		alpha *= 0.5
	}
	return nil, fmt.Errorf("%w: no improvement within %d halvings",
		ErrLineSearchExhausted, maxHalvings)
}
