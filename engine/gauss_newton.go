// SPDX-License-Identifier: MIT
// Package engine: Gauss-Newton step via the weighted normal equations.

package engine

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/refgeo/refgeo/target"
)

// gaussNewton solves (JᵀWJ)Δ = JᵀWr each iteration and takes the full
// step -Δ. No line search: the normal-equation step is accepted as is,
// matching the quadratic model exactly at the solution.
type gaussNewton struct{}

// proposeStep builds the normal equations from the stacked Jacobian and
// factorises with Cholesky. A failed factorisation means the information
// matrix is rank deficient (too few usable observations for the free
// parameters) and is fatal.
func (*gaussNewton) proposeStep(ev *target.Evaluation, _ func([]float64) (float64, error)) ([]float64, error) {
	rows, cols := ev.Jacobian.Dims()

	// Row-scale J and r by the weights once; JᵀWJ = (J)ᵀ(WJ),
	// JᵀWr = (J)ᵀ(Wr).
	wj := mat.NewDense(rows, cols, nil)
	wr := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		w := ev.Weights.AtVec(i)
		for j := 0; j < cols; j++ {
			wj.Set(i, j, w*ev.Jacobian.At(i, j))
		}
		wr.SetVec(i, w*ev.Residuals.AtVec(i))
	}

	var normal mat.Dense
	normal.Mul(ev.Jacobian.T(), wj)
	sym := mat.NewSymDense(cols, nil)
	for i := 0; i < cols; i++ {
		for j := i; j < cols; j++ {
			sym.SetSym(i, j, normal.At(i, j))
		}
	}

	var rhs mat.VecDense
	rhs.MulVec(ev.Jacobian.T(), wr)

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("%w: %dx%d information matrix not positive definite",
			ErrSingularNormalEquations, cols, cols)
	}
	// A successful factorisation proves positive definiteness; the solve
	// may still flag ill conditioning as a mat.Condition warning while
	// delivering a usable solution, so only non-Condition errors are fatal.
	var delta mat.VecDense
	if err := chol.SolveVecTo(&delta, &rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %v", ErrSingularNormalEquations, err)
		}
	}

	step := make([]float64, cols)
	for j := 0; j < cols; j++ {
		step[j] = -delta.AtVec(j)
	}
	return step, nil
}
