package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/refgeo/refgeo/target"
)

// oneParamEvaluation fabricates a single-observation, single-parameter
// evaluation: J = [1], w = 2, r = 3, so SSR = 18, gradient 12 and
// curvature 4 (full step -3).
func oneParamEvaluation() *target.Evaluation {
	return &target.Evaluation{
		SSR:       18,
		Residuals: mat.NewVecDense(1, []float64{3}),
		Weights:   mat.NewVecDense(1, []float64{2}),
		Jacobian:  mat.NewDense(1, 1, []float64{1}),
		Used:      1,
	}
}

// A rejected candidate (here: one that sheds usable observations) must be
// halved and retried, never accepted on the strength of its SSR.
func TestQuasiNewton_BacktracksOnRejectedCandidate(t *testing.T) {
	qn := &quasiNewton{}
	calls := 0
	step, err := qn.proposeStep(oneParamEvaluation(), func(cand []float64) (float64, error) {
		calls++
		if calls == 1 {
			return 0, errStepSheds // full step would drop an observation
		}
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, step, 1)
	assert.InDelta(t, -1.5, step[0], 1e-15, "accepted step must be the halved one")
}

func TestQuasiNewton_ExhaustsOnPersistentRejection(t *testing.T) {
	qn := &quasiNewton{}
	_, err := qn.proposeStep(oneParamEvaluation(), func([]float64) (float64, error) {
		return 0, errStepSheds
	})
	assert.ErrorIs(t, err, ErrLineSearchExhausted)
}
