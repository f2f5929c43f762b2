// SPDX-License-Identifier: MIT

package predict_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/refgeo/refgeo/predict"
	"github.com/refgeo/refgeo/refl"
	"github.com/refgeo/refgeo/synth"
)

// sphereResidual evaluates the diffraction condition s0·r(phi) + |r0|²/2
// at the given rotation angle; zero means phi is a reflecting angle.
func sphereResidual(r0, s0, axis r3.Vec, phi float64) float64 {
	rpar := r3.Scale(r3.Dot(axis, r0), axis)
	rperp := r3.Sub(r0, rpar)
	rot := r3.Add(rpar, r3.Add(
		r3.Scale(math.Cos(phi), rperp),
		r3.Scale(math.Sin(phi), r3.Cross(axis, rperp)),
	))

	return r3.Dot(s0, rot) + r3.Norm2(r0)/2
}

func TestReflectingAngles_SatisfyDiffractionCondition(t *testing.T) {
	axis := r3.Unit(r3.Vec{X: 1, Y: 0.1, Z: -0.05})
	s0 := r3.Scale(1/1.1, r3.Unit(r3.Vec{X: 0.01, Y: -0.02, Z: -1}))
	r0 := r3.Vec{X: 0.21, Y: -0.13, Z: 0.34}

	plus, minus, err := predict.ReflectingAngles(r0, s0, axis)
	require.NoError(t, err)
	assert.InDelta(t, 0, sphereResidual(r0, s0, axis, plus), 1e-12)
	assert.InDelta(t, 0, sphereResidual(r0, s0, axis, minus), 1e-12)
	assert.GreaterOrEqual(t, plus, 0.0)
	assert.Less(t, plus, 2*math.Pi)
	assert.GreaterOrEqual(t, minus, 0.0)
	assert.Less(t, minus, 2*math.Pi)
}

func TestReflectingAngles_Degenerate(t *testing.T) {
	axis := r3.Vec{X: 1}
	s0 := r3.Vec{Z: -1}

	// Too long to ever cross the Ewald sphere.
	_, _, err := predict.ReflectingAngles(r3.Vec{Y: 5}, s0, axis)
	assert.ErrorIs(t, err, predict.ErrDegenerate)

	// Parallel to the rotation axis: no in-plane component.
	_, _, err = predict.ReflectingAngles(r3.Vec{X: 0.3}, s0, axis)
	assert.ErrorIs(t, err, predict.ErrDegenerate)
}

func buildDataset(t *testing.T, experiments int) *synth.Dataset {
	t.Helper()
	opts := synth.DefaultOptions()
	opts.DMin = 3
	opts.Experiments = experiments
	ds, err := synth.Build(opts)
	require.NoError(t, err)
	require.NotEmpty(t, ds.Observations)

	return ds
}

func TestPredict_JacobianMatchesFiniteDifferences(t *testing.T) {
	ds := buildDataset(t, 1)

	stride := len(ds.Observations)/8 + 1
	for i := 0; i < len(ds.Observations); i += stride {
		o := ds.Observations[i]
		_, jac, err := ds.Predictor.Predict(&o)
		require.NoError(t, err)

		base := ds.Composite.Params()
		for j := range base {
			h := 1e-6 * math.Max(1, math.Abs(base[j]))

			p := append([]float64(nil), base...)
			p[j] = base[j] + h
			require.NoError(t, ds.Composite.SetParams(p))
			hi, err := ds.Predictor.PredictValue(&o)
			require.NoError(t, err)

			p[j] = base[j] - h
			require.NoError(t, ds.Composite.SetParams(p))
			lo, err := ds.Predictor.PredictValue(&o)
			require.NoError(t, err)

			require.NoError(t, ds.Composite.SetParams(base))

			for d := 0; d < refl.Dims; d++ {
				diff := hi[d] - lo[d]
				if d == 2 {
					// Guard against the 2π seam.
					diff = math.Remainder(diff, 2*math.Pi)
				}
				fd := diff / (2 * h)
				an := jac.At(d, j)
				assert.InDelta(t, an, fd, 1e-6+1e-4*math.Abs(an),
					"observation %d dim %d param %d", i, d, j)
			}
		}
	}
}

func TestPredict_MultiExperimentColumnsAreSparse(t *testing.T) {
	ds := buildDataset(t, 2)
	require.Equal(t, 8, ds.Composite.Len())

	// Per-experiment column ranges within the global vector.
	span := func(exp int) (lo, hi int) {
		w := ds.Wiring[exp]
		lo = ds.Composite.Offset(w.Detector)
		hi = ds.Composite.Offset(w.Cell) + ds.Composite.Part(w.Cell).NumFree()

		return lo, hi
	}

	checked := [2]bool{}
	for i := range ds.Observations {
		o := ds.Observations[i]
		_, jac, err := ds.Predictor.Predict(&o)
		require.NoError(t, err)

		lo, hi := span(o.Experiment)
		_, cols := jac.Dims()
		for c := 0; c < cols; c++ {
			if c >= lo && c < hi {
				continue
			}
			for d := 0; d < refl.Dims; d++ {
				assert.Zero(t, jac.At(d, c),
					"experiment %d observation %d column %d", o.Experiment, i, c)
			}
		}
		checked[o.Experiment] = true
	}
	assert.Equal(t, [2]bool{true, true}, checked,
		"both experiments must contribute observations")
}

func TestPredict_DeterministicAndConsistentWithValue(t *testing.T) {
	ds := buildDataset(t, 1)
	o := ds.Observations[0]

	c1, j1, err := ds.Predictor.Predict(&o)
	require.NoError(t, err)
	c2, j2, err := ds.Predictor.Predict(&o)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
	assert.Equal(t, j1, j2)

	v, err := ds.Predictor.PredictValue(&o)
	require.NoError(t, err)
	assert.Equal(t, c1, v)
}

func TestPredict_UnknownExperiment(t *testing.T) {
	ds := buildDataset(t, 1)
	o := ds.Observations[0]
	o.Experiment = 5

	_, _, err := ds.Predictor.Predict(&o)
	assert.ErrorIs(t, err, predict.ErrUnknownExperiment)
	_, err = ds.Predictor.PredictValue(&o)
	assert.ErrorIs(t, err, predict.ErrUnknownExperiment)
}

func TestPredict_DegenerateObservation(t *testing.T) {
	ds := buildDataset(t, 1)

	// A reciprocal vector far longer than the Ewald sphere diameter can
	// never diffract.
	o := refl.Observation{HKL: [3]int{60, 0, 0}, Variance: [3]float64{1, 1, 1}}
	_, _, err := ds.Predictor.Predict(&o)
	assert.ErrorIs(t, err, predict.ErrDegenerate)
}

func TestPredict_CollapsedPanelFrame(t *testing.T) {
	ds := buildDataset(t, 1)
	o := ds.Observations[0]

	// Parallel fast/slow axes make the panel matrix exactly singular; the
	// ray must be reported degenerate, not mapped through a garbage
	// inverse to NaN coordinates.
	panel := ds.Geoms[0].Panel
	panel.SetFrame(panel.Fast(), panel.Fast(), panel.Origin())

	_, _, err := ds.Predictor.Predict(&o)
	assert.ErrorIs(t, err, predict.ErrDegenerate)
	_, err = ds.Predictor.PredictValue(&o)
	assert.ErrorIs(t, err, predict.ErrDegenerate)
}

func TestNewPredictor_WiringValidation(t *testing.T) {
	ds := buildDataset(t, 1)

	_, err := predict.NewPredictor(nil, ds.Wiring)
	assert.ErrorIs(t, err, predict.ErrBadExperiment)

	_, err = predict.NewPredictor(ds.Composite, nil)
	assert.ErrorIs(t, err, predict.ErrBadExperiment)

	bad := ds.Wiring[0]
	bad.Gonio = nil
	_, err = predict.NewPredictor(ds.Composite, []predict.Experiment{bad})
	assert.ErrorIs(t, err, predict.ErrBadExperiment)

	bad = ds.Wiring[0]
	bad.Detector = 99
	_, err = predict.NewPredictor(ds.Composite, []predict.Experiment{bad})
	assert.ErrorIs(t, err, predict.ErrBadExperiment)

	// Right range, wrong kind: a cell constituent where a detector one is
	// expected.
	bad = ds.Wiring[0]
	bad.Detector = bad.Cell
	_, err = predict.NewPredictor(ds.Composite, []predict.Experiment{bad})
	assert.ErrorIs(t, err, predict.ErrBadExperiment)
}
