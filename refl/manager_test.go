package refl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refgeo/refgeo/refl"
)

// obsWithResiduals builds n well-behaved observations plus the given
// residual spikes in the X dimension.
func obsWithResiduals(n int, spikes ...float64) []refl.Observation {
	out := make([]refl.Observation, 0, n+len(spikes))
	for i := 0; i < n; i++ {
		o := refl.Observation{
			HKL:      [3]int{i, 0, 0},
			Variance: [3]float64{1, 1, 1},
		}
		// Small symmetric spread around zero.
		o.Resid[0] = 0.01 * float64(i%7-3)
		o.Resid[1] = 0.02 * float64(i%5-2)
		out = append(out, o)
	}
	for i, s := range spikes {
		o := refl.Observation{
			HKL:      [3]int{100 + i, 0, 0},
			Variance: [3]float64{1, 1, 1},
		}
		o.Resid[0] = s
		out = append(out, o)
	}

	return out
}

func TestNewManager_Validation(t *testing.T) {
	_, err := refl.NewManager(nil)
	assert.ErrorIs(t, err, refl.ErrNoObservations)

	bad := obsWithResiduals(3)
	bad[1].Variance[2] = 0
	_, err = refl.NewManager(bad)
	assert.ErrorIs(t, err, refl.ErrBadVariance)
}

func TestFilterOutliers_Disabled(t *testing.T) {
	mgr, err := refl.NewManager(obsWithResiduals(20, 50.0))
	require.NoError(t, err)

	// Zero or negative multiplier: no filtering at all.
	assert.Zero(t, mgr.FilterOutliers(0))
	assert.Zero(t, mgr.FilterOutliers(-1.5))
	assert.Equal(t, mgr.Len(), mgr.NumActive())
}

func TestFilterOutliers_RejectsSpikes(t *testing.T) {
	mgr, err := refl.NewManager(obsWithResiduals(40, 50.0, -75.0))
	require.NoError(t, err)

	n := mgr.FilterOutliers(1.5)
	assert.Equal(t, 2, n, "both spikes rejected")
	assert.Equal(t, 40, mgr.NumActive())
	assert.Equal(t, 2, mgr.NumRejected())

	// Rejected observations remain reachable for reporting.
	assert.Len(t, mgr.All(), 42)
	assert.Len(t, mgr.Working(), 40)
}

// TestFilterOutliers_Monotonic verifies the active count never increases,
// including across repeated passes.
func TestFilterOutliers_Monotonic(t *testing.T) {
	mgr, err := refl.NewManager(obsWithResiduals(30, 10.0))
	require.NoError(t, err)

	before := mgr.NumActive()
	mgr.FilterOutliers(1.5)
	mid := mgr.NumActive()
	assert.LessOrEqual(t, mid, before)

	mgr.FilterOutliers(1.5)
	assert.LessOrEqual(t, mgr.NumActive(), mid)
}

// TestWorking_StableOrder verifies active observations keep input order
// after filtering.
func TestWorking_StableOrder(t *testing.T) {
	obs := obsWithResiduals(10)
	obs[4].Resid[0] = 99.0 // will be rejected
	mgr, err := refl.NewManager(obs)
	require.NoError(t, err)

	mgr.FilterOutliers(1.5)
	prev := -1
	for _, o := range mgr.Working() {
		assert.Greater(t, o.HKL[0], prev, "stable input order")
		prev = o.HKL[0]
		assert.NotEqual(t, 4, o.HKL[0], "rejected observation excluded")
	}
}

func TestObservation_Weights(t *testing.T) {
	o := refl.Observation{Variance: [3]float64{4, 0.25, 1}}
	w := o.Weights()
	assert.Equal(t, [3]float64{0.25, 4, 1}, w)
}
