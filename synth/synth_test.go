// SPDX-License-Identifier: MIT

package synth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refgeo/refgeo/refl"
	"github.com/refgeo/refgeo/synth"
)

func TestBuild_Validation(t *testing.T) {
	for name, mutate := range map[string]func(*synth.Options){
		"wavelength": func(o *synth.Options) { o.Wavelength = 0 },
		"dmin":       func(o *synth.Options) { o.DMin = -1 },
		"distance":   func(o *synth.Options) { o.Distance = 0 },
		"pixel":      func(o *synth.Options) { o.PixelSize = 0 },
		"image size": func(o *synth.Options) { o.ImageSize = 0 },
		"width":      func(o *synth.Options) { o.ImageWidth = 0 },
		"images":     func(o *synth.Options) { o.Images = 0 },
		"exps":       func(o *synth.Options) { o.Experiments = 0 },
	} {
		opts := synth.DefaultOptions()
		mutate(&opts)
		_, err := synth.Build(opts)
		assert.ErrorIs(t, err, synth.ErrBadOptions, name)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	opts := synth.DefaultOptions()
	opts.DMin = 3

	a, err := synth.Build(opts)
	require.NoError(t, err)
	b, err := synth.Build(opts)
	require.NoError(t, err)

	assert.Equal(t, a.Observations, b.Observations)
	assert.Equal(t, a.Composite.Params(), b.Composite.Params())
}

func TestBuild_ObservationsWithinSweepAndPanel(t *testing.T) {
	opts := synth.DefaultOptions()
	opts.DMin = 3

	ds, err := synth.Build(opts)
	require.NoError(t, err)
	require.NotEmpty(t, ds.Observations)

	extent := opts.PixelSize * float64(opts.ImageSize)
	for i, o := range ds.Observations {
		assert.GreaterOrEqual(t, o.Observed[0], 0.0, "observation %d", i)
		assert.LessOrEqual(t, o.Observed[0], extent, "observation %d", i)
		assert.GreaterOrEqual(t, o.Observed[1], 0.0, "observation %d", i)
		assert.LessOrEqual(t, o.Observed[1], extent, "observation %d", i)
		assert.True(t, ds.Geoms[0].Scan.Contains(o.Observed[2]), "observation %d", i)

		for d := 0; d < refl.Dims; d++ {
			assert.Positive(t, o.Variance[d], "observation %d", i)
		}
	}
}

func TestBuild_ResolutionLimitControlsCount(t *testing.T) {
	lowRes := synth.DefaultOptions()
	lowRes.DMin = 4
	highRes := synth.DefaultOptions()
	highRes.DMin = 2.5

	lo, err := synth.Build(lowRes)
	require.NoError(t, err)
	hi, err := synth.Build(highRes)
	require.NoError(t, err)

	assert.Greater(t, len(hi.Observations), len(lo.Observations),
		"a tighter resolution limit must admit more reflections")
}

func TestBuild_MultiExperiment(t *testing.T) {
	opts := synth.DefaultOptions()
	opts.DMin = 3
	opts.Experiments = 2

	ds, err := synth.Build(opts)
	require.NoError(t, err)
	assert.Len(t, ds.Geoms, 2)
	assert.Len(t, ds.Wiring, 2)
	assert.Equal(t, 8, ds.Composite.Len(), "four constituents per experiment")
	assert.Equal(t, 34, ds.Composite.TotalFree())

	var count [2]int
	for _, o := range ds.Observations {
		count[o.Experiment]++
	}
	assert.Positive(t, count[0])
	assert.Positive(t, count[1])
}

func TestThresholds(t *testing.T) {
	opts := synth.DefaultOptions()
	ds, err := synth.Build(opts)
	require.NoError(t, err)

	thr := ds.Thresholds()
	assert.InDelta(t, opts.PixelSize/3, thr[0], 1e-15)
	assert.InDelta(t, opts.PixelSize/3, thr[1], 1e-15)
	assert.InDelta(t, opts.ImageWidth/3, thr[2], 1e-15)
}
