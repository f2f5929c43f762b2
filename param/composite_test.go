package param_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refgeo/refgeo/param"
)

// newComposite assembles the standard four-constituent composite over a
// fresh experiment: detector, beam, crystal orientation, crystal cell.
func newComposite(t *testing.T) *param.Composite {
	t.Helper()
	exp := newExperiment(t)

	parts := make([]param.Parameterisation, 0, 4)
	for _, kind := range []string{
		"detector.panel", "beam.orientation", "crystal.orientation", "crystal.cell",
	} {
		p, err := param.New(kind, exp)
		require.NoError(t, err)
		parts = append(parts, p)
	}
	c, err := param.NewComposite(parts...)
	require.NoError(t, err)

	return c
}

// TestComposite_LengthInvariant checks TotalFree == Σ NumFree, including
// after SetFixed on a constituent.
func TestComposite_LengthInvariant(t *testing.T) {
	c := newComposite(t)

	require.Equal(t, 6+2+3+6, c.TotalFree())
	assert.Len(t, c.Params(), c.TotalFree())

	sum := 0
	for i := 0; i < c.Len(); i++ {
		assert.Equal(t, sum, c.Offset(i), "offset of constituent %d", i)
		sum += c.Part(i).NumFree()
	}
	assert.Equal(t, sum, c.TotalFree())

	// Fix one beam parameter: the global vector shrinks by one and every
	// later offset shifts down.
	require.NoError(t, c.Part(1).SetFixed([]bool{true, false}))
	assert.Equal(t, 6+1+3+6, c.TotalFree())
	assert.Len(t, c.Params(), c.TotalFree())
	assert.Equal(t, 6, c.Offset(1))
	assert.Equal(t, 7, c.Offset(2))
	assert.Equal(t, 10, c.Offset(3))
}

func TestComposite_SetParams(t *testing.T) {
	c := newComposite(t)

	vals := c.Params()
	require.NoError(t, c.SetParams(vals))
	assert.Equal(t, vals, c.Params(), "composite round-trip")

	// Wrong length: rejected before any constituent mutates.
	bad := make([]float64, len(vals)-1)
	assert.ErrorIs(t, c.SetParams(bad), param.ErrDimensionMismatch)
	assert.Equal(t, vals, c.Params(), "failed SetParams must not mutate")

	// A real update lands in the right constituent slice.
	vals[0] += 1.5 // detector dist
	vals[8] += 2.0 // crystal orientation phi1
	require.NoError(t, c.SetParams(vals))
	assert.InDelta(t, vals[0], c.Part(0).Params()[0], 1e-15)
	assert.InDelta(t, vals[8], c.Part(2).Params()[0], 1e-15)
}

func TestComposite_Construction(t *testing.T) {
	_, err := param.NewComposite()
	assert.ErrorIs(t, err, param.ErrNilModel)

	_, err = param.NewComposite(nil)
	assert.ErrorIs(t, err, param.ErrNilModel)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{
		"beam.orientation", "crystal.cell", "crystal.orientation", "detector.panel",
	}, param.Kinds())

	exp := newExperiment(t)
	_, err := param.New("detector.cylindrical", exp)
	assert.ErrorIs(t, err, param.ErrUnknownKind)

	_, err = param.New("detector.panel", nil)
	assert.ErrorIs(t, err, param.ErrNilModel)
}
