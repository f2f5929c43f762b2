package param

import (
	"gonum.org/v1/gonum/mat"

	"github.com/refgeo/refgeo/geom"
)

// cellEntries lists the (row, col) positions of the six independent entries
// of the upper-triangular reciprocal cell matrix B, in parameter order.
var cellEntries = [6][2]int{
	{0, 0}, {0, 1}, {0, 2},
	{1, 1}, {1, 2},
	{2, 2},
}

// CrystalCellParameterisation exposes the six independent entries of the
// upper-triangular reciprocal cell matrix B as free parameters, scaled by
// 1e5 so their magnitudes are comparable with the angular parameters
// (reciprocal lengths are of order 0.1 1/Å). Parameters are absolute, not
// offsets: the round-trip law still holds because composing from the
// captured values reproduces B exactly.
type CrystalCellParameterisation struct {
	base
	crystal *geom.Crystal

	b  *mat.Dense
	dB []*mat.Dense
}

// NewCrystalCellParameterisation reads the six triangular entries of the
// crystal's current B as initial parameter values.
func NewCrystalCellParameterisation(crystal *geom.Crystal) (*CrystalCellParameterisation, error) {
	if crystal == nil {
		return nil, ErrNilModel
	}
	cp := &CrystalCellParameterisation{
		base:    newBase("CrystalCell", 6),
		crystal: crystal,
	}
	b := crystal.B()
	for k, rc := range cellEntries {
		cp.vals[k] = b.At(rc[0], rc[1]) / cellScale
	}
	if err := cp.Compose(); err != nil {
		return nil, err
	}

	return cp, nil
}

// SetParams implements Parameterisation.
func (cp *CrystalCellParameterisation) SetParams(p []float64) error {
	if err := cp.setFree(p); err != nil {
		return err
	}

	return cp.Compose()
}

// SetFixed implements Parameterisation.
func (cp *CrystalCellParameterisation) SetFixed(mask []bool) error {
	if err := cp.setMask(mask); err != nil {
		return err
	}

	return cp.Compose()
}

// Compose rebuilds B and dB/dp and writes B back into the crystal. The
// derivatives are constant single-entry matrices.
func (cp *CrystalCellParameterisation) Compose() error {
	b := mat.NewDense(3, 3, nil)
	for k, rc := range cellEntries {
		b.Set(rc[0], rc[1], cp.vals[k]*cellScale)
	}
	cp.b = b
	cp.crystal.SetB(b)

	cp.dB = cp.dB[:0]
	for _, i := range cp.freeIndices() {
		d := mat.NewDense(3, 3, nil)
		d.Set(cellEntries[i][0], cellEntries[i][1], cellScale)
		cp.dB = append(cp.dB, d)
	}

	return nil
}

// B returns the composed reciprocal cell matrix.
func (cp *CrystalCellParameterisation) B() *mat.Dense { return cp.b }

// DBDp returns dB/dp per free parameter, in free order.
func (cp *CrystalCellParameterisation) DBDp() []*mat.Dense { return cp.dB }
