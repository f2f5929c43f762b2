package param

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/refgeo/refgeo/geom"
)

// CrystalOrientationParameterisation exposes the crystal orientation matrix
// U as three free rotations (mrad) about the laboratory axes:
//
//	0 phi1 - rotation about lab x
//	1 phi2 - rotation about lab y
//	2 phi3 - rotation about lab z
//
// U = R(z,phi3)·R(y,phi2)·R(x,phi1)·U0, with U0 captured at construction.
type CrystalOrientationParameterisation struct {
	base
	crystal *geom.Crystal

	u0 *mat.Dense

	u   *mat.Dense
	dU  []*mat.Dense
	ex  r3.Vec
	ey  r3.Vec
	ez  r3.Vec
}

// NewCrystalOrientationParameterisation captures the crystal's current U as
// the reference orientation.
func NewCrystalOrientationParameterisation(crystal *geom.Crystal) (*CrystalOrientationParameterisation, error) {
	if crystal == nil {
		return nil, ErrNilModel
	}
	op := &CrystalOrientationParameterisation{
		base:    newBase("CrystalOrientation", 3),
		crystal: crystal,
		u0:      mat.DenseCopyOf(crystal.U()),
		ex:      r3.Vec{X: 1},
		ey:      r3.Vec{Y: 1},
		ez:      r3.Vec{Z: 1},
	}
	if err := op.Compose(); err != nil {
		return nil, err
	}

	return op, nil
}

// SetParams implements Parameterisation.
func (op *CrystalOrientationParameterisation) SetParams(p []float64) error {
	if err := op.setFree(p); err != nil {
		return err
	}

	return op.Compose()
}

// SetFixed implements Parameterisation.
func (op *CrystalOrientationParameterisation) SetFixed(mask []bool) error {
	if err := op.setMask(mask); err != nil {
		return err
	}

	return op.Compose()
}

// Compose rebuilds U and dU/dp and writes U back into the crystal.
func (op *CrystalOrientationParameterisation) Compose() error {
	p1, p2, p3 := op.vals[0]*mrad, op.vals[1]*mrad, op.vals[2]*mrad

	r1 := geom.Rotation(op.ex, p1)
	r2 := geom.Rotation(op.ey, p2)
	r3m := geom.Rotation(op.ez, p3)

	op.u = geom.Mul3(r3m, r2, r1, op.u0)
	op.crystal.SetU(op.u)

	dRot := [3]*mat.Dense{
		geom.Mul3(r3m, r2, geom.Skew(op.ex), r1, op.u0),
		geom.Mul3(r3m, geom.Skew(op.ey), r2, r1, op.u0),
		geom.Mul3(geom.Skew(op.ez), r3m, r2, r1, op.u0),
	}

	op.dU = op.dU[:0]
	for _, i := range op.freeIndices() {
		var d mat.Dense
		d.Scale(mrad, dRot[i])
		op.dU = append(op.dU, &d)
	}

	return nil
}

// U returns the composed orientation matrix.
func (op *CrystalOrientationParameterisation) U() *mat.Dense { return op.u }

// DUDp returns dU/dp per free parameter, in free order.
func (op *CrystalOrientationParameterisation) DUDp() []*mat.Dense { return op.dU }
