package param

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/refgeo/refgeo/geom"
)

// BeamParameterisation exposes the beam orientation as two free rotation
// parameters (mrad), about two axes orthogonal to the initial beam:
//
//	0 mu1 - rotation about axis1 = unit(dir0 × goniometer axis)
//	1 mu2 - rotation about axis2 = unit(dir0 × axis1)
//
// axis1 lies in the plane normal to both the beam and the rotation axis,
// so fixing mu1 pins the beam to the standard goniometer plane (the usual
// imgCIF convention). The wavelength is not refined.
type BeamParameterisation struct {
	base
	beam *geom.Beam

	dir0         r3.Vec
	axis1, axis2 r3.Vec

	s0   r3.Vec
	ds0  []r3.Vec
	wlen float64
}

// NewBeamParameterisation captures the beam's current direction as the
// reference state. The goniometer supplies the axis convention.
func NewBeamParameterisation(beam *geom.Beam, gonio *geom.Goniometer) (*BeamParameterisation, error) {
	if beam == nil || gonio == nil {
		return nil, ErrNilModel
	}
	d0 := beam.Direction()

	a1 := r3.Cross(d0, gonio.Axis())
	if r3.Norm(a1) < 1e-9 {
		// Beam parallel to the rotation axis: fall back to any axis
		// orthogonal to the beam.
		a1 = r3.Cross(d0, r3.Vec{X: 1})
		if r3.Norm(a1) < 1e-9 {
			a1 = r3.Cross(d0, r3.Vec{Y: 1})
		}
	}
	a1 = r3.Unit(a1)
	a2 := r3.Unit(r3.Cross(d0, a1))

	bp := &BeamParameterisation{
		base:  newBase("Beam", 2),
		beam:  beam,
		dir0:  d0,
		axis1: a1,
		axis2: a2,
		wlen:  beam.Wavelength(),
	}
	if err := bp.Compose(); err != nil {
		return nil, err
	}

	return bp, nil
}

// SetParams implements Parameterisation.
func (bp *BeamParameterisation) SetParams(p []float64) error {
	if err := bp.setFree(p); err != nil {
		return err
	}

	return bp.Compose()
}

// SetFixed implements Parameterisation.
func (bp *BeamParameterisation) SetFixed(mask []bool) error {
	if err := bp.setMask(mask); err != nil {
		return err
	}

	return bp.Compose()
}

// Compose rebuilds the beam direction, s0 and ds0/dp, and writes the
// direction back into the beam model.
func (bp *BeamParameterisation) Compose() error {
	m1, m2 := bp.vals[0]*mrad, bp.vals[1]*mrad

	r1 := geom.Rotation(bp.axis1, m1)
	r2 := geom.Rotation(bp.axis2, m2)
	rot := geom.Mul3(r2, r1)

	dir := geom.MulVec(rot, bp.dir0)
	bp.beam.SetDirection(dir)
	bp.s0 = r3.Scale(1/bp.wlen, dir)

	dRot := [2]r3.Vec{
		geom.MulVec(geom.Mul3(r2, geom.Skew(bp.axis1), r1), bp.dir0),
		geom.MulVec(geom.Mul3(geom.Skew(bp.axis2), r2, r1), bp.dir0),
	}

	bp.ds0 = bp.ds0[:0]
	for _, i := range bp.freeIndices() {
		bp.ds0 = append(bp.ds0, r3.Scale(mrad/bp.wlen, dRot[i]))
	}

	return nil
}

// S0 returns the composed incident wavevector (1/Å).
func (bp *BeamParameterisation) S0() r3.Vec { return bp.s0 }

// DS0Dp returns ds0/dp per free parameter, in free order.
func (bp *BeamParameterisation) DS0Dp() []r3.Vec { return bp.ds0 }
