package param

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/refgeo/refgeo/geom"
)

// DetectorParameterisation exposes a single panel as six free parameters:
//
//	0 dist   - translation along the initial panel normal (mm)
//	1 shift1 - translation along the initial fast axis (mm)
//	2 shift2 - translation along the initial slow axis (mm)
//	3 tau1   - rotation about the initial normal (mrad)
//	4 tau2   - rotation about the initial fast axis (mrad)
//	5 tau3   - rotation about the initial slow axis (mrad)
//
// All parameters are offsets from the frame captured at construction, so a
// freshly built parameterisation reads as the zero vector. Rotations pivot
// about the panel origin.
type DetectorParameterisation struct {
	base
	panel *geom.Panel

	// Frame at construction.
	o0, f0, s0, n0 r3.Vec

	// Composed state derivatives: d[d1|d2|o]/dp per free parameter.
	dDdp []*mat.Dense
}

// NewDetectorParameterisation captures the panel's current frame as the
// reference state. Returns ErrNilModel for a nil panel.
func NewDetectorParameterisation(panel *geom.Panel) (*DetectorParameterisation, error) {
	if panel == nil {
		return nil, ErrNilModel
	}
	dp := &DetectorParameterisation{
		base:  newBase("Detector", 6),
		panel: panel,
		o0:    panel.Origin(),
		f0:    panel.Fast(),
		s0:    panel.Slow(),
		n0:    panel.Normal(),
	}
	if err := dp.Compose(); err != nil {
		return nil, err
	}

	return dp, nil
}

// SetParams implements Parameterisation.
func (dp *DetectorParameterisation) SetParams(p []float64) error {
	if err := dp.setFree(p); err != nil {
		return err
	}

	return dp.Compose()
}

// SetFixed implements Parameterisation.
func (dp *DetectorParameterisation) SetFixed(mask []bool) error {
	if err := dp.setMask(mask); err != nil {
		return err
	}

	return dp.Compose()
}

// Compose rebuilds the panel frame and the frame derivatives from the
// current parameter values and writes the frame back into the panel.
func (dp *DetectorParameterisation) Compose() error {
	dist, sh1, sh2 := dp.vals[0], dp.vals[1], dp.vals[2]
	t1, t2, t3 := dp.vals[3]*mrad, dp.vals[4]*mrad, dp.vals[5]*mrad

	r1 := geom.Rotation(dp.n0, t1)
	r2 := geom.Rotation(dp.f0, t2)
	r3m := geom.Rotation(dp.s0, t3)
	rot := geom.Mul3(r1, r2, r3m)

	fast := geom.MulVec(rot, dp.f0)
	slow := geom.MulVec(rot, dp.s0)
	origin := r3.Add(dp.o0, r3.Add(
		r3.Scale(dist, dp.n0),
		r3.Add(r3.Scale(sh1, dp.f0), r3.Scale(sh2, dp.s0)),
	))
	dp.panel.SetFrame(fast, slow, origin)

	// Exact rotation derivatives by the product rule.
	dRot := [3]*mat.Dense{
		geom.Mul3(geom.Skew(dp.n0), r1, r2, r3m),
		geom.Mul3(r1, geom.Skew(dp.f0), r2, r3m),
		geom.Mul3(r1, r2, geom.Skew(dp.s0), r3m),
	}

	dp.dDdp = dp.dDdp[:0]
	for _, i := range dp.freeIndices() {
		d := mat.NewDense(3, 3, nil)
		switch {
		case i == 0:
			setColVec(d, 2, dp.n0)
		case i == 1:
			setColVec(d, 2, dp.f0)
		case i == 2:
			setColVec(d, 2, dp.s0)
		default:
			dr := dRot[i-3]
			setColVec(d, 0, r3.Scale(mrad, geom.MulVec(dr, dp.f0)))
			setColVec(d, 1, r3.Scale(mrad, geom.MulVec(dr, dp.s0)))
			// Origin does not rotate: column 2 stays zero.
		}
		dp.dDdp = append(dp.dDdp, d)
	}

	return nil
}

// DMat returns the composed [fast|slow|origin] matrix of the panel.
func (dp *DetectorParameterisation) DMat() *mat.Dense { return dp.panel.DMatrix() }

// DDMatDp returns d[fast|slow|origin]/dp, one 3x3 matrix per free
// parameter, in free order. The slice is live until the next Compose.
func (dp *DetectorParameterisation) DDMatDp() []*mat.Dense { return dp.dDdp }

func setColVec(m *mat.Dense, col int, v r3.Vec) {
	m.Set(0, col, v.X)
	m.Set(1, col, v.Y)
	m.Set(2, col, v.Z)
}
