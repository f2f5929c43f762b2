package predict

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/refgeo/refgeo/geom"
	"github.com/refgeo/refgeo/param"
	"github.com/refgeo/refgeo/refl"
)

// DetectorParams is the view a predictor needs of a detector
// parameterisation: the composed [fast|slow|origin] matrix and its
// per-free-parameter derivatives.
type DetectorParams interface {
	param.Parameterisation
	DMat() *mat.Dense
	DDMatDp() []*mat.Dense
}

// BeamParams is the predictor's view of a beam parameterisation.
type BeamParams interface {
	param.Parameterisation
	S0() r3.Vec
	DS0Dp() []r3.Vec
}

// OrientationParams is the predictor's view of a crystal orientation
// parameterisation.
type OrientationParams interface {
	param.Parameterisation
	U() *mat.Dense
	DUDp() []*mat.Dense
}

// CellParams is the predictor's view of a crystal cell parameterisation.
type CellParams interface {
	param.Parameterisation
	B() *mat.Dense
	DBDp() []*mat.Dense
}

// Experiment wires one experiment's observations to its constituents
// inside the composite, by constituent index, plus the (unrefined)
// goniometer. Distinct experiments may reference distinct constituents
// (independent models) or share them.
type Experiment struct {
	Detector    int
	Beam        int
	Orientation int
	Cell        int
	Gonio       *geom.Goniometer
}

// expViews caches the typed constituent views for one experiment.
type expViews struct {
	det  DetectorParams
	beam BeamParams
	ori  OrientationParams
	cell CellParams
	axis r3.Vec

	// Constituent indices, kept for offset lookups.
	idx Experiment
}

// Predictor computes predicted centroids and Jacobian rows over one
// composite parameter vector spanning any number of experiments.
type Predictor struct {
	composite *param.Composite
	exps      []expViews
}

// NewPredictor validates that every experiment references constituents of
// the right kind and builds the predictor. Returns ErrBadExperiment on any
// wiring fault.
func NewPredictor(c *param.Composite, exps []Experiment) (*Predictor, error) {
	if c == nil || len(exps) == 0 {
		return nil, ErrBadExperiment
	}
	views := make([]expViews, len(exps))
	for i, e := range exps {
		if e.Gonio == nil {
			return nil, fmt.Errorf("experiment %d: nil goniometer: %w", i, ErrBadExperiment)
		}
		for _, idx := range []int{e.Detector, e.Beam, e.Orientation, e.Cell} {
			if idx < 0 || idx >= c.Len() {
				return nil, fmt.Errorf("experiment %d: constituent %d out of range: %w", i, idx, ErrBadExperiment)
			}
		}
		det, ok := c.Part(e.Detector).(DetectorParams)
		if !ok {
			return nil, fmt.Errorf("experiment %d: detector: %w", i, ErrBadExperiment)
		}
		beam, ok := c.Part(e.Beam).(BeamParams)
		if !ok {
			return nil, fmt.Errorf("experiment %d: beam: %w", i, ErrBadExperiment)
		}
		ori, ok := c.Part(e.Orientation).(OrientationParams)
		if !ok {
			return nil, fmt.Errorf("experiment %d: orientation: %w", i, ErrBadExperiment)
		}
		cell, ok := c.Part(e.Cell).(CellParams)
		if !ok {
			return nil, fmt.Errorf("experiment %d: cell: %w", i, ErrBadExperiment)
		}
		views[i] = expViews{
			det: det, beam: beam, ori: ori, cell: cell,
			axis: e.Gonio.Axis(), idx: e,
		}
	}

	return &Predictor{composite: c, exps: views}, nil
}

// NumParams returns the current global free-parameter count.
func (p *Predictor) NumParams() int { return p.composite.TotalFree() }

// rayState carries the shared intermediates of one ray solution.
type rayState struct {
	h      r3.Vec
	phi    float64
	rot    *mat.Dense
	r, s1  r3.Vec
	exR    r3.Vec
	den    float64
	dinv   mat.Dense
	pv     r3.Vec
	x, y   float64
	um, bm *mat.Dense
}

// solveRay runs the value half of the prediction chain for o.
func (p *Predictor) solveRay(e *expViews, o *refl.Observation) (*rayState, error) {
	st := &rayState{
		h:  r3.Vec{X: float64(o.HKL[0]), Y: float64(o.HKL[1]), Z: float64(o.HKL[2])},
		um: e.ori.U(),
		bm: e.cell.B(),
	}
	r0 := geom.MulVec(st.um, geom.MulVec(st.bm, st.h))
	s0 := e.beam.S0()

	plus, minus, err := ReflectingAngles(r0, s0, e.axis)
	if err != nil {
		return nil, err
	}
	st.phi = minus
	if o.Branch {
		st.phi = plus
	}

	st.rot = geom.Rotation(e.axis, st.phi)
	st.r = geom.MulVec(st.rot, r0)
	st.s1 = r3.Add(s0, st.r)
	st.exR = r3.Cross(e.axis, st.r)
	st.den = r3.Dot(st.s1, st.exR)

	// An ill-conditioned panel matrix still inverts (mat.Condition is a
	// warning), but an exactly singular one reports infinite condition
	// with garbage contents: treat that as a collapsed frame.
	if invErr := st.dinv.Inverse(e.det.DMat()); invErr != nil {
		var cond mat.Condition
		if !errors.As(invErr, &cond) || math.IsInf(float64(cond), 1) {
			return nil, ErrDegenerate
		}
	}
	st.pv = geom.MulVec(&st.dinv, st.s1)
	if st.pv.Z > -degenEps && st.pv.Z < degenEps {
		return nil, ErrDegenerate
	}
	st.x, st.y = st.pv.X/st.pv.Z, st.pv.Y/st.pv.Z

	return st, nil
}

// PredictValue computes only the centroid for o, skipping the Jacobian.
// Used on the line-search hot path where derivatives are not needed.
func (p *Predictor) PredictValue(o *refl.Observation) (calc [refl.Dims]float64, err error) {
	if o.Experiment < 0 || o.Experiment >= len(p.exps) {
		return calc, ErrUnknownExperiment
	}
	st, err := p.solveRay(&p.exps[o.Experiment], o)
	if err != nil {
		return calc, err
	}

	return [refl.Dims]float64{st.x, st.y, st.phi}, nil
}

// Predict computes the centroid (X mm, Y mm, Phi rad) for o under the
// current composed parameter vector, together with the 3×NumParams()
// Jacobian of the centroid. Columns owned by constituents of other
// experiments are exactly zero.
//
// Errors: ErrUnknownExperiment for a bad experiment index; ErrDegenerate
// when the configuration is non-physical for this observation.
func (p *Predictor) Predict(o *refl.Observation) (calc [refl.Dims]float64, jac *mat.Dense, err error) {
	if o.Experiment < 0 || o.Experiment >= len(p.exps) {
		return calc, nil, ErrUnknownExperiment
	}
	e := &p.exps[o.Experiment]

	st, err := p.solveRay(e, o)
	if err != nil {
		return calc, nil, err
	}

	// den = ∂g/∂φ; vanishing means the reflection sits at a turning point
	// of the diffraction condition and the implicit derivative blows up.
	if st.den > -degenEps && st.den < degenEps {
		return calc, nil, ErrDegenerate
	}
	rot, r, s1, exR, den := st.rot, st.r, st.s1, st.exR, st.den
	dinv, pv := &st.dinv, st.pv
	x, y := st.x, st.y
	um, bm, h := st.um, st.bm, st.h
	calc = [refl.Dims]float64{x, y, st.phi}

	jac = mat.NewDense(refl.Dims, p.composite.TotalFree(), nil)

	// Detector block: s1 is unchanged, only the panel mapping moves.
	// dpv/dp = −D⁻¹·(∂[d1|d2|o]/∂p)·pv.
	off := p.composite.Offset(e.idx.Detector)
	for k, dA := range e.det.DDMatDp() {
		dpv := r3.Scale(-1, geom.MulVec(dinv, geom.MulVec(dA, pv)))
		setImpactCols(jac, off+k, x, y, pv.Z, dpv, 0)
	}

	// Beam block: ∂g/∂p = r·∂s0/∂p.
	off = p.composite.Offset(e.idx.Beam)
	for k, ds0 := range e.beam.DS0Dp() {
		dphi := -r3.Dot(r, ds0) / den
		ds1 := r3.Add(ds0, r3.Scale(dphi, exR))
		setImpactCols(jac, off+k, x, y, pv.Z, geom.MulVec(dinv, ds1), dphi)
	}

	// Crystal orientation block: ∂r0/∂p = (∂U/∂p)·B·h.
	off = p.composite.Offset(e.idx.Orientation)
	bh := geom.MulVec(bm, h)
	for k, dU := range e.ori.DUDp() {
		dr0 := geom.MulVec(rot, geom.MulVec(dU, bh))
		dphi := -r3.Dot(s1, dr0) / den
		ds1 := r3.Add(dr0, r3.Scale(dphi, exR))
		setImpactCols(jac, off+k, x, y, pv.Z, geom.MulVec(dinv, ds1), dphi)
	}

	// Crystal cell block: ∂r0/∂p = U·(∂B/∂p)·h.
	off = p.composite.Offset(e.idx.Cell)
	for k, dB := range e.cell.DBDp() {
		dr0 := geom.MulVec(rot, geom.MulVec(um, geom.MulVec(dB, h)))
		dphi := -r3.Dot(s1, dr0) / den
		ds1 := r3.Add(dr0, r3.Scale(dphi, exR))
		setImpactCols(jac, off+k, x, y, pv.Z, geom.MulVec(dinv, ds1), dphi)
	}

	return calc, jac, nil
}

// setImpactCols writes one Jacobian column: the quotient-rule impact
// derivatives and the angle derivative.
func setImpactCols(jac *mat.Dense, col int, x, y, w float64, dpv r3.Vec, dphi float64) {
	jac.Set(0, col, (dpv.X-x*dpv.Z)/w)
	jac.Set(1, col, (dpv.Y-y*dpv.Z)/w)
	jac.Set(2, col, dphi)
}
