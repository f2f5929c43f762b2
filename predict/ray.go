package predict

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrDegenerate marks a non-physical model configuration for one
	// observation: no Ewald-sphere crossing, a reflecting-angle turning
	// point, or a ray parallel to the detector plane. The engine treats it
	// as a recoverable per-iteration fault, not a run failure.
	ErrDegenerate = errors.New("predict: degenerate model configuration")

	// ErrBadExperiment is returned when an experiment references a
	// composite constituent of the wrong kind or out of range.
	ErrBadExperiment = errors.New("predict: invalid experiment wiring")

	// ErrUnknownExperiment is returned when an observation's experiment
	// index is outside the predictor's experiment list.
	ErrUnknownExperiment = errors.New("predict: unknown experiment index")
)

// degenEps bounds the denominators of the angle solve; below it the
// configuration is treated as degenerate rather than divided through.
const degenEps = 1e-12

// ReflectingAngles solves the diffraction condition for the two rotation
// angles at which the reciprocal lattice vector r0 crosses the Ewald
// sphere of incident wavevector s0 under rotation about axis.
//
// Writing r0 = r∥ + r⊥ about the axis, the condition s0·r(φ) + |r0|²/2 = 0
// becomes a·cosφ + b·sinφ = c with
//
//	a = s0·r⊥, b = s0·(axis×r⊥), c = −(|r0|²/2 + s0·r∥)
//
// Both returned angles are reduced to [0, 2π). Returns ErrDegenerate when
// |c| exceeds √(a²+b²) (the reflection never crosses the sphere) or the
// in-plane component vanishes.
func ReflectingAngles(r0, s0, axis r3.Vec) (plus, minus float64, err error) {
	rpar := r3.Scale(r3.Dot(axis, r0), axis)
	rperp := r3.Sub(r0, rpar)

	a := r3.Dot(s0, rperp)
	b := r3.Dot(s0, r3.Cross(axis, rperp))
	c := -(r3.Norm2(r0)/2 + r3.Dot(s0, rpar))

	rho := math.Hypot(a, b)
	if rho < degenEps || math.Abs(c) > rho {
		return 0, 0, ErrDegenerate
	}

	base := math.Atan2(b, a)
	delta := math.Acos(c / rho)

	return reduceAngle(base + delta), reduceAngle(base - delta), nil
}

// reduceAngle maps phi into [0, 2π).
func reduceAngle(phi float64) float64 {
	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}

	return phi
}
