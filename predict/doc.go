// Package predict turns a composed parameter vector and an observation's
// identifying data into the predicted centroid (X, Y, Phi) and the analytic
// Jacobian of that centroid with respect to every global free parameter.
//
// The prediction chain for a rotation scan:
//
//  1. r0 = U·B·h - the reciprocal lattice vector at zero rotation.
//  2. Solve a·cosφ + b·sinφ = c for the rotation angle φ at which r0
//     crosses the Ewald sphere (two branches; the observation records which).
//  3. r = R(axis, φ)·r0, scattered beam s1 = s0 + r.
//  4. pv = [d1|d2|o]⁻¹·s1; X = pv₀/pv₂, Y = pv₁/pv₂ in mm on the panel.
//
// Derivatives are chain-ruled through the constituent parameterisations
// using the implicit-function rule on the diffraction condition:
//
//	dφ/dp = −(∂g/∂p)/(s1·(axis×r)),  g = s0·r + |r0|²/2
//
// Columns belonging to constituents of other experiments stay exactly
// zero - the predictor writes only the owning column ranges, preserving
// the block sparsity the normal-equation assembly relies on.
//
// Prediction is deterministic: it reads only composed parameterisation
// state, never hidden globals. A parameter vector that makes the model
// non-physical (no Ewald crossing, ray parallel to the panel, turning
// point) surfaces as ErrDegenerate - a recoverable per-iteration fault.
package predict
