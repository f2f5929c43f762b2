// Package param exposes each physical model in package geom as a
// fixed-length vector of free parameters, and concatenates any number of
// such parameterisations into one flat vector for the refinement engine.
//
// A Parameterisation owns a pointer to its model. Setting parameter values
// recomposes the model state in place, so refined values are written back
// where they came from. Each concrete variant also carries the analytic
// derivative of its model state with respect to every free parameter - the
// building blocks the prediction chain composes into Jacobian rows.
//
// Concrete variants:
//
//   - DetectorParameterisation          - 6 dof: dist/shift1/shift2 (mm),
//     tau1/tau2/tau3 (mrad)
//   - BeamParameterisation              - 2 dof: mu1/mu2 (mrad)
//   - CrystalOrientationParameterisation - 3 dof: phi1..phi3 (mrad)
//   - CrystalCellParameterisation        - 6 dof: scaled triangular cell
//     matrix entries (×1e5)
//
// Angular parameters are expressed in milliradians and length parameters
// in millimetres so that all free parameters are of comparable magnitude,
// which keeps the normal equations well scaled.
//
// No variant clamps or wraps values: an out-of-domain vector is accepted
// and the fault surfaces later as a degenerate prediction.
//
// Composite concatenates parameterisations in construction order and keeps
// the offset table consistent across SetFixed calls. The kind registry maps
// a string identifier to a constructor, resolved at configuration-load time.
package param
