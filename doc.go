// Package refgeo refines instrument and sample geometry models against
// observed diffraction centroids by iterative nonlinear least squares.
//
// 🚀 What is refgeo?
//
//	An in-process calibration library for rotation-scan experiments:
//		• Physical models: beam, single-panel detector, crystal, goniometer, scan
//		• Parameterisations: fixed-length free-parameter views over each model,
//		  composable into one global vector with fixed-parameter masking
//		• Prediction: centroid (X, Y, Phi) and analytic Jacobians, chain-ruled
//		  through every constituent parameterisation
//		• Target: per-dimension RMSDs, weighted residuals, convergence predicate
//		• Engines: Gauss–Newton normal equations and a quasi-Newton
//		  curvature/line-search variant, sharing one iterate/evaluate/record loop
//		• Outlier rejection: one-shot IQR filtering of the observation set
//
// Packages:
//
//	geom/    - beam, panel, crystal, goniometer, scan, experiment models
//	param/   - model parameterisations, the composite vector, kind registry
//	refl/    - observation set (reflection manager) + outlier filtering
//	predict/ - centroid prediction and Jacobian composition
//	target/  - residuals, RMSDs, achieved()
//	engine/  - refinement loop, solver strategies, history, terminal status
//	synth/   - deterministic synthetic experiments for tests and examples
//
// A typical run wires an Experiment's parameterisations into a
// param.Composite, feeds observations to a refl.Manager, binds both through
// predict.Predictor and target.Target, and hands the lot to an engine.Engine.
// The refined values are written back into the geom models; the caller keeps
// the history and RMSDs for diagnostics.
//
// Numerics ride on gonum (mat, stat, spatial/r3); nothing here spins up
// goroutines - one refinement run is strictly sequential, and independent
// runs may proceed in parallel as long as they share no mutable state.
package refgeo
