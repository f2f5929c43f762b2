// Package refl manages the observation set a refinement run fits against:
// one record per measured reflection centroid, with observed (X, Y, Phi)
// values, per-component variances and a back-reference to the owning
// experiment.
//
// The manager partitions observations into active and rejected. Outlier
// rejection is a single interquartile-range pass over the current residual
// distribution, invoked once before the refinement loop; rejection is
// monotonic within a run - an observation, once rejected, stays rejected,
// which keeps the Jacobian sparsity bookkeeping stable across iterations.
//
//	mgr, err := refl.NewManager(obs)
//	...predict once to populate residuals...
//	mgr.FilterOutliers(1.5) // no-op when the multiplier is <= 0
//	for _, o := range mgr.Working() { ... }
package refl
