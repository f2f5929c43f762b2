// Package synth builds deterministic synthetic rotation experiments for
// tests and examples: a known true geometry, Miller indices generated to a
// resolution limit, and noise-free observations predicted from that
// geometry with invented centroid variances.
//
// The canonical workflow mirrors regression testing of the refinement
// engine: build a dataset at the true geometry, apply known parameter
// shifts through the composite, then refine and require the engine to
// recover the truth.
//
//	ds, err := synth.Build(synth.DefaultOptions())
//	truth := ds.Composite.Params()
//	...shift parameters...
//	...refine...
//
// Generation is fully deterministic - no randomness anywhere - so tests
// can assert on exact observation counts.
package synth
