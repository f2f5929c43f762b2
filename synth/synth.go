package synth

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/refgeo/refgeo/geom"
	"github.com/refgeo/refgeo/param"
	"github.com/refgeo/refgeo/predict"
	"github.com/refgeo/refgeo/refl"
)

// ErrBadOptions is returned for non-physical generation options.
var ErrBadOptions = errors.New("synth: invalid options")

// Options configures synthetic dataset generation.
type Options struct {
	// Wavelength in Å.
	Wavelength float64

	// DMin is the resolution limit in Å: indices with d >= DMin generate
	// observations.
	DMin float64

	// Distance from sample to detector along the beam, in mm.
	Distance float64

	// PixelSize (mm) and ImageSize (px), square panel.
	PixelSize float64
	ImageSize int

	// ImageWidth is the oscillation per image in radians; Images the image
	// count of the sweep.
	ImageWidth float64
	Images     int

	// Experiments is the number of independent experiments to build; each
	// gets its own models and parameterisations, with slightly perturbed
	// cells so their observation sets differ.
	Experiments int
}

// DefaultOptions mirrors a 180° fine-sliced sweep on a small triclinic
// cell: 0.1° images, 0.172 mm pixels, 200 mm detector distance, 2 Å
// resolution limit.
func DefaultOptions() Options {
	return Options{
		Wavelength:  1.0,
		DMin:        2.0,
		Distance:    200.0,
		PixelSize:   0.172,
		ImageSize:   1024,
		ImageWidth:  0.1 * math.Pi / 180,
		Images:      1800,
		Experiments: 1,
	}
}

// Dataset is a generated refinement problem: geometry, parameterisations
// wired into one composite, experiment wiring for the predictor, and the
// noise-free observation list.
type Dataset struct {
	Geoms        []*geom.Experiment
	Composite    *param.Composite
	Wiring       []predict.Experiment
	Predictor    *predict.Predictor
	Observations []refl.Observation

	opts Options
}

// Thresholds returns the conventional convergence cutoffs for the
// generated geometry: a third of a pixel for X and Y, a third of an image
// width for Phi.
func (d *Dataset) Thresholds() [refl.Dims]float64 {
	return [refl.Dims]float64{
		d.opts.PixelSize / 3,
		d.opts.PixelSize / 3,
		d.opts.ImageWidth / 3,
	}
}

// Build generates a dataset from opts. Observations are exact predictions
// of the true geometry (no noise) with centroid variances of (pixel/2)²
// for X, Y and (image width/2)² for Phi.
func Build(opts Options) (*Dataset, error) {
	if opts.Wavelength <= 0 || opts.DMin <= 0 || opts.Distance <= 0 ||
		opts.PixelSize <= 0 || opts.ImageSize <= 0 ||
		opts.ImageWidth <= 0 || opts.Images <= 0 || opts.Experiments <= 0 {
		return nil, ErrBadOptions
	}

	ds := &Dataset{opts: opts}
	parts := make([]param.Parameterisation, 0, 4*opts.Experiments)

	for i := 0; i < opts.Experiments; i++ {
		exp, err := buildGeometry(opts, i)
		if err != nil {
			return nil, err
		}
		ds.Geoms = append(ds.Geoms, exp)

		base := len(parts)
		for _, kind := range []string{
			"detector.panel", "beam.orientation", "crystal.orientation", "crystal.cell",
		} {
			p, err := param.New(kind, exp)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		ds.Wiring = append(ds.Wiring, predict.Experiment{
			Detector:    base,
			Beam:        base + 1,
			Orientation: base + 2,
			Cell:        base + 3,
			Gonio:       exp.Goniometer,
		})
	}

	composite, err := param.NewComposite(parts...)
	if err != nil {
		return nil, err
	}
	ds.Composite = composite

	predictor, err := predict.NewPredictor(composite, ds.Wiring)
	if err != nil {
		return nil, err
	}
	ds.Predictor = predictor

	for i, exp := range ds.Geoms {
		if err := ds.generate(i, exp); err != nil {
			return nil, err
		}
	}
	if len(ds.Observations) == 0 {
		return nil, ErrBadOptions
	}

	return ds, nil
}

// buildGeometry constructs the true models for experiment i in an
// imgCIF-like frame: beam along -z, goniometer on +x, detector facing the
// sample Distance mm downstream, beam centre mid-panel.
func buildGeometry(opts Options, i int) (*geom.Experiment, error) {
	beam, err := geom.NewBeam(r3.Vec{Z: -1}, opts.Wavelength)
	if err != nil {
		return nil, err
	}

	half := opts.PixelSize * float64(opts.ImageSize) / 2
	panel, err := geom.NewPanel(geom.PanelConfig{
		Origin:    r3.Vec{X: -half, Y: half, Z: -opts.Distance},
		Fast:      r3.Vec{X: 1},
		Slow:      r3.Vec{Y: -1},
		PixelSize: [2]float64{opts.PixelSize, opts.PixelSize},
		ImageSize: [2]int{opts.ImageSize, opts.ImageSize},
	})
	if err != nil {
		return nil, err
	}

	// Near-orthogonal triclinic cell; per-experiment length perturbation
	// keeps multi-experiment observation sets distinct.
	s := 1 + 0.02*float64(i)
	xtal, err := geom.NewCrystalFromCell(
		r3.Scale(12*s, r3.Unit(r3.Vec{X: 1, Y: 0.002, Z: -0.004})),
		r3.Scale(14*s, r3.Unit(r3.Vec{X: -0.002, Y: 1, Z: 0.002})),
		r3.Scale(13*s, r3.Unit(r3.Vec{X: 0.002, Y: -0.004, Z: 1})),
	)
	if err != nil {
		return nil, err
	}

	gonio, err := geom.NewGoniometer(r3.Vec{X: 1})
	if err != nil {
		return nil, err
	}
	scan, err := geom.NewScan(0, opts.ImageWidth, opts.Images)
	if err != nil {
		return nil, err
	}

	return &geom.Experiment{
		Beam: beam, Panel: panel, Crystal: xtal,
		Goniometer: gonio, Scan: scan,
	}, nil
}

// generate predicts every index inside the resolution sphere over both
// branches and records the in-sweep, on-panel ones as observations.
func (ds *Dataset) generate(expIdx int, exp *geom.Experiment) error {
	opts := ds.opts
	a := exp.Crystal.A()

	// Conservative index bounds from the largest cell edge.
	hmax := int(math.Ceil(14 * (1 + 0.02*float64(expIdx)) / opts.DMin))

	varXY := (opts.PixelSize / 2) * (opts.PixelSize / 2)
	varPhi := (opts.ImageWidth / 2) * (opts.ImageWidth / 2)
	extentF := opts.PixelSize * float64(exp.Panel.ImageSize()[0])
	extentS := opts.PixelSize * float64(exp.Panel.ImageSize()[1])

	for h := -hmax; h <= hmax; h++ {
		for k := -hmax; k <= hmax; k++ {
			for l := -hmax; l <= hmax; l++ {
				if h == 0 && k == 0 && l == 0 {
					continue
				}
				hkl := [3]int{h, k, l}
				r0 := geom.MulVec(a, r3.Vec{X: float64(h), Y: float64(k), Z: float64(l)})
				if r3.Norm(r0) > 1/opts.DMin {
					continue
				}
				for _, branch := range [2]bool{true, false} {
					probe := refl.Observation{Experiment: expIdx, HKL: hkl, Branch: branch}
					calc, _, err := ds.Predictor.Predict(&probe)
					if err != nil {
						continue // index never crosses the sphere
					}
					if !exp.Scan.Contains(calc[2]) {
						continue
					}
					if calc[0] < 0 || calc[0] > extentF || calc[1] < 0 || calc[1] > extentS {
						continue
					}
					probe.Observed = calc
					probe.Variance = [refl.Dims]float64{varXY, varXY, varPhi}
					ds.Observations = append(ds.Observations, probe)
				}
			}
		}
	}

	return nil
}
