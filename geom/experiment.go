package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Goniometer is a single rotation axis in the lab frame.
type Goniometer struct {
	axis r3.Vec // unit
}

// NewGoniometer builds a Goniometer about the given (nonzero) axis.
func NewGoniometer(axis r3.Vec) (*Goniometer, error) {
	if r3.Norm(axis) == 0 {
		return nil, ErrZeroVector
	}

	return &Goniometer{axis: r3.Unit(axis)}, nil
}

// Axis returns the unit rotation axis.
func (g *Goniometer) Axis() r3.Vec { return g.axis }

// Scan is a contiguous rotation sweep: a start angle, a per-image
// oscillation width (both radians) and an image count.
type Scan struct {
	start  float64
	width  float64
	images int
}

// NewScan validates and builds a Scan. Returns ErrBadScan for non-positive
// width or image count.
func NewScan(start, width float64, images int) (*Scan, error) {
	if width <= 0 || images <= 0 {
		return nil, ErrBadScan
	}

	return &Scan{start: start, width: width, images: images}, nil
}

// ImageWidth returns the oscillation width of one image in radians.
func (s *Scan) ImageWidth() float64 { return s.width }

// Range returns the [lo, hi) sweep interval in radians.
func (s *Scan) Range() (lo, hi float64) {
	return s.start, s.start + s.width*float64(s.images)
}

// Contains reports whether angle phi (already reduced to [0, 2π)) falls
// inside the sweep. Sweeps wider than a full turn accept everything.
func (s *Scan) Contains(phi float64) bool {
	lo, hi := s.Range()
	if hi-lo >= 2*math.Pi {
		return true
	}
	// Reduce phi into [lo, lo+2π).
	for phi < lo {
		phi += 2 * math.Pi
	}
	for phi >= lo+2*math.Pi {
		phi -= 2 * math.Pi
	}

	return phi < hi
}

// Experiment bundles the models one observation batch refers to. Multiple
// experiments may share nothing or everything; the parameterisation layer
// decides which experiments each parameterisation covers.
type Experiment struct {
	Beam       *Beam
	Panel      *Panel
	Crystal    *Crystal
	Goniometer *Goniometer
	Scan       *Scan
}
