package geom

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// PanelConfig describes a single flat detector panel.
type PanelConfig struct {
	// Origin is the lab-frame position of pixel (0,0), in mm.
	Origin r3.Vec
	// Fast and Slow are the directions of increasing fast/slow pixel index.
	// They need not be unit on input but must not be parallel.
	Fast, Slow r3.Vec
	// PixelSize is the (fast, slow) pixel pitch in mm.
	PixelSize [2]float64
	// ImageSize is the (fast, slow) extent in pixels.
	ImageSize [2]int
}

// Panel is a single flat detector panel. Impact positions are expressed in
// millimetres along the fast and slow axes from the panel origin.
type Panel struct {
	origin     r3.Vec
	fast, slow r3.Vec // unit
	pixelSize  [2]float64
	imageSize  [2]int
}

// NewPanel validates cfg and builds a Panel. The fast/slow axes are
// normalised. Returns ErrBadPanel when the axes are (anti)parallel or the
// pixel/image extents are non-positive.
func NewPanel(cfg PanelConfig) (*Panel, error) {
	if r3.Norm(cfg.Fast) == 0 || r3.Norm(cfg.Slow) == 0 {
		return nil, ErrBadPanel
	}
	f, s := r3.Unit(cfg.Fast), r3.Unit(cfg.Slow)
	if r3.Norm(r3.Cross(f, s)) < 1e-12 {
		return nil, ErrBadPanel
	}
	if cfg.PixelSize[0] <= 0 || cfg.PixelSize[1] <= 0 ||
		cfg.ImageSize[0] <= 0 || cfg.ImageSize[1] <= 0 {
		return nil, ErrBadPanel
	}

	return &Panel{
		origin:    cfg.Origin,
		fast:      f,
		slow:      s,
		pixelSize: cfg.PixelSize,
		imageSize: cfg.ImageSize,
	}, nil
}

// Origin returns the lab-frame origin of the panel in mm.
func (p *Panel) Origin() r3.Vec { return p.origin }

// Fast returns the unit fast axis.
func (p *Panel) Fast() r3.Vec { return p.fast }

// Slow returns the unit slow axis.
func (p *Panel) Slow() r3.Vec { return p.slow }

// Normal returns the unit panel normal fast × slow.
func (p *Panel) Normal() r3.Vec { return r3.Unit(r3.Cross(p.fast, p.slow)) }

// PixelSize returns the (fast, slow) pixel pitch in mm.
func (p *Panel) PixelSize() [2]float64 { return p.pixelSize }

// ImageSize returns the (fast, slow) extent in pixels.
func (p *Panel) ImageSize() [2]int { return p.imageSize }

// SetFrame overwrites the panel frame. Axes are normalised when nonzero;
// degenerate frames are stored unchanged and surface as failed predictions.
func (p *Panel) SetFrame(fast, slow, origin r3.Vec) {
	if n := r3.Norm(fast); n > 0 {
		fast = r3.Scale(1/n, fast)
	}
	if n := r3.Norm(slow); n > 0 {
		slow = r3.Scale(1/n, slow)
	}
	p.fast, p.slow, p.origin = fast, slow, origin
}

// DMatrix returns the 3x3 matrix with columns (fast, slow, origin). Its
// inverse maps a lab-frame scattered ray to homogeneous panel coordinates.
func (p *Panel) DMatrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		p.fast.X, p.slow.X, p.origin.X,
		p.fast.Y, p.slow.Y, p.origin.Y,
		p.fast.Z, p.slow.Z, p.origin.Z,
	})
}
