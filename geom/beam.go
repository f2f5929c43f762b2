package geom

import "gonum.org/v1/gonum/spatial/r3"

// Beam models the incident beam: a unit direction pointing from source to
// sample and a wavelength in Ångström.
type Beam struct {
	dir        r3.Vec
	wavelength float64
}

// NewBeam builds a Beam from a (not necessarily unit) direction and a
// wavelength. Returns ErrZeroVector or ErrBadWavelength on bad input.
func NewBeam(dir r3.Vec, wavelength float64) (*Beam, error) {
	if r3.Norm(dir) == 0 {
		return nil, ErrZeroVector
	}
	if wavelength <= 0 {
		return nil, ErrBadWavelength
	}

	return &Beam{dir: r3.Unit(dir), wavelength: wavelength}, nil
}

// Direction returns the unit beam direction.
func (b *Beam) Direction() r3.Vec { return b.dir }

// Wavelength returns the wavelength in Ångström.
func (b *Beam) Wavelength() float64 { return b.wavelength }

// S0 returns the incident wavevector s0 = direction / wavelength (1/Å).
func (b *Beam) S0() r3.Vec { return r3.Scale(1/b.wavelength, b.dir) }

// SetDirection overwrites the beam direction. The vector is normalised; a
// zero vector is stored as-is and surfaces later as a degenerate
// prediction, matching the no-clamping contract of the parameterisations.
func (b *Beam) SetDirection(dir r3.Vec) {
	if n := r3.Norm(dir); n > 0 {
		dir = r3.Scale(1/n, dir)
	}
	b.dir = dir
}
