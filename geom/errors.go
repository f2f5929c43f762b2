package geom

import "errors"

var (
	// ErrZeroVector is returned when a direction or axis that must be
	// nonzero is supplied as the zero vector.
	ErrZeroVector = errors.New("geom: zero direction vector")

	// ErrBadWavelength is returned for a non-positive wavelength.
	ErrBadWavelength = errors.New("geom: wavelength must be positive")

	// ErrBadCell is returned when real-space cell vectors are coplanar or
	// degenerate (zero cell volume).
	ErrBadCell = errors.New("geom: degenerate unit cell")

	// ErrBadPanel is returned for a panel whose fast/slow axes are parallel
	// or whose pixel/image extents are non-positive.
	ErrBadPanel = errors.New("geom: invalid panel definition")

	// ErrBadScan is returned for a scan with non-positive image width or
	// image count.
	ErrBadScan = errors.New("geom: invalid scan definition")
)
