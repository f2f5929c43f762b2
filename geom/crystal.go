package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Crystal models the sample as an orientation matrix U (pure rotation) and
// a reciprocal-space cell matrix B (upper triangular, 1/Å). The setting
// matrix A = U·B maps a Miller index h to the reciprocal lattice vector
// r0 = A·h in the zero-rotation lab frame.
type Crystal struct {
	u *mat.Dense
	b *mat.Dense
}

// NewCrystalFromCell builds a Crystal from real-space cell vectors a, b, c
// (Å). The reciprocal basis is formed, then factored A = U·B with U a
// rotation and B upper triangular with positive diagonal, so that the cell
// shape and the crystal orientation are carried separately.
//
// Returns ErrBadCell when the cell volume vanishes.
func NewCrystalFromCell(a, b, c r3.Vec) (*Crystal, error) {
	vol := r3.Dot(a, r3.Cross(b, c))
	if math.Abs(vol) < 1e-12 {
		return nil, ErrBadCell
	}

	// Reciprocal basis: a* = (b×c)/V, cyclic.
	as := r3.Scale(1/vol, r3.Cross(b, c))
	bs := r3.Scale(1/vol, r3.Cross(c, a))
	cs := r3.Scale(1/vol, r3.Cross(a, b))

	setting := mat.NewDense(3, 3, []float64{
		as.X, bs.X, cs.X,
		as.Y, bs.Y, cs.Y,
		as.Z, bs.Z, cs.Z,
	})

	// A = Q·R is exactly the U·B split we want, up to column signs.
	var qr mat.QR
	qr.Factorize(setting)
	u := mat.NewDense(3, 3, nil)
	bm := mat.NewDense(3, 3, nil)
	qr.QTo(u)
	qr.RTo(bm)

	// Force positive diagonal on B, absorbing signs into U, so that the
	// cell parameterisation sees a canonical triangular form.
	for j := 0; j < 3; j++ {
		if bm.At(j, j) < 0 {
			for k := 0; k < 3; k++ {
				bm.Set(j, k, -bm.At(j, k))
				u.Set(k, j, -u.At(k, j))
			}
		}
	}

	return &Crystal{u: u, b: bm}, nil
}

// U returns the orientation matrix. The returned matrix is the live state;
// callers must not mutate it - use SetU.
func (c *Crystal) U() *mat.Dense { return c.u }

// B returns the reciprocal cell matrix (upper triangular).
func (c *Crystal) B() *mat.Dense { return c.b }

// A returns the setting matrix U·B.
func (c *Crystal) A() *mat.Dense {
	var a mat.Dense
	a.Mul(c.u, c.b)

	return &a
}

// SetU replaces the orientation matrix with a copy of u.
func (c *Crystal) SetU(u mat.Matrix) {
	c.u = mat.DenseCopyOf(u)
}

// SetB replaces the reciprocal cell matrix with a copy of b.
func (c *Crystal) SetB(b mat.Matrix) {
	c.b = mat.DenseCopyOf(b)
}
