package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Skew returns the cross-product (skew-symmetric) matrix K of v,
// so that K·u == v × u for any u.
func Skew(v r3.Vec) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	})
}

// Rotation returns the 3x3 rotation matrix for a right-handed rotation of
// angle radians about axis. The axis is normalised internally; a zero axis
// yields the identity.
//
// Rodrigues form: R = I + sinθ·K + (1−cosθ)·K², K = Skew(axis).
func Rotation(axis r3.Vec, angle float64) *mat.Dense {
	r := mat.NewDense(3, 3, nil)
	if r3.Norm(axis) == 0 {
		identity(r)
		return r
	}
	k := Skew(r3.Unit(axis))
	var k2 mat.Dense
	k2.Mul(k, k)

	s, c := math.Sincos(angle)
	identity(r)
	addScaled(r, s, k)
	addScaled(r, 1-c, &k2)

	return r
}

// RotationDerivative returns dR/dθ for a rotation about axis evaluated at
// angle, i.e. K·R(axis, angle) with K the skew matrix of the unit axis.
func RotationDerivative(axis r3.Vec, angle float64) *mat.Dense {
	var d mat.Dense
	d.Mul(Skew(r3.Unit(axis)), Rotation(axis, angle))

	return &d
}

// MulVec applies a 3x3 matrix to an r3 vector.
func MulVec(m mat.Matrix, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}

// Mul3 multiplies a chain of 3x3 matrices left to right.
func Mul3(ms ...mat.Matrix) *mat.Dense {
	out := mat.NewDense(3, 3, nil)
	identity(out)
	var tmp mat.Dense
	for _, m := range ms {
		tmp.Mul(out, m)
		out.Copy(&tmp)
	}

	return out
}

func identity(m *mat.Dense) {
	m.Zero()
	m.Set(0, 0, 1)
	m.Set(1, 1, 1)
	m.Set(2, 2, 1)
}

// addScaled accumulates dst += f*m for 3x3 operands.
func addScaled(dst *mat.Dense, f float64, m mat.Matrix) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dst.Set(i, j, dst.At(i, j)+f*m.At(i, j))
		}
	}
}
