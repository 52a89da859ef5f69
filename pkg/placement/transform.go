package placement

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Transform is a 4x4 homogeneous matrix stored row-major.
// Column 3 (indices 3, 7, 11) holds the translation.
type Transform [16]float64

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// At returns the element at row r, column c.
func (t Transform) At(r, c int) float64 {
	return t[r*4+c]
}

// Translation returns the x, y, z components of column 3.
func (t Transform) Translation() [3]float64 {
	return [3]float64{t[3], t[7], t[11]}
}

// Mul returns t × o.
func (t Transform) Mul(o Transform) Transform {
	var out mat.Dense
	out.Mul(t.dense(), o.dense())

	var r Transform
	raw := out.RawMatrix()
	for i := 0; i < 4; i++ {
		copy(r[i*4:i*4+4], raw.Data[i*raw.Stride:i*raw.Stride+4])
	}
	return r
}

// dense wraps a copy of t; mat.NewDense aliases the backing slice.
func (t Transform) dense() *mat.Dense {
	data := make([]float64, 16)
	copy(data, t[:])
	return mat.NewDense(4, 4, data)
}

// RotationX returns a right-handed rotation of rad radians around the X axis.
func RotationX(rad float64) Transform {
	s, c := math.Sincos(rad)
	return Transform{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}
}

// RotationY returns a right-handed rotation of rad radians around the Y axis.
func RotationY(rad float64) Transform {
	s, c := math.Sincos(rad)
	return Transform{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// TranslationZ returns an identity transform moved z along the local Z axis.
func TranslationZ(z float64) Transform {
	t := Identity()
	t[11] = z
	return t
}
