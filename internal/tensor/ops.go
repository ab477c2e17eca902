package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/wgangp/internal/parallel"
)

// kernelConfig splits large element-wise kernels across CPUs.
var kernelConfig = parallel.DefaultConfig()

func mustSameShape(op string, a, b *Tensor) {
	if !a.shape.Equal(b.shape) {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", op, a.shape, b.shape))
	}
}

func mustRank(op string, t *Tensor, rank int) {
	if len(t.shape) != rank {
		panic(fmt.Sprintf("%s: expected rank %d, got shape %v", op, rank, t.shape))
	}
}

func like(t *Tensor) *Tensor {
	return &Tensor{shape: t.shape.Clone(), data: make([]float64, len(t.data))}
}

// Add returns a + b element-wise.
func Add(a, b *Tensor) *Tensor {
	mustSameShape("Add", a, b)
	out := like(a)
	floats.AddTo(out.data, a.data, b.data)
	return out
}

// Sub returns a - b element-wise.
func Sub(a, b *Tensor) *Tensor {
	mustSameShape("Sub", a, b)
	out := like(a)
	floats.SubTo(out.data, a.data, b.data)
	return out
}

// Mul returns a * b element-wise.
func Mul(a, b *Tensor) *Tensor {
	mustSameShape("Mul", a, b)
	out := like(a)
	floats.MulTo(out.data, a.data, b.data)
	return out
}

// Scale returns c * a.
func Scale(a *Tensor, c float64) *Tensor {
	out := like(a)
	floats.ScaleTo(out.data, c, a.data)
	return out
}

// AddScalar returns a + c.
func AddScalar(a *Tensor, c float64) *Tensor {
	out := a.Clone()
	floats.AddConst(c, out.data)
	return out
}

// Map applies f to every element. Large tensors are split across goroutines,
// so f must be safe for concurrent use.
func Map(a *Tensor, f func(float64) float64) *Tensor {
	out := like(a)
	parallel.Chunks(len(a.data), func(start, end int) {
		for i := start; i < end; i++ {
			out.data[i] = f(a.data[i])
		}
	}, kernelConfig)
	return out
}

// MatMul returns the matrix product of a [m, k] and b [k, n].
func MatMul(a, b *Tensor) *Tensor {
	mustRank("MatMul", a, 2)
	mustRank("MatMul", b, 2)
	m, k := a.shape[0], a.shape[1]
	k2, n := b.shape[0], b.shape[1]
	if k != k2 {
		panic(fmt.Sprintf("MatMul: inner dimensions differ: %v @ %v", a.shape, b.shape))
	}
	out := Zeros(Shape{m, n})
	dst := mat.NewDense(m, n, out.data)
	dst.Mul(mat.NewDense(m, k, a.data), mat.NewDense(k, n, b.data))
	return out
}

// Transpose swaps the two axes of a matrix.
func Transpose(a *Tensor) *Tensor {
	mustRank("Transpose", a, 2)
	m, n := a.shape[0], a.shape[1]
	out := Zeros(Shape{n, m})
	mat.NewDense(n, m, out.data).Copy(mat.NewDense(m, n, a.data).T())
	return out
}

// AddRowVector adds v [n] to every row of x [b, n].
func AddRowVector(x, v *Tensor) *Tensor {
	mustRank("AddRowVector", x, 2)
	if len(v.data) != x.shape[1] {
		panic(fmt.Sprintf("AddRowVector: vector %v does not match rows of %v", v.shape, x.shape))
	}
	out := x.Clone()
	n := x.shape[1]
	for r := 0; r < x.shape[0]; r++ {
		floats.Add(out.data[r*n:(r+1)*n], v.data)
	}
	return out
}

// SumRows reduces x [b, n] over its first axis, returning [n].
func SumRows(x *Tensor) *Tensor {
	mustRank("SumRows", x, 2)
	n := x.shape[1]
	out := Zeros(Shape{n})
	for r := 0; r < x.shape[0]; r++ {
		floats.Add(out.data, x.data[r*n:(r+1)*n])
	}
	return out
}

// BroadcastRows repeats v [n] into [rows, n].
func BroadcastRows(v *Tensor, rows int) *Tensor {
	mustRank("BroadcastRows", v, 1)
	n := v.shape[0]
	out := Zeros(Shape{rows, n})
	for r := 0; r < rows; r++ {
		copy(out.data[r*n:(r+1)*n], v.data)
	}
	return out
}

// SumCols reduces x [b, n] over its second axis, returning [b, 1].
func SumCols(x *Tensor) *Tensor {
	mustRank("SumCols", x, 2)
	b, n := x.shape[0], x.shape[1]
	out := Zeros(Shape{b, 1})
	for r := 0; r < b; r++ {
		out.data[r] = floats.Sum(x.data[r*n : (r+1)*n])
	}
	return out
}

// BroadcastCols repeats v [b, 1] into [b, cols].
func BroadcastCols(v *Tensor, cols int) *Tensor {
	if len(v.shape) != 2 || v.shape[1] != 1 {
		panic(fmt.Sprintf("BroadcastCols: expected [b, 1], got %v", v.shape))
	}
	b := v.shape[0]
	out := Zeros(Shape{b, cols})
	for r := 0; r < b; r++ {
		row := out.data[r*cols : (r+1)*cols]
		for c := range row {
			row[c] = v.data[r]
		}
	}
	return out
}

// Sum returns the sum of all elements.
func Sum(x *Tensor) float64 {
	return floats.Sum(x.data)
}

// Mean returns the mean of all elements.
func Mean(x *Tensor) float64 {
	return floats.Sum(x.data) / float64(len(x.data))
}

// IsFinite reports whether x holds no NaN or infinity.
func IsFinite(x *Tensor) bool {
	if floats.HasNaN(x.data) {
		return false
	}
	for _, v := range x.data {
		if math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
