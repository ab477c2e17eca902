package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, x.Shape())
	assert.Equal(t, 6, x.NumElements())

	_, err = FromSlice([]float64{1, 2}, Shape{2, 3})
	assert.Error(t, err)

	_, err = FromSlice(nil, Shape{0, 3})
	assert.Error(t, err)
}

func TestFromSliceCopies(t *testing.T) {
	data := []float64{1, 2}
	x, err := FromSlice(data, Shape{2})
	require.NoError(t, err)
	data[0] = 42
	assert.Equal(t, 1.0, x.Data()[0])
}

func TestReshape(t *testing.T) {
	x := Ones(Shape{2, 3, 4})
	y, err := x.Reshape(Shape{2, 12})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 12}, y.Shape())

	_, err = x.Reshape(Shape{5, 5})
	assert.Error(t, err)
}

func TestRowsWithRepeats(t *testing.T) {
	x, err := FromSlice([]float64{0, 1, 10, 11, 20, 21}, Shape{3, 2})
	require.NoError(t, err)

	got := x.Rows([]int{2, 2, 0})
	assert.Equal(t, Shape{3, 2}, got.Shape())
	assert.Equal(t, []float64{20, 21, 20, 21, 0, 1}, got.Data())
}

func TestMatMul(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	b, _ := FromSlice([]float64{7, 8, 9, 10, 11, 12}, Shape{3, 2})

	got := MatMul(a, b)
	assert.Equal(t, Shape{2, 2}, got.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, got.Data())
}

func TestTranspose(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	got := Transpose(a)
	assert.Equal(t, Shape{3, 2}, got.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, got.Data())
}

func TestRowAndColumnReductions(t *testing.T) {
	x, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	assert.Equal(t, []float64{5, 7, 9}, SumRows(x).Data())
	assert.Equal(t, []float64{6, 15}, SumCols(x).Data())
	assert.Equal(t, Shape{2, 1}, SumCols(x).Shape())

	v, _ := FromSlice([]float64{1, 2, 3}, Shape{3})
	assert.Equal(t, []float64{2, 4, 6, 5, 7, 9}, AddRowVector(x, v).Data())
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, BroadcastRows(v, 2).Data())

	c, _ := FromSlice([]float64{1, 2}, Shape{2, 1})
	assert.Equal(t, []float64{1, 1, 1, 2, 2, 2}, BroadcastCols(c, 3).Data())
}

func TestElementwise(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3}, Shape{3})
	b, _ := FromSlice([]float64{4, 5, 6}, Shape{3})

	assert.Equal(t, []float64{5, 7, 9}, Add(a, b).Data())
	assert.Equal(t, []float64{-3, -3, -3}, Sub(a, b).Data())
	assert.Equal(t, []float64{4, 10, 18}, Mul(a, b).Data())
	assert.Equal(t, []float64{2, 4, 6}, Scale(a, 2).Data())
	assert.Equal(t, []float64{2, 3, 4}, AddScalar(a, 1).Data())
	assert.Equal(t, []float64{1, 2, 3}, a.Data(), "kernels must not mutate inputs")

	assert.Panics(t, func() { Add(a, Ones(Shape{2})) })
}

func TestEqualIsBitwise(t *testing.T) {
	a, _ := FromSlice([]float64{0.1, 0.2}, Shape{2})
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.Data()[1] = math.Nextafter(0.2, 1)
	assert.False(t, a.Equal(b))

	c, _ := FromSlice([]float64{0.1, 0.2}, Shape{1, 2})
	assert.False(t, a.Equal(c))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(Ones(Shape{3})))
	assert.False(t, IsFinite(Full(Shape{2}, math.NaN())))
	assert.False(t, IsFinite(Full(Shape{2}, math.Inf(-1))))
}

func TestRandomCreationIsSeeded(t *testing.T) {
	a := Randn(Shape{16}, NewRNG(7))
	b := Randn(Shape{16}, NewRNG(7))
	assert.True(t, a.Equal(b))

	u := Uniform(Shape{256}, 0, 1, NewRNG(1))
	for _, v := range u.Data() {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestShapeHelpers(t *testing.T) {
	s := Shape{28, 28, 1}
	assert.Equal(t, 784, s.NumElements())
	assert.Equal(t, Shape{32, 28, 28, 1}, s.Batched(32))
	assert.Equal(t, "(28, 28, 1)", s.String())
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Error(t, Shape{3, 0}.Validate())
}
