package autodiff_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/wgangp/internal/autodiff"
	"github.com/born-ml/wgangp/internal/tensor"
)

func scalarTensor(v float64) *tensor.Tensor {
	t, _ := tensor.FromSlice([]float64{v}, tensor.Shape{1})
	return t
}

func TestSquareGradient(t *testing.T) {
	x := scalarTensor(3)
	tp := autodiff.NewTape()
	tp.Watch(x)

	xv := tp.Var(x)
	y := tp.Square(xv)
	grads, err := tp.Grad(y, []*autodiff.Variable{xv})
	require.NoError(t, err)
	assert.Equal(t, 6.0, grads[0].Item())
}

func TestVarReturnsSharedLeaf(t *testing.T) {
	w := scalarTensor(2)
	tp := autodiff.NewTape()
	tp.Watch(w)

	assert.Same(t, tp.Var(w), tp.Var(w))

	// y = w*3 + w*5 uses the leaf twice; gradients accumulate.
	y := tp.Add(tp.Scale(tp.Var(w), 3), tp.Scale(tp.Var(w), 5))
	grads, err := tp.Grad(y, []*autodiff.Variable{tp.Var(w)})
	require.NoError(t, err)
	assert.Equal(t, 8.0, grads[0].Item())
}

func TestUnwatchedTensorsAreConstants(t *testing.T) {
	w := scalarTensor(2)
	c := scalarTensor(5)
	tp := autodiff.NewTape()
	tp.Watch(w)

	assert.True(t, tp.Var(w).RequiresGrad())
	assert.False(t, tp.Var(c).RequiresGrad())

	y := tp.Mul(tp.Var(w), tp.Var(c))
	grads, err := tp.Grad(y, []*autodiff.Variable{tp.Var(w), tp.Var(c)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, grads[0].Item())
	assert.Equal(t, 0.0, grads[1].Item(), "constants get a zero gradient")
}

func TestGradOnConstantOutputFails(t *testing.T) {
	tp := autodiff.NewTape()
	y := tp.Scale(tp.Constant(scalarTensor(1)), 2)
	_, err := tp.Grad(y, nil)
	assert.ErrorIs(t, err, autodiff.ErrNotDifferentiable)
}

func TestNoGradRecordsNothing(t *testing.T) {
	w := scalarTensor(2)
	tp := autodiff.NoGrad()
	tp.Watch(w)

	y := tp.Tanh(tp.Scale(tp.Var(w), 2))
	assert.False(t, y.RequiresGrad())
	assert.Equal(t, 0, tp.NumOps())
	assert.InDelta(t, math.Tanh(4), y.Item(), 1e-15)
}

func TestGradWithoutCreateGraphRecordsNothing(t *testing.T) {
	x := scalarTensor(0.5)
	tp := autodiff.NewTape()
	tp.Watch(x)
	y := tp.Tanh(tp.Var(x))
	before := tp.NumOps()

	grads, err := tp.Grad(y, []*autodiff.Variable{tp.Var(x)})
	require.NoError(t, err)
	assert.Equal(t, before, tp.NumOps())
	assert.False(t, grads[0].RequiresGrad())

	grads, err = tp.Grad(y, []*autodiff.Variable{tp.Var(x)}, autodiff.CreateGraph())
	require.NoError(t, err)
	assert.Greater(t, tp.NumOps(), before)
	assert.True(t, grads[0].RequiresGrad())
}

func TestSecondDerivativeOfTanh(t *testing.T) {
	x := scalarTensor(0.3)
	tp := autodiff.NewTape()
	tp.Watch(x)
	xv := tp.Var(x)

	first, err := tp.Grad(tp.Tanh(xv), []*autodiff.Variable{xv}, autodiff.CreateGraph())
	require.NoError(t, err)
	second, err := tp.Grad(first[0], []*autodiff.Variable{xv})
	require.NoError(t, err)

	th := math.Tanh(0.3)
	assert.InDelta(t, 1-th*th, first[0].Item(), 1e-12)
	assert.InDelta(t, -2*th*(1-th*th), second[0].Item(), 1e-12)
}

func TestSqrtAtZeroHasZeroGradient(t *testing.T) {
	x := tensor.Zeros(tensor.Shape{2, 1})
	tp := autodiff.NewTape()
	tp.Watch(x)
	xv := tp.Var(x)

	y := tp.SumAll(tp.Sqrt(xv))
	grads, err := tp.Grad(y, []*autodiff.Variable{xv})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, grads[0].Value().Data())
}

func TestLeakyReLU(t *testing.T) {
	x, _ := tensor.FromSlice([]float64{-2, 3}, tensor.Shape{2})
	tp := autodiff.NewTape()
	tp.Watch(x)
	xv := tp.Var(x)

	y := tp.LeakyReLU(xv, 0.2)
	assert.InDeltaSlice(t, []float64{-0.4, 3}, y.Value().Data(), 1e-15)

	grads, err := tp.Grad(tp.SumAll(y), []*autodiff.Variable{xv})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 1}, grads[0].Value().Data())

	relu := autodiff.NoGrad().ReLU(tp.Constant(x))
	assert.Equal(t, []float64{0, 3}, relu.Value().Data())
}

func TestFlattenKeepsBatch(t *testing.T) {
	tp := autodiff.NoGrad()
	x := tp.Constant(tensor.Ones(tensor.Shape{4, 2, 3, 1}))
	assert.Equal(t, tensor.Shape{4, 6}, tp.Flatten(x).Shape())
}
