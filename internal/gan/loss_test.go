package gan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/wgangp/internal/autodiff"
	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/tensor"
)

func TestInterpolate(t *testing.T) {
	real := tensor.Full(tensor.Shape{3, 2, 1}, 1)
	fake := tensor.Full(tensor.Shape{3, 2, 1}, -1)
	alpha, err := tensor.FromSlice([]float64{1, 0, 0.25}, tensor.Shape{3, 1})
	require.NoError(t, err)

	out, err := Interpolate(real, fake, alpha)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, -1, -1, -0.5, -0.5}, out.Data())
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1}, real.Data(), "inputs untouched")
}

func TestInterpolateFollowsRuntimeBatch(t *testing.T) {
	rng := tensor.NewRNG(3)
	for _, b := range []int{1, 7, 32, 33} {
		shape := tensor.Shape{b, 2, 2, 1}
		out, err := Interpolate(tensor.Randn(shape, rng), tensor.Randn(shape, rng), SampleAlpha(b, rng))
		require.NoError(t, err)
		assert.Equal(t, shape, out.Shape())
	}
}

func TestInterpolateRejectsMismatch(t *testing.T) {
	a := tensor.Zeros(tensor.Shape{2, 3})
	_, err := Interpolate(a, tensor.Zeros(tensor.Shape{2, 4}), tensor.Zeros(tensor.Shape{2, 1}))
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = Interpolate(a, a, tensor.Zeros(tensor.Shape{3, 1}))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestSampleAlphaRange(t *testing.T) {
	alpha := SampleAlpha(500, tensor.NewRNG(1))
	assert.Equal(t, tensor.Shape{500, 1}, alpha.Shape())
	for _, v := range alpha.Data() {
		assert.True(t, v >= 0 && v < 1)
	}
}

func TestWassersteinLoss(t *testing.T) {
	tp := autodiff.NoGrad()
	scores, err := tensor.FromSlice([]float64{2, -4}, tensor.Shape{2, 1})
	require.NoError(t, err)
	labels := NewLabels(2)

	assert.Equal(t, 1.0, WassersteinLoss(tp, labels.Valid, tp.Constant(scores)).Item())
	assert.Equal(t, -1.0, WassersteinLoss(tp, labels.Fake, tp.Constant(scores)).Item())
	assert.Equal(t, 0.0, WassersteinLoss(tp, labels.Dummy, tp.Constant(scores)).Item())
}

func TestNewLabels(t *testing.T) {
	l := NewLabels(4)
	for _, x := range []*tensor.Tensor{l.Valid, l.Fake, l.Dummy} {
		assert.Equal(t, tensor.Shape{4, 1}, x.Shape())
	}
	assert.Equal(t, -1.0, l.Valid.Data()[3])
	assert.Equal(t, 1.0, l.Fake.Data()[0])
	assert.Equal(t, 0.0, l.Dummy.Data()[2])
}

func zeroCritic(t *testing.T, img tensor.Shape) *nn.Sequential {
	t.Helper()
	critic, err := nn.CriticMLP(img, []int{5}).Build(tensor.NewRNG(1))
	require.NoError(t, err)
	for _, p := range critic.Parameters() {
		for i := range p.Tensor().Data() {
			p.Tensor().Data()[i] = 0
		}
	}
	return critic
}

func TestGradientPenaltyIsOneForZeroGradient(t *testing.T) {
	img := tensor.Shape{3, 3, 1}
	critic := zeroCritic(t, img)
	for _, b := range []int{1, 2, 32} {
		tp := autodiff.NewTape()
		nn.NewParamGroup(GroupCritic, critic).Watch(tp)
		gp, err := GradientPenalty(tp, critic, tensor.Randn(img.Batched(b), tensor.NewRNG(uint64(b))))
		require.NoError(t, err)
		assert.Equal(t, 1.0, gp.Item(), "batch %d", b)

		grads, err := nn.NewParamGroup(GroupCritic, critic).Gradients(tp, gp)
		require.NoError(t, err)
		for p, g := range grads {
			assert.False(t, math.IsNaN(tensor.Sum(g)), "%s gradient is NaN", p.Name())
		}
	}
}

func TestGradientPenaltyOfLinearCritic(t *testing.T) {
	// critic(x) = w.x + b has input gradient w for every sample.
	img := tensor.Shape{2, 1, 1}
	critic, err := nn.CriticMLP(img, nil).Build(tensor.NewRNG(1))
	require.NoError(t, err)
	w := critic.Parameters()[0].Tensor()
	require.Equal(t, tensor.Shape{1, 2}, w.Shape())
	w.Data()[0], w.Data()[1] = 3, 4

	tp := autodiff.NewTape()
	gp, err := GradientPenalty(tp, critic, tensor.Randn(img.Batched(4), tensor.NewRNG(2)))
	require.NoError(t, err)
	assert.InDelta(t, 16.0, gp.Item(), 1e-12) // (1 - 5)^2
}

func TestGradientPenaltyNonNegative(t *testing.T) {
	img := tensor.Shape{2, 2, 1}
	for seed := uint64(0); seed < 10; seed++ {
		critic, err := nn.CriticMLP(img, []int{6, 6}).Build(tensor.NewRNG(seed))
		require.NoError(t, err)
		tp := autodiff.NewTape()
		gp, err := GradientPenalty(tp, critic, tensor.Randn(img.Batched(int(seed)+1), tensor.NewRNG(seed)))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, gp.Item(), 0.0)
	}
}

func TestGradientPenaltyNeedsRecordingTape(t *testing.T) {
	critic := zeroCritic(t, tensor.Shape{1, 1, 1})
	_, err := GradientPenalty(autodiff.NoGrad(), critic, tensor.Zeros(tensor.Shape{1, 1, 1, 1}))
	assert.Error(t, err)
}

func TestCriticObjectiveWeights(t *testing.T) {
	img := tensor.Shape{2, 2, 1}
	critic, err := nn.CriticMLP(img, []int{3}).Build(tensor.NewRNG(4))
	require.NoError(t, err)
	rng := tensor.NewRNG(5)
	real := tensor.Randn(img.Batched(3), rng)
	fake := tensor.Randn(img.Batched(3), rng)
	interp, err := Interpolate(real, fake, SampleAlpha(3, rng))
	require.NoError(t, err)

	tp := autodiff.NewTape()
	nn.NewParamGroup(GroupCritic, critic).Watch(tp)
	terms, err := CriticObjective(tp, critic, real, fake, interp, NewLabels(3), 10)
	require.NoError(t, err)
	v := terms.Values()
	assert.InDelta(t, v.Real+v.Fake+10*v.Penalty, v.Total, 1e-12)

	// The real term is mean(-critic(real)).
	ng := autodiff.NoGrad()
	assert.InDelta(t, -tensor.Mean(critic.Forward(ng, ng.Constant(real)).Value()), v.Real, 1e-12)
	assert.InDelta(t, tensor.Mean(critic.Forward(ng, ng.Constant(fake)).Value()), v.Fake, 1e-12)
}

func TestGeneratorObjective(t *testing.T) {
	img := tensor.Shape{2, 2, 1}
	rng := tensor.NewRNG(6)
	gen, err := nn.GeneratorMLP(3, img, []int{4}).Build(rng)
	require.NoError(t, err)
	critic, err := nn.CriticMLP(img, []int{4}).Build(rng)
	require.NoError(t, err)
	z := tensor.Randn(tensor.Shape{5, 3}, rng)

	tp := autodiff.NoGrad()
	got := GeneratorObjective(tp, gen, critic, z, NewLabels(5)).Item()
	want := -tensor.Mean(critic.Forward(tp, gen.Forward(tp, tp.Constant(z))).Value())
	assert.InDelta(t, want, got, 1e-12)
}
