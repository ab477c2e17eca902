package optim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/optim"
	"github.com/born-ml/wgangp/internal/tensor"
)

func scalarParam(t *testing.T, name string, v float64) *nn.Parameter {
	t.Helper()
	x, err := tensor.FromSlice([]float64{v}, tensor.Shape{1})
	require.NoError(t, err)
	return nn.NewParameter(name, x)
}

func gradOf(param *nn.Parameter, v float64) map[*nn.Parameter]*tensor.Tensor {
	return map[*nn.Parameter]*tensor.Tensor{param: tensor.Full(tensor.Shape{1}, v)}
}

func TestSGD_SimpleUpdate(t *testing.T) {
	param := scalarParam(t, "x", 2.0)
	opt := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1})

	opt.Step(gradOf(param, 1.0))
	assert.InDelta(t, 1.9, param.Tensor().Item(), 1e-12)
}

func TestSGD_WithMomentum(t *testing.T) {
	param := scalarParam(t, "x", 1.0)
	opt := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	opt.Step(gradOf(param, 1.0)) // v = 1, x = 0.9
	opt.Step(gradOf(param, 1.0)) // v = 1.9, x = 0.71
	assert.InDelta(t, 0.71, param.Tensor().Item(), 1e-12)
}

func TestAdam_FirstStepMovesByLR(t *testing.T) {
	param := scalarParam(t, "x", 1.0)
	opt := optim.NewAdam([]*nn.Parameter{param}, optim.AdamConfig{})

	// With bias correction the first update is lr * g/|g|.
	opt.Step(gradOf(param, 3.0))
	assert.InDelta(t, 1.0-1e-4, param.Tensor().Item(), 1e-10)
	assert.Equal(t, 1, opt.Steps())
}

func TestRMSprop_FirstStep(t *testing.T) {
	param := scalarParam(t, "x", 0.0)
	opt := optim.NewRMSprop([]*nn.Parameter{param}, optim.RMSpropConfig{LR: 0.01})

	opt.Step(gradOf(param, 2.0))
	// avg = 0.1 * 4 = 0.4
	want := -0.01 * 2.0 / (math.Sqrt(0.4) + 1e-7)
	assert.InDelta(t, want, param.Tensor().Item(), 1e-12)
}

func TestStepSkipsParametersWithoutGradient(t *testing.T) {
	a := scalarParam(t, "a", 1.0)
	b := scalarParam(t, "b", 1.0)
	for _, cfg := range []optim.Config{{Name: "sgd", LR: 0.1}, {Name: "adam"}, {Name: "rmsprop"}} {
		opt, err := optim.New(cfg, []*nn.Parameter{a, b})
		require.NoError(t, err)
		opt.Step(gradOf(a, 1.0))
		assert.Equal(t, 1.0, b.Tensor().Item(), cfg.Name)
	}
}

func TestStepPanicsOnShapeMismatch(t *testing.T) {
	param := scalarParam(t, "x", 1.0)
	opt := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{})
	assert.Panics(t, func() {
		opt.Step(map[*nn.Parameter]*tensor.Tensor{param: tensor.Zeros(tensor.Shape{2})})
	})
}

func TestNew(t *testing.T) {
	opt, err := optim.New(optim.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "rmsprop", opt.Name())
	assert.Equal(t, 0.00005, opt.LR())

	opt, err = optim.New(optim.Config{Name: "Adam"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "adam", opt.Name())

	_, err = optim.New(optim.Config{Name: "lbfgs"}, nil)
	assert.Error(t, err)
	_, err = optim.New(optim.Config{Name: "sgd", LR: -1}, nil)
	assert.Error(t, err)
}

// TestStateDictResumesTrajectory checks that an optimizer restored from its
// state dict continues exactly like the optimizer it was taken from.
func TestStateDictResumesTrajectory(t *testing.T) {
	for _, name := range []string{"sgd", "adam", "rmsprop"} {
		t.Run(name, func(t *testing.T) {
			cfg := optim.Config{Name: name, LR: 0.01, Momentum: 0.9}
			p1 := scalarParam(t, "w", 0.5)
			o1, err := optim.New(cfg, []*nn.Parameter{p1})
			require.NoError(t, err)
			o1.Step(gradOf(p1, 0.3))
			o1.Step(gradOf(p1, -0.7))

			p2 := scalarParam(t, "w", p1.Tensor().Item())
			o2, err := optim.New(cfg, []*nn.Parameter{p2})
			require.NoError(t, err)
			require.NoError(t, o2.LoadStateDict(o1.StateDict()))

			o1.Step(gradOf(p1, 0.2))
			o2.Step(gradOf(p2, 0.2))
			assert.Equal(t, p1.Tensor().Item(), p2.Tensor().Item())
		})
	}
}

func TestLoadStateDictRejectsUnknownEntries(t *testing.T) {
	param := scalarParam(t, "w", 0.5)
	opt := optim.NewRMSprop([]*nn.Parameter{param}, optim.RMSpropConfig{})
	err := opt.LoadStateDict(map[string]*tensor.Tensor{"other.square_avg": tensor.Zeros(tensor.Shape{1})})
	assert.Error(t, err)

	err = opt.LoadStateDict(map[string]*tensor.Tensor{"w.square_avg": tensor.Zeros(tensor.Shape{3})})
	assert.Error(t, err)

	adam := optim.NewAdam([]*nn.Parameter{param}, optim.AdamConfig{})
	assert.Error(t, adam.LoadStateDict(map[string]*tensor.Tensor{}), "missing step")
}
