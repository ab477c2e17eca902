package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/wgangp/internal/autodiff"
	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/tensor"
)

func TestGeneratorAndCriticShapes(t *testing.T) {
	img := tensor.Shape{28, 28, 1}
	rng := tensor.NewRNG(1)

	gen, err := nn.GeneratorMLP(100, img, []int{64}).Build(rng)
	require.NoError(t, err)
	critic, err := nn.CriticMLP(img, []int{32}).Build(rng)
	require.NoError(t, err)

	tp := autodiff.NoGrad()
	fake := gen.Forward(tp, tp.Constant(tensor.Randn(tensor.Shape{3, 100}, rng)))
	assert.Equal(t, tensor.Shape{3, 28, 28, 1}, fake.Shape())
	for _, v := range fake.Value().Data() {
		assert.True(t, v > -1 && v < 1)
	}

	score := critic.Forward(tp, fake)
	assert.Equal(t, tensor.Shape{3, 1}, score.Shape())
}

func TestArchitectureYAMLRoundTripRebuilds(t *testing.T) {
	arch := nn.CriticMLP(tensor.Shape{4, 4, 1}, []int{8, 8})
	data, err := nn.MarshalArchitecture(arch)
	require.NoError(t, err)

	decoded, err := nn.UnmarshalArchitecture(data)
	require.NoError(t, err)
	assert.Equal(t, arch, decoded)

	a, err := arch.Build(tensor.NewRNG(5))
	require.NoError(t, err)
	b, err := decoded.Build(tensor.NewRNG(5))
	require.NoError(t, err)
	for name, w := range a.StateDict() {
		assert.True(t, w.Equal(b.StateDict()[name]), "same seed must give same %s", name)
	}
	assert.Equal(t, arch, b.Architecture())
}

func TestArchitectureValidation(t *testing.T) {
	tests := []struct {
		name string
		arch nn.Architecture
	}{
		{"no layers", nn.Architecture{Name: "x", Input: []int{2}, Output: []int{2}}},
		{"bad input", nn.Architecture{Name: "x", Input: []int{0}, Output: []int{1},
			Layers: []nn.LayerSpec{{Type: nn.LayerLinear, In: 0, Out: 1}}}},
		{"width mismatch", nn.Architecture{Name: "x", Input: []int{3}, Output: []int{1},
			Layers: []nn.LayerSpec{{Type: nn.LayerLinear, In: 4, Out: 1}}}},
		{"linear on image", nn.Architecture{Name: "x", Input: []int{2, 2}, Output: []int{1},
			Layers: []nn.LayerSpec{{Type: nn.LayerLinear, In: 4, Out: 1}}}},
		{"bad reshape", nn.Architecture{Name: "x", Input: []int{6}, Output: []int{2, 2},
			Layers: []nn.LayerSpec{{Type: nn.LayerReshape, Shape: []int{2, 2}}}}},
		{"wrong output", nn.Architecture{Name: "x", Input: []int{3}, Output: []int{2},
			Layers: []nn.LayerSpec{{Type: nn.LayerLinear, In: 3, Out: 1}}}},
		{"unknown layer", nn.Architecture{Name: "x", Input: []int{3}, Output: []int{3},
			Layers: []nn.LayerSpec{{Type: "conv9d"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.arch.Validate())
			_, err := tt.arch.Build(tensor.NewRNG(1))
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalArchitectureRejectsUnknownKeys(t *testing.T) {
	_, err := nn.UnmarshalArchitecture([]byte("name: c\ninput: [2]\noutput: [1]\nlayers:\n  - {type: linear, in: 2, out: 1, bias: false}\n"))
	assert.Error(t, err)

	arch, err := nn.UnmarshalArchitecture([]byte("name: c\ninput: [2]\noutput: [1]\nlayers:\n  - {type: linear, in: 2, out: 1}\n"))
	require.NoError(t, err)
	assert.Equal(t, "c", arch.Name)
}
