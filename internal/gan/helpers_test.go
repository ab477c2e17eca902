package gan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/wgangp/internal/dataset"
	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/optim"
	"github.com/born-ml/wgangp/internal/tensor"
)

// tinyConfig is a 2x2x1 setup small enough to run hundreds of epochs.
func tinyConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ImgShape = tensor.Shape{2, 2, 1}
	cfg.LatentDim = 3
	cfg.NCritic = 2
	cfg.ModelName = "tiny"
	cfg.ModelDir = t.TempDir()
	cfg.GeneratorOptimizer = optim.Config{Name: optim.NameAdam}
	cfg.CriticOptimizer = optim.Config{Name: optim.NameAdam}
	return cfg
}

func randomImages(t *testing.T, shape tensor.Shape, seed uint64) dataset.Dataset {
	t.Helper()
	pixels := tensor.Uniform(shape, 0, 255, tensor.NewRNG(seed))
	ds, err := dataset.NewInMemory(pixels)
	require.NoError(t, err)
	return ds
}

func buildTrainer(t *testing.T, cfg Config, opts ...Option) *Trainer {
	t.Helper()
	data := randomImages(t, cfg.ImgShape.Batched(6), 42)
	opts = append([]Option{WithSeed(1), WithDataset(data)}, opts...)
	tr, err := Build(cfg,
		nn.GeneratorMLP(cfg.LatentDim, cfg.ImgShape, []int{4}),
		nn.CriticMLP(cfg.ImgShape, []int{4}),
		opts...)
	require.NoError(t, err)
	return tr
}

func snapshot(net nn.Network) map[string]*tensor.Tensor {
	out := make(map[string]*tensor.Tensor)
	for name, w := range net.StateDict() {
		out[name] = w.Clone()
	}
	return out
}

func requireUnchanged(t *testing.T, before map[string]*tensor.Tensor, net nn.Network) {
	t.Helper()
	for name, w := range net.StateDict() {
		require.True(t, before[name].Equal(w), "%s changed", name)
	}
}

func requireSomeChanged(t *testing.T, before map[string]*tensor.Tensor, net nn.Network) {
	t.Helper()
	for name, w := range net.StateDict() {
		if !before[name].Equal(w) {
			return
		}
	}
	t.Fatalf("no parameter of %s changed", net.Architecture().Name)
}
