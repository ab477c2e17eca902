package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/wgangp/internal/gan"
	"github.com/born-ml/wgangp/internal/optim"
	"github.com/born-ml/wgangp/internal/tensor"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 32, cfg.Training.BatchSize)
	assert.Equal(t, 100, cfg.Training.SampleInterval)
	assert.Equal(t, gan.DefaultConfig(), cfg.TrainerConfig())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed: 7
log:
  format: json
  level: debug
dataset:
  digits: [3, 8]
  limit: 500
model:
  name: digits_38
  n_critic: 3
  critic_optimizer:
    name: adam
    lr: 0.0001
    beta1: 0.5
    beta2: 0.9
training:
  epochs: 40
  nan_policy: abort
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, []int{3, 8}, cfg.Dataset.Digits)
	assert.Equal(t, "data/mnist", cfg.Dataset.Dir, "absent keys keep defaults")
	assert.Equal(t, 32, cfg.Training.BatchSize)
	assert.Equal(t, 40, cfg.Training.Epochs)

	tc := cfg.TrainerConfig()
	assert.Equal(t, "digits_38", tc.ModelName)
	assert.Equal(t, 3, tc.NCritic)
	assert.Equal(t, tensor.Shape{28, 28, 1}, tc.ImgShape)
	assert.Equal(t, optim.Config{Name: "adam", LR: 0.0001, Beta1: 0.5, Beta2: 0.9}, tc.CriticOptimizer)
	assert.Equal(t, optim.DefaultConfig(), tc.GeneratorOptimizer)

	m := cfg.MNIST()
	assert.Equal(t, 500, m.Limit)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("training:\n  epoch: 3\n"))
	assert.Error(t, err)
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"digit", func(c *Config) { c.Dataset.Digits = []int{10} }},
		{"limit", func(c *Config) { c.Dataset.Limit = -1 }},
		{"image shape", func(c *Config) { c.Model.ImgShape = []int{28, 28} }},
		{"hidden width", func(c *Config) { c.Model.CriticHidden = []int{0} }},
		{"batch size", func(c *Config) { c.Training.BatchSize = 0 }},
		{"interval", func(c *Config) { c.Training.SampleInterval = -1 }},
		{"nan policy", func(c *Config) { c.Training.NaNPolicy = "retry" }},
		{"grid", func(c *Config) { c.Sampling.Rows = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyOverrides(Overrides{Epochs: 5, Seed: 9, ModelDir: "out"})
	assert.Equal(t, 5, cfg.Training.Epochs)
	assert.Equal(t, uint64(9), cfg.Seed)
	assert.Equal(t, "out", cfg.Model.Dir)
	assert.Equal(t, 32, cfg.Training.BatchSize, "zero overrides are ignored")

	opts := cfg.TrainOptions()
	assert.Equal(t, gan.TrainOptions{Epochs: 5, BatchSize: 32, SampleInterval: 100, CheckpointInterval: 1000}, opts)

	off := 0
	cfg.ApplyOverrides(Overrides{SampleInterval: &off})
	assert.Equal(t, 0, cfg.Training.SampleInterval, "an explicit zero disables sampling")
	require.NoError(t, cfg.Validate())
}

func TestArchitecturesMatchConfig(t *testing.T) {
	cfg := Default()
	cfg.Model.ImgShape = []int{4, 4, 1}
	cfg.Model.LatentDim = 6
	gen, critic := cfg.Architectures()
	require.NoError(t, gen.Validate())
	require.NoError(t, critic.Validate())
	assert.Equal(t, []int{6}, gen.Input)
	assert.Equal(t, []int{4, 4, 1}, critic.Input)
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"
	var buf bytes.Buffer
	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "epoch", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"epoch":3`)
}
