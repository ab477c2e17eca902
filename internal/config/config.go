// Package config loads the YAML run configuration for wgangp.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/wgangp/internal/dataset"
	"github.com/born-ml/wgangp/internal/gan"
	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/optim"
	"github.com/born-ml/wgangp/internal/tensor"
)

// Config captures the knobs for a training run.
type Config struct {
	Seed     uint64         `yaml:"seed"` // 0 seeds from the clock
	Log      LogConfig      `yaml:"log"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Model    ModelConfig    `yaml:"model"`
	Training TrainingConfig `yaml:"training"`
	Sampling SamplingConfig `yaml:"sampling"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Format string `yaml:"format"` // text or json
	Level  string `yaml:"level"`
}

// DatasetConfig points at the MNIST IDX files.
type DatasetConfig struct {
	Dir    string `yaml:"dir"`
	Digits []int  `yaml:"digits,flow"`
	Limit  int    `yaml:"limit"`
}

// ModelConfig describes the networks and the WGAN-GP hyperparameters.
type ModelConfig struct {
	Name               string       `yaml:"name"`
	Dir                string       `yaml:"dir"`
	ImgShape           []int        `yaml:"img_shape,flow"`
	LatentDim          int          `yaml:"latent_dim"`
	NCritic            int          `yaml:"n_critic"`
	GPWeight           float64      `yaml:"gp_weight"`
	GeneratorHidden    []int        `yaml:"generator_hidden,flow"`
	CriticHidden       []int        `yaml:"critic_hidden,flow"`
	GeneratorOptimizer optim.Config `yaml:"generator_optimizer"`
	CriticOptimizer    optim.Config `yaml:"critic_optimizer"`
}

// TrainingConfig controls the training loop.
type TrainingConfig struct {
	Epochs             int    `yaml:"epochs"`
	BatchSize          int    `yaml:"batch_size"`
	SampleInterval     int    `yaml:"sample_interval"`
	CheckpointInterval int    `yaml:"checkpoint_interval"`
	LogEvery           int    `yaml:"log_every"`
	NaNPolicy          string `yaml:"nan_policy"`
}

// SamplingConfig controls the sample sheets.
type SamplingConfig struct {
	Dir   string `yaml:"dir"`
	Rows  int    `yaml:"rows"`
	Cols  int    `yaml:"cols"`
	Scale int    `yaml:"scale"`
}

// Overrides captures CLI supplied values. Zero values leave the file's
// setting alone. SampleInterval is a pointer because 0 is meaningful: it
// turns sampling off.
type Overrides struct {
	Epochs         int
	BatchSize      int
	SampleInterval *int
	Seed           uint64
	DatasetDir     string
	ModelDir       string
}

// Default returns the MNIST run: 30000 epochs of batch 32, sampling every 100.
func Default() *Config {
	tc := gan.DefaultConfig()
	return &Config{
		Log:     LogConfig{Format: "text", Level: "info"},
		Dataset: DatasetConfig{Dir: "data/mnist"},
		Model: ModelConfig{
			Name:               tc.ModelName,
			Dir:                tc.ModelDir,
			ImgShape:           []int(tc.ImgShape),
			LatentDim:          tc.LatentDim,
			NCritic:            tc.NCritic,
			GPWeight:           tc.GPWeight,
			GeneratorHidden:    []int{256, 512},
			CriticHidden:       []int{512, 256},
			GeneratorOptimizer: tc.GeneratorOptimizer,
			CriticOptimizer:    tc.CriticOptimizer,
		},
		Training: TrainingConfig{
			Epochs:             30000,
			BatchSize:          32,
			SampleInterval:     100,
			CheckpointInterval: 1000,
			LogEvery:           1,
			NaNPolicy:          string(gan.NaNWarn),
		},
		Sampling: SamplingConfig{Dir: "images", Rows: 5, Cols: 5, Scale: 2},
	}
}

// Load reads a Config from YAML on top of Default and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: config path from the command line
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected; absent
// keys keep their default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Epochs > 0 {
		c.Training.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.Training.BatchSize = o.BatchSize
	}
	if o.SampleInterval != nil {
		c.Training.SampleInterval = *o.SampleInterval
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.DatasetDir != "" {
		c.Dataset.Dir = o.DatasetDir
	}
	if o.ModelDir != "" {
		c.Model.Dir = o.ModelDir
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	for _, d := range c.Dataset.Digits {
		if d < 0 || d > 9 {
			return errors.Errorf("dataset.digits: %d is not a digit", d)
		}
	}
	if c.Dataset.Limit < 0 {
		return errors.Errorf("dataset.limit must be >= 0 (got %d)", c.Dataset.Limit)
	}
	if err := c.TrainerConfig().Validate(); err != nil {
		return err
	}
	for _, h := range append(append([]int{}, c.Model.GeneratorHidden...), c.Model.CriticHidden...) {
		if h < 1 {
			return errors.Errorf("hidden layer widths must be > 0 (got %d)", h)
		}
	}
	t := c.Training
	switch {
	case t.Epochs < 0:
		return errors.Errorf("training.epochs must be >= 0 (got %d)", t.Epochs)
	case t.BatchSize <= 0:
		return errors.Errorf("training.batch_size must be > 0 (got %d)", t.BatchSize)
	case t.SampleInterval < 0 || t.CheckpointInterval < 0:
		return errors.New("training intervals must be >= 0")
	}
	switch gan.NaNPolicy(t.NaNPolicy) {
	case gan.NaNWarn, gan.NaNSkip, gan.NaNAbort:
	default:
		return errors.Errorf("training.nan_policy must be warn, skip or abort (got %q)", t.NaNPolicy)
	}
	s := c.Sampling
	if s.Rows < 1 || s.Cols < 1 || s.Scale < 1 {
		return errors.Errorf("sampling grid %dx%d scale %d must be positive", s.Rows, s.Cols, s.Scale)
	}
	return nil
}

// TrainerConfig returns the trainer hyperparameters.
func (c *Config) TrainerConfig() gan.Config {
	return gan.Config{
		ImgShape:           tensor.Shape(append([]int{}, c.Model.ImgShape...)),
		LatentDim:          c.Model.LatentDim,
		NCritic:            c.Model.NCritic,
		GPWeight:           c.Model.GPWeight,
		ModelName:          c.Model.Name,
		ModelDir:           c.Model.Dir,
		GeneratorOptimizer: c.Model.GeneratorOptimizer,
		CriticOptimizer:    c.Model.CriticOptimizer,
	}
}

// Architectures returns the generator and critic descriptors.
func (c *Config) Architectures() (generator, critic nn.Architecture) {
	shape := tensor.Shape(c.Model.ImgShape)
	return nn.GeneratorMLP(c.Model.LatentDim, shape, c.Model.GeneratorHidden),
		nn.CriticMLP(shape, c.Model.CriticHidden)
}

// TrainOptions returns the options for one Train call.
func (c *Config) TrainOptions() gan.TrainOptions {
	return gan.TrainOptions{
		Epochs:             c.Training.Epochs,
		BatchSize:          c.Training.BatchSize,
		SampleInterval:     c.Training.SampleInterval,
		CheckpointInterval: c.Training.CheckpointInterval,
	}
}

// MNIST returns the dataset described by the config.
func (c *Config) MNIST() dataset.MNIST {
	return dataset.MNIST{Dir: c.Dataset.Dir, Digits: c.Dataset.Digits, Limit: c.Dataset.Limit}
}

// Logger builds the slog logger writing to w.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return level, errors.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return level, nil
}
