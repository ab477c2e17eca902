package gan

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/born-ml/wgangp/internal/autodiff"
	"github.com/born-ml/wgangp/internal/dataset"
	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/optim"
	"github.com/born-ml/wgangp/internal/tensor"
)

// Parameter group tags.
const (
	GroupCritic    = "critic"
	GroupGenerator = "generator"
)

// State is the trainer's lifecycle position.
type State int

// Trainer states.
const (
	StateUninitialized State = iota
	StateReady
	StateTraining
	StateCheckpointed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateTraining:
		return "training"
	case StateCheckpointed:
		return "checkpointed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// NaNPolicy decides what happens when a loss is NaN or Inf.
type NaNPolicy string

// NaN policies.
const (
	NaNWarn  NaNPolicy = "warn"  // log and apply the update anyway
	NaNSkip  NaNPolicy = "skip"  // log and drop the update
	NaNAbort NaNPolicy = "abort" // return ErrNumericInstability
)

var modelNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Config holds the trainer hyperparameters.
type Config struct {
	ImgShape           tensor.Shape // per-sample image shape [H, W, C]
	LatentDim          int
	NCritic            int     // critic updates per generator update
	GPWeight           float64 // λ
	ModelName          string
	ModelDir           string
	GeneratorOptimizer optim.Config
	CriticOptimizer    optim.Config
}

// DefaultConfig returns the MNIST setup: 28x28x1 images, 100-dimensional
// noise, 5 critic steps per generator step, λ = 10, RMSprop(5e-5).
func DefaultConfig() Config {
	return Config{
		ImgShape:           tensor.Shape{28, 28, 1},
		LatentDim:          100,
		NCritic:            5,
		GPWeight:           DefaultGPWeight,
		ModelName:          "wgan_mnist",
		ModelDir:           "models",
		GeneratorOptimizer: optim.DefaultConfig(),
		CriticOptimizer:    optim.DefaultConfig(),
	}
}

// Validate checks the hyperparameters on their own.
func (c Config) Validate() error {
	if len(c.ImgShape) != 3 || c.ImgShape.Validate() != nil {
		return configErrorf("image shape must be (height, width, channels), got %v", c.ImgShape)
	}
	if c.LatentDim < 1 {
		return configErrorf("latent dim must be positive, got %d", c.LatentDim)
	}
	if c.NCritic < 1 {
		return configErrorf("n_critic must be at least 1, got %d", c.NCritic)
	}
	if c.GPWeight < 0 {
		return configErrorf("gp weight must be non-negative, got %g", c.GPWeight)
	}
	if !modelNamePattern.MatchString(c.ModelName) {
		return configErrorf("invalid model name %q", c.ModelName)
	}
	return nil
}

// Channels returns the channel count of the image shape.
func (c Config) Channels() int {
	return c.ImgShape[len(c.ImgShape)-1]
}

type options struct {
	logger      *slog.Logger
	sampler     Sampler
	dataset     dataset.Dataset
	seed        uint64
	seeded      bool
	nanPolicy   NaNPolicy
	logEvery    int
	sampleCount int
}

// Option configures a Trainer.
type Option func(*options)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSampler sets the collaborator invoked at the sample interval.
func WithSampler(s Sampler) Option {
	return func(o *options) { o.sampler = s }
}

// WithDataset sets the training data source.
func WithDataset(ds dataset.Dataset) Option {
	return func(o *options) { o.dataset = ds }
}

// WithSeed makes batch selection, noise, interpolation weights and sampling
// reproducible. Without it the trainer seeds from the clock.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithNaNPolicy sets the reaction to non-finite losses. The default is NaNWarn.
func WithNaNPolicy(p NaNPolicy) Option {
	return func(o *options) { o.nanPolicy = p }
}

// WithLogEvery logs progress every n epochs. The default is every epoch;
// n <= 0 disables progress lines.
func WithLogEvery(n int) Option {
	return func(o *options) { o.logEvery = n }
}

// WithSampleCount sets how many images a Sampler receives.
func WithSampleCount(n int) Option {
	return func(o *options) { o.sampleCount = n }
}

func resolveOptions(opts []Option) (options, error) {
	o := options{
		nanPolicy:   NaNWarn,
		logEvery:    1,
		sampleCount: DefaultSampleCount,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !o.seeded {
		o.seed = uint64(time.Now().UnixNano())
	}
	switch o.nanPolicy {
	case NaNWarn, NaNSkip, NaNAbort:
	default:
		return o, configErrorf("unknown NaN policy %q", o.nanPolicy)
	}
	if o.sampleCount < 1 {
		return o, configErrorf("sample count must be positive, got %d", o.sampleCount)
	}
	return o, nil
}

// Independent random streams derived from one seed.
const (
	initStream   = 0x243f6a8885a308d3
	sampleStream = 0x13198a2e03707344
)

// Trainer runs WGAN-GP training for one generator/critic pair.
//
// A Trainer is not safe for concurrent use.
type Trainer struct {
	cfg  Config
	opts options

	generator nn.Network
	critic    nn.Network
	genGroup  nn.ParamGroup
	critGroup nn.ParamGroup
	genOpt    optim.Optimizer
	critOpt   optim.Optimizer

	data   *tensor.Tensor // [N, H, W, C] in [-1, 1], loaded on first Train
	labels map[int]Labels

	rng       *rand.Rand // training stream
	sampleRNG *rand.Rand // sampling and Generate

	epoch          int
	state          State
	runID          string
	criticSteps    int
	generatorSteps int
}

// New creates a trainer for existing networks.
//
// The networks are probed with a zero batch: the generator must map
// [1, LatentDim] to [1, ImgShape...] and the critic must map that to [1, 1].
// A mismatch returns ErrConfiguration.
func New(cfg Config, generator, critic nn.Network, opts ...Option) (*Trainer, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return newTrainer(cfg, generator, critic, o)
}

// Build creates networks from architecture descriptors, initializing the
// weights from the seed option, and returns a fresh trainer.
func Build(cfg Config, genArch, criticArch nn.Architecture, opts ...Option) (*Trainer, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	initRNG := tensor.NewRNG(o.seed ^ initStream)
	generator, err := genArch.Build(initRNG)
	if err != nil {
		return nil, configErrorf("%v", err)
	}
	critic, err := criticArch.Build(initRNG)
	if err != nil {
		return nil, configErrorf("%v", err)
	}
	return newTrainer(cfg, generator, critic, o)
}

func newTrainer(cfg Config, generator, critic nn.Network, o options) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if generator == nil || critic == nil {
		return nil, configErrorf("generator and critic are required")
	}

	fakeShape, err := probe(generator, tensor.Shape{1, cfg.LatentDim})
	if err != nil {
		return nil, configErrorf("generator rejects latent dim %d: %v", cfg.LatentDim, err)
	}
	if want := cfg.ImgShape.Batched(1); !fakeShape.Equal(want) {
		return nil, configErrorf("generator produces %v, want %v", fakeShape, want)
	}
	scoreShape, err := probe(critic, cfg.ImgShape.Batched(1))
	if err != nil {
		return nil, configErrorf("critic rejects image shape %v: %v", cfg.ImgShape, err)
	}
	if !scoreShape.Equal(tensor.Shape{1, 1}) {
		return nil, configErrorf("critic produces %v per batch of 1, want [1 1]", scoreShape)
	}

	t := &Trainer{
		cfg:       cfg,
		opts:      o,
		generator: generator,
		critic:    critic,
		genGroup:  nn.NewParamGroup(GroupGenerator, generator),
		critGroup: nn.NewParamGroup(GroupCritic, critic),
		labels:    make(map[int]Labels),
		rng:       tensor.NewRNG(o.seed),
		sampleRNG: tensor.NewRNG(o.seed ^ sampleStream),
		runID:     uuid.NewString(),
	}
	t.cfg.ImgShape = cfg.ImgShape.Clone()
	if t.genOpt, err = optim.New(cfg.GeneratorOptimizer, t.genGroup.Params); err != nil {
		return nil, configErrorf("generator optimizer: %v", err)
	}
	if t.critOpt, err = optim.New(cfg.CriticOptimizer, t.critGroup.Params); err != nil {
		return nil, configErrorf("critic optimizer: %v", err)
	}
	t.state = StateReady
	return t, nil
}

// probe runs net on a zero batch and reports the output shape. Layer shape
// checks panic, so a panic is turned into an error.
func probe(net nn.Module, in tensor.Shape) (out tensor.Shape, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%v", r)
		}
	}()
	tp := autodiff.NoGrad()
	return net.Forward(tp, tp.Constant(tensor.Zeros(in))).Shape(), nil
}

// Epoch returns the number of completed epochs, including those before a resume.
func (t *Trainer) Epoch() int { return t.epoch }

// State returns the lifecycle state.
func (t *Trainer) State() State { return t.state }

// Config returns the trainer configuration.
func (t *Trainer) Config() Config {
	c := t.cfg
	c.ImgShape = c.ImgShape.Clone()
	return c
}

// RunID identifies the run across saves and resumes.
func (t *Trainer) RunID() string { return t.runID }

// Generator returns the generator network.
func (t *Trainer) Generator() nn.Network { return t.generator }

// Critic returns the critic network.
func (t *Trainer) Critic() nn.Network { return t.critic }

// Steps returns the number of critic and generator updates applied by this
// trainer instance.
func (t *Trainer) Steps() (critic, generator int) {
	return t.criticSteps, t.generatorSteps
}

// Generate returns n images from fresh latent noise, shaped [n, H, W, C].
//
// Noise comes from the sampling stream, so generating never changes the
// training trajectory.
func (t *Trainer) Generate(n int) (*tensor.Tensor, error) {
	if n < 1 {
		return nil, configErrorf("cannot generate %d images", n)
	}
	return t.GenerateFrom(tensor.Randn(tensor.Shape{n, t.cfg.LatentDim}, t.sampleRNG))
}

// GenerateFrom evaluates the generator on caller-supplied latent vectors
// shaped [n, LatentDim].
func (t *Trainer) GenerateFrom(z *tensor.Tensor) (*tensor.Tensor, error) {
	if z == nil || z.Rank() != 2 || z.Dim(1) != t.cfg.LatentDim {
		var shape tensor.Shape
		if z != nil {
			shape = z.Shape()
		}
		return nil, configErrorf("latent batch must be [n %d], got %v", t.cfg.LatentDim, shape)
	}
	tp := autodiff.NoGrad()
	return t.generator.Forward(tp, tp.Constant(z)).Value(), nil
}

func (t *Trainer) labelsFor(batch int) Labels {
	l, ok := t.labels[batch]
	if !ok {
		l = NewLabels(batch)
		t.labels[batch] = l
	}
	return l
}
