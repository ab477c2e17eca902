// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package wgan

import (
	"log/slog"

	"github.com/born-ml/wgangp/internal/autodiff"
	"github.com/born-ml/wgangp/internal/dataset"
	"github.com/born-ml/wgangp/internal/gan"
	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/tensor"
)

// Trainer runs WGAN-GP training for one generator/critic pair.
type Trainer = gan.Trainer

// Config holds the trainer hyperparameters.
type Config = gan.Config

// TrainOptions controls one Train call.
type TrainOptions = gan.TrainOptions

// TrainResult summarizes one Train call.
type TrainResult = gan.TrainResult

// CriticLoss holds the values of one critic update.
type CriticLoss = gan.CriticLoss

// Metadata is the checkpoint commit record.
type Metadata = gan.Metadata

// State is the trainer's lifecycle position.
type State = gan.State

// Trainer states.
const (
	StateUninitialized = gan.StateUninitialized
	StateReady         = gan.StateReady
	StateTraining      = gan.StateTraining
	StateCheckpointed  = gan.StateCheckpointed
)

// NaNPolicy decides what happens when a loss is NaN or Inf.
type NaNPolicy = gan.NaNPolicy

// NaN policies.
const (
	NaNWarn  = gan.NaNWarn
	NaNSkip  = gan.NaNSkip
	NaNAbort = gan.NaNAbort
)

// Error kinds, matched with errors.Is.
var (
	ErrConfiguration      = gan.ErrConfiguration
	ErrCheckpointCorrupt  = gan.ErrCheckpointCorrupt
	ErrNumericInstability = gan.ErrNumericInstability
)

// CheckpointError carries the file a load failed on.
type CheckpointError = gan.CheckpointError

// DefaultGPWeight is the gradient penalty coefficient λ.
const DefaultGPWeight = gan.DefaultGPWeight

// DefaultConfig returns the MNIST setup.
func DefaultConfig() Config {
	return gan.DefaultConfig()
}

// New creates a trainer for existing networks.
func New(cfg Config, generator, critic nn.Network, opts ...Option) (*Trainer, error) {
	return gan.New(cfg, generator, critic, opts...)
}

// Build creates networks from architecture descriptors and a fresh trainer.
func Build(cfg Config, genArch, criticArch nn.Architecture, opts ...Option) (*Trainer, error) {
	return gan.Build(cfg, genArch, criticArch, opts...)
}

// Load reconstructs a trainer from a checkpoint metadata file.
func Load(configPath string, opts ...Option) (*Trainer, error) {
	return gan.Load(configPath, opts...)
}

// ReadMetadata decodes a checkpoint metadata file strictly.
func ReadMetadata(path string) (Metadata, error) {
	return gan.ReadMetadata(path)
}

// Options

// Option configures a Trainer.
type Option = gan.Option

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return gan.WithLogger(l) }

// WithSampler sets the collaborator invoked at the sample interval.
func WithSampler(s Sampler) Option { return gan.WithSampler(s) }

// WithDataset sets the training data source.
func WithDataset(ds Dataset) Option { return gan.WithDataset(ds) }

// WithSeed makes a run reproducible.
func WithSeed(seed uint64) Option { return gan.WithSeed(seed) }

// WithNaNPolicy sets the reaction to non-finite losses.
func WithNaNPolicy(p NaNPolicy) Option { return gan.WithNaNPolicy(p) }

// WithLogEvery logs progress every n epochs.
func WithLogEvery(n int) Option { return gan.WithLogEvery(n) }

// WithSampleCount sets how many images a Sampler receives.
func WithSampleCount(n int) Option { return gan.WithSampleCount(n) }

// Collaborators

// Sampler receives generated images at the sample interval.
type Sampler = gan.Sampler

// SamplerFunc adapts a function to Sampler.
type SamplerFunc = gan.SamplerFunc

// Dataset supplies training images in [0, 255].
type Dataset = dataset.Dataset

// MNIST loads MNIST IDX files from a directory.
type MNIST = dataset.MNIST

// NewInMemory wraps an image tensor as a Dataset.
func NewInMemory(images *tensor.Tensor) (*dataset.InMemory, error) {
	return dataset.NewInMemory(images)
}

// Building blocks

// Interpolate returns alpha*real + (1-alpha)*fake, one alpha per sample.
func Interpolate(real, fake, alpha *tensor.Tensor) (*tensor.Tensor, error) {
	return gan.Interpolate(real, fake, alpha)
}

// GradientPenalty returns mean((1 - ||∇ critic(x)||)²) over interpolated.
func GradientPenalty(tp *autodiff.Tape, critic nn.Module, interpolated *tensor.Tensor) (*autodiff.Variable, error) {
	return gan.GradientPenalty(tp, critic, interpolated)
}
