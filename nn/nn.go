// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/tensor"
)

// Module is the common interface for all layers.
type Module = nn.Module

// Network is a Module that can describe and checkpoint itself.
type Network = nn.Network

// Parameter is a named trainable tensor.
type Parameter = nn.Parameter

// ParamGroup is a tagged set of parameters updated together.
type ParamGroup = nn.ParamGroup

// NewParameter creates a parameter with the given name and tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// NewParamGroup collects the parameters of m under tag.
func NewParamGroup(tag string, m Module) ParamGroup {
	return nn.NewParamGroup(tag, m)
}

// Layers

// Linear is a fully connected layer.
type Linear = nn.Linear

// NewLinear creates a linear layer with Xavier weights and zero bias.
//
// Example:
//
//	layer := nn.NewLinear(784, 128, tensor.NewRNG(1))
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, rng)
}

// Activations

// LeakyReLU is a leaky rectifier.
type LeakyReLU = nn.LeakyReLU

// NewLeakyReLU creates a leaky rectifier with the given negative slope.
func NewLeakyReLU(slope float64) *LeakyReLU {
	return nn.NewLeakyReLU(slope)
}

// ReLU is the rectified linear unit.
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// Tanh is the hyperbolic tangent activation.
type Tanh = nn.Tanh

// NewTanh creates a Tanh activation.
func NewTanh() *Tanh {
	return nn.NewTanh()
}

// Flatten reshapes [batch, ...] to [batch, features].
type Flatten = nn.Flatten

// NewFlatten creates a Flatten layer.
func NewFlatten() *Flatten {
	return nn.NewFlatten()
}

// Reshape reshapes [batch, features] to [batch, shape...].
type Reshape = nn.Reshape

// NewReshape creates a Reshape layer for per-sample shape.
func NewReshape(shape tensor.Shape) *Reshape {
	return nn.NewReshape(shape)
}

// Containers

// Sequential chains modules and owns their qualified parameter names.
type Sequential = nn.Sequential

// NewSequential creates a sequential container.
//
// Example:
//
//	critic := nn.NewSequential(
//	    nn.NewFlatten(),
//	    nn.NewLinear(784, 256, rng),
//	    nn.NewLeakyReLU(0.2),
//	    nn.NewLinear(256, 1, rng),
//	)
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}

// Architectures

// Architecture is a serializable network descriptor.
type Architecture = nn.Architecture

// LayerSpec describes one layer of an Architecture.
type LayerSpec = nn.LayerSpec

// GeneratorMLP describes an MLP generator from latentDim noise to imgShape.
func GeneratorMLP(latentDim int, imgShape tensor.Shape, hidden []int) Architecture {
	return nn.GeneratorMLP(latentDim, imgShape, hidden)
}

// CriticMLP describes an MLP critic scoring imgShape images.
func CriticMLP(imgShape tensor.Shape, hidden []int) Architecture {
	return nn.CriticMLP(imgShape, hidden)
}

// MarshalArchitecture encodes a descriptor as YAML.
func MarshalArchitecture(a Architecture) ([]byte, error) {
	return nn.MarshalArchitecture(a)
}

// UnmarshalArchitecture decodes and validates a YAML descriptor.
func UnmarshalArchitecture(data []byte) (Architecture, error) {
	return nn.UnmarshalArchitecture(data)
}
