// Package nn implements the differentiable networks trained by the GAN.
//
// This package provides building blocks for constructing networks on top of
// the autodiff tape:
//   - Module interface: Base interface for all NN components
//   - Parameter and ParamGroup: trainable tensors and the sets optimized together
//   - Linear: Fully connected layer
//   - Activations: LeakyReLU, ReLU, Tanh, plus Flatten and Reshape
//   - Sequential: Container for stacking layers
//   - Architecture: YAML descriptor that rebuilds a Sequential
//
// Modules never own a graph. Every Forward call records onto the tape it is
// given, so the same network can be evaluated on a fresh tape per step.
package nn

import (
	"github.com/born-ml/wgangp/internal/autodiff"
	"github.com/born-ml/wgangp/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, rng),
//	    nn.NewLeakyReLU(0.2),
//	    nn.NewLinear(128, 1, rng),
//	)
type Module interface {
	// Forward computes the output of the module on tp.
	//
	// Parameters enter the graph through tp.Var, so whether they receive
	// gradients depends only on what the tape watches.
	Forward(tp *autodiff.Tape, x *autodiff.Variable) *autodiff.Variable

	// Parameters returns all trainable parameters of this module.
	//
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter
}

// Network is a Module that can describe and persist itself. Sequential
// networks built from an Architecture satisfy it.
type Network interface {
	Module

	// Architecture returns the descriptor the network can be rebuilt from.
	Architecture() Architecture

	// StateDict returns the parameter tensors keyed by qualified name.
	StateDict() map[string]*tensor.Tensor

	// LoadStateDict replaces parameter values from a state dictionary.
	LoadStateDict(stateDict map[string]*tensor.Tensor) error
}
