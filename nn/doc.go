// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers and network descriptors used by the
// generator and critic.
//
// # Overview
//
// This package contains:
//   - Layers: Linear
//   - Activations: LeakyReLU, ReLU, Tanh
//   - Shape layers: Flatten, Reshape
//   - Utilities: Sequential, Module interface, Parameter, ParamGroup
//   - Architectures: serializable descriptors that rebuild a Sequential
//
// # Basic Usage
//
//	rng := tensor.NewRNG(1)
//	arch := nn.GeneratorMLP(100, tensor.Shape{28, 28, 1}, []int{256, 512})
//	gen, err := arch.Build(rng)
//
//	tp := autodiff.NoGrad()
//	images := gen.Forward(tp, tp.Constant(z)).Value()
//
// # Parameter groups
//
// A ParamGroup selects which parameters a tape differentiates. Parameters
// outside the watched group are constants, so one network can be trained
// while the other is only evaluated.
package nn
