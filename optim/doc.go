// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - RMSprop: running average of squared gradients
//   - Optimizer interface with checkpointable state
//
// # Basic Usage
//
//	grads, err := group.Gradients(tp, loss)
//	if err != nil {
//	    return err
//	}
//	optimizer.Step(grads)
//
// Each optimizer owns one parameter group. Parameters without a gradient in
// a step are left untouched, so the generator and critic optimizers never
// interfere.
//
// # Choosing by name
//
//	opt, err := optim.New(optim.Config{Name: "adam", LR: 1e-4, Beta1: 0.5, Beta2: 0.9}, params)
//
// Zero fields take each algorithm's defaults.
package optim
