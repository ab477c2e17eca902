// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/optim"
)

// Optimizer is the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config selects and parameterizes an optimizer by name.
type Config = optim.Config

// Optimizer names.
const (
	NameSGD     = optim.NameSGD
	NameAdam    = optim.NameAdam
	NameRMSprop = optim.NameRMSprop
)

// DefaultConfig is RMSprop with lr 5e-5.
func DefaultConfig() Config {
	return optim.DefaultConfig()
}

// New builds the optimizer named by cfg.
func New(cfg Config, params []*nn.Parameter) (Optimizer, error) {
	return optim.New(cfg, params)
}

// SGD (Stochastic Gradient Descent)

// SGD is gradient descent with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer.
//
// Example:
//
//	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01, Momentum: 0.9})
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// Adam (Adaptive Moment Estimation)

// Adam is the Adam optimizer with bias correction.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer.
//
// Example:
//
//	opt := optim.NewAdam(critic.Parameters(), optim.AdamConfig{
//	    LR:    1e-4,
//	    Betas: [2]float64{0.5, 0.9},
//	})
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	return optim.NewAdam(params, config)
}

// RMSprop

// RMSprop scales steps by a running average of squared gradients.
type RMSprop = optim.RMSprop

// RMSpropConfig contains configuration for RMSprop.
type RMSpropConfig = optim.RMSpropConfig

// NewRMSprop creates an RMSprop optimizer.
func NewRMSprop(params []*nn.Parameter, config RMSpropConfig) *RMSprop {
	return optim.NewRMSprop(params, config)
}
