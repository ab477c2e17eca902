package optim

import (
	"math"

	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/tensor"
)

// RMSprop scales each step by a running average of squared gradients.
//
//	avg = rho * avg + (1-rho) * gradient²
//	param = param - lr * gradient / (sqrt(avg) + eps)
//
// Without momentum it is the optimizer WGAN was introduced with, since it
// avoids the momentum terms that destabilize critic training.
type RMSprop struct {
	params    []*nn.Parameter
	lr        float64
	rho       float64
	eps       float64
	squareAvg *buffers
}

// RMSpropConfig holds configuration for RMSprop.
type RMSpropConfig struct {
	LR  float64 // Learning rate (default: 0.00005)
	Rho float64 // Decay of the squared-gradient average (default: 0.9)
	Eps float64 // Term for numerical stability (default: 1e-7)
}

// NewRMSprop creates a new RMSprop optimizer.
func NewRMSprop(params []*nn.Parameter, config RMSpropConfig) *RMSprop {
	if config.LR == 0 {
		config.LR = 0.00005
	}
	if config.Rho == 0 {
		config.Rho = 0.9
	}
	if config.Eps == 0 {
		config.Eps = 1e-7
	}
	return &RMSprop{
		params:    params,
		lr:        config.LR,
		rho:       config.Rho,
		eps:       config.Eps,
		squareAvg: newBuffers("square_avg"),
	}
}

// Step performs a single optimization step.
func (r *RMSprop) Step(grads map[*nn.Parameter]*tensor.Tensor) {
	for _, param := range r.params {
		grad, ok := grads[param]
		if !ok {
			continue
		}
		checkGradShape(param, grad)
		g := grad.Data()
		avg := r.squareAvg.get(param)
		p := param.Tensor().Data()
		for i := range p {
			avg[i] = r.rho*avg[i] + (1-r.rho)*g[i]*g[i]
			p[i] -= r.lr * g[i] / (math.Sqrt(avg[i]) + r.eps)
		}
	}
}

// Name returns "rmsprop".
func (r *RMSprop) Name() string { return NameRMSprop }

// LR returns the learning rate.
func (r *RMSprop) LR() float64 { return r.lr }

// StateDict returns the squared-gradient averages.
func (r *RMSprop) StateDict() map[string]*tensor.Tensor {
	dict := make(map[string]*tensor.Tensor)
	r.squareAvg.export(dict)
	return dict
}

// LoadStateDict restores the squared-gradient averages.
func (r *RMSprop) LoadStateDict(dict map[string]*tensor.Tensor) error {
	consumed := make(map[string]bool)
	if err := r.squareAvg.restore(r.params, dict, consumed); err != nil {
		return err
	}
	return rejectUnknown(dict, consumed)
}
