package optim

import (
	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	params     []*nn.Parameter
	lr         float64
	momentum   float64
	velocities *buffers
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: newBuffers("velocity"),
	}
}

// Step performs a single optimization step.
func (s *SGD) Step(grads map[*nn.Parameter]*tensor.Tensor) {
	for _, param := range s.params {
		grad, ok := grads[param]
		if !ok {
			continue
		}
		checkGradShape(param, grad)
		g := grad.Data()
		p := param.Tensor().Data()
		if s.momentum == 0 {
			for i := range p {
				p[i] -= s.lr * g[i]
			}
			continue
		}
		v := s.velocities.get(param)
		for i := range p {
			v[i] = s.momentum*v[i] + g[i]
			p[i] -= s.lr * v[i]
		}
	}
}

// Name returns "sgd".
func (s *SGD) Name() string { return NameSGD }

// LR returns the learning rate.
func (s *SGD) LR() float64 { return s.lr }

// StateDict returns the momentum buffers.
func (s *SGD) StateDict() map[string]*tensor.Tensor {
	dict := make(map[string]*tensor.Tensor)
	s.velocities.export(dict)
	return dict
}

// LoadStateDict restores momentum buffers.
func (s *SGD) LoadStateDict(dict map[string]*tensor.Tensor) error {
	consumed := make(map[string]bool)
	if err := s.velocities.restore(s.params, dict, consumed); err != nil {
		return err
	}
	return rejectUnknown(dict, consumed)
}
