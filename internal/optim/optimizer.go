// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//   - RMSprop: running average of squared gradients
//
// Each optimizer owns one parameter group. Gradients for that group come from
// nn.ParamGroup.Gradients and are applied in place:
//
//	grads, err := group.Gradients(tp, loss)
//	if err != nil {
//	    return err
//	}
//	optimizer.Step(grads)
package optim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/tensor"
)

// Optimizer names accepted by New.
const (
	NameSGD     = "sgd"
	NameAdam    = "adam"
	NameRMSprop = "rmsprop"
)

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers implement nn.OptimizerState so their buffers travel with the
// weights in checkpoints.
type Optimizer interface {
	nn.OptimizerState

	// Step applies gradient updates in place.
	//
	// Parameters absent from grads are left untouched. A gradient whose
	// shape differs from its parameter panics.
	Step(grads map[*nn.Parameter]*tensor.Tensor)
}

// Config selects and parameterizes an optimizer. Zero fields take the
// algorithm's defaults.
type Config struct {
	Name     string  `yaml:"name"`
	LR       float64 `yaml:"lr"`
	Beta1    float64 `yaml:"beta1,omitempty"`
	Beta2    float64 `yaml:"beta2,omitempty"`
	Rho      float64 `yaml:"rho,omitempty"`
	Momentum float64 `yaml:"momentum,omitempty"`
	Eps      float64 `yaml:"eps,omitempty"`
}

// DefaultConfig is RMSprop with lr 5e-5, the classic WGAN setting.
func DefaultConfig() Config {
	return Config{Name: NameRMSprop, LR: 0.00005}
}

// New builds the optimizer named by cfg for params.
func New(cfg Config, params []*nn.Parameter) (Optimizer, error) {
	if cfg.LR < 0 {
		return nil, fmt.Errorf("learning rate must be non-negative, got %g", cfg.LR)
	}
	switch strings.ToLower(cfg.Name) {
	case NameRMSprop, "":
		return NewRMSprop(params, RMSpropConfig{LR: cfg.LR, Rho: cfg.Rho, Eps: cfg.Eps}), nil
	case NameAdam:
		return NewAdam(params, AdamConfig{LR: cfg.LR, Betas: [2]float64{cfg.Beta1, cfg.Beta2}, Eps: cfg.Eps}), nil
	case NameSGD:
		return NewSGD(params, SGDConfig{LR: cfg.LR, Momentum: cfg.Momentum}), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", cfg.Name)
	}
}

func checkGradShape(param *nn.Parameter, grad *tensor.Tensor) {
	if !grad.Shape().Equal(param.Tensor().Shape()) {
		panic(fmt.Sprintf("optim: gradient shape %v does not match parameter %s shape %v",
			grad.Shape(), param.Name(), param.Tensor().Shape()))
	}
}

// buffers holds one per-parameter state tensor, such as a moment estimate,
// stored under "<param name>.<suffix>".
type buffers struct {
	suffix string
	data   map[*nn.Parameter]*tensor.Tensor
}

func newBuffers(suffix string) *buffers {
	return &buffers{suffix: suffix, data: make(map[*nn.Parameter]*tensor.Tensor)}
}

// get returns the buffer for p, allocating zeros on first use.
func (b *buffers) get(p *nn.Parameter) []float64 {
	t, ok := b.data[p]
	if !ok {
		t = tensor.Zeros(p.Tensor().Shape())
		b.data[p] = t
	}
	return t.Data()
}

func (b *buffers) export(dict map[string]*tensor.Tensor) {
	for p, t := range b.data {
		dict[p.Name()+"."+b.suffix] = t.Clone()
	}
}

// restore loads buffers from dict, consuming the keys it recognizes.
func (b *buffers) restore(params []*nn.Parameter, dict map[string]*tensor.Tensor, consumed map[string]bool) error {
	loaded := make(map[*nn.Parameter]*tensor.Tensor)
	for _, p := range params {
		key := p.Name() + "." + b.suffix
		t, ok := dict[key]
		if !ok {
			continue
		}
		if !t.Shape().Equal(p.Tensor().Shape()) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v", key, p.Tensor().Shape(), t.Shape())
		}
		loaded[p] = t.Clone()
		consumed[key] = true
	}
	b.data = loaded
	return nil
}

// rejectUnknown fails when dict holds keys no buffer consumed.
func rejectUnknown(dict map[string]*tensor.Tensor, consumed map[string]bool) error {
	var extra []string
	for k := range dict {
		if !consumed[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return fmt.Errorf("unexpected optimizer state entries: %v", extra)
}
