package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/tensor"
)

// stepKey stores the Adam timestep in the state dictionary.
const stepKey = "step"

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// The WGAN-GP paper trains both networks with lr 1e-4 and betas (0.5, 0.9).
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	params []*nn.Parameter
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int      // Timestep for bias correction
	m      *buffers // First moment estimates
	v      *buffers // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.0001)
	Betas [2]float64 // Coefficients for running averages (default: [0.5, 0.9])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.0001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.5
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.9
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      newBuffers("m"),
		v:      newBuffers("v"),
	}
}

// Step performs a single optimization step using Adam algorithm.
//
// Parameters with no gradient are skipped.
func (a *Adam) Step(grads map[*nn.Parameter]*tensor.Tensor) {
	a.t++
	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	for _, param := range a.params {
		grad, ok := grads[param]
		if !ok {
			continue
		}
		checkGradShape(param, grad)
		g := grad.Data()
		m := a.m.get(param)
		v := a.v.get(param)
		p := param.Tensor().Data()
		for i := range p {
			m[i] = a.beta1*m[i] + (1.0-a.beta1)*g[i]
			v[i] = a.beta2*v[i] + (1.0-a.beta2)*g[i]*g[i]
			mHat := m[i] / biasCorrection1
			vHat := v[i] / biasCorrection2
			p[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
}

// Name returns "adam".
func (a *Adam) Name() string { return NameAdam }

// LR returns the learning rate.
func (a *Adam) LR() float64 { return a.lr }

// Steps returns the number of steps taken.
func (a *Adam) Steps() int { return a.t }

// StateDict returns both moment estimates and the timestep.
func (a *Adam) StateDict() map[string]*tensor.Tensor {
	dict := make(map[string]*tensor.Tensor)
	a.m.export(dict)
	a.v.export(dict)
	dict[stepKey] = tensor.Full(tensor.Shape{1}, float64(a.t))
	return dict
}

// LoadStateDict restores moment estimates and the timestep.
func (a *Adam) LoadStateDict(dict map[string]*tensor.Tensor) error {
	consumed := map[string]bool{stepKey: true}
	step, ok := dict[stepKey]
	if !ok || step.NumElements() != 1 {
		return fmt.Errorf("adam state has no %q entry", stepKey)
	}
	if err := a.m.restore(a.params, dict, consumed); err != nil {
		return err
	}
	if err := a.v.restore(a.params, dict, consumed); err != nil {
		return err
	}
	if err := rejectUnknown(dict, consumed); err != nil {
		return err
	}
	a.t = int(step.Item())
	return nil
}
