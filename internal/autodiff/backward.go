package autodiff

import (
	"errors"
	"fmt"

	"github.com/born-ml/wgangp/internal/tensor"
)

// ErrNotDifferentiable is returned when gradients are requested for an output
// that no watched leaf or input contributed to.
var ErrNotDifferentiable = errors.New("autodiff: output does not require grad")

type gradConfig struct {
	createGraph bool
}

// GradOption configures Grad.
type GradOption func(*gradConfig)

// CreateGraph records the backward pass on the tape, so the returned
// gradients are themselves differentiable. A gradient penalty needs this.
func CreateGraph() GradOption {
	return func(c *gradConfig) { c.createGraph = true }
}

// Grad computes d(sum(y))/dx for every x in xs by walking the tape backwards.
//
// Algorithm:
//  1. Seed y's gradient with ones
//  2. Walk operations recorded so far in reverse order
//  3. For each op with a known output gradient, apply its backward rule
//  4. Accumulate gradients when a variable feeds several ops
//
// Inputs that y does not depend on get a zero gradient.
func (t *Tape) Grad(y *Variable, xs []*Variable, opts ...GradOption) ([]*Variable, error) {
	var cfg gradConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if !y.requiresGrad {
		return nil, ErrNotDifferentiable
	}

	wasRecording := t.recording
	t.recording = wasRecording && cfg.createGraph
	defer func() {
		t.recording = wasRecording
	}()

	grads := map[*Variable]*Variable{
		y: t.Constant(tensor.Ones(y.Shape())),
	}

	// Ops appended by a create-graph pass land past n and are not revisited.
	n := len(t.operations)
	for i := n - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		inGrads := op.Backward(t, outGrad)
		for j, in := range op.Inputs() {
			if j >= len(inGrads) || inGrads[j] == nil || !in.requiresGrad {
				continue
			}
			if !inGrads[j].Shape().Equal(in.Shape()) {
				return nil, fmt.Errorf("autodiff: %T produced gradient %v for input %v",
					op, inGrads[j].Shape(), in.Shape())
			}
			if existing, ok := grads[in]; ok {
				grads[in] = t.Add(existing, inGrads[j])
			} else {
				grads[in] = inGrads[j]
			}
		}
	}

	out := make([]*Variable, len(xs))
	for i, x := range xs {
		if g, ok := grads[x]; ok {
			out[i] = g
			continue
		}
		out[i] = t.Constant(tensor.Zeros(x.Shape()))
	}
	return out, nil
}
