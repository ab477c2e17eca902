package nn

import (
	"github.com/born-ml/wgangp/internal/autodiff"
	"github.com/born-ml/wgangp/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// The tensor is updated in place by optimizers. Gradients are not stored on
// the parameter; they are returned by ParamGroup.Gradients for one step.
type Parameter struct {
	name   string         // e.g. "layers.0.weight"
	tensor *tensor.Tensor // The parameter tensor
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Var returns the tape leaf for this parameter.
func (p *Parameter) Var(tp *autodiff.Tape) *autodiff.Variable {
	return tp.Var(p.tensor)
}

// ParamGroup is a tagged set of parameters optimized together.
//
// Exactly one group is watched per training step. Everything outside the
// group is read as a constant by the tape, so a generator step cannot move
// critic weights and vice versa.
type ParamGroup struct {
	Tag    string
	Params []*Parameter
}

// NewParamGroup collects the parameters of m under tag.
func NewParamGroup(tag string, m Module) ParamGroup {
	return ParamGroup{Tag: tag, Params: m.Parameters()}
}

// Watch registers the group's tensors with tp.
func (g ParamGroup) Watch(tp *autodiff.Tape) {
	ts := make([]*tensor.Tensor, len(g.Params))
	for i, p := range g.Params {
		ts[i] = p.tensor
	}
	tp.Watch(ts...)
}

// Gradients differentiates loss with respect to every parameter in the group.
//
// Parameters the loss does not depend on get zero gradients.
func (g ParamGroup) Gradients(tp *autodiff.Tape, loss *autodiff.Variable) (map[*Parameter]*tensor.Tensor, error) {
	vars := make([]*autodiff.Variable, len(g.Params))
	for i, p := range g.Params {
		vars[i] = p.Var(tp)
	}
	grads, err := tp.Grad(loss, vars)
	if err != nil {
		return nil, err
	}
	out := make(map[*Parameter]*tensor.Tensor, len(g.Params))
	for i, p := range g.Params {
		out[p] = grads[i].Value()
	}
	return out, nil
}
