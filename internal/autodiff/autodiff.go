// Package autodiff implements tape-based reverse-mode automatic differentiation
// with support for differentiating through a backward pass.
//
// Architecture:
//   - Variable: a tensor value plus a flag telling whether gradients flow into it
//   - Tape: records operations during the forward pass
//   - Operation: each op knows its inputs, its output and its backward rule
//   - Backward rules are written with Tape ops, so a backward pass run with
//     CreateGraph is itself recorded and can be differentiated again
//
// Only tensors registered with Tape.Watch become trainable leaves. Everything
// else enters the graph as a constant, which is how a single step selects the
// parameter group it is allowed to update.
//
// Usage:
//
//	tp := autodiff.NewTape()
//	tp.Watch(w)
//	x := tp.Constant(input)
//	y := tp.SumAll(tp.MatMul(x, tp.Var(w)))
//	grads, err := tp.Grad(y, []*autodiff.Variable{tp.Var(w)})
package autodiff

import (
	"github.com/born-ml/wgangp/internal/tensor"
)

// Variable is a node in the computation graph.
type Variable struct {
	value        *tensor.Tensor
	requiresGrad bool
}

// Value returns the forward value.
func (v *Variable) Value() *tensor.Tensor {
	return v.value
}

// Shape returns the shape of the forward value.
func (v *Variable) Shape() tensor.Shape {
	return v.value.Shape()
}

// RequiresGrad reports whether gradients flow into this variable.
func (v *Variable) RequiresGrad() bool {
	return v.requiresGrad
}

// Item returns the value of a one-element variable.
func (v *Variable) Item() float64 {
	return v.value.Item()
}

// Operation represents a differentiable operation recorded on a tape.
type Operation interface {
	// Backward returns the gradients for each input given the output gradient.
	// Rules are expressed with tape ops so that they can be recorded. A nil
	// entry means no gradient flows to that input.
	Backward(tp *Tape, outputGrad *Variable) []*Variable

	// Inputs returns the input variables for this operation.
	Inputs() []*Variable

	// Output returns the variable produced by this operation.
	Output() *Variable
}
