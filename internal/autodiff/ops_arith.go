package autodiff

import (
	"github.com/born-ml/wgangp/internal/tensor"
)

// AddOp is element-wise addition: out = a + b.
type AddOp struct {
	a, b, out *Variable
}

// Backward passes the gradient through unchanged to both inputs.
func (op *AddOp) Backward(_ *Tape, g *Variable) []*Variable {
	return []*Variable{g, g}
}

// Inputs returns [a, b].
func (op *AddOp) Inputs() []*Variable { return []*Variable{op.a, op.b} }

// Output returns a + b.
func (op *AddOp) Output() *Variable { return op.out }

// Add performs element-wise addition of same-shaped variables.
func (t *Tape) Add(a, b *Variable) *Variable {
	return t.record(tensor.Add(a.value, b.value), func(out *Variable) Operation {
		return &AddOp{a: a, b: b, out: out}
	}, a, b)
}

// SubOp is element-wise subtraction: out = a - b.
type SubOp struct {
	a, b, out *Variable
}

// Backward: d(a-b)/da = 1, d(a-b)/db = -1.
func (op *SubOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{g, tp.Scale(g, -1)}
}

// Inputs returns [a, b].
func (op *SubOp) Inputs() []*Variable { return []*Variable{op.a, op.b} }

// Output returns a - b.
func (op *SubOp) Output() *Variable { return op.out }

// Sub performs element-wise subtraction of same-shaped variables.
func (t *Tape) Sub(a, b *Variable) *Variable {
	return t.record(tensor.Sub(a.value, b.value), func(out *Variable) Operation {
		return &SubOp{a: a, b: b, out: out}
	}, a, b)
}

// MulOp is element-wise multiplication: out = a * b.
type MulOp struct {
	a, b, out *Variable
}

// Backward: grad_a = g * b, grad_b = g * a.
func (op *MulOp) Backward(tp *Tape, g *Variable) []*Variable {
	var ga, gb *Variable
	if op.a.requiresGrad {
		ga = tp.Mul(g, op.b)
	}
	if op.b.requiresGrad {
		gb = tp.Mul(g, op.a)
	}
	return []*Variable{ga, gb}
}

// Inputs returns [a, b].
func (op *MulOp) Inputs() []*Variable { return []*Variable{op.a, op.b} }

// Output returns a * b.
func (op *MulOp) Output() *Variable { return op.out }

// Mul performs element-wise multiplication of same-shaped variables.
func (t *Tape) Mul(a, b *Variable) *Variable {
	return t.record(tensor.Mul(a.value, b.value), func(out *Variable) Operation {
		return &MulOp{a: a, b: b, out: out}
	}, a, b)
}

// ScaleOp multiplies by a constant: out = c * a.
type ScaleOp struct {
	a, out *Variable
	c      float64
}

// Backward: grad_a = c * g.
func (op *ScaleOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.Scale(g, op.c)}
}

// Inputs returns [a].
func (op *ScaleOp) Inputs() []*Variable { return []*Variable{op.a} }

// Output returns c * a.
func (op *ScaleOp) Output() *Variable { return op.out }

// Scale multiplies a variable by a constant.
func (t *Tape) Scale(a *Variable, c float64) *Variable {
	return t.record(tensor.Scale(a.value, c), func(out *Variable) Operation {
		return &ScaleOp{a: a, c: c, out: out}
	}, a)
}

// AddScalarOp adds a constant: out = a + c.
type AddScalarOp struct {
	a, out *Variable
}

// Backward passes the gradient through unchanged.
func (op *AddScalarOp) Backward(_ *Tape, g *Variable) []*Variable {
	return []*Variable{g}
}

// Inputs returns [a].
func (op *AddScalarOp) Inputs() []*Variable { return []*Variable{op.a} }

// Output returns a + c.
func (op *AddScalarOp) Output() *Variable { return op.out }

// AddScalar adds a constant to every element.
func (t *Tape) AddScalar(a *Variable, c float64) *Variable {
	return t.record(tensor.AddScalar(a.value, c), func(out *Variable) Operation {
		return &AddScalarOp{a: a, out: out}
	}, a)
}

// Square returns a * a.
func (t *Tape) Square(a *Variable) *Variable {
	return t.Mul(a, a)
}
