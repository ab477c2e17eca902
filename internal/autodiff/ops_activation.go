package autodiff

import (
	"math"

	"github.com/born-ml/wgangp/internal/tensor"
)

// LeakyReLUOp computes out = x where x > 0, slope * x elsewhere.
//
// The derivative mask is captured at forward time as a constant. Its own
// derivative is zero almost everywhere, so second-order gradients only flow
// through the incoming gradient.
type LeakyReLUOp struct {
	x, out *Variable
	mask   *tensor.Tensor
}

// Backward: grad_x = g * mask.
func (op *LeakyReLUOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.Mul(g, tp.Constant(op.mask))}
}

// Inputs returns [x].
func (op *LeakyReLUOp) Inputs() []*Variable { return []*Variable{op.x} }

// Output returns the activation.
func (op *LeakyReLUOp) Output() *Variable { return op.out }

// LeakyReLU applies a leaky rectifier. A slope of 0 gives a plain ReLU.
func (t *Tape) LeakyReLU(x *Variable, slope float64) *Variable {
	mask := tensor.Map(x.value, func(v float64) float64 {
		if v > 0 {
			return 1
		}
		return slope
	})
	return t.record(tensor.Mul(x.value, mask), func(out *Variable) Operation {
		return &LeakyReLUOp{x: x, out: out, mask: mask}
	}, x)
}

// ReLU applies max(0, x).
func (t *Tape) ReLU(x *Variable) *Variable {
	return t.LeakyReLU(x, 0)
}

// TanhOp is the hyperbolic tangent.
type TanhOp struct {
	x, out *Variable
}

// Backward: grad_x = g * (1 - tanh(x)^2), written in terms of the output so
// that it stays differentiable.
func (op *TanhOp) Backward(tp *Tape, g *Variable) []*Variable {
	local := tp.AddScalar(tp.Scale(tp.Square(op.out), -1), 1)
	return []*Variable{tp.Mul(g, local)}
}

// Inputs returns [x].
func (op *TanhOp) Inputs() []*Variable { return []*Variable{op.x} }

// Output returns tanh(x).
func (op *TanhOp) Output() *Variable { return op.out }

// Tanh applies the hyperbolic tangent.
func (t *Tape) Tanh(x *Variable) *Variable {
	return t.record(tensor.Map(x.value, math.Tanh), func(out *Variable) Operation {
		return &TanhOp{x: x, out: out}
	}, x)
}

// SqrtOp is the element-wise square root.
type SqrtOp struct {
	x, out *Variable
}

// Backward: grad_x = g / (2 * sqrt(x)). At x = 0 the zero subgradient is
// used, so a vanishing input yields a zero gradient instead of NaN.
func (op *SqrtOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.Mul(g, tp.SafeReciprocal(tp.Scale(op.out, 2)))}
}

// Inputs returns [x].
func (op *SqrtOp) Inputs() []*Variable { return []*Variable{op.x} }

// Output returns sqrt(x).
func (op *SqrtOp) Output() *Variable { return op.out }

// Sqrt applies the square root. Inputs must be non-negative.
func (t *Tape) Sqrt(x *Variable) *Variable {
	return t.record(tensor.Map(x.value, math.Sqrt), func(out *Variable) Operation {
		return &SqrtOp{x: x, out: out}
	}, x)
}

// SafeReciprocalOp computes 1/x, defined as 0 where x == 0.
type SafeReciprocalOp struct {
	x, out *Variable
}

// Backward: grad_x = -g * out^2, which is also 0 where x == 0.
func (op *SafeReciprocalOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.Mul(g, tp.Scale(tp.Square(op.out), -1))}
}

// Inputs returns [x].
func (op *SafeReciprocalOp) Inputs() []*Variable { return []*Variable{op.x} }

// Output returns 1/x.
func (op *SafeReciprocalOp) Output() *Variable { return op.out }

// SafeReciprocal returns 1/x element-wise with 1/0 defined as 0.
func (t *Tape) SafeReciprocal(x *Variable) *Variable {
	value := tensor.Map(x.value, func(v float64) float64 {
		if v == 0 {
			return 0
		}
		return 1 / v
	})
	return t.record(value, func(out *Variable) Operation {
		return &SafeReciprocalOp{x: x, out: out}
	}, x)
}
