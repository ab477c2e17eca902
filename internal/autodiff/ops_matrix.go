package autodiff

import (
	"fmt"

	"github.com/born-ml/wgangp/internal/tensor"
)

// MatMulOp is a matrix product: out = a @ b.
//
// Backward pass:
//   - grad_a = g @ b^T
//   - grad_b = a^T @ g
type MatMulOp struct {
	a, b, out *Variable
}

// Backward computes input gradients for the matrix product.
func (op *MatMulOp) Backward(tp *Tape, g *Variable) []*Variable {
	var ga, gb *Variable
	if op.a.requiresGrad {
		ga = tp.MatMul(g, tp.Transpose(op.b))
	}
	if op.b.requiresGrad {
		gb = tp.MatMul(tp.Transpose(op.a), g)
	}
	return []*Variable{ga, gb}
}

// Inputs returns [a, b].
func (op *MatMulOp) Inputs() []*Variable { return []*Variable{op.a, op.b} }

// Output returns a @ b.
func (op *MatMulOp) Output() *Variable { return op.out }

// MatMul multiplies a [m, k] by b [k, n].
func (t *Tape) MatMul(a, b *Variable) *Variable {
	return t.record(tensor.MatMul(a.value, b.value), func(out *Variable) Operation {
		return &MatMulOp{a: a, b: b, out: out}
	}, a, b)
}

// TransposeOp swaps the axes of a matrix.
type TransposeOp struct {
	a, out *Variable
}

// Backward transposes the gradient back.
func (op *TransposeOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.Transpose(g)}
}

// Inputs returns [a].
func (op *TransposeOp) Inputs() []*Variable { return []*Variable{op.a} }

// Output returns a^T.
func (op *TransposeOp) Output() *Variable { return op.out }

// Transpose transposes a matrix.
//
// It must be recorded like any other op: a Linear layer multiplies by W^T,
// and without the op the gradient would land on the transposed copy instead
// of the parameter.
func (t *Tape) Transpose(a *Variable) *Variable {
	return t.record(tensor.Transpose(a.value), func(out *Variable) Operation {
		return &TransposeOp{a: a, out: out}
	}, a)
}

// AddBiasOp adds a row vector to every row: out[i, j] = x[i, j] + b[j].
type AddBiasOp struct {
	x, b, out *Variable
}

// Backward: grad_x = g, grad_b = sum of g over rows.
func (op *AddBiasOp) Backward(tp *Tape, g *Variable) []*Variable {
	var gb *Variable
	if op.b.requiresGrad {
		gb = tp.SumRows(g)
	}
	return []*Variable{g, gb}
}

// Inputs returns [x, b].
func (op *AddBiasOp) Inputs() []*Variable { return []*Variable{op.x, op.b} }

// Output returns x + b.
func (op *AddBiasOp) Output() *Variable { return op.out }

// AddBias broadcasts b [n] over the rows of x [batch, n].
func (t *Tape) AddBias(x, b *Variable) *Variable {
	return t.record(tensor.AddRowVector(x.value, b.value), func(out *Variable) Operation {
		return &AddBiasOp{x: x, b: b, out: out}
	}, x, b)
}

// ReshapeOp changes the shape without touching values.
type ReshapeOp struct {
	a, out *Variable
}

// Backward reshapes the gradient to the input shape.
func (op *ReshapeOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.Reshape(g, op.a.Shape())}
}

// Inputs returns [a].
func (op *ReshapeOp) Inputs() []*Variable { return []*Variable{op.a} }

// Output returns the reshaped variable.
func (op *ReshapeOp) Output() *Variable { return op.out }

// Reshape returns a with a new shape of the same size. It panics when the
// element counts differ.
func (t *Tape) Reshape(a *Variable, shape tensor.Shape) *Variable {
	value, err := a.value.Reshape(shape)
	if err != nil {
		panic(fmt.Sprintf("Reshape: %v", err))
	}
	return t.record(value, func(out *Variable) Operation {
		return &ReshapeOp{a: a, out: out}
	}, a)
}

// Flatten reshapes [batch, d1, d2, ...] to [batch, d1*d2*...].
func (t *Tape) Flatten(a *Variable) *Variable {
	shape := a.Shape()
	if len(shape) == 2 {
		return a
	}
	batch := shape[0]
	return t.Reshape(a, tensor.Shape{batch, a.value.NumElements() / batch})
}
