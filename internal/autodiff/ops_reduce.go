package autodiff

import (
	"github.com/born-ml/wgangp/internal/tensor"
)

// SumRowsOp reduces [batch, n] to [n].
type SumRowsOp struct {
	a, out *Variable
}

// Backward repeats the gradient over the reduced rows.
func (op *SumRowsOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.BroadcastRows(g, op.a.Shape()[0])}
}

// Inputs returns [a].
func (op *SumRowsOp) Inputs() []*Variable { return []*Variable{op.a} }

// Output returns the row sum.
func (op *SumRowsOp) Output() *Variable { return op.out }

// SumRows sums a [batch, n] over its first axis.
func (t *Tape) SumRows(a *Variable) *Variable {
	return t.record(tensor.SumRows(a.value), func(out *Variable) Operation {
		return &SumRowsOp{a: a, out: out}
	}, a)
}

// BroadcastRowsOp repeats [n] into [rows, n].
type BroadcastRowsOp struct {
	a, out *Variable
}

// Backward sums the gradient over rows.
func (op *BroadcastRowsOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.SumRows(g)}
}

// Inputs returns [a].
func (op *BroadcastRowsOp) Inputs() []*Variable { return []*Variable{op.a} }

// Output returns the broadcast variable.
func (op *BroadcastRowsOp) Output() *Variable { return op.out }

// BroadcastRows repeats a vector into a matrix with the given number of rows.
func (t *Tape) BroadcastRows(a *Variable, rows int) *Variable {
	return t.record(tensor.BroadcastRows(a.value, rows), func(out *Variable) Operation {
		return &BroadcastRowsOp{a: a, out: out}
	}, a)
}

// SumColsOp reduces [batch, n] to [batch, 1].
type SumColsOp struct {
	a, out *Variable
}

// Backward repeats the gradient over the reduced columns.
func (op *SumColsOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.BroadcastCols(g, op.a.Shape()[1])}
}

// Inputs returns [a].
func (op *SumColsOp) Inputs() []*Variable { return []*Variable{op.a} }

// Output returns the per-row sum.
func (op *SumColsOp) Output() *Variable { return op.out }

// SumCols sums each row of a [batch, n], giving [batch, 1].
func (t *Tape) SumCols(a *Variable) *Variable {
	return t.record(tensor.SumCols(a.value), func(out *Variable) Operation {
		return &SumColsOp{a: a, out: out}
	}, a)
}

// BroadcastColsOp repeats [batch, 1] into [batch, cols].
type BroadcastColsOp struct {
	a, out *Variable
}

// Backward sums the gradient over columns.
func (op *BroadcastColsOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.SumCols(g)}
}

// Inputs returns [a].
func (op *BroadcastColsOp) Inputs() []*Variable { return []*Variable{op.a} }

// Output returns the broadcast variable.
func (op *BroadcastColsOp) Output() *Variable { return op.out }

// BroadcastCols repeats a column vector into the given number of columns.
func (t *Tape) BroadcastCols(a *Variable, cols int) *Variable {
	return t.record(tensor.BroadcastCols(a.value, cols), func(out *Variable) Operation {
		return &BroadcastColsOp{a: a, out: out}
	}, a)
}

// SumAllOp reduces any tensor to a scalar.
type SumAllOp struct {
	a, out *Variable
}

// Backward expands the scalar gradient back to the input shape.
func (op *SumAllOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.Expand(g, op.a.Shape())}
}

// Inputs returns [a].
func (op *SumAllOp) Inputs() []*Variable { return []*Variable{op.a} }

// Output returns the scalar sum.
func (op *SumAllOp) Output() *Variable { return op.out }

// SumAll sums every element into a scalar.
func (t *Tape) SumAll(a *Variable) *Variable {
	return t.record(tensor.Full(tensor.Shape{}, tensor.Sum(a.value)), func(out *Variable) Operation {
		return &SumAllOp{a: a, out: out}
	}, a)
}

// ExpandOp fills a shape with a scalar.
type ExpandOp struct {
	a, out *Variable
}

// Backward sums the gradient back into the scalar.
func (op *ExpandOp) Backward(tp *Tape, g *Variable) []*Variable {
	return []*Variable{tp.SumAll(g)}
}

// Inputs returns [a].
func (op *ExpandOp) Inputs() []*Variable { return []*Variable{op.a} }

// Output returns the expanded variable.
func (op *ExpandOp) Output() *Variable { return op.out }

// Expand broadcasts a one-element variable to shape.
func (t *Tape) Expand(a *Variable, shape tensor.Shape) *Variable {
	return t.record(tensor.Full(shape, a.value.Item()), func(out *Variable) Operation {
		return &ExpandOp{a: a, out: out}
	}, a)
}

// Mean averages every element into a scalar.
func (t *Tape) Mean(a *Variable) *Variable {
	return t.Scale(t.SumAll(a), 1/float64(a.value.NumElements()))
}
