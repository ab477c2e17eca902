package autodiff

import (
	"github.com/born-ml/wgangp/internal/tensor"
)

// Tape records operations during the forward pass.
//
// A tape is meant to live for a single optimization step: build one, watch
// the parameter group being optimized, run the forward passes, take
// gradients, and drop it.
type Tape struct {
	operations []Operation
	recording  bool
	watched    map[*tensor.Tensor]bool
	leaves     map[*tensor.Tensor]*Variable
}

// NewTape creates a recording tape.
func NewTape() *Tape {
	return &Tape{
		operations: make([]Operation, 0, 64),
		recording:  true,
		watched:    make(map[*tensor.Tensor]bool),
		leaves:     make(map[*tensor.Tensor]*Variable),
	}
}

// NoGrad creates a tape that never records. Ops still compute their values,
// which makes it the inference path.
func NoGrad() *Tape {
	tp := NewTape()
	tp.recording = false
	return tp
}

// IsRecording returns true if the tape is currently recording operations.
func (t *Tape) IsRecording() bool {
	return t.recording
}

// NumOps returns the number of recorded operations.
func (t *Tape) NumOps() int {
	return len(t.operations)
}

// Watch marks tensors as trainable for this tape. It must be called before
// the tensors are first used through Var.
func (t *Tape) Watch(ts ...*tensor.Tensor) {
	for _, x := range ts {
		t.watched[x] = true
	}
}

// Var returns the leaf variable bound to a persistent tensor such as a
// parameter. Repeated calls return the same variable, so several forward
// passes through one network share leaves and their gradients accumulate.
// Unwatched tensors come back as constants.
func (t *Tape) Var(x *tensor.Tensor) *Variable {
	if v, ok := t.leaves[x]; ok {
		return v
	}
	v := &Variable{value: x, requiresGrad: t.recording && t.watched[x]}
	t.leaves[x] = v
	return v
}

// Input returns a fresh leaf that gradients can be taken with respect to.
func (t *Tape) Input(x *tensor.Tensor) *Variable {
	return &Variable{value: x, requiresGrad: t.recording}
}

// Constant wraps a tensor that never receives gradients.
func (t *Tape) Constant(x *tensor.Tensor) *Variable {
	return &Variable{value: x}
}

// record creates the output variable for an op and appends the op when any
// input carries gradient.
func (t *Tape) record(value *tensor.Tensor, build func(out *Variable) Operation, inputs ...*Variable) *Variable {
	out := &Variable{value: value}
	if !t.recording {
		return out
	}
	for _, in := range inputs {
		if in.requiresGrad {
			out.requiresGrad = true
			break
		}
	}
	if out.requiresGrad {
		t.operations = append(t.operations, build(out))
	}
	return out
}
