package nn

import (
	"github.com/born-ml/wgangp/internal/autodiff"
	"github.com/born-ml/wgangp/internal/tensor"
)

// LeakyReLU applies f(x) = x for x > 0 and slope*x otherwise.
//
// The default generator and critic both use a slope of 0.2.
type LeakyReLU struct {
	slope float64
}

// NewLeakyReLU creates a LeakyReLU with the given negative slope.
func NewLeakyReLU(slope float64) *LeakyReLU {
	return &LeakyReLU{slope: slope}
}

// Forward applies the activation.
func (l *LeakyReLU) Forward(tp *autodiff.Tape, x *autodiff.Variable) *autodiff.Variable {
	return tp.LeakyReLU(x, l.slope)
}

// Parameters returns nil.
func (l *LeakyReLU) Parameters() []*Parameter { return nil }

// Slope returns the negative slope.
func (l *LeakyReLU) Slope() float64 { return l.slope }

// ReLU applies f(x) = max(0, x).
type ReLU struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU { return &ReLU{} }

// Forward applies the activation.
func (r *ReLU) Forward(tp *autodiff.Tape, x *autodiff.Variable) *autodiff.Variable {
	return tp.ReLU(x)
}

// Parameters returns nil.
func (r *ReLU) Parameters() []*Parameter { return nil }

// Tanh squashes values into (-1, 1). Used as the generator's output layer so
// that images match the [-1, 1] data range.
type Tanh struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh() *Tanh { return &Tanh{} }

// Forward applies the activation.
func (t *Tanh) Forward(tp *autodiff.Tape, x *autodiff.Variable) *autodiff.Variable {
	return tp.Tanh(x)
}

// Parameters returns nil.
func (t *Tanh) Parameters() []*Parameter { return nil }

// Flatten reshapes [batch, d1, d2, ...] to [batch, d1*d2*...].
type Flatten struct{}

// NewFlatten creates a Flatten module.
func NewFlatten() *Flatten { return &Flatten{} }

// Forward flattens all non-batch axes.
func (f *Flatten) Forward(tp *autodiff.Tape, x *autodiff.Variable) *autodiff.Variable {
	return tp.Flatten(x)
}

// Parameters returns nil.
func (f *Flatten) Parameters() []*Parameter { return nil }

// Reshape maps [batch, n] to [batch, shape...].
type Reshape struct {
	shape tensor.Shape
}

// NewReshape creates a Reshape to the given per-sample shape.
func NewReshape(shape tensor.Shape) *Reshape {
	return &Reshape{shape: shape.Clone()}
}

// Forward reshapes every sample, keeping the batch axis.
func (r *Reshape) Forward(tp *autodiff.Tape, x *autodiff.Variable) *autodiff.Variable {
	return tp.Reshape(x, r.shape.Batched(x.Shape()[0]))
}

// Parameters returns nil.
func (r *Reshape) Parameters() []*Parameter { return nil }

// Shape returns the per-sample target shape.
func (r *Reshape) Shape() tensor.Shape { return r.shape.Clone() }
