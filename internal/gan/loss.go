package gan

import (
	"github.com/pkg/errors"

	"github.com/born-ml/wgangp/internal/autodiff"
	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/tensor"
)

// Label values for the Wasserstein losses.
const (
	ValidLabel = -1.0
	FakeLabel  = 1.0
	DummyLabel = 0.0
)

// DefaultGPWeight is the gradient penalty coefficient λ.
const DefaultGPWeight = 10.0

// Labels holds the per-sample targets for one batch size, each shaped [B, 1].
// Dummy is the gradient penalty target; the penalty ignores it.
type Labels struct {
	Valid *tensor.Tensor
	Fake  *tensor.Tensor
	Dummy *tensor.Tensor
}

// NewLabels builds the label set for batch samples.
func NewLabels(batch int) Labels {
	shape := tensor.Shape{batch, 1}
	return Labels{
		Valid: tensor.Full(shape, ValidLabel),
		Fake:  tensor.Full(shape, FakeLabel),
		Dummy: tensor.Full(shape, DummyLabel),
	}
}

// WassersteinLoss is mean(labels * scores).
func WassersteinLoss(tp *autodiff.Tape, labels *tensor.Tensor, scores *autodiff.Variable) *autodiff.Variable {
	return tp.Mean(tp.Mul(tp.Constant(labels), scores))
}

// GradientPenalty evaluates critic on the interpolated batch and returns
// mean((1 - ||d critic / d x||)^2), the norm taken per sample over all
// non-batch axes.
//
// The input gradient is recorded on tp, so the penalty stays differentiable
// with respect to whatever critic parameters tp watches. A critic whose
// output ignores its input yields exactly 1.
func GradientPenalty(tp *autodiff.Tape, critic nn.Module, interpolated *tensor.Tensor) (*autodiff.Variable, error) {
	if !tp.IsRecording() {
		return nil, errors.New("gradient penalty needs a recording tape")
	}
	x := tp.Input(interpolated)
	scores := critic.Forward(tp, x)
	grads, err := tp.Grad(scores, []*autodiff.Variable{x}, autodiff.CreateGraph())
	if err != nil {
		return nil, errors.Wrap(err, "critic input gradient")
	}
	norm := tp.Sqrt(tp.SumCols(tp.Square(tp.Flatten(grads[0]))))
	return tp.Mean(tp.Square(tp.AddScalar(tp.Scale(norm, -1), 1))), nil
}

// CriticTerms are the differentiable pieces of the critic objective.
type CriticTerms struct {
	Real    *autodiff.Variable // mean(valid * critic(real))
	Fake    *autodiff.Variable // mean(fake * critic(fake))
	Penalty *autodiff.Variable // gradient penalty
	Total   *autodiff.Variable // Real + Fake + gpWeight*Penalty
}

// Values returns the scalar values of the terms.
func (c CriticTerms) Values() CriticLoss {
	return CriticLoss{
		Total:   c.Total.Item(),
		Real:    c.Real.Item(),
		Fake:    c.Fake.Item(),
		Penalty: c.Penalty.Item(),
	}
}

// CriticObjective assembles 1*real + 1*fake + gpWeight*penalty.
//
// All three critic evaluations run on tp against the same live parameters.
// real, fake and interpolated are data: only critic parameters the tape
// watches can receive gradients.
func CriticObjective(
	tp *autodiff.Tape,
	critic nn.Module,
	real, fake, interpolated *tensor.Tensor,
	labels Labels,
	gpWeight float64,
) (CriticTerms, error) {
	var terms CriticTerms
	terms.Real = WassersteinLoss(tp, labels.Valid, critic.Forward(tp, tp.Constant(real)))
	terms.Fake = WassersteinLoss(tp, labels.Fake, critic.Forward(tp, tp.Constant(fake)))

	gp, err := GradientPenalty(tp, critic, interpolated)
	if err != nil {
		return terms, err
	}
	terms.Penalty = gp
	terms.Total = tp.Add(tp.Add(terms.Real, terms.Fake), tp.Scale(gp, gpWeight))
	return terms, nil
}

// GeneratorObjective is mean(valid * critic(generator(z))), which with
// valid = -1 rewards fakes the critic scores as real.
func GeneratorObjective(tp *autodiff.Tape, generator, critic nn.Module, z *tensor.Tensor, labels Labels) *autodiff.Variable {
	fake := generator.Forward(tp, tp.Constant(z))
	return WassersteinLoss(tp, labels.Valid, critic.Forward(tp, fake))
}
