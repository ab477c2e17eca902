package gan

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/wgangp/internal/autodiff"
	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/tensor"
)

// TrainOptions controls one Train call.
type TrainOptions struct {
	Epochs             int
	BatchSize          int
	SampleInterval     int // sample when > 0 and epoch % SampleInterval == 0
	CheckpointInterval int // Save when > 0 and epoch % CheckpointInterval == 0
}

// CriticLoss holds the values of one critic update.
type CriticLoss struct {
	Total   float64
	Real    float64
	Fake    float64
	Penalty float64
}

// TrainResult summarizes one Train call.
type TrainResult struct {
	StartEpoch     int
	EndEpoch       int
	CriticSteps    int // applied updates; NaNSkip drops some
	GeneratorSteps int
	// CriticLosses and GeneratorLoss are from the last completed epoch.
	CriticLosses  []CriticLoss
	GeneratorLoss float64
	SampledEpochs []int
	SampleErrors  []error
	Checkpoints   int
}

// Train runs opts.Epochs epochs. Each epoch applies NCritic critic updates,
// one generator update, increments the epoch counter, then samples and
// checkpoints when their intervals divide the new epoch.
//
// ctx is checked between epochs only; on cancellation Train returns
// ctx.Err() with the epoch counter matching the completed work. Sampler
// failures do not stop training and are reported in the result.
func (t *Trainer) Train(ctx context.Context, opts TrainOptions) (TrainResult, error) {
	res := TrainResult{StartEpoch: t.epoch, EndEpoch: t.epoch}
	switch {
	case opts.Epochs < 0:
		return res, configErrorf("epochs must be non-negative, got %d", opts.Epochs)
	case opts.BatchSize < 1:
		return res, configErrorf("batch size must be positive, got %d", opts.BatchSize)
	case opts.SampleInterval < 0 || opts.CheckpointInterval < 0:
		return res, configErrorf("intervals must be non-negative")
	}
	if err := t.ensureData(); err != nil {
		return res, err
	}

	log := t.opts.logger.With("run_id", t.runID)
	log.Info("training started",
		"start_epoch", t.epoch,
		"epochs", opts.Epochs,
		"batch_size", opts.BatchSize,
		"n_critic", t.cfg.NCritic,
		"samples", t.data.Dim(0),
	)

	startCritic, startGenerator := t.criticSteps, t.generatorSteps
	t.state = StateTraining
	defer func() {
		if t.state == StateTraining {
			t.state = StateReady
		}
	}()

	for i := 0; i < opts.Epochs; i++ {
		if err := ctx.Err(); err != nil {
			log.Info("training interrupted", "epoch", t.epoch)
			return res, err
		}
		t.state = StateTraining

		critic := make([]CriticLoss, 0, t.cfg.NCritic)
		for s := 0; s < t.cfg.NCritic; s++ {
			loss, err := t.criticStep(opts.BatchSize)
			if err != nil {
				return res, errors.Wrapf(err, "epoch %d critic step %d", t.epoch+1, s+1)
			}
			critic = append(critic, loss)
		}
		gLoss, err := t.generatorStep(opts.BatchSize)
		if err != nil {
			return res, errors.Wrapf(err, "epoch %d generator step", t.epoch+1)
		}

		t.epoch++
		res.CriticSteps = t.criticSteps - startCritic
		res.GeneratorSteps = t.generatorSteps - startGenerator
		res.EndEpoch = t.epoch
		res.CriticLosses = critic
		res.GeneratorLoss = gLoss

		if t.opts.logEvery > 0 && t.epoch%t.opts.logEvery == 0 {
			log.Info("epoch",
				"epoch", t.epoch,
				"d_loss", critic[0].Total,
				"gp", critic[0].Penalty,
				"g_loss", gLoss,
			)
		}

		if opts.SampleInterval > 0 && t.epoch%opts.SampleInterval == 0 {
			res.SampledEpochs = append(res.SampledEpochs, t.epoch)
			if err := t.sample(); err != nil {
				log.Warn("sampling failed", "epoch", t.epoch, "error", err)
				res.SampleErrors = append(res.SampleErrors, errors.Wrapf(err, "sample epoch %d", t.epoch))
			}
		}

		if opts.CheckpointInterval > 0 && t.epoch%opts.CheckpointInterval == 0 {
			if err := t.Save(); err != nil {
				return res, err
			}
			res.Checkpoints++
		}
	}

	log.Info("training finished", "epoch", t.epoch)
	return res, nil
}

// ensureData loads and rescales the dataset once.
func (t *Trainer) ensureData() error {
	if t.data != nil {
		return nil
	}
	if t.opts.dataset == nil {
		return configErrorf("no dataset configured")
	}
	raw, err := t.opts.dataset.Load()
	if err != nil {
		return errors.Wrap(err, "load dataset")
	}
	data, err := PrepareImages(raw, t.cfg.ImgShape)
	if err != nil {
		return err
	}
	t.data = data
	return nil
}

// criticStep applies one critic update on a batch drawn with replacement.
func (t *Trainer) criticStep(batch int) (CriticLoss, error) {
	idx := make([]int, batch)
	n := t.data.Dim(0)
	for i := range idx {
		idx[i] = t.rng.IntN(n)
	}
	real := t.data.Rows(idx)

	z := tensor.Randn(tensor.Shape{batch, t.cfg.LatentDim}, t.rng)
	frozen := autodiff.NoGrad()
	fake := t.generator.Forward(frozen, frozen.Constant(z)).Value()

	interpolated, err := Interpolate(real, fake, SampleAlpha(batch, t.rng))
	if err != nil {
		return CriticLoss{}, err
	}

	tp := autodiff.NewTape()
	t.critGroup.Watch(tp)
	terms, err := CriticObjective(tp, t.critic, real, fake, interpolated, t.labelsFor(batch), t.cfg.GPWeight)
	if err != nil {
		return CriticLoss{}, err
	}
	loss := terms.Values()

	apply, err := t.checkFinite("critic", loss.Total)
	if err != nil || !apply {
		return loss, err
	}
	if err := t.update(tp, t.critGroup, terms.Total, t.critOpt); err != nil {
		return loss, err
	}
	t.criticSteps++
	return loss, nil
}

// generatorStep applies one generator update against the current critic.
func (t *Trainer) generatorStep(batch int) (float64, error) {
	z := tensor.Randn(tensor.Shape{batch, t.cfg.LatentDim}, t.rng)

	tp := autodiff.NewTape()
	t.genGroup.Watch(tp)
	objective := GeneratorObjective(tp, t.generator, t.critic, z, t.labelsFor(batch))
	loss := objective.Item()

	apply, err := t.checkFinite("generator", loss)
	if err != nil || !apply {
		return loss, err
	}
	if err := t.update(tp, t.genGroup, objective, t.genOpt); err != nil {
		return loss, err
	}
	t.generatorSteps++
	return loss, nil
}

type stepper interface {
	Step(grads map[*nn.Parameter]*tensor.Tensor)
}

func (t *Trainer) update(tp *autodiff.Tape, group nn.ParamGroup, loss *autodiff.Variable, opt stepper) error {
	grads, err := group.Gradients(tp, loss)
	if err != nil {
		return errors.Wrapf(err, "%s gradients", group.Tag)
	}
	opt.Step(grads)
	return nil
}

// checkFinite applies the NaN policy. It reports whether the update should
// still be applied.
func (t *Trainer) checkFinite(group string, loss float64) (bool, error) {
	if !math.IsNaN(loss) && !math.IsInf(loss, 0) {
		return true, nil
	}
	t.opts.logger.Warn("non-finite loss",
		"group", group,
		"epoch", t.epoch+1,
		"loss", loss,
		"policy", string(t.opts.nanPolicy),
	)
	switch t.opts.nanPolicy {
	case NaNAbort:
		return false, errors.Wrapf(ErrNumericInstability, "%s loss is %v", group, loss)
	case NaNSkip:
		return false, nil
	default:
		return true, nil
	}
}

// sample hands a batch of generated images to the sampler.
func (t *Trainer) sample() error {
	if t.opts.sampler == nil {
		return nil
	}
	images, err := t.Generate(t.opts.sampleCount)
	if err != nil {
		return err
	}
	return t.opts.sampler.Sample(t.epoch, images)
}
