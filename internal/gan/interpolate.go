package gan

import (
	"math/rand/v2"

	"github.com/born-ml/wgangp/internal/tensor"
)

// Interpolate returns alpha*real + (1-alpha)*fake, one alpha per sample.
//
// real and fake must share a shape [B, ...]; alpha must hold exactly B
// values, shaped [B] or [B, 1]. The batch size is taken from the inputs, so
// any B >= 1 works.
func Interpolate(real, fake, alpha *tensor.Tensor) (*tensor.Tensor, error) {
	if !real.Shape().Equal(fake.Shape()) {
		return nil, configErrorf("interpolate: real %v and fake %v differ", real.Shape(), fake.Shape())
	}
	if real.Rank() < 1 {
		return nil, configErrorf("interpolate: missing batch axis")
	}
	batch := real.Dim(0)
	if alpha.NumElements() != batch {
		return nil, configErrorf("interpolate: %d alphas for batch of %d", alpha.NumElements(), batch)
	}

	out := tensor.Zeros(real.Shape())
	stride := real.NumElements() / batch
	r, f, a, o := real.Data(), fake.Data(), alpha.Data(), out.Data()
	for i := 0; i < batch; i++ {
		for j := i * stride; j < (i+1)*stride; j++ {
			o[j] = a[i]*r[j] + (1-a[i])*f[j]
		}
	}
	return out, nil
}

// SampleAlpha draws per-sample mixing weights from U[0, 1), shaped [batch, 1].
func SampleAlpha(batch int, rng *rand.Rand) *tensor.Tensor {
	return tensor.Uniform(tensor.Shape{batch, 1}, 0, 1, rng)
}
