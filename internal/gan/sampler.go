package gan

import (
	"github.com/born-ml/wgangp/internal/tensor"
)

// DefaultSampleCount is the number of images handed to a Sampler, a 5x5 grid.
const DefaultSampleCount = 25

// Sampler receives generated images at the configured epoch interval.
//
// images has shape [n, H, W, C] with values in [-1, 1]. The trainer logs and
// collects errors but keeps training.
type Sampler interface {
	Sample(epoch int, images *tensor.Tensor) error
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(epoch int, images *tensor.Tensor) error

// Sample calls f.
func (f SamplerFunc) Sample(epoch int, images *tensor.Tensor) error {
	return f(epoch, images)
}
