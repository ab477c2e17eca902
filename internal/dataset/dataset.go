// Package dataset provides the image sources the trainer learns from.
//
// A Dataset returns raw pixel intensities in [0, 255] shaped (N, H, W) or
// (N, H, W, C). Rescaling to [-1, 1] is the trainer's job.
package dataset

import (
	"github.com/pkg/errors"

	"github.com/born-ml/wgangp/internal/tensor"
)

// Dataset loads a full training set into memory.
type Dataset interface {
	Load() (*tensor.Tensor, error)
}

// InMemory serves a pre-built image tensor.
type InMemory struct {
	images *tensor.Tensor
}

// NewInMemory wraps images, which must be rank 3 or 4 with at least one sample.
func NewInMemory(images *tensor.Tensor) (*InMemory, error) {
	if err := checkImages(images); err != nil {
		return nil, err
	}
	return &InMemory{images: images.Clone()}, nil
}

// Load returns a copy of the images.
func (m *InMemory) Load() (*tensor.Tensor, error) {
	return m.images.Clone(), nil
}

func checkImages(images *tensor.Tensor) error {
	if images == nil {
		return errors.New("dataset: nil image tensor")
	}
	if r := images.Rank(); r != 3 && r != 4 {
		return errors.Errorf("dataset: images must be (N, H, W) or (N, H, W, C), got %v", images.Shape())
	}
	for _, v := range images.Data() {
		if v < 0 || v > 255 {
			return errors.Errorf("dataset: pixel value %v outside [0, 255]", v)
		}
	}
	return nil
}
