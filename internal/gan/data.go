package gan

import (
	"github.com/born-ml/wgangp/internal/tensor"
)

// PrepareImages rescales [0, 255] pixels to [-1, 1] and adds a channel axis
// to (N, H, W) input. The result must match imgShape per sample.
func PrepareImages(raw *tensor.Tensor, imgShape tensor.Shape) (*tensor.Tensor, error) {
	if raw == nil {
		return nil, configErrorf("no training images")
	}
	shape := raw.Shape()
	switch {
	case len(shape) == 3 && len(imgShape) == 3 && imgShape[2] == 1:
		shape = tensor.Shape{shape[0], shape[1], shape[2], 1}
	case len(shape) == 4:
	default:
		return nil, configErrorf("dataset shape %v does not fit image shape %v", raw.Shape(), imgShape)
	}
	if shape[0] < 1 {
		return nil, configErrorf("dataset is empty")
	}
	if !tensor.Shape(shape[1:]).Equal(imgShape) {
		return nil, configErrorf("dataset images are %v, configured image shape is %v", tensor.Shape(shape[1:]), imgShape)
	}
	images, err := raw.Reshape(shape)
	if err != nil {
		return nil, configErrorf("reshape dataset: %v", err)
	}
	return tensor.Scale(tensor.AddScalar(images, -127.5), 1/127.5), nil
}
