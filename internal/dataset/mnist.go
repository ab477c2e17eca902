package dataset

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/born-ml/wgangp/internal/tensor"
)

// Standard MNIST training file names. A ".gz" variant is used when the plain
// file is absent.
const (
	MNISTTrainImages = "train-images-idx3-ubyte"
	MNISTTrainLabels = "train-labels-idx1-ubyte"
)

// MNIST loads the MNIST training images from a directory of IDX files.
type MNIST struct {
	Dir    string
	Digits []int // keep only these classes; empty keeps all
	Limit  int   // keep at most this many images; 0 keeps all
}

// Load reads the images, applying the digit filter and limit.
func (m MNIST) Load() (*tensor.Tensor, error) {
	images, err := readIDXFile(filepath.Join(m.Dir, MNISTTrainImages), ReadIDXImages)
	if err != nil {
		return nil, err
	}

	var keep []int
	if len(m.Digits) > 0 {
		labels, err := readIDXFile(filepath.Join(m.Dir, MNISTTrainLabels), ReadIDXLabels)
		if err != nil {
			return nil, err
		}
		if len(labels) != images.Dim(0) {
			return nil, errors.Errorf("mnist: %d labels for %d images", len(labels), images.Dim(0))
		}
		wanted := make(map[byte]bool, len(m.Digits))
		for _, d := range m.Digits {
			wanted[byte(d)] = true
		}
		for i, l := range labels {
			if wanted[l] {
				keep = append(keep, i)
			}
		}
		if len(keep) == 0 {
			return nil, errors.Errorf("mnist: no images for digits %v", m.Digits)
		}
	} else {
		keep = make([]int, images.Dim(0))
		for i := range keep {
			keep[i] = i
		}
	}

	if m.Limit > 0 && len(keep) > m.Limit {
		keep = keep[:m.Limit]
	}
	if len(keep) == images.Dim(0) {
		return images, nil
	}
	return images.Rows(keep), nil
}

func readIDXFile[T any](path string, read func(r io.Reader) (T, error)) (T, error) {
	var zero T
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path += ".gz"
	}
	r, closeFn, err := openIDX(path)
	if err != nil {
		return zero, errors.Wrap(err, "mnist")
	}
	defer func() { _ = closeFn() }()
	out, err := read(r)
	if err != nil {
		return zero, errors.Wrapf(err, "mnist: %s", path)
	}
	return out, nil
}
