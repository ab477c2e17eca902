package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/born-ml/wgangp/internal/parallel"
	"github.com/born-ml/wgangp/internal/tensor"
)

// IDX magic numbers.
const (
	idxImagesMagic = 2051 // 0x00000803
	idxLabelsMagic = 2049 // 0x00000801
)

// Limits on header-driven allocations.
const (
	maxIDXItems = 10_000_000
	maxIDXSide  = 4096
	maxIDXBytes = 1 << 28
)

// ReadIDXImages reads an IDX image stream.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255)
//
// The result has shape (N, rows, cols) with values in [0, 255].
func ReadIDXImages(r io.Reader) (*tensor.Tensor, error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(err, "failed to read IDX image header")
	}
	if header[0] != idxImagesMagic {
		return nil, errors.Errorf("invalid magic number: got %d, want %d", header[0], idxImagesMagic)
	}
	n, rows, cols := int(header[1]), int(header[2]), int(header[3])
	if n == 0 || n > maxIDXItems || rows == 0 || rows > maxIDXSide || cols == 0 || cols > maxIDXSide {
		return nil, errors.Errorf("invalid IDX image dimensions %dx%dx%d", n, rows, cols)
	}
	if n*rows*cols > maxIDXBytes {
		return nil, errors.Errorf("IDX image data of %dx%dx%d bytes exceeds %d", n, rows, cols, maxIDXBytes)
	}

	pixels := make([]byte, n*rows*cols)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, errors.Wrapf(err, "failed to read %d images", n)
	}
	data := make([]float64, len(pixels))
	parallel.For(len(pixels), func(i int) {
		data[i] = float64(pixels[i])
	}, parallel.DefaultConfig())
	return tensor.FromSlice(data, tensor.Shape{n, rows, cols})
}

// ReadIDXLabels reads an IDX label stream.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadIDXLabels(r io.Reader) ([]byte, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(err, "failed to read IDX label header")
	}
	if header[0] != idxLabelsMagic {
		return nil, errors.Errorf("invalid magic number: got %d, want %d", header[0], idxLabelsMagic)
	}
	if header[1] > maxIDXItems {
		return nil, errors.Errorf("too many labels: %d", header[1])
	}
	labels := make([]byte, header[1])
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, errors.Wrap(err, "failed to read labels")
	}
	return labels, nil
}

// openIDX opens path and transparently decompresses gzip content, detected
// by its magic bytes rather than the file name.
func openIDX(path string) (io.Reader, func() error, error) {
	//nolint:gosec // G304: dataset paths come from configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			_ = f.Close()
			return nil, nil, errors.Wrapf(err, "open gzip stream %s", path)
		}
		return zr, func() error {
			_ = zr.Close()
			return f.Close()
		}, nil
	}
	return br, f.Close, nil
}
