package sampling

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/born-ml/wgangp/internal/tensor"
)

// DefaultDir is where sample sheets go when no directory is configured.
const DefaultDir = "images"

// Writer saves one sample sheet per call.
type Writer struct {
	dir     string
	layout  Layout
	caption bool
	logger  *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithGrid sets the grid size. The default is 5x5.
func WithGrid(rows, cols int) Option {
	return func(w *Writer) { w.layout.Rows, w.layout.Cols = rows, cols }
}

// WithScale sets the per-tile upscale factor. The default is 2.
func WithScale(scale int) Option {
	return func(w *Writer) { w.layout.Scale = scale }
}

// WithCaption toggles the "epoch N" caption. It is on by default.
func WithCaption(on bool) Option {
	return func(w *Writer) { w.caption = on }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// NewWriter returns a Writer saving into dir, DefaultDir when empty.
func NewWriter(dir string, opts ...Option) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	w := &Writer{
		dir:     dir,
		layout:  Layout{Rows: 5, Cols: 5, Scale: 2},
		caption: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w
}

// Capacity is the number of images one sheet holds.
func (w *Writer) Capacity() int {
	return w.layout.Rows * w.layout.Cols
}

// Path returns the file written for epoch.
func (w *Writer) Path(epoch int) string {
	return filepath.Join(w.dir, fmt.Sprintf("sample_%02d.png", epoch))
}

// Sample renders images and writes them to Path(epoch).
func (w *Writer) Sample(epoch int, images *tensor.Tensor) error {
	layout := w.layout
	if w.caption {
		layout.Caption = fmt.Sprintf("epoch %d", epoch)
	}
	sheet, err := Render(images, layout)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return errors.Wrap(err, "create sample dir")
	}
	path := w.Path(epoch)
	if err := WritePNG(path, sheet); err != nil {
		return err
	}
	w.logger.Debug("sample written", "path", path, "epoch", epoch)
	return nil
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path) //nolint:gosec // G304: output path chosen by the caller
	if err != nil {
		return errors.Wrap(err, "create sample file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close sample file")
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	return nil
}
