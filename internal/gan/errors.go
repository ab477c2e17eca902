package gan

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds surfaced by the trainer. Match them with errors.Is.
var (
	// ErrConfiguration reports hyperparameters that disagree with the
	// networks or data actually supplied.
	ErrConfiguration = errors.New("configuration error")

	// ErrCheckpointCorrupt reports a missing or malformed checkpoint file.
	ErrCheckpointCorrupt = errors.New("checkpoint corrupt")

	// ErrNumericInstability reports a NaN or Inf loss under NaNAbort.
	ErrNumericInstability = errors.New("numeric instability")
)

// CheckpointError wraps a load failure. It matches ErrCheckpointCorrupt and
// also unwraps to the underlying cause, so a missing file is both corrupt
// and fs.ErrNotExist.
type CheckpointError struct {
	Path string
	Err  error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrCheckpointCorrupt, e.Path, e.Err)
}

// Unwrap returns the cause.
func (e *CheckpointError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCheckpointCorrupt.
func (e *CheckpointError) Is(target error) bool { return target == ErrCheckpointCorrupt }

func corrupt(path string, err error) error {
	return &CheckpointError{Path: path, Err: err}
}

func configErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}
