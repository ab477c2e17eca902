package nn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/wgangp/internal/serialization"
	"github.com/born-ml/wgangp/internal/tensor"
)

// optimizerPrefix separates optimizer buffers from model weights inside one
// weight file.
const optimizerPrefix = "optimizer."

// OptimizerState represents an optimizer that can save/load its state.
//
// This interface lets weight files carry optimizer buffers without nn
// importing the optim package. Optimizers from optim implement it.
type OptimizerState interface {
	// StateDict returns the optimizer buffers keyed by parameter-derived names.
	StateDict() map[string]*tensor.Tensor

	// LoadStateDict restores buffers produced by StateDict.
	LoadStateDict(stateDict map[string]*tensor.Tensor) error

	// Name identifies the algorithm, e.g. "rmsprop".
	Name() string

	// LR returns the current learning rate.
	LR() float64
}

// SaveWeights writes the network weights, and the optimizer state when opt is
// non-nil, into a single .born file at path.
//
// Optimizer entries are stored under the "optimizer." prefix.
func SaveWeights(path string, net Network, opt OptimizerState, metadata map[string]string) error {
	combined := make(map[string]*tensor.Tensor)
	for name, t := range net.StateDict() {
		combined[name] = t
	}

	meta := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		meta[k] = v
	}
	if opt != nil {
		for name, t := range opt.StateDict() {
			combined[optimizerPrefix+name] = t
		}
		meta["optimizer"] = opt.Name()
		meta["lr"] = strconv.FormatFloat(opt.LR(), 'g', -1, 64)
	}

	header := serialization.Header{
		ModelType:    net.Architecture().Name,
		Metadata:     meta,
		HasOptimizer: opt != nil,
	}
	if err := serialization.WriteFile(path, combined, header); err != nil {
		return fmt.Errorf("failed to write weights: %w", err)
	}
	return nil
}

// LoadWeights restores a network, and optionally its optimizer, from a file
// written by SaveWeights.
//
// The network and optimizer must be pre-constructed with the same
// architecture and configuration as when the file was saved. When opt is
// non-nil the file must carry optimizer state for the same algorithm.
func LoadWeights(path string, net Network, opt OptimizerState) (serialization.Header, error) {
	stateDict, header, err := serialization.ReadFile(path)
	if err != nil {
		return header, err
	}

	model := make(map[string]*tensor.Tensor)
	optState := make(map[string]*tensor.Tensor)
	for name, t := range stateDict {
		if rest, ok := strings.CutPrefix(name, optimizerPrefix); ok {
			optState[rest] = t
		} else {
			model[name] = t
		}
	}

	if err := net.LoadStateDict(model); err != nil {
		return header, fmt.Errorf("failed to load model state: %w", err)
	}
	if opt == nil {
		return header, nil
	}
	if !header.HasOptimizer {
		return header, fmt.Errorf("weight file has no optimizer state")
	}
	if got := header.Metadata["optimizer"]; got != opt.Name() {
		return header, fmt.Errorf("optimizer mismatch: file has %q, expected %q", got, opt.Name())
	}
	if err := opt.LoadStateDict(optState); err != nil {
		return header, fmt.Errorf("failed to load optimizer state: %w", err)
	}
	return header, nil
}
