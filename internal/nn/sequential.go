package nn

import (
	"fmt"
	"sort"

	"github.com/born-ml/wgangp/internal/autodiff"
	"github.com/born-ml/wgangp/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input. Parameter names are
// qualified with the module index on construction ("layers.0.weight",
// "layers.2.bias", ...), and those names key the state dictionary.
type Sequential struct {
	modules []Module
	arch    Architecture
}

// NewSequential creates a new Sequential container and qualifies the names
// of every parameter it holds.
func NewSequential(modules ...Module) *Sequential {
	for i, m := range modules {
		for _, p := range m.Parameters() {
			p.name = fmt.Sprintf("layers.%d.%s", i, p.name)
		}
	}
	return &Sequential{modules: modules}
}

// Forward applies all modules in sequence.
func (s *Sequential) Forward(tp *autodiff.Tape, x *autodiff.Variable) *autodiff.Variable {
	out := x
	for _, m := range s.modules {
		out = m.Forward(tp, out)
	}
	return out
}

// Parameters returns all trainable parameters from all modules, in order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Len returns the number of modules in the sequence.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Module(index int) Module {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// Architecture returns the descriptor this network was built from. It is the
// zero value for containers assembled by hand.
func (s *Sequential) Architecture() Architecture {
	return s.arch
}

// StateDict returns the live parameter tensors keyed by qualified name.
func (s *Sequential) StateDict() map[string]*tensor.Tensor {
	dict := make(map[string]*tensor.Tensor)
	for _, p := range s.Parameters() {
		dict[p.name] = p.tensor
	}
	return dict
}

// LoadStateDict copies values from dict into the parameters.
//
// Loading is strict: every parameter must be present with its exact shape and
// no extra entries are accepted. Nothing is modified when validation fails.
func (s *Sequential) LoadStateDict(dict map[string]*tensor.Tensor) error {
	params := s.Parameters()
	known := make(map[string]bool, len(params))
	for _, p := range params {
		known[p.name] = true
		src, ok := dict[p.name]
		if !ok {
			return fmt.Errorf("missing %s in state dict", p.name)
		}
		if !src.Shape().Equal(p.tensor.Shape()) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v", p.name, p.tensor.Shape(), src.Shape())
		}
	}
	var extra []string
	for name := range dict {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("unexpected entries in state dict: %v", extra)
	}
	for _, p := range params {
		if err := p.tensor.CopyFrom(dict[p.name]); err != nil {
			return fmt.Errorf("failed to load %s: %w", p.name, err)
		}
	}
	return nil
}
