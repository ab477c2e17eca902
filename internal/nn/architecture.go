package nn

import (
	"bytes"
	"fmt"
	"math/rand/v2"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/wgangp/internal/tensor"
)

// Layer type names used in architecture descriptors.
const (
	LayerLinear    = "linear"
	LayerLeakyReLU = "leaky_relu"
	LayerReLU      = "relu"
	LayerTanh      = "tanh"
	LayerFlatten   = "flatten"
	LayerReshape   = "reshape"
)

// LayerSpec describes one layer of a Sequential network.
type LayerSpec struct {
	Type  string  `yaml:"type"`
	In    int     `yaml:"in,omitempty"`
	Out   int     `yaml:"out,omitempty"`
	Slope float64 `yaml:"slope,omitempty"`
	Shape []int   `yaml:"shape,omitempty,flow"`
}

// Architecture is a serializable description of a network. It is stored next
// to the weights so a checkpoint can be rebuilt without the code that first
// created it.
type Architecture struct {
	Name   string      `yaml:"name"`
	Input  []int       `yaml:"input,flow"`  // per-sample input shape
	Output []int       `yaml:"output,flow"` // per-sample output shape
	Layers []LayerSpec `yaml:"layers"`
}

// GeneratorMLP describes a generator mapping latentDim noise to imgShape
// images: Linear + LeakyReLU(0.2) per hidden width, then Linear, Tanh and a
// reshape to the image shape.
func GeneratorMLP(latentDim int, imgShape tensor.Shape, hidden []int) Architecture {
	arch := Architecture{Name: "generator", Input: []int{latentDim}, Output: []int(imgShape.Clone())}
	in := latentDim
	for _, h := range hidden {
		arch.Layers = append(arch.Layers,
			LayerSpec{Type: LayerLinear, In: in, Out: h},
			LayerSpec{Type: LayerLeakyReLU, Slope: 0.2},
		)
		in = h
	}
	arch.Layers = append(arch.Layers,
		LayerSpec{Type: LayerLinear, In: in, Out: imgShape.NumElements()},
		LayerSpec{Type: LayerTanh},
		LayerSpec{Type: LayerReshape, Shape: []int(imgShape.Clone())},
	)
	return arch
}

// CriticMLP describes a critic scoring imgShape images with one unbounded
// value per sample. There is no output activation.
func CriticMLP(imgShape tensor.Shape, hidden []int) Architecture {
	arch := Architecture{Name: "critic", Input: []int(imgShape.Clone()), Output: []int{1}}
	arch.Layers = append(arch.Layers, LayerSpec{Type: LayerFlatten})
	in := imgShape.NumElements()
	for _, h := range hidden {
		arch.Layers = append(arch.Layers,
			LayerSpec{Type: LayerLinear, In: in, Out: h},
			LayerSpec{Type: LayerLeakyReLU, Slope: 0.2},
		)
		in = h
	}
	arch.Layers = append(arch.Layers, LayerSpec{Type: LayerLinear, In: in, Out: 1})
	return arch
}

// Validate walks the layers and checks that every shape lines up, ending at
// Output.
func (a Architecture) Validate() error {
	_, err := a.walk(nil)
	return err
}

// Build constructs the network, initializing weights from rng.
func (a Architecture) Build(rng *rand.Rand) (*Sequential, error) {
	modules, err := a.walk(rng)
	if err != nil {
		return nil, err
	}
	seq := NewSequential(modules...)
	seq.arch = a.clone()
	return seq, nil
}

// walk validates the layer chain. With a non-nil rng it also instantiates
// the modules.
func (a Architecture) walk(rng *rand.Rand) ([]Module, error) {
	cur := tensor.Shape(a.Input)
	if len(cur) == 0 || cur.Validate() != nil {
		return nil, fmt.Errorf("architecture %q: invalid input shape %v", a.Name, a.Input)
	}
	if len(a.Layers) == 0 {
		return nil, fmt.Errorf("architecture %q: no layers", a.Name)
	}
	var modules []Module
	for i, l := range a.Layers {
		var m Module
		switch l.Type {
		case LayerLinear:
			if len(cur) != 1 || cur[0] != l.In || l.Out <= 0 {
				return nil, fmt.Errorf("architecture %q: layer %d: linear %d->%d does not accept input %v",
					a.Name, i, l.In, l.Out, cur)
			}
			cur = tensor.Shape{l.Out}
			if rng != nil {
				m = NewLinear(l.In, l.Out, rng)
			}
		case LayerLeakyReLU:
			m = NewLeakyReLU(l.Slope)
		case LayerReLU:
			m = NewReLU()
		case LayerTanh:
			m = NewTanh()
		case LayerFlatten:
			cur = tensor.Shape{cur.NumElements()}
			m = NewFlatten()
		case LayerReshape:
			target := tensor.Shape(l.Shape)
			if len(target) == 0 || target.Validate() != nil || target.NumElements() != cur.NumElements() {
				return nil, fmt.Errorf("architecture %q: layer %d: cannot reshape %v to %v", a.Name, i, cur, l.Shape)
			}
			if len(cur) != 1 {
				return nil, fmt.Errorf("architecture %q: layer %d: reshape expects a flat input, got %v", a.Name, i, cur)
			}
			cur = target.Clone()
			m = NewReshape(target)
		default:
			return nil, fmt.Errorf("architecture %q: layer %d: unknown layer type %q", a.Name, i, l.Type)
		}
		modules = append(modules, m)
	}
	if !cur.Equal(tensor.Shape(a.Output)) {
		return nil, fmt.Errorf("architecture %q: produces %v, declared output %v", a.Name, cur, tensor.Shape(a.Output))
	}
	return modules, nil
}

// MarshalArchitecture encodes a as YAML.
func MarshalArchitecture(a Architecture) ([]byte, error) {
	return yaml.Marshal(a)
}

// UnmarshalArchitecture decodes YAML produced by MarshalArchitecture.
// Unknown keys are rejected and the result is validated.
func UnmarshalArchitecture(data []byte) (Architecture, error) {
	var a Architecture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return Architecture{}, fmt.Errorf("failed to parse architecture: %w", err)
	}
	if err := a.Validate(); err != nil {
		return Architecture{}, err
	}
	return a, nil
}

func (a Architecture) clone() Architecture {
	out := Architecture{
		Name:   a.Name,
		Input:  append([]int(nil), a.Input...),
		Output: append([]int(nil), a.Output...),
		Layers: make([]LayerSpec, len(a.Layers)),
	}
	for i, l := range a.Layers {
		l.Shape = append([]int(nil), l.Shape...)
		out.Layers[i] = l
	}
	return out
}
