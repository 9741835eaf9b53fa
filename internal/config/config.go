// Package config loads model descriptions and cost policy overrides from YAML.
//
// A model file lists layers in forward-pass order:
//
//	name: mnist-100
//	policy:
//	  softmax: 5
//	  activations:
//	    tanh: 3
//	layers:
//	  - kind: flatten
//	    shape: [28, 28]
//	  - kind: dense
//	    out: 100
//	    activation: relu
//	  - kind: dense
//	    in: 100
//	    out: 10
//	    activation: softmax
//
// A Flatten layer with a shape gets the product as its output size. A Dense
// layer without "in" takes the previous layer's output size.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/flops/internal/cost"
)

// ErrNoLayers is returned for model files without layers.
var ErrNoLayers = errors.New("model has no layers")

// File is the on-disk model description.
type File struct {
	Name   string  `yaml:"name"`
	Policy *Policy `yaml:"policy,omitempty"`
	Layers []Layer `yaml:"layers"`
}

// Policy overrides cost.DefaultPolicy. Unset fields keep their defaults.
type Policy struct {
	MAC         *int64           `yaml:"mac,omitempty"`
	ReLU        *int64           `yaml:"relu,omitempty"`
	Softmax     *int64           `yaml:"softmax,omitempty"`
	Activations map[string]int64 `yaml:"activations,omitempty"`
}

// Layer is one entry of the layers list.
type Layer struct {
	Name       string `yaml:"name,omitempty"`
	Kind       string `yaml:"kind"`
	In         int    `yaml:"in,omitempty"`
	Out        int    `yaml:"out,omitempty"`
	Shape      []int  `yaml:"shape,omitempty"`
	Activation string `yaml:"activation,omitempty"`
}

// Model is a loaded model description.
type Model struct {
	Name   string
	Layers []cost.LayerDescriptor
	Policy cost.Policy
}

// Load reads a model description from path.
//
//nolint:gosec // G304: Path is provided by user.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a model description. Unknown YAML fields are rejected.
func Parse(data []byte) (*Model, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoLayers
		}
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return f.Model()
}

// Model converts the file into descriptors and a policy.
func (f *File) Model() (*Model, error) {
	if len(f.Layers) == 0 {
		return nil, ErrNoLayers
	}

	m := &Model{
		Name:   f.Name,
		Layers: make([]cost.LayerDescriptor, len(f.Layers)),
		Policy: f.Policy.apply(cost.DefaultPolicy()),
	}
	if err := m.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}

	prevOut := 0
	for i, l := range f.Layers {
		if l.Kind == "" {
			return nil, fmt.Errorf("layer %d: missing kind", i)
		}
		d := cost.LayerDescriptor{
			Name:       l.Name,
			Kind:       cost.ParseKind(l.Kind),
			InputSize:  l.In,
			OutputSize: l.Out,
			Activation: cost.ParseActivation(l.Activation),
		}
		if d.Kind == cost.KindUnknown && d.Name == "" {
			d.Name = l.Kind
		}
		if d.Kind == cost.KindFlatten && len(l.Shape) > 0 && d.OutputSize == 0 {
			d.OutputSize = product(l.Shape)
		}
		if d.Kind == cost.KindDense && d.InputSize == 0 {
			d.InputSize = prevOut
		}
		m.Layers[i] = d
		prevOut = d.OutputSize
	}
	return m, nil
}

func (p *Policy) apply(base cost.Policy) cost.Policy {
	if p == nil {
		return base
	}
	if p.MAC != nil {
		base.MACOps = *p.MAC
	}
	if p.ReLU != nil {
		base.ReLUPerUnit = *p.ReLU
	}
	if p.Softmax != nil {
		base.SoftmaxPerUnit = *p.Softmax
	}
	if len(p.Activations) > 0 {
		base.Activations = make(map[string]int64, len(p.Activations))
		for k, v := range p.Activations {
			base.Activations[k] = v
		}
	}
	return base
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
