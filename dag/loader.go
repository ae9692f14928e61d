package dag

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Description is the external graph description format:
//
//	nodes: [A, B, C, D]
//	edges:
//	  A: [B, C]
//	  B: [D]
//	  C: [D]
//	dependencies:
//	  D: 2
type Description struct {
	Nodes        []string            `yaml:"nodes"`
	Edges        map[string][]string `yaml:"edges"`
	Dependencies map[string]int      `yaml:"dependencies"`
}

// Spec builds a validated graph from the description.
func (d *Description) Spec() (*Spec, error) {
	b := NewBuilder()
	for _, name := range d.Nodes {
		if err := b.AddNode(name); err != nil {
			return nil, err
		}
	}
	// Walk edges in declaration order of their source node so that the
	// result is independent of map iteration order. Edge sources that were
	// never declared as nodes still have to be rejected.
	declared := make(map[string]bool, len(d.Nodes))
	for _, name := range d.Nodes {
		declared[name] = true
		for _, target := range d.Edges[name] {
			if err := b.AddEdge(name, target); err != nil {
				return nil, err
			}
		}
	}
	for from := range d.Edges {
		if !declared[from] {
			return nil, fmt.Errorf("%w: edge source %q", ErrUnknownNode, from)
		}
	}
	for name, count := range d.Dependencies {
		if err := b.SetRequiredDeps(name, count); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Load reads a YAML graph description and builds a validated Spec.
func Load(r io.Reader) (*Spec, error) {
	var desc Description
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&desc); err != nil {
		return nil, fmt.Errorf("%w: decode description: %v", ErrMalformedGraph, err)
	}
	return desc.Spec()
}

// LoadFile is like Load but reads the description from a file.
func LoadFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph description: %w", err)
	}
	defer f.Close()
	return Load(f)
}
