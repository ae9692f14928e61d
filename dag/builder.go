package dag

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned during graph construction. Every specific error
// wraps ErrMalformedGraph, so errors.Is(err, ErrMalformedGraph) matches any
// construction failure.
var (
	ErrMalformedGraph  = errors.New("malformed graph")
	ErrInvalidNodeName = fmt.Errorf("%w: invalid node name", ErrMalformedGraph)
	ErrNodeExists      = fmt.Errorf("%w: node already exists", ErrMalformedGraph)
	ErrUnknownNode     = fmt.Errorf("%w: unknown node", ErrMalformedGraph)
	ErrDuplicateEdge   = fmt.Errorf("%w: duplicate edge", ErrMalformedGraph)
	ErrCycleDetected   = fmt.Errorf("%w: cycle detected", ErrMalformedGraph)
	ErrDependencyCount = fmt.Errorf("%w: invalid dependency count", ErrMalformedGraph)
)

// Builder constructs a Spec.
//
// Declaration methods validate eagerly where they can (unknown endpoints,
// duplicates); whole-graph properties (acyclicity, threshold vs. in-degree)
// are checked by Build.
type Builder struct {
	nodes    map[string]*NodeSpec
	order    []string
	required map[string]int
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes:    make(map[string]*NodeSpec),
		required: make(map[string]int),
	}
}

// AddNode declares a node. Names must be non-empty and free of whitespace.
func (b *Builder) AddNode(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if _, exists := b.nodes[name]; exists {
		return fmt.Errorf("%w: %q", ErrNodeExists, name)
	}
	b.nodes[name] = &NodeSpec{Name: name}
	b.order = append(b.order, name)
	return nil
}

// AddEdge declares a directed edge from -> to. Both endpoints must already
// be declared.
func (b *Builder) AddEdge(from, to string) error {
	src, ok := b.nodes[from]
	if !ok {
		return fmt.Errorf("%w: edge source %q", ErrUnknownNode, from)
	}
	if _, ok := b.nodes[to]; !ok {
		return fmt.Errorf("%w: edge target %q", ErrUnknownNode, to)
	}
	for _, existing := range src.Downstream {
		if existing == to {
			return fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, from, to)
		}
	}
	src.Downstream = append(src.Downstream, to)
	return nil
}

// SetRequiredDeps declares the fan-in threshold of a node. The count must be
// positive; whether it fits the node's in-degree is checked by Build.
func (b *Builder) SetRequiredDeps(name string, count int) error {
	if _, ok := b.nodes[name]; !ok {
		return fmt.Errorf("%w: dependency count for %q", ErrUnknownNode, name)
	}
	if count <= 0 {
		return fmt.Errorf("%w: node %q: count %d must be positive", ErrDependencyCount, name, count)
	}
	b.required[name] = count
	return nil
}

// Build validates the declared graph and returns an immutable Spec. The
// Builder may be reused afterwards; the Spec holds its own copy of the
// declaration.
func (b *Builder) Build() (*Spec, error) {
	inDegree := make(map[string]int, len(b.nodes))
	for _, name := range b.order {
		inDegree[name] = 0
	}
	for _, name := range b.order {
		for _, child := range b.nodes[name].Downstream {
			inDegree[child]++
		}
	}

	if err := b.detectCycles(); err != nil {
		return nil, err
	}

	for _, name := range b.order {
		count, ok := b.required[name]
		if !ok {
			continue
		}
		if count > inDegree[name] {
			return nil, fmt.Errorf("%w: node %q requires %d dependencies but has in-degree %d",
				ErrDependencyCount, name, count, inDegree[name])
		}
	}

	nodes := make(map[string]*NodeSpec, len(b.nodes))
	order := append([]string(nil), b.order...)
	for _, name := range b.order {
		n := b.nodes[name]
		nodes[name] = &NodeSpec{
			Name:         n.Name,
			Downstream:   append([]string(nil), n.Downstream...),
			RequiredDeps: b.required[name],
		}
	}

	return &Spec{nodes: nodes, order: order, inDegree: inDegree}, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Spec {
	spec, err := b.Build()
	if err != nil {
		panic(err)
	}
	return spec
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidNodeName)
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("%w: name %q cannot contain whitespace", ErrInvalidNodeName, name)
	}
	return nil
}
