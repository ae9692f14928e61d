// Package dag provides the declarative task graph consumed by the dagmesh
// engine.
//
// # Overview
//
// A graph is described as a set of named nodes, directed edges between them,
// and an optional fan-in threshold per node. Construction is two-phase:
//
// 1. **Build Phase**: Declare nodes, edges and thresholds on a Builder
// 2. **Validated Phase**: Build() returns an immutable Spec, or a
// MalformedGraph error
//
// All structural problems (unknown edge endpoints, cycles, thresholds that
// exceed a node's in-degree) are rejected at construction time so the engine
// never has to deal with them at runtime. Every validation error wraps
// ErrMalformedGraph; callers only need
//
//	errors.Is(err, dag.ErrMalformedGraph)
//
// to distinguish "bad description" from everything else.
//
// # Basic Usage
//
//	b := dag.NewBuilder()
//	b.AddNode("A")
//	b.AddNode("B")
//	b.AddEdge("A", "B")
//	spec, err := b.Build()
//
// Graphs may also be loaded from a YAML description, see Load and LoadFile.
//
// IMPORTANT: Builder is NOT safe for concurrent use. All declaration
// methods must be called from a single goroutine. The resulting Spec is
// immutable and safe to share across goroutines.
package dag
