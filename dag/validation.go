package dag

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// detectCycles uses depth-first search to find cycles in the declared graph.
// Returns ErrCycleDetected with the offending path in the message.
// Time complexity: O(V + E).
func (b *Builder) detectCycles() error {
	visited := make(map[string]bool, len(b.nodes))
	recStack := make(map[string]bool, len(b.nodes))

	var dfs func(name string, path []string) error
	dfs = func(name string, path []string) error {
		visited[name] = true
		recStack[name] = true
		path = append(path, name)

		for _, child := range b.nodes[name].Downstream {
			if !visited[child] {
				if err := dfs(child, path); err != nil {
					return err
				}
			} else if recStack[child] {
				cycle := append(path, child)
				return fmt.Errorf("%w: %s", ErrCycleDetected, strings.Join(cycle, " -> "))
			}
		}

		recStack[name] = false
		return nil
	}

	// Start from every node to cover disconnected components.
	for _, name := range b.order {
		if !visited[name] {
			if err := dfs(name, nil); err != nil {
				return err
			}
		}
	}

	return nil
}

// TopoOrder returns a deterministic topological ordering of the graph using
// Kahn's algorithm. Ties are broken by sorting ready nodes by name, so the
// same Spec always yields the same ordering.
func (s *Spec) TopoOrder() []string {
	inDegree := make(map[string]int, len(s.order))
	for name, deg := range s.inDegree {
		inDegree[name] = deg
	}

	var ready []string
	for _, name := range s.order {
		if inDegree[name] == 0 {
			ready = insertSorted(ready, name)
		}
	}

	order := make([]string, 0, len(s.order))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		for _, child := range s.nodes[name].Downstream {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = insertSorted(ready, child)
			}
		}
	}

	return order
}

// insertSorted inserts an item into a sorted slice maintaining sort order.
func insertSorted(slice []string, item string) []string {
	idx := sort.SearchStrings(slice, item)
	return slices.Insert(slice, idx, item)
}
