package dag

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestAddNode(t *testing.T) {
	t.Run("valid node", func(t *testing.T) {
		b := NewBuilder()
		assert.NoError(t, b.AddNode("A"))
	})

	t.Run("duplicate node", func(t *testing.T) {
		b := NewBuilder()
		assert.NoError(t, b.AddNode("A"))
		err := b.AddNode("A")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrNodeExists))
		assert.True(t, errors.Is(err, ErrMalformedGraph))
	})

	t.Run("empty name", func(t *testing.T) {
		b := NewBuilder()
		err := b.AddNode("")
		assert.True(t, errors.Is(err, ErrInvalidNodeName))
	})

	t.Run("whitespace in name", func(t *testing.T) {
		b := NewBuilder()
		err := b.AddNode("a b")
		assert.True(t, errors.Is(err, ErrInvalidNodeName))
	})
}

func TestAddEdge(t *testing.T) {
	t.Run("valid edge", func(t *testing.T) {
		b := NewBuilder()
		assert.NoError(t, b.AddNode("A"))
		assert.NoError(t, b.AddNode("B"))
		assert.NoError(t, b.AddEdge("A", "B"))
	})

	t.Run("unknown source", func(t *testing.T) {
		b := NewBuilder()
		assert.NoError(t, b.AddNode("B"))
		err := b.AddEdge("A", "B")
		assert.True(t, errors.Is(err, ErrUnknownNode))
	})

	t.Run("unknown target", func(t *testing.T) {
		b := NewBuilder()
		assert.NoError(t, b.AddNode("A"))
		err := b.AddEdge("A", "B")
		assert.True(t, errors.Is(err, ErrUnknownNode))
	})

	t.Run("duplicate edge", func(t *testing.T) {
		b := NewBuilder()
		assert.NoError(t, b.AddNode("A"))
		assert.NoError(t, b.AddNode("B"))
		assert.NoError(t, b.AddEdge("A", "B"))
		err := b.AddEdge("A", "B")
		assert.True(t, errors.Is(err, ErrDuplicateEdge))
	})
}

func TestSetRequiredDeps(t *testing.T) {
	t.Run("unknown node", func(t *testing.T) {
		b := NewBuilder()
		err := b.SetRequiredDeps("X", 2)
		assert.True(t, errors.Is(err, ErrUnknownNode))
	})

	t.Run("non-positive count", func(t *testing.T) {
		b := NewBuilder()
		assert.NoError(t, b.AddNode("A"))
		err := b.SetRequiredDeps("A", 0)
		assert.True(t, errors.Is(err, ErrDependencyCount))
		err = b.SetRequiredDeps("A", -1)
		assert.True(t, errors.Is(err, ErrDependencyCount))
	})
}

func TestSpecAccessors(t *testing.T) {
	spec := buildDiamond(t)

	t.Run("nodes in declaration order", func(t *testing.T) {
		names := make([]string, 0, spec.Len())
		for _, n := range spec.Nodes() {
			names = append(names, n.Name)
		}
		assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names)
	})

	t.Run("node lookup", func(t *testing.T) {
		d, ok := spec.Node("D")
		assert.True(t, ok)
		assert.Equal(t, []string{"E"}, d.Downstream)
		assert.Equal(t, 2, d.RequiredDeps)

		_, ok = spec.Node("X")
		assert.False(t, ok)
	})

	t.Run("in-degree", func(t *testing.T) {
		assert.Equal(t, 0, spec.InDegree("A"))
		assert.Equal(t, 2, spec.InDegree("D"))
		assert.Equal(t, 1, spec.InDegree("E"))
	})

	t.Run("roots", func(t *testing.T) {
		assert.Equal(t, []string{"A"}, spec.Roots())
	})

	t.Run("returned specs are copies", func(t *testing.T) {
		a, _ := spec.Node("A")
		a.Downstream[0] = "X"
		again, _ := spec.Node("A")
		assert.Equal(t, []string{"B", "C"}, again.Downstream)
	})
}

// buildDiamond constructs the A -> (B, C) -> D -> E graph with a fan-in
// threshold of 2 on D.
func buildDiamond(t *testing.T) *Spec {
	t.Helper()
	b := NewBuilder()
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		assert.NoError(t, b.AddNode(name))
	}
	assert.NoError(t, b.AddEdge("A", "B"))
	assert.NoError(t, b.AddEdge("A", "C"))
	assert.NoError(t, b.AddEdge("B", "D"))
	assert.NoError(t, b.AddEdge("C", "D"))
	assert.NoError(t, b.AddEdge("D", "E"))
	assert.NoError(t, b.SetRequiredDeps("D", 2))
	spec, err := b.Build()
	assert.NoError(t, err)
	return spec
}
