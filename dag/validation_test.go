package dag

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []string
		edges   [][2]string
		deps    map[string]int
		wantErr error
	}{
		{
			name:  "valid diamond",
			nodes: []string{"A", "B", "C", "D", "E"},
			edges: [][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}, {"D", "E"}},
			deps:  map[string]int{"D": 2},
		},
		{
			name:  "single node",
			nodes: []string{"A"},
		},
		{
			name:    "two node cycle",
			nodes:   []string{"A", "B"},
			edges:   [][2]string{{"A", "B"}, {"B", "A"}},
			wantErr: ErrCycleDetected,
		},
		{
			name:    "self loop",
			nodes:   []string{"A"},
			edges:   [][2]string{{"A", "A"}},
			wantErr: ErrCycleDetected,
		},
		{
			name:    "long cycle",
			nodes:   []string{"A", "B", "C", "D"},
			edges:   [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"D", "B"}},
			wantErr: ErrCycleDetected,
		},
		{
			name:    "threshold exceeds in-degree",
			nodes:   []string{"A", "B", "D"},
			edges:   [][2]string{{"A", "D"}, {"B", "D"}},
			deps:    map[string]int{"D": 5},
			wantErr: ErrDependencyCount,
		},
		{
			name:  "threshold equals in-degree",
			nodes: []string{"A", "B", "D"},
			edges: [][2]string{{"A", "D"}, {"B", "D"}},
			deps:  map[string]int{"D": 2},
		},
		{
			name:  "threshold below in-degree",
			nodes: []string{"A", "B", "D"},
			edges: [][2]string{{"A", "D"}, {"B", "D"}},
			deps:  map[string]int{"D": 1},
		},
		{
			name:    "threshold on root",
			nodes:   []string{"A", "B"},
			edges:   [][2]string{{"A", "B"}},
			deps:    map[string]int{"A": 1},
			wantErr: ErrDependencyCount,
		},
		{
			name:  "disconnected components",
			nodes: []string{"A", "B", "X", "Y"},
			edges: [][2]string{{"A", "B"}, {"X", "Y"}},
		},
		{
			name:    "cycle in second component",
			nodes:   []string{"A", "B", "X", "Y"},
			edges:   [][2]string{{"A", "B"}, {"X", "Y"}, {"Y", "X"}},
			wantErr: ErrCycleDetected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			for _, n := range tt.nodes {
				assert.NoError(t, b.AddNode(n))
			}
			var edgeErr error
			for _, e := range tt.edges {
				if err := b.AddEdge(e[0], e[1]); err != nil {
					edgeErr = err
					break
				}
			}
			for n, c := range tt.deps {
				assert.NoError(t, b.SetRequiredDeps(n, c))
			}

			spec, buildErr := b.Build()
			if tt.wantErr == nil {
				assert.NoError(t, edgeErr)
				assert.NoError(t, buildErr)
				assert.NotZero(t, spec)
				return
			}

			err := edgeErr
			if err == nil {
				err = buildErr
			}
			assert.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.True(t, errors.Is(err, ErrMalformedGraph))
		})
	}
}

func TestBuildIdempotent(t *testing.T) {
	b := NewBuilder()
	for _, n := range []string{"A", "B", "C"} {
		assert.NoError(t, b.AddNode(n))
	}
	assert.NoError(t, b.AddEdge("A", "B"))
	assert.NoError(t, b.AddEdge("A", "C"))
	assert.NoError(t, b.SetRequiredDeps("B", 1))

	first, err := b.Build()
	assert.NoError(t, err)
	second, err := b.Build()
	assert.NoError(t, err)

	assert.Equal(t, first.Nodes(), second.Nodes())
	assert.Equal(t, first.TopoOrder(), second.TopoOrder())

	// The two specs are independent: mutating a copy obtained from one
	// never shows up in the other.
	n, _ := first.Node("A")
	n.Downstream[0] = "X"
	again, _ := second.Node("A")
	assert.Equal(t, []string{"B", "C"}, again.Downstream)
}

func TestTopoOrder(t *testing.T) {
	t.Run("diamond", func(t *testing.T) {
		spec := buildDiamond(t)
		order := spec.TopoOrder()
		assert.Equal(t, []string{"A", "B", "C", "D", "E"}, order)
	})

	t.Run("deterministic tie break", func(t *testing.T) {
		b := NewBuilder()
		// Declare out of name order; ready nodes must still come out
		// sorted.
		for _, n := range []string{"Z", "M", "A"} {
			assert.NoError(t, b.AddNode(n))
		}
		spec, err := b.Build()
		assert.NoError(t, err)
		assert.Equal(t, []string{"A", "M", "Z"}, spec.TopoOrder())
	})
}
