package dag

// NodeSpec is the static description of a single node. It is created once
// during Build and never mutated afterwards.
type NodeSpec struct {
	// Name is the unique node identifier. The engine subscribes the node
	// to the transport topic of the same name.
	Name string

	// Downstream lists the nodes that receive a message once this node
	// completes a round. Order is the declaration order; it carries no
	// semantic weight but is deterministic.
	Downstream []string

	// RequiredDeps is the fan-in threshold. Zero means the node fires on
	// every single arrival. A positive value means the node accumulates
	// that many arrivals before firing once.
	RequiredDeps int
}

// Spec is a validated, immutable task graph. Obtain one via Builder.Build,
// Load or LoadFile.
type Spec struct {
	nodes    map[string]*NodeSpec
	order    []string
	inDegree map[string]int
}

// Nodes returns copies of all node specs in declaration order.
func (s *Spec) Nodes() []NodeSpec {
	out := make([]NodeSpec, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.copyNode(name))
	}
	return out
}

// Node returns a copy of the spec for the named node.
func (s *Spec) Node(name string) (NodeSpec, bool) {
	if _, ok := s.nodes[name]; !ok {
		return NodeSpec{}, false
	}
	return s.copyNode(name), true
}

// Len returns the number of nodes.
func (s *Spec) Len() int {
	return len(s.order)
}

// InDegree returns the number of incoming edges of the named node.
func (s *Spec) InDegree(name string) int {
	return s.inDegree[name]
}

// Roots returns the names of all nodes with no incoming edges, in
// declaration order. These are the usual injection points for a synthetic
// start message.
func (s *Spec) Roots() []string {
	var roots []string
	for _, name := range s.order {
		if s.inDegree[name] == 0 {
			roots = append(roots, name)
		}
	}
	return roots
}

func (s *Spec) copyNode(name string) NodeSpec {
	n := s.nodes[name]
	cp := NodeSpec{
		Name:         n.Name,
		RequiredDeps: n.RequiredDeps,
	}
	if len(n.Downstream) > 0 {
		cp.Downstream = append([]string(nil), n.Downstream...)
	}
	return cp
}
