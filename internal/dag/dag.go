package dag

import (
	"fmt"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:    id,
		index: len(g.order),
		deps:  make(map[string]*node),
	}
	g.order = append(g.order, id)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode

	return nil
}

// Dependencies returns the IDs of the nodes the given node depends on, in
// insertion order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(sortedNodes(n.deps)), nil
}

// TopologicalOrder returns every node ID such that each node appears after
// all of its dependencies. Roots are visited in insertion order and so are
// the dependencies of each node, which makes the result deterministic.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	colors := make(map[string]color, len(g.nodes))
	order := make([]string, 0, len(g.nodes))
	// stack is the current DFS path; it is what a cycle is read from.
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		switch colors[n.id] {
		case black:
			return nil
		case gray:
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == n.id {
					cycle := make([]string, len(stack)-i)
					copy(cycle, stack[i:])
					return &CycleError{Jobs: cycle}
				}
			}
			panic(fmt.Sprintf("dag: node '%s' is in progress but not on the traversal stack", n.id))
		}

		colors[n.id] = gray
		stack = append(stack, n.id)

		for _, dep := range sortedNodes(n.deps) {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		colors[n.id] = black
		order = append(order, n.id)
		return nil
	}

	for _, id := range g.order {
		if err := visit(g.nodes[id]); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// sortedNodes returns the nodes of a set in insertion order.
func sortedNodes(set map[string]*node) []*node {
	out := make([]*node, 0, len(set))
	for _, n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

func ids(nodes []*node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}
