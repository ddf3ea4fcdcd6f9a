// Package graph computes evaluation order over a feature timeline. The
// operation graph is an immutable value: every edit returns a new graph
// and never mutates the receiver, so a caller can keep the previous graph
// for rollback. Edges are derived from each operation's own payload via
// op.Dependencies; they are never stored independently.
package graph

import (
	"fmt"

	"github.com/chazu/kerf/pkg/op"
)

// Node is the derived adjacency view of one operation.
type Node struct {
	Op   op.Op
	Deps []op.ID
}

// Graph maps operation IDs to operations and remembers creation order,
// which breaks ties so that evaluation order is deterministic.
type Graph struct {
	ops map[op.ID]op.Op
	seq []op.ID // creation order
}

// New returns an empty graph.
func New() Graph {
	return Graph{ops: map[op.ID]op.Op{}}
}

// FromOps builds a graph containing the given operations in slice order.
func FromOps(ops []op.Op) (Graph, error) {
	g := New()
	for _, o := range ops {
		var err error
		g, err = g.Add(o)
		if err != nil {
			return Graph{}, err
		}
	}
	return g, nil
}

func (g Graph) clone() Graph {
	ops := make(map[op.ID]op.Op, len(g.ops)+1)
	for id, o := range g.ops {
		ops[id] = o
	}
	seq := make([]op.ID, len(g.seq))
	copy(seq, g.seq)
	return Graph{ops: ops, seq: seq}
}

// Add returns a new graph with the operation appended. Adding an ID that
// already exists is an error; use Update to replace a record.
func (g Graph) Add(o op.Op) (Graph, error) {
	if o.ID == "" {
		return Graph{}, fmt.Errorf("graph: operation has empty ID")
	}
	if _, ok := g.ops[o.ID]; ok {
		return Graph{}, fmt.Errorf("graph: operation %s already exists", o.ID.Short())
	}
	ng := g.clone()
	ng.ops[o.ID] = o
	ng.seq = append(ng.seq, o.ID)
	return ng, nil
}

// Update returns a new graph with the operation record replaced under its
// ID. Creation order is preserved.
func (g Graph) Update(o op.Op) (Graph, error) {
	if _, ok := g.ops[o.ID]; !ok {
		return Graph{}, fmt.Errorf("graph: operation %s not found", o.ID.Short())
	}
	ng := g.clone()
	ng.ops[o.ID] = o
	return ng, nil
}

// Remove returns a new graph without the given operation. Removing an
// unknown ID is a no-op.
func (g Graph) Remove(id op.ID) Graph {
	if _, ok := g.ops[id]; !ok {
		return g
	}
	ng := Graph{ops: make(map[op.ID]op.Op, len(g.ops)-1)}
	for oid, o := range g.ops {
		if oid != id {
			ng.ops[oid] = o
		}
	}
	for _, oid := range g.seq {
		if oid != id {
			ng.seq = append(ng.seq, oid)
		}
	}
	return ng
}

// Get returns the operation with the given ID.
func (g Graph) Get(id op.ID) (op.Op, bool) {
	o, ok := g.ops[id]
	return o, ok
}

// Node returns the derived adjacency view of an operation.
func (g Graph) Node(id op.ID) (Node, bool) {
	o, ok := g.ops[id]
	if !ok {
		return Node{}, false
	}
	return Node{Op: o, Deps: op.Dependencies(o)}, true
}

// Len returns the number of operations.
func (g Graph) Len() int { return len(g.ops) }

// IDs returns all operation IDs in creation order.
func (g Graph) IDs() []op.ID {
	out := make([]op.ID, len(g.seq))
	copy(out, g.seq)
	return out
}

// Ops returns all operations in creation order.
func (g Graph) Ops() []op.Op {
	out := make([]op.Op, 0, len(g.seq))
	for _, id := range g.seq {
		out = append(out, g.ops[id])
	}
	return out
}
