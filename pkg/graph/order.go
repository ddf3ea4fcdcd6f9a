package graph

import (
	"fmt"
	"strings"

	"github.com/chazu/kerf/pkg/op"
)

// Cycle describes a dependency cycle found during ordering. Path lists
// the operation IDs along the cycle; the first and last entries are the
// same operation. A self-reference yields a path of length two.
type Cycle struct {
	Path []op.ID
}

func (c *Cycle) Error() string {
	if c == nil || len(c.Path) == 0 {
		return "graph: dependency cycle"
	}
	parts := make([]string, len(c.Path))
	for i, id := range c.Path {
		parts[i] = id.Short()
	}
	return fmt.Sprintf("graph: dependency cycle: %s", strings.Join(parts, " -> "))
}

// Three-color visit state for the defensive traversal.
const (
	white = iota // unvisited
	gray         // on the current DFS path
	black        // fully explored
)

// Order computes an evaluation order: a post-order depth-first traversal
// from every node in creation order, so every operation appears after all
// of its dependencies and ties break deterministically. Dependencies on
// IDs that are not in the graph are skipped here; the evaluator reports
// them as missing-dependency failures.
//
// Order is defensive: it maintains three-color visit state and returns a
// non-nil Cycle, together with the partial order built so far, when a
// cycle (including a self-reference) exists. A partial order in the
// presence of a true cycle must not be evaluated.
func (g Graph) Order() ([]op.ID, *Cycle) {
	color := make(map[op.ID]int, len(g.ops))
	order := make([]op.ID, 0, len(g.ops))
	var stack []op.ID
	var cycle *Cycle

	var visit func(id op.ID) bool // true when a cycle was found
	visit = func(id op.ID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			// id is on the current path: everything from its first
			// occurrence on the stack forms the cycle.
			path := []op.ID{id}
			for i := len(stack) - 1; i >= 0; i-- {
				path = append(path, stack[i])
				if stack[i] == id {
					break
				}
			}
			// Reverse into first..last order with matching endpoints.
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			cycle = &Cycle{Path: path}
			return true
		}

		color[id] = gray
		stack = append(stack, id)
		for _, dep := range op.Dependencies(g.ops[id]) {
			if dep == id {
				cycle = &Cycle{Path: []op.ID{id, id}}
				return true
			}
			if _, ok := g.ops[dep]; !ok {
				continue
			}
			if visit(dep) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		order = append(order, id)
		return false
	}

	for _, id := range g.seq {
		if color[id] == white {
			if visit(id) {
				return order, cycle
			}
		}
	}
	return order, nil
}

// TrustedOrder is the fast path of Order for graphs that are acyclic by
// construction (operations created through an API that only lets them
// reference already-existing operations). It keeps no cycle bookkeeping;
// feeding it a cyclic graph does not terminate. Callers that cannot prove
// acyclicity must use Order.
func (g Graph) TrustedOrder() []op.ID {
	done := make(map[op.ID]bool, len(g.ops))
	order := make([]op.ID, 0, len(g.ops))

	var visit func(id op.ID)
	visit = func(id op.ID) {
		if done[id] {
			return
		}
		done[id] = true
		for _, dep := range op.Dependencies(g.ops[id]) {
			if _, ok := g.ops[dep]; ok {
				visit(dep)
			}
		}
		order = append(order, id)
	}

	for _, id := range g.seq {
		visit(id)
	}
	return order
}
