package graph

import "github.com/chazu/kerf/pkg/op"

// Dependents returns the IDs of operations whose dependency list contains
// id, in creation order. This is a linear scan; timelines are small enough
// that an inverted index would not pay for its upkeep.
func (g Graph) Dependents(id op.ID) []op.ID {
	var out []op.ID
	for _, oid := range g.seq {
		for _, dep := range op.Dependencies(g.ops[oid]) {
			if dep == id {
				out = append(out, oid)
				break
			}
		}
	}
	return out
}

// AllDependencies returns the transitive dependency closure of id in
// breadth-first discovery order. The operation itself is not included.
func (g Graph) AllDependencies(id op.ID) []op.ID {
	seen := map[op.ID]bool{id: true}
	var out []op.ID
	queue := op.Dependencies(g.ops[id])
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if _, ok := g.ops[cur]; !ok {
			continue
		}
		out = append(out, cur)
		queue = append(queue, op.Dependencies(g.ops[cur])...)
	}
	return out
}

// CanMove reports whether moving the operation to target position in the
// given order would keep every dependency before it and every dependent
// after it. It is a pure predicate used to validate timeline reordering;
// nothing is mutated.
func (g Graph) CanMove(id op.ID, target int, order []op.ID) bool {
	// Simulate the move.
	moved := make([]op.ID, 0, len(order))
	for _, oid := range order {
		if oid != id {
			moved = append(moved, oid)
		}
	}
	if target < 0 {
		target = 0
	}
	if target > len(moved) {
		target = len(moved)
	}
	moved = append(moved[:target], append([]op.ID{id}, moved[target:]...)...)

	pos := make(map[op.ID]int, len(moved))
	for i, oid := range moved {
		pos[oid] = i
	}

	self, ok := pos[id]
	if !ok {
		return false
	}
	for _, dep := range op.Dependencies(g.ops[id]) {
		if p, ok := pos[dep]; ok && p > self {
			return false
		}
	}
	for _, dependent := range g.Dependents(id) {
		if p, ok := pos[dependent]; ok && p < self {
			return false
		}
	}
	return true
}
