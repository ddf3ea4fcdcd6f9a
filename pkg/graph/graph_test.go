package graph

import (
	"strings"
	"testing"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/op"
)

func sketchOp(id string) op.Op {
	return op.Op{ID: op.ID(id), Kind: op.KindSketch, Name: id, Data: op.SketchData{Plane: op.XY}}
}

func extrudeOp(id, sketch string) op.Op {
	return op.Op{
		ID:   op.ID(id),
		Kind: op.KindExtrude,
		Name: id,
		Data: op.ExtrudeData{Profile: op.ProfileRef{Sketch: op.ID(sketch)}, Depth: "10"},
	}
}

func booleanOp(id, target, tool string) op.Op {
	return op.Op{
		ID:   op.ID(id),
		Kind: op.KindBoolean,
		Name: id,
		Data: op.BooleanData{Op: kernel.BoolSubtract, Target: op.ID(target), Tool: op.ID(tool)},
	}
}

func transformOp(id, source string) op.Op {
	return op.Op{
		ID:   op.ID(id),
		Kind: op.KindTransform,
		Name: id,
		Data: op.TransformData{Source: op.ID(source)},
	}
}

func mustGraph(t *testing.T, ops ...op.Op) Graph {
	t.Helper()
	g, err := FromOps(ops)
	if err != nil {
		t.Fatalf("FromOps: %v", err)
	}
	return g
}

func TestAddRejectsDuplicatesAndEmptyIDs(t *testing.T) {
	g := New()
	g, err := g.Add(sketchOp("s1"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := g.Add(sketchOp("s1")); err == nil {
		t.Error("adding a duplicate ID should fail")
	}
	if _, err := g.Add(op.Op{Kind: op.KindSketch}); err == nil {
		t.Error("adding an empty ID should fail")
	}
}

func TestGraphIsImmutable(t *testing.T) {
	g1 := mustGraph(t, sketchOp("s1"))
	g2, err := g1.Add(extrudeOp("e1", "s1"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if g1.Len() != 1 {
		t.Errorf("original graph grew: len = %d, want 1", g1.Len())
	}
	if g2.Len() != 2 {
		t.Errorf("new graph len = %d, want 2", g2.Len())
	}

	g3 := g2.Remove("e1")
	if g2.Len() != 2 {
		t.Errorf("Remove mutated the receiver: len = %d, want 2", g2.Len())
	}
	if g3.Len() != 1 {
		t.Errorf("removed graph len = %d, want 1", g3.Len())
	}
}

func TestUpdatePreservesCreationOrder(t *testing.T) {
	g := mustGraph(t, sketchOp("s1"), sketchOp("s2"))
	changed := sketchOp("s1")
	changed.Name = "renamed"
	g2, err := g.Update(changed)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	ids := g2.IDs()
	if len(ids) != 2 || ids[0] != "s1" || ids[1] != "s2" {
		t.Errorf("IDs after update = %v, want [s1 s2]", ids)
	}
	got, _ := g2.Get("s1")
	if got.Name != "renamed" {
		t.Errorf("update did not replace the record")
	}
	if _, err := g2.Update(sketchOp("nope")); err == nil {
		t.Error("updating an unknown ID should fail")
	}
}

func TestOrderPutsDependenciesFirst(t *testing.T) {
	// Declare the boolean before its tool to force reordering.
	g := mustGraph(t,
		sketchOp("s1"),
		extrudeOp("e1", "s1"),
		booleanOp("b1", "e1", "e2"),
		sketchOp("s2"),
		extrudeOp("e2", "s2"),
	)
	order, cycle := g.Order()
	if cycle != nil {
		t.Fatalf("unexpected cycle: %v", cycle)
	}
	if len(order) != 5 {
		t.Fatalf("order length = %d, want 5", len(order))
	}
	pos := map[op.ID]int{}
	for i, id := range order {
		pos[id] = i
	}
	for _, id := range g.IDs() {
		o, _ := g.Get(id)
		for _, dep := range op.Dependencies(o) {
			if pos[dep] > pos[id] {
				t.Errorf("dependency %s ordered after %s", dep, id)
			}
		}
	}
}

func TestOrderIsDeterministic(t *testing.T) {
	g := mustGraph(t, sketchOp("s1"), sketchOp("s2"), extrudeOp("e1", "s1"), extrudeOp("e2", "s2"))
	first, _ := g.Order()
	for i := 0; i < 10; i++ {
		again, _ := g.Order()
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("order changed between runs: %v vs %v", first, again)
			}
		}
	}
}

func TestOrderDetectsCycle(t *testing.T) {
	g := mustGraph(t, transformOp("a", "b"), transformOp("b", "a"))
	_, cycle := g.Order()
	if cycle == nil {
		t.Fatal("expected a cycle")
	}
	if len(cycle.Path) < 3 {
		t.Fatalf("cycle path = %v, want at least 3 entries", cycle.Path)
	}
	if cycle.Path[0] != cycle.Path[len(cycle.Path)-1] {
		t.Errorf("cycle path endpoints differ: %v", cycle.Path)
	}
	if !strings.Contains(cycle.Error(), "dependency cycle") {
		t.Errorf("cycle error = %q", cycle.Error())
	}
}

func TestOrderDetectsSelfReference(t *testing.T) {
	g := mustGraph(t, transformOp("a", "a"))
	_, cycle := g.Order()
	if cycle == nil {
		t.Fatal("expected a cycle")
	}
	if len(cycle.Path) != 2 || cycle.Path[0] != "a" || cycle.Path[1] != "a" {
		t.Errorf("self-reference path = %v, want [a a]", cycle.Path)
	}
}

func TestOrderSkipsUnknownDependencies(t *testing.T) {
	// e1 depends on a sketch that is not in the graph. Ordering succeeds;
	// the rebuild evaluator reports the missing input.
	g := mustGraph(t, extrudeOp("e1", "ghost"))
	order, cycle := g.Order()
	if cycle != nil {
		t.Fatalf("unexpected cycle: %v", cycle)
	}
	if len(order) != 1 || order[0] != "e1" {
		t.Errorf("order = %v, want [e1]", order)
	}
}

func TestTrustedOrderMatchesOrderOnAcyclicGraphs(t *testing.T) {
	g := mustGraph(t,
		sketchOp("s1"),
		extrudeOp("e1", "s1"),
		sketchOp("s2"),
		extrudeOp("e2", "s2"),
		booleanOp("b1", "e1", "e2"),
	)
	slow, cycle := g.Order()
	if cycle != nil {
		t.Fatalf("unexpected cycle: %v", cycle)
	}
	fast := g.TrustedOrder()
	if len(slow) != len(fast) {
		t.Fatalf("lengths differ: %d vs %d", len(slow), len(fast))
	}
	for i := range slow {
		if slow[i] != fast[i] {
			t.Errorf("order differs at %d: %s vs %s", i, slow[i], fast[i])
		}
	}
}

func TestDependents(t *testing.T) {
	g := mustGraph(t,
		sketchOp("s1"),
		extrudeOp("e1", "s1"),
		extrudeOp("e2", "s1"),
		booleanOp("b1", "e1", "e2"),
	)
	deps := g.Dependents("s1")
	if len(deps) != 2 || deps[0] != "e1" || deps[1] != "e2" {
		t.Errorf("Dependents(s1) = %v, want [e1 e2]", deps)
	}
	if got := g.Dependents("b1"); len(got) != 0 {
		t.Errorf("Dependents(b1) = %v, want none", got)
	}
}

func TestAllDependencies(t *testing.T) {
	g := mustGraph(t,
		sketchOp("s1"),
		extrudeOp("e1", "s1"),
		booleanOp("b1", "e1", "e1"),
	)
	closure := g.AllDependencies("b1")
	want := map[op.ID]bool{"e1": true, "s1": true}
	if len(closure) != len(want) {
		t.Fatalf("closure = %v, want e1 and s1", closure)
	}
	for _, id := range closure {
		if !want[id] {
			t.Errorf("unexpected closure member %s", id)
		}
	}
}

func TestCanMove(t *testing.T) {
	g := mustGraph(t,
		sketchOp("s1"),
		extrudeOp("e1", "s1"),
		booleanOp("b1", "e1", "e1"),
	)
	order, _ := g.Order()

	// Moving the extrude before its sketch breaks the dependency.
	if g.CanMove("e1", 0, order) {
		t.Error("moving e1 before s1 should be rejected")
	}
	// Moving the sketch to the end puts it after its dependents.
	if g.CanMove("s1", len(order)-1, order) {
		t.Error("moving s1 to the end should be rejected")
	}
	// Keeping e1 in place is fine.
	if !g.CanMove("e1", 1, order) {
		t.Error("keeping e1 at its position should be allowed")
	}
}
