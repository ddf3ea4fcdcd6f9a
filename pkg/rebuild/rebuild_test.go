package rebuild

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/kerneltest"
	"github.com/chazu/kerf/pkg/op"
	"github.com/chazu/kerf/pkg/params"
	"github.com/chazu/kerf/pkg/sketch"
	"github.com/chazu/kerf/pkg/solver"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// squareSketch is a 10x10 square on the XY plane.
func squareSketch(id string) op.Op {
	geo := &sketch.Sketch{
		Points: []sketch.Point{
			{ID: "p1", Pos: sketch.Vec2{X: 0, Y: 0}},
			{ID: "p2", Pos: sketch.Vec2{X: 10, Y: 0}},
			{ID: "p3", Pos: sketch.Vec2{X: 10, Y: 10}},
			{ID: "p4", Pos: sketch.Vec2{X: 0, Y: 10}},
		},
		Lines: []sketch.Line{
			{ID: "l1", Start: "p1", End: "p2"},
			{ID: "l2", Start: "p2", End: "p3"},
			{ID: "l3", Start: "p3", End: "p4"},
			{ID: "l4", Start: "p4", End: "p1"},
		},
	}
	return op.Op{ID: op.ID(id), Kind: op.KindSketch, Name: id, Data: op.SketchData{Plane: op.XY, Geo: geo}}
}

func extrude(id, sketchID string, depth op.Expr) op.Op {
	return op.Op{
		ID:   op.ID(id),
		Kind: op.KindExtrude,
		Name: id,
		Data: op.ExtrudeData{Profile: op.ProfileRef{Sketch: op.ID(sketchID)}, Depth: depth},
	}
}

func box(id string) op.Op {
	return op.Op{
		ID:   op.ID(id),
		Kind: op.KindPrimitive,
		Name: id,
		Data: op.PrimitiveData{Prim: op.PrimBox, X: "10", Y: "10", Z: "10"},
	}
}

func mustGraph(t *testing.T, ops ...op.Op) graph.Graph {
	t.Helper()
	g, err := graph.FromOps(ops)
	if err != nil {
		t.Fatalf("FromOps: %v", err)
	}
	return g
}

func run(t *testing.T, k *kerneltest.Kernel, ops ...op.Op) *Studio {
	t.Helper()
	st, err := Rebuild(mustGraph(t, ops...), params.NewEnv(nil), k, solver.NewNull(), quietLogger())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return st
}

func TestSketchThenExtrude(t *testing.T) {
	k := kerneltest.New()
	st := run(t, k, squareSketch("s"), extrude("e", "s", "5"))

	if len(st.Errors) != 0 {
		t.Fatalf("errors: %v", st.Errors)
	}
	if _, ok := st.Results["s"]; ok {
		t.Error("a sketch should not produce geometry")
	}
	if st.Solutions["s"] == nil {
		t.Error("sketch solution was not recorded")
	}
	r, ok := st.Results["e"]
	if !ok {
		t.Fatal("extrude produced no result")
	}
	if len(r.Topology.Faces) != 6 {
		t.Errorf("square prism has %d faces, want 6", len(r.Topology.Faces))
	}
	if r.Mesh == nil || r.Mesh.IsEmpty() {
		t.Error("no mesh produced")
	}
	if r.Mesh.OpName != "e" {
		t.Errorf("mesh op name = %q, want e", r.Mesh.OpName)
	}
}

func TestFailureIsolationAndCascade(t *testing.T) {
	k := kerneltest.New()
	bad := extrude("e2", "s", "-5") // negative depth is rejected
	boolOp := op.Op{
		ID:   "b",
		Kind: op.KindBoolean,
		Name: "b",
		Data: op.BooleanData{Op: kernel.BoolSubtract, Target: "e1", Tool: "e2"},
	}
	st := run(t, k, squareSketch("s"), extrude("e1", "s", "5"), bad, boolOp)

	if _, ok := st.Results["e1"]; !ok {
		t.Error("e1 should evaluate despite e2 failing")
	}
	if st.Errors["e2"] == "" {
		t.Error("e2 should have failed")
	}
	if !strings.Contains(st.Errors["b"], ErrMissingDependency.Error()) {
		t.Errorf("b error = %q, want a missing-dependency failure", st.Errors["b"])
	}
	if _, ok := st.Results["b"]; ok {
		t.Error("b should not produce a result")
	}
}

func TestSuppressedOpsAreSkipped(t *testing.T) {
	k := kerneltest.New()
	sup := op.Op{
		ID:         "t",
		Kind:       op.KindTransform,
		Name:       "t",
		Suppressed: true,
		Data:       op.TransformData{Source: "p"},
	}
	boolOp := op.Op{
		ID:   "b",
		Kind: op.KindBoolean,
		Name: "b",
		Data: op.BooleanData{Op: kernel.BoolUnion, Target: "p", Tool: "t"},
	}
	st := run(t, k, box("p"), sup, boolOp)

	if _, ok := st.Results["t"]; ok {
		t.Error("suppressed op produced a result")
	}
	if st.Errors["t"] != "" {
		t.Error("suppressed op recorded an error")
	}
	if !strings.Contains(st.Errors["b"], ErrMissingDependency.Error()) {
		t.Errorf("b error = %q, want missing dependency", st.Errors["b"])
	}
}

func TestCyclicGraphFailsWholesale(t *testing.T) {
	a := op.Op{ID: "a", Kind: op.KindTransform, Name: "a", Data: op.TransformData{Source: "b"}}
	b := op.Op{ID: "b", Kind: op.KindTransform, Name: "b", Data: op.TransformData{Source: "a"}}
	_, err := Rebuild(mustGraph(t, a, b), params.NewEnv(nil), kerneltest.New(), solver.NewNull(), quietLogger())
	if err == nil {
		t.Fatal("cyclic graph should fail the rebuild")
	}
	var cycle *graph.Cycle
	if !errors.As(err, &cycle) {
		t.Errorf("error %T is not a cycle", err)
	}
}

func TestFilletEmptySelection(t *testing.T) {
	k := kerneltest.New()
	fil := op.Op{
		ID:   "f",
		Kind: op.KindFillet,
		Name: "f",
		Data: op.FilletData{
			Target: "p",
			Edges:  []op.TopoRef{{Producer: "ghost", Kind: op.ElementEdge, Index: 0}},
			Radius: "1",
		},
	}
	st := run(t, k, box("p"), fil)
	if !strings.Contains(st.Errors["f"], ErrEmptySelection.Error()) {
		t.Errorf("fillet error = %q, want empty selection", st.Errors["f"])
	}
}

func TestFilletDropsStaleEdges(t *testing.T) {
	k := kerneltest.New()
	fil := op.Op{
		ID:   "f",
		Kind: op.KindFillet,
		Name: "f",
		Data: op.FilletData{
			Target: "p",
			Edges: []op.TopoRef{
				{Producer: "p", Kind: op.ElementEdge, Index: 0},
				{Producer: "p", Kind: op.ElementEdge, Index: 999}, // stale, no signature
			},
			Radius: "1",
		},
	}
	st := run(t, k, box("p"), fil)
	if st.Errors["f"] != "" {
		t.Fatalf("fillet failed: %s", st.Errors["f"])
	}
	if _, ok := st.Results["f"]; !ok {
		t.Fatal("fillet produced no result")
	}
	if k.Calls["fillet"] != 1 {
		t.Errorf("fillet called %d times, want 1", k.Calls["fillet"])
	}
}

func TestShellAddsInnerFaces(t *testing.T) {
	k := kerneltest.New()
	shell := op.Op{
		ID:   "sh",
		Kind: op.KindShell,
		Name: "sh",
		Data: op.ShellData{
			Target:    "p",
			Open:      []op.TopoRef{{Producer: "p", Kind: op.ElementFace, Index: 1}},
			Thickness: "1",
		},
	}
	st := run(t, k, box("p"), shell)
	if st.Errors["sh"] != "" {
		t.Fatalf("shell failed: %s", st.Errors["sh"])
	}
	r := st.Results["sh"]
	if len(r.Topology.Faces) != 7 {
		t.Errorf("shelled box has %d faces, want 7", len(r.Topology.Faces))
	}
}

func TestPatternRepeatsAndUnions(t *testing.T) {
	k := kerneltest.New()
	pat := op.Op{
		ID:   "pat",
		Kind: op.KindPattern,
		Name: "pat",
		Data: op.PatternData{Source: "p", Count: "3", Step: kernel.Vec3{X: 15}},
	}
	st := run(t, k, box("p"), pat)
	if st.Errors["pat"] != "" {
		t.Fatalf("pattern failed: %s", st.Errors["pat"])
	}
	if k.Calls["transform"] != 3 {
		t.Errorf("transform called %d times, want 3", k.Calls["transform"])
	}
	if k.Calls["boolean"] != 2 {
		t.Errorf("boolean called %d times, want 2", k.Calls["boolean"])
	}
}

func TestPatternRejectsZeroCount(t *testing.T) {
	k := kerneltest.New()
	pat := op.Op{
		ID:   "pat",
		Kind: op.KindPattern,
		Name: "pat",
		Data: op.PatternData{Source: "p", Count: "0", Step: kernel.Vec3{X: 15}},
	}
	st := run(t, k, box("p"), pat)
	if st.Errors["pat"] == "" {
		t.Error("zero count should fail")
	}
}

func TestMirrorUnionsWithReflection(t *testing.T) {
	k := kerneltest.New()
	mir := op.Op{
		ID:   "m",
		Kind: op.KindMirror,
		Name: "m",
		Data: op.MirrorData{Source: "p", PlaneNormal: kernel.Vec3{X: 1}},
	}
	st := run(t, k, box("p"), mir)
	if st.Errors["m"] != "" {
		t.Fatalf("mirror failed: %s", st.Errors["m"])
	}
	r := st.Results["m"]
	if len(r.Topology.Faces) != 12 {
		t.Errorf("mirrored box has %d faces, want 12", len(r.Topology.Faces))
	}
}

func TestSymmetricExtrude(t *testing.T) {
	k := kerneltest.New()
	e := op.Op{
		ID:   "e",
		Kind: op.KindExtrude,
		Name: "e",
		Data: op.ExtrudeData{
			Profile:   op.ProfileRef{Sketch: "s"},
			Depth:     "6",
			Direction: op.DirSymmetric,
		},
	}
	st := run(t, k, squareSketch("s"), e)
	if st.Errors["e"] != "" {
		t.Fatalf("extrude failed: %s", st.Errors["e"])
	}
	if k.Calls["extrude"] != 2 {
		t.Errorf("extrude called %d times, want 2", k.Calls["extrude"])
	}
	if k.Calls["boolean"] != 1 {
		t.Errorf("boolean called %d times, want 1", k.Calls["boolean"])
	}
}

func TestExtrudeFromFaceProfile(t *testing.T) {
	k := kerneltest.New()
	e := op.Op{
		ID:   "e",
		Kind: op.KindExtrude,
		Name: "e",
		Data: op.ExtrudeData{
			// Face 1 of a box prism is the top cap.
			Profile: op.ProfileRef{Face: &op.TopoRef{Producer: "p", Kind: op.ElementFace, Index: 1}},
			Depth:   "5",
		},
	}
	st := run(t, k, box("p"), e)
	if st.Errors["e"] != "" {
		t.Fatalf("extrude failed: %s", st.Errors["e"])
	}
	r := st.Results["e"]
	if len(r.Topology.Faces) != 6 {
		t.Errorf("face-profile prism has %d faces, want 6", len(r.Topology.Faces))
	}
}

func TestRevolve(t *testing.T) {
	k := kerneltest.New()
	rev := op.Op{
		ID:   "r",
		Kind: op.KindRevolve,
		Name: "r",
		Data: op.RevolveData{
			Profile: op.ProfileRef{Sketch: "s"},
			AxisDir: kernel.Vec3{Y: 1},
			Angle:   "360",
		},
	}
	st := run(t, k, squareSketch("s"), rev)
	if st.Errors["r"] != "" {
		t.Fatalf("revolve failed: %s", st.Errors["r"])
	}
	if _, ok := st.Results["r"]; !ok {
		t.Fatal("revolve produced no result")
	}
}

func TestKernelFailureIsIsolated(t *testing.T) {
	k := kerneltest.New()
	k.FailNext("boolean", errors.New("kernel exploded"))
	boolOp := op.Op{
		ID:   "b",
		Kind: op.KindBoolean,
		Name: "b",
		Data: op.BooleanData{Op: kernel.BoolUnion, Target: "p1", Tool: "p2"},
	}
	st := run(t, k, box("p1"), box("p2"), boolOp)
	if !strings.Contains(st.Errors["b"], "kernel exploded") {
		t.Errorf("b error = %q", st.Errors["b"])
	}
	if _, ok := st.Results["p1"]; !ok {
		t.Error("p1 should still have a result")
	}
	if _, ok := st.Results["p2"]; !ok {
		t.Error("p2 should still have a result")
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	g := mustGraph(t, squareSketch("s"), extrude("e", "s", "5"), box("p"))
	env := params.NewEnv(nil)
	k := kerneltest.New()

	st1, err := Rebuild(g, env, k, solver.NewNull(), quietLogger())
	if err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	st2, err := Rebuild(g, env, k, solver.NewNull(), quietLogger())
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}

	if len(st1.Order) != len(st2.Order) {
		t.Fatalf("order lengths differ: %d vs %d", len(st1.Order), len(st2.Order))
	}
	for i := range st1.Order {
		if st1.Order[i] != st2.Order[i] {
			t.Errorf("order differs at %d", i)
		}
	}
	if len(st1.Results) != len(st2.Results) || len(st1.Errors) != len(st2.Errors) {
		t.Errorf("outcomes differ between rebuilds")
	}
}

func TestUnknownKindIsReported(t *testing.T) {
	k := kerneltest.New()
	weird := op.Op{ID: "w", Kind: op.Kind(99), Name: "w"}
	st := run(t, k, weird)
	if !strings.Contains(st.Errors["w"], "no evaluation rule") {
		t.Errorf("error = %q, want a no-rule failure", st.Errors["w"])
	}
}

func TestFinalPicksLastResult(t *testing.T) {
	k := kerneltest.New()
	st := run(t, k, squareSketch("s"), extrude("e", "s", "5"))
	final, ok := st.Final()
	if !ok {
		t.Fatal("no final result")
	}
	if final != st.Results["e"] {
		t.Error("final is not the last produced result")
	}
}

func TestStudioReleaseFreesShapes(t *testing.T) {
	k := kerneltest.New()
	st := run(t, k, box("p1"), box("p2"))
	st.Release(k)
	if len(k.Released) < 2 {
		t.Errorf("released %d shapes, want at least 2", len(k.Released))
	}
}

func TestRulePreValidationRejects(t *testing.T) {
	kind := op.Kind(57)
	evaluated := false
	Register(kind, Rule{
		Label: "gated",
		Validate: func(_ *Context, o op.Op) error {
			return fmt.Errorf("%s is not allowed here", o.Name)
		},
		Eval: func(*Context, op.Op) (*Result, error) {
			evaluated = true
			return nil, nil
		},
	})

	k := kerneltest.New()
	st := run(t, k, op.Op{ID: "g", Kind: kind, Name: "g"})
	if evaluated {
		t.Error("Eval ran despite the pre-check rejecting the op")
	}
	if !strings.Contains(st.Errors["g"], "not allowed") {
		t.Errorf("error = %q", st.Errors["g"])
	}
}
