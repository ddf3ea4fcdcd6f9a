package document

import (
	"strings"
	"testing"

	"github.com/chazu/kerf/pkg/op"
)

const bracketYAML = `
name: bracket
params:
  - name: height
    expr: "12"
ops:
  - name: base_sketch
    kind: sketch
    sketch:
      points:
        - { id: p1, pos: { x: 0, y: 0 } }
        - { id: p2, pos: { x: 40, y: 0 } }
        - { id: p3, pos: { x: 40, y: 25 } }
        - { id: p4, pos: { x: 0, y: 25 } }
      lines:
        - { id: l1, start: p1, end: p2 }
        - { id: l2, start: p2, end: p3 }
        - { id: l3, start: p3, end: p4 }
        - { id: l4, start: p4, end: p1 }
      constraints:
        - { kind: fixed, points: [p1] }
  - name: base
    kind: extrude
    extrude:
      profile: { sketch: base_sketch }
      depth: "height"
  - name: rounded
    kind: fillet
    fillet:
      target: base
      radius: "1"
      edges:
        - { producer: base, kind: edge, index: 1 }
`

func TestParseAndBuild(t *testing.T) {
	doc, err := Parse([]byte(bracketYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Name != "bracket" {
		t.Errorf("name = %q", doc.Name)
	}

	g, table, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(table) != 1 || table[0].Name != "height" {
		t.Errorf("params = %+v", table)
	}
	if g.Len() != 3 {
		t.Fatalf("graph has %d ops, want 3", g.Len())
	}

	order, cycle := g.Order()
	if cycle != nil {
		t.Fatalf("cycle: %v", cycle)
	}
	names := make([]string, len(order))
	for i, id := range order {
		o, _ := g.Get(id)
		names[i] = o.Name
	}
	want := []string{"base_sketch", "base", "rounded"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}

	// The extrude's profile must reference the sketch's minted ID.
	var base op.Op
	for _, o := range g.Ops() {
		if o.Name == "base" {
			base = o
		}
	}
	data := base.Data.(op.ExtrudeData)
	sk, ok := g.Get(data.Profile.Sketch)
	if !ok || sk.Name != "base_sketch" {
		t.Errorf("profile sketch resolves to %q", sk.Name)
	}
}

func TestBuildDefaultsToXYPlane(t *testing.T) {
	doc, err := Parse([]byte(bracketYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	g, _, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, o := range g.Ops() {
		if o.Kind != op.KindSketch {
			continue
		}
		d := o.Data.(op.SketchData)
		if d.Plane.Normal() != (op.XY.Normal()) {
			t.Errorf("default plane normal = %+v", d.Plane.Normal())
		}
	}
}

func TestParseRejectsUnknownKind(t *testing.T) {
	_, err := Parse([]byte(`
ops:
  - name: x
    kind: teleport
`))
	if err == nil {
		t.Fatal("unknown kind should fail validation")
	}
}

func TestParseRejectsMismatchedPayload(t *testing.T) {
	_, err := Parse([]byte(`
ops:
  - name: x
    kind: extrude
    boolean:
      op: union
      target: a
      tool: b
`))
	if err == nil {
		t.Fatal("mismatched payload should fail validation")
	}
	if !strings.Contains(err.Error(), "missing extrude payload") {
		t.Errorf("error = %v", err)
	}
}

func TestParseRejectsMissingName(t *testing.T) {
	_, err := Parse([]byte(`
ops:
  - kind: primitive
    primitive:
      prim: box
      x: "1"
      y: "1"
      z: "1"
`))
	if err == nil {
		t.Fatal("missing op name should fail validation")
	}
}

func TestBuildRejectsDuplicateNames(t *testing.T) {
	doc := &Document{Ops: []OpDoc{
		{Name: "p", Kind: "primitive", Primitive: &PrimitiveDoc{Prim: "box", X: "1", Y: "1", Z: "1"}},
		{Name: "p", Kind: "primitive", Primitive: &PrimitiveDoc{Prim: "box", X: "2", Y: "2", Z: "2"}},
	}}
	if _, _, err := doc.Build(); err == nil {
		t.Fatal("duplicate names should fail")
	}
}

func TestBuildRejectsUnknownReference(t *testing.T) {
	doc := &Document{Ops: []OpDoc{
		{Name: "e", Kind: "extrude", Extrude: &ExtrudeDoc{
			Profile: ProfileDoc{Sketch: "ghost"},
			Depth:   "5",
		}},
	}}
	if _, _, err := doc.Build(); err == nil {
		t.Fatal("unknown reference should fail")
	}
}

func TestBuildKeepsExplicitIDs(t *testing.T) {
	doc := &Document{Ops: []OpDoc{
		{ID: "fixed-id", Name: "p", Kind: "primitive", Primitive: &PrimitiveDoc{Prim: "box", X: "1", Y: "1", Z: "1"}},
	}}
	g, _, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := g.Get("fixed-id"); !ok {
		t.Error("explicit ID was not kept")
	}
}
