package sketch

import (
	"math"
	"testing"
)

// square builds a unit square from (0,0) counter-clockwise.
func square() *Sketch {
	return &Sketch{
		Points: []Point{
			{ID: "p1", Pos: Vec2{0, 0}},
			{ID: "p2", Pos: Vec2{1, 0}},
			{ID: "p3", Pos: Vec2{1, 1}},
			{ID: "p4", Pos: Vec2{0, 1}},
		},
		Lines: []Line{
			{ID: "l1", Start: "p1", End: "p2"},
			{ID: "l2", Start: "p2", End: "p3"},
			{ID: "l3", Start: "p3", End: "p4"},
			{ID: "l4", Start: "p4", End: "p1"},
		},
	}
}

func TestFindClosedLoopsSquare(t *testing.T) {
	loops := FindClosedLoops(square())
	if len(loops) != 1 {
		t.Fatalf("found %d loops, want 1", len(loops))
	}
	l := loops[0]
	if len(l.Prims) != 4 {
		t.Errorf("loop has %d prims, want 4", len(l.Prims))
	}
	if math.Abs(math.Abs(l.Area)-1) > 1e-9 {
		t.Errorf("|area| = %f, want 1", math.Abs(l.Area))
	}
	if !l.Outer {
		t.Error("a lone square should be an outer boundary")
	}
}

func TestFindClosedLoopsSquareAuthoredClockwise(t *testing.T) {
	s := square()
	s.Lines = []Line{
		{ID: "l1", Start: "p1", End: "p4"},
		{ID: "l2", Start: "p4", End: "p3"},
		{ID: "l3", Start: "p3", End: "p2"},
		{ID: "l4", Start: "p2", End: "p1"},
	}
	loops := FindClosedLoops(s)
	if len(loops) != 1 {
		t.Fatalf("found %d loops, want 1", len(loops))
	}
	if math.Abs(math.Abs(loops[0].Area)-1) > 1e-9 {
		t.Errorf("|area| = %f, want 1", math.Abs(loops[0].Area))
	}
	if !loops[0].Outer {
		t.Error("a lone square is an outer boundary regardless of authoring direction")
	}
}

func TestFindClosedLoopsIgnoresOpenChains(t *testing.T) {
	s := square()
	// Drop the closing segment; the chain is open.
	s.Lines = s.Lines[:3]
	if loops := FindClosedLoops(s); len(loops) != 0 {
		t.Errorf("found %d loops in an open chain, want 0", len(loops))
	}
}

func TestFindClosedLoopsIgnoresDanglingLines(t *testing.T) {
	s := square()
	s.Lines = append(s.Lines, Line{ID: "l5", Start: "p1", End: "ghost"})
	loops := FindClosedLoops(s)
	if len(loops) != 1 {
		t.Fatalf("found %d loops, want 1", len(loops))
	}
}

func TestFindClosedLoopsNestedSquaresLargestFirst(t *testing.T) {
	s := square()
	// Inner square, quarter the size, centered.
	s.Points = append(s.Points,
		Point{ID: "q1", Pos: Vec2{0.25, 0.25}},
		Point{ID: "q2", Pos: Vec2{0.75, 0.25}},
		Point{ID: "q3", Pos: Vec2{0.75, 0.75}},
		Point{ID: "q4", Pos: Vec2{0.25, 0.75}},
	)
	s.Lines = append(s.Lines,
		Line{ID: "m1", Start: "q1", End: "q2"},
		Line{ID: "m2", Start: "q2", End: "q3"},
		Line{ID: "m3", Start: "q3", End: "q4"},
		Line{ID: "m4", Start: "q4", End: "q1"},
	)
	loops := FindClosedLoops(s)
	if len(loops) != 2 {
		t.Fatalf("found %d loops, want 2", len(loops))
	}
	if math.Abs(loops[0].Area) < math.Abs(loops[1].Area) {
		t.Error("loops are not ordered largest first")
	}
	if math.Abs(math.Abs(loops[1].Area)-0.25) > 1e-9 {
		t.Errorf("inner |area| = %f, want 0.25", math.Abs(loops[1].Area))
	}
	if !loops[0].Outer {
		t.Error("enclosing square should be outer")
	}
	if loops[1].Outer {
		t.Error("nested square should be a hole")
	}
}

func TestCircleIsATrivialLoop(t *testing.T) {
	s := &Sketch{
		Points:  []Point{{ID: "c", Pos: Vec2{2, 3}}},
		Circles: []Circle{{ID: "ring", Center: "c", Radius: 2}},
	}
	loops := FindClosedLoops(s)
	if len(loops) != 1 {
		t.Fatalf("found %d loops, want 1", len(loops))
	}
	want := math.Pi * 4
	if math.Abs(loops[0].Area-want) > 1e-9 {
		t.Errorf("circle area = %f, want %f", loops[0].Area, want)
	}
	if !loops[0].Outer {
		t.Error("circle loop should be outer")
	}

	pts := LoopPoints(s, loops[0], nil)
	if len(pts) != CircleSegments {
		t.Fatalf("circle polygon has %d points, want %d", len(pts), CircleSegments)
	}
	for _, p := range pts {
		r := p.Sub(Vec2{2, 3}).Length()
		if math.Abs(r-2) > 1e-9 {
			t.Fatalf("sample at radius %f, want 2", r)
		}
	}
}

func TestLoopPointsPrefersSolvedPositions(t *testing.T) {
	s := square()
	loops := FindClosedLoops(s)
	if len(loops) != 1 {
		t.Fatalf("found %d loops, want 1", len(loops))
	}
	sol := Solution{"p2": {2, 0}}
	pts := LoopPoints(s, loops[0], sol)
	moved := false
	for _, p := range pts {
		if p == (Vec2{2, 0}) {
			moved = true
		}
	}
	if !moved {
		t.Error("solved position was not used")
	}
}

func TestPointInLoop(t *testing.T) {
	poly := []Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	cases := []struct {
		p    Vec2
		want bool
	}{
		{Vec2{0.5, 0.5}, true},
		{Vec2{1.5, 0.5}, false},
		{Vec2{-0.1, 0.5}, false},
		{Vec2{0.5, -0.1}, false},
		{Vec2{0.99, 0.99}, true},
	}
	for _, c := range cases {
		if got := PointInLoop(poly, c.p); got != c.want {
			t.Errorf("PointInLoop(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestPositionFallsBackToAuthored(t *testing.T) {
	s := square()
	if p, ok := s.Position("p3", nil); !ok || p != (Vec2{1, 1}) {
		t.Errorf("authored position = %v ok=%v", p, ok)
	}
	if p, ok := s.Position("p3", Solution{"p3": {5, 5}}); !ok || p != (Vec2{5, 5}) {
		t.Errorf("solved position = %v ok=%v", p, ok)
	}
	if _, ok := s.Position("ghost", nil); ok {
		t.Error("missing point should not resolve")
	}
}
