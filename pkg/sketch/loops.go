package sketch

import (
	"math"
	"sort"
)

// maxTraceSteps caps a single loop trace. Malformed or degenerate input
// (duplicate edges, zero-length segments) could otherwise walk forever.
const maxTraceSteps = 4096

// CircleSegments is the polygon resolution used when a circle loop is
// converted to points.
const CircleSegments = 32

// Loop is a closed boundary discovered in a sketch. Prims lists the
// primitives forming the boundary in traversal order; Points the vertex
// IDs at each junction. A circle forms a loop on its own and has no
// junction points. Area is signed by trace direction, which follows the
// seed edge's authored orientation; ordering and profile selection use
// |Area|. Outer comes from nesting, not from the area sign: a loop
// contained in no other loop bounds a profile, a nested loop is a hole.
type Loop struct {
	Prims  []PrimID  `json:"prims"`
	Points []PointID `json:"points,omitempty"`
	Area   float64   `json:"area"`
	Outer  bool      `json:"outer"`
}

// edge is the internal undirected view of a line or arc during tracing.
// Arcs are traced by their chord; the chord is also what contributes to
// the signed area, which is exact enough for ordering loops by size.
type edge struct {
	prim       PrimID
	start, end PointID
}

// FindClosedLoops finds every closed loop in the sketch and returns them
// ordered by absolute area, largest first, so callers default to the
// outermost profile. Open chains are discarded. Authored point positions
// are used; constraint solutions do not change connectivity.
func FindClosedLoops(s *Sketch) []Loop {
	if s == nil {
		return nil
	}

	var loops []Loop

	// Circles are trivially closed.
	for _, c := range s.Circles {
		loops = append(loops, Loop{
			Prims: []PrimID{c.ID},
			Area:  math.Pi * c.Radius * c.Radius,
		})
	}

	edges := collectEdges(s)

	// Point -> indices of incident edges.
	incident := make(map[PointID][]int)
	for i, e := range edges {
		incident[e.start] = append(incident[e.start], i)
		incident[e.end] = append(incident[e.end], i)
	}

	used := make([]bool, len(edges))
	for seed := range edges {
		if used[seed] {
			continue
		}
		if l, ok := traceLoop(s, edges, incident, used, seed); ok {
			loops = append(loops, l)
		}
	}

	markOuter(s, loops)

	sort.SliceStable(loops, func(i, j int) bool {
		return math.Abs(loops[i].Area) > math.Abs(loops[j].Area)
	})
	return loops
}

// markOuter derives each loop's Outer flag from nesting. One boundary
// vertex decides containment, which is enough because loops in a valid
// sketch do not cross each other.
func markOuter(s *Sketch, loops []Loop) {
	polys := make([][]Vec2, len(loops))
	for i := range loops {
		polys[i] = LoopPoints(s, loops[i], nil)
	}
	for i := range loops {
		loops[i].Outer = true
		if len(polys[i]) == 0 {
			continue
		}
		pt := polys[i][0]
		for j := range loops {
			if j == i || len(polys[j]) < 3 {
				continue
			}
			if PointInLoop(polys[j], pt) {
				loops[i].Outer = false
				break
			}
		}
	}
}

// collectEdges flattens lines and arcs into undirected edges, skipping
// primitives with dangling endpoints.
func collectEdges(s *Sketch) []edge {
	var edges []edge
	for _, l := range s.Lines {
		if s.Point(l.Start) == nil || s.Point(l.End) == nil {
			continue
		}
		edges = append(edges, edge{prim: l.ID, start: l.Start, end: l.End})
	}
	for _, a := range s.Arcs {
		if s.Point(a.Start) == nil || s.Point(a.End) == nil {
			continue
		}
		edges = append(edges, edge{prim: a.ID, start: a.Start, end: a.End})
	}
	return edges
}

// traceLoop walks forward from the seed edge, always taking the unused
// incident edge with the smallest leftward turn relative to the incoming
// direction. It returns the loop when the walk arrives back at the seed's
// start point, and ok=false for open or degenerate chains.
func traceLoop(s *Sketch, edges []edge, incident map[PointID][]int, used []bool, seed int) (Loop, bool) {
	start := edges[seed].start
	cur := edges[seed].end
	used[seed] = true

	prims := []PrimID{edges[seed].prim}
	pts := []PointID{start}

	startPos, ok := s.Position(start, nil)
	if !ok {
		return Loop{}, false
	}
	curPos, _ := s.Position(cur, nil)
	dir := curPos.Sub(startPos)

	for step := 0; step < maxTraceSteps; step++ {
		if cur == start {
			return Loop{Prims: prims, Points: pts, Area: signedArea(s, pts)}, true
		}

		next := -1
		var nextDir Vec2
		best := math.MaxFloat64
		for _, i := range incident[cur] {
			if used[i] {
				continue
			}
			other := edges[i].end
			if other == cur {
				other = edges[i].start
			}
			otherPos, ok := s.Position(other, nil)
			if !ok {
				continue
			}
			out := otherPos.Sub(curPos)
			if t := leftTurn(dir, out); t < best {
				best = t
				next = i
				nextDir = out
			}
		}
		if next == -1 {
			// Open chain: not a loop.
			return Loop{}, false
		}

		used[next] = true
		prims = append(prims, edges[next].prim)
		pts = append(pts, cur)

		if edges[next].end == cur {
			cur = edges[next].start
		} else {
			cur = edges[next].end
		}
		curPos, _ = s.Position(cur, nil)
		dir = nextDir
	}
	return Loop{}, false
}

// leftTurn returns the counter-clockwise turn angle from direction a to
// direction b, normalized to [0, 2π).
func leftTurn(a, b Vec2) float64 {
	t := math.Atan2(a.X*b.Y-a.Y*b.X, a.X*b.X+a.Y*b.Y)
	if t < 0 {
		t += 2 * math.Pi
	}
	return t
}

// signedArea computes the shoelace area over the loop's authored vertex
// positions. Positive means counter-clockwise.
func signedArea(s *Sketch, pts []PointID) float64 {
	var sum float64
	n := len(pts)
	for i := 0; i < n; i++ {
		a, okA := s.Position(pts[i], nil)
		b, okB := s.Position(pts[(i+1)%n], nil)
		if !okA || !okB {
			continue
		}
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// LoopPoints resolves a loop's point IDs to concrete 2D coordinates,
// preferring solver-solved positions over authored ones. Circle loops
// have no junction points and are sampled into a CircleSegments-gon.
func LoopPoints(s *Sketch, l Loop, sol Solution) []Vec2 {
	if len(l.Points) == 0 && len(l.Prims) == 1 {
		if c := s.circle(l.Prims[0]); c != nil {
			return circlePolygon(s, c, sol)
		}
	}
	out := make([]Vec2, 0, len(l.Points))
	for _, id := range l.Points {
		if p, ok := s.Position(id, sol); ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Sketch) circle(id PrimID) *Circle {
	for i := range s.Circles {
		if s.Circles[i].ID == id {
			return &s.Circles[i]
		}
	}
	return nil
}

func circlePolygon(s *Sketch, c *Circle, sol Solution) []Vec2 {
	center, ok := s.Position(c.Center, sol)
	if !ok {
		return nil
	}
	pts := make([]Vec2, 0, CircleSegments)
	for i := 0; i < CircleSegments; i++ {
		t := 2 * math.Pi * float64(i) / CircleSegments
		pts = append(pts, Vec2{
			X: center.X + c.Radius*math.Cos(t),
			Y: center.Y + c.Radius*math.Sin(t),
		})
	}
	return pts
}

// PointInLoop reports whether p lies inside the polygon, using the
// standard even-odd ray-casting test. Points exactly on the boundary are
// not guaranteed either way.
func PointInLoop(poly []Vec2, p Vec2) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}
