// Package sketch holds 2D sketch geometry and the profile extractor that
// finds closed loops usable as extrude/revolve cross-sections. The package
// is deliberately dependency-free: coordinates are plain 2D values in
// sketch-plane space, and mapping onto a model-space plane is the caller's
// concern.
package sketch

import "math"

// Vec2 is a 2D point or direction in sketch-plane coordinates.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 { return Vec2{v.X + w.X, v.Y + w.Y} }

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 { return Vec2{v.X - w.X, v.Y - w.Y} }

// Length returns the Euclidean norm of v.
func (v Vec2) Length() float64 { return math.Hypot(v.X, v.Y) }

// PointID identifies a sketch point.
type PointID string

// PrimID identifies a sketch primitive (line, arc or circle).
type PrimID string

// Point is a sketch vertex.
type Point struct {
	ID  PointID `json:"id"`
	Pos Vec2    `json:"pos"`
}

// Line is a straight segment between two points.
type Line struct {
	ID    PrimID  `json:"id"`
	Start PointID `json:"start"`
	End   PointID `json:"end"`
}

// Arc is a circular arc from Start to End around Center,
// counter-clockwise.
type Arc struct {
	ID     PrimID  `json:"id"`
	Start  PointID `json:"start"`
	End    PointID `json:"end"`
	Center PointID `json:"center"`
}

// Circle is a full circle around a center point. A circle is trivially a
// closed loop of its own.
type Circle struct {
	ID     PrimID  `json:"id"`
	Center PointID `json:"center"`
	Radius float64 `json:"radius"`
}

// ConstraintKind enumerates the constraint types forwarded to the 2D
// constraint solver capability.
type ConstraintKind int

const (
	ConstraintCoincident ConstraintKind = iota
	ConstraintHorizontal
	ConstraintVertical
	ConstraintDistance
	ConstraintRadius
	ConstraintFixed
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintCoincident:
		return "coincident"
	case ConstraintHorizontal:
		return "horizontal"
	case ConstraintVertical:
		return "vertical"
	case ConstraintDistance:
		return "distance"
	case ConstraintRadius:
		return "radius"
	case ConstraintFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Constraint ties sketch entities together. Points and Prims name the
// constrained entities; Value carries the dimension for distance/radius
// constraints.
type Constraint struct {
	Kind   ConstraintKind `json:"kind"`
	Points []PointID      `json:"points,omitempty"`
	Prims  []PrimID       `json:"prims,omitempty"`
	Value  float64        `json:"value,omitempty"`
}

// Sketch is a bag of 2D geometry authored on one plane.
type Sketch struct {
	Points      []Point      `json:"points,omitempty"`
	Lines       []Line       `json:"lines,omitempty"`
	Arcs        []Arc        `json:"arcs,omitempty"`
	Circles     []Circle     `json:"circles,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty"`
}

// Solution maps point IDs to solver-solved positions. A nil Solution means
// authored positions are used as-is.
type Solution map[PointID]Vec2

// Point returns the point with the given ID, or nil.
func (s *Sketch) Point(id PointID) *Point {
	for i := range s.Points {
		if s.Points[i].ID == id {
			return &s.Points[i]
		}
	}
	return nil
}

// Position returns the effective position of a point: the solved position
// when sol has one, otherwise the authored position. ok is false when the
// point does not exist.
func (s *Sketch) Position(id PointID, sol Solution) (Vec2, bool) {
	if sol != nil {
		if p, ok := sol[id]; ok {
			return p, true
		}
	}
	if p := s.Point(id); p != nil {
		return p.Pos, true
	}
	return Vec2{}, false
}
