// Package kernel defines the geometry-kernel capability interface.
// Implementations (sdfx, kerneltest) provide solid modeling behind this
// interface. The engine only orchestrates kernel calls; it never computes
// geometry itself. All handles are opaque integers owned by the backend,
// all calls are single-argument-in single-result-out, and no call schedules
// concurrent work — the kernel is treated as a single shared stateful
// resource whose calls must not interleave.
package kernel

// Shape is an opaque handle to a kernel solid or planar face body.
type Shape int

// Wire is an opaque handle to a closed polygonal wire.
type Wire int

// Face, Edge and Vertex are opaque handles to boundary elements of a Shape.
// They are only meaningful together with the shape they were enumerated
// from, and only until that shape is released or superseded.
type (
	Face   int
	Edge   int
	Vertex int
)

// BoolOp selects a boolean operation.
type BoolOp int

const (
	BoolUnion BoolOp = iota
	BoolSubtract
	BoolIntersect
)

func (o BoolOp) String() string {
	switch o {
	case BoolUnion:
		return "union"
	case BoolSubtract:
		return "subtract"
	case BoolIntersect:
		return "intersect"
	default:
		return "unknown"
	}
}

// Kernel is the geometry-kernel capability interface consumed by the
// rebuild evaluator. Errors returned from any call are opaque to the
// engine: they are recorded verbatim against the operation that made
// the call.
type Kernel interface {
	// PolygonWire builds a closed wire through the given 3D points, in
	// order. At least three points are required.
	PolygonWire(points []Vec3) (Wire, error)

	// FaceFromWire builds a planar face bounded by outer. Inner wires
	// (holes) may be supplied in holes.
	FaceFromWire(outer Wire, holes []Wire) (Shape, error)

	// Extrude sweeps a planar face along dir. The length of dir is the
	// extrusion depth.
	Extrude(face Shape, dir Vec3) (Shape, error)

	// Revolve sweeps a planar face around the axis through origin with
	// direction axis, by angle radians.
	Revolve(face Shape, origin, axis Vec3, angle float64) (Shape, error)

	// Boolean combines two shapes.
	Boolean(op BoolOp, a, b Shape) (Shape, error)

	// Fillet rounds the given edges of a shape with the given radius.
	Fillet(s Shape, edges []Edge, radius float64) (Shape, error)

	// Chamfer bevels the given edges of a shape with the given distance.
	Chamfer(s Shape, edges []Edge, distance float64) (Shape, error)

	// Shell hollows a shape, removing the given faces and leaving walls
	// of the given thickness.
	Shell(s Shape, open []Face, thickness float64) (Shape, error)

	// Transform translates a shape by offset and rotates it by Euler
	// angles (radians) around X, Y, Z.
	Transform(s Shape, offset, rotate Vec3) (Shape, error)

	// Mirror reflects a shape across the plane through origin with the
	// given normal.
	Mirror(s Shape, origin, normal Vec3) (Shape, error)

	// FaceWire returns the boundary wire of a planar face, for use as a
	// sweep profile. Curved faces return an error.
	FaceWire(s Shape, f Face) (Wire, error)

	// Box and Cylinder build primitive solids. Boxes have their minimum
	// corner at the origin; cylinders stand on the XY plane.
	Box(x, y, z float64) (Shape, error)
	Cylinder(height, radius float64) (Shape, error)

	// Faces, Edges and Vertices enumerate a shape's boundary elements.
	// The order is stable for an unchanged shape but carries no meaning
	// across rebuilds.
	Faces(s Shape) ([]Face, error)
	Edges(s Shape) ([]Edge, error)
	Vertices(s Shape) ([]Vertex, error)

	// Face measurements, used to mint and resolve topological references.
	FaceCenter(s Shape, f Face) (Vec3, error)
	FaceNormal(s Shape, f Face) (Vec3, error)
	FaceArea(s Shape, f Face) (float64, error)

	// Edge measurements.
	EdgeMidpoint(s Shape, e Edge) (Vec3, error)
	EdgeLength(s Shape, e Edge) (float64, error)

	// VertexPosition returns the position of a vertex.
	VertexPosition(s Shape, v Vertex) (Vec3, error)

	// Triangulate produces a render mesh for a shape at the given
	// deflection tolerance.
	Triangulate(s Shape, deflection float64) (*Mesh, error)

	// Release frees a shape handle. Releasing an unknown handle is a
	// no-op.
	Release(s Shape)
}
