// Package sdfx implements the kernel capability interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Solids are signed
// distance fields; boundary topology (faces/edges/vertices) does not
// exist in that representation, so the backend synthesizes it
// analytically from the construction inputs via kernel/brep. The
// synthetic measurements are exact for sweeps and primitives and
// approximate for booleans, which is precisely the situation the
// engine's signature fallback exists for.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/brep"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// Mesh cell bounds for marching-cubes tessellation. The deflection
// tolerance passed to Triangulate is converted to a cell count and
// clamped into this range.
const (
	minMeshCells     = 16
	maxMeshCells     = 400
	defaultMeshCells = 200
)

type wireRec struct {
	pts []kernel.Vec3
}

type shapeRec struct {
	// solid is nil for planar face shapes, which only exist to be swept.
	solid sdf.SDF3

	// Planar face data, kept for sweeping.
	poly  []kernel.Vec3
	holes [][]kernel.Vec3

	topo        brep.Topology
	faceHandles []kernel.Face
	edgeHandles []kernel.Edge
	vertHandles []kernel.Vertex
}

// Kernel implements the geometry capability interface on sdfx.
type Kernel struct {
	next   int
	wires  map[kernel.Wire]*wireRec
	shapes map[kernel.Shape]*shapeRec

	facePos map[kernel.Face]brep.Face
	edgePos map[kernel.Edge]brep.Edge
	vertPos map[kernel.Vertex]kernel.Vec3
}

// New returns a new sdfx-backed kernel.
func New() *Kernel {
	return &Kernel{
		wires:   map[kernel.Wire]*wireRec{},
		shapes:  map[kernel.Shape]*shapeRec{},
		facePos: map[kernel.Face]brep.Face{},
		edgePos: map[kernel.Edge]brep.Edge{},
		vertPos: map[kernel.Vertex]kernel.Vec3{},
	}
}

func (k *Kernel) handle() int {
	k.next++
	return k.next
}

func (k *Kernel) install(rec *shapeRec) kernel.Shape {
	s := kernel.Shape(k.handle())
	for i := range rec.topo.Faces {
		f := kernel.Face(k.handle())
		rec.faceHandles = append(rec.faceHandles, f)
		k.facePos[f] = rec.topo.Faces[i]
	}
	for i := range rec.topo.Edges {
		e := kernel.Edge(k.handle())
		rec.edgeHandles = append(rec.edgeHandles, e)
		k.edgePos[e] = rec.topo.Edges[i]
	}
	for i := range rec.topo.Verts {
		v := kernel.Vertex(k.handle())
		rec.vertHandles = append(rec.vertHandles, v)
		k.vertPos[v] = rec.topo.Verts[i]
	}
	k.shapes[s] = rec
	return s
}

func (k *Kernel) shape(s kernel.Shape) (*shapeRec, error) {
	rec, ok := k.shapes[s]
	if !ok {
		return nil, fmt.Errorf("sdfx: unknown shape %d", s)
	}
	return rec, nil
}

func (k *Kernel) solid(s kernel.Shape) (*shapeRec, error) {
	rec, err := k.shape(s)
	if err != nil {
		return nil, err
	}
	if rec.solid == nil {
		return nil, fmt.Errorf("sdfx: shape %d is a planar face, not a solid", s)
	}
	return rec, nil
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// PolygonWire records a closed wire through the points.
func (k *Kernel) PolygonWire(points []kernel.Vec3) (kernel.Wire, error) {
	if len(points) < 3 {
		return 0, fmt.Errorf("sdfx: polygon wire needs at least 3 points, got %d", len(points))
	}
	w := kernel.Wire(k.handle())
	pts := make([]kernel.Vec3, len(points))
	copy(pts, points)
	k.wires[w] = &wireRec{pts: pts}
	return w, nil
}

// FaceFromWire builds a planar face shape. The face carries no SDF of its
// own; it exists to be extruded or revolved.
func (k *Kernel) FaceFromWire(outer kernel.Wire, holes []kernel.Wire) (kernel.Shape, error) {
	w, ok := k.wires[outer]
	if !ok {
		return 0, fmt.Errorf("sdfx: unknown wire %d", outer)
	}
	var holePts [][]kernel.Vec3
	for _, h := range holes {
		hw, ok := k.wires[h]
		if !ok {
			return 0, fmt.Errorf("sdfx: unknown hole wire %d", h)
		}
		holePts = append(holePts, hw.pts)
	}
	return k.install(&shapeRec{
		poly:  w.pts,
		holes: holePts,
		topo:  brep.PlanarFace(w.pts, holePts),
	}), nil
}

// profileSDF projects a planar face's boundary into its own plane and
// builds the 2D profile SDF, returning the plane frame for re-orienting
// the swept solid.
func profileSDF(rec *shapeRec) (sdf.SDF2, frame, error) {
	fr, local, err := planeFrame(rec.poly)
	if err != nil {
		return nil, frame{}, err
	}
	profile, err := polygon2D(local)
	if err != nil {
		return nil, frame{}, err
	}
	for _, hole := range rec.holes {
		hl := make([]v2.Vec, len(hole))
		for i, p := range hole {
			q := fr.toLocal(p)
			hl[i] = v2.Vec{X: q.X, Y: q.Y}
		}
		hs, err := sdf.Polygon2D(hl)
		if err != nil {
			return nil, frame{}, fmt.Errorf("sdfx: hole profile: %w", err)
		}
		profile = sdf.Difference2D(profile, hs)
	}
	return profile, fr, nil
}

// Extrude sweeps a planar face along dir. The sweep direction must be
// normal to the face plane; SDF extrusion cannot shear.
func (k *Kernel) Extrude(face kernel.Shape, dir kernel.Vec3) (kernel.Shape, error) {
	rec, err := k.shape(face)
	if err != nil {
		return 0, err
	}
	if len(rec.poly) < 3 {
		return 0, fmt.Errorf("sdfx: shape %d is not a planar face", face)
	}
	depth := dir.Length()
	if depth == 0 {
		return 0, fmt.Errorf("sdfx: extrude depth is zero")
	}
	profile, fr, err := profileSDF(rec)
	if err != nil {
		return 0, err
	}

	s3 := sdf.Extrude3D(profile, depth)
	// Extrude3D is symmetric about the profile plane; shift to grow from
	// the plane along dir.
	m := fr.matrix()
	if dir.Dot(fr.w) < 0 {
		m = m.Mul(sdf.Translate3d(v3.Vec{Z: -depth / 2}))
	} else {
		m = m.Mul(sdf.Translate3d(v3.Vec{Z: depth / 2}))
	}
	return k.install(&shapeRec{
		solid: sdf.Transform3D(s3, m),
		topo:  brep.Prism(rec.poly, dir),
	}), nil
}

// Revolve sweeps a planar face around the axis by angle radians.
func (k *Kernel) Revolve(face kernel.Shape, origin, axis kernel.Vec3, angle float64) (kernel.Shape, error) {
	rec, err := k.shape(face)
	if err != nil {
		return 0, err
	}
	if len(rec.poly) < 3 {
		return 0, fmt.Errorf("sdfx: shape %d is not a planar face", face)
	}
	if axis.Length() == 0 {
		return 0, fmt.Errorf("sdfx: revolve axis is zero")
	}
	profile, _, err := profileSDF(rec)
	if err != nil {
		return 0, err
	}
	s3, err := sdf.RevolveTheta3D(profile, math.Abs(angle))
	if err != nil {
		return 0, fmt.Errorf("sdfx: revolve: %w", err)
	}
	// RevolveTheta3D revolves about the local Z axis; orient Z onto the
	// requested axis and move to its origin.
	u, v := axisBasis(axis)
	m := frame{origin: origin, u: u, v: v, w: axis.Unit()}.matrix()
	return k.install(&shapeRec{
		solid: sdf.Transform3D(s3, m),
		topo:  brep.Revolved(rec.poly, origin, axis, angle),
	}), nil
}

// Boolean combines two solids. Result topology is the concatenation of
// the operands' (see brep.Concat).
func (k *Kernel) Boolean(bop kernel.BoolOp, a, b kernel.Shape) (kernel.Shape, error) {
	ra, err := k.solid(a)
	if err != nil {
		return 0, err
	}
	rb, err := k.solid(b)
	if err != nil {
		return 0, err
	}
	var s3 sdf.SDF3
	switch bop {
	case kernel.BoolUnion:
		s3 = sdf.Union3D(ra.solid, rb.solid)
	case kernel.BoolSubtract:
		s3 = sdf.Difference3D(ra.solid, rb.solid)
	case kernel.BoolIntersect:
		s3 = sdf.Intersect3D(ra.solid, rb.solid)
	default:
		return 0, fmt.Errorf("sdfx: unknown boolean op %d", bop)
	}
	return k.install(&shapeRec{
		solid: s3,
		topo:  brep.Concat(ra.topo, rb.topo),
	}), nil
}

// Fillet rounds edges. An SDF has no per-edge boundary to round, so the
// solid itself is kept as-is and only the synthetic edge measurements
// shrink; the selection still gates whether the operation runs. A B-rep
// backend would honor the edge set exactly.
func (k *Kernel) Fillet(s kernel.Shape, edges []kernel.Edge, radius float64) (kernel.Shape, error) {
	return k.dressUp(s, edges, radius)
}

// Chamfer behaves like Fillet under SDF representation.
func (k *Kernel) Chamfer(s kernel.Shape, edges []kernel.Edge, distance float64) (kernel.Shape, error) {
	return k.dressUp(s, edges, distance)
}

func (k *Kernel) dressUp(s kernel.Shape, edges []kernel.Edge, size float64) (kernel.Shape, error) {
	rec, err := k.solid(s)
	if err != nil {
		return 0, err
	}
	if len(edges) == 0 {
		return 0, fmt.Errorf("sdfx: no edges selected")
	}
	if size <= 0 {
		return 0, fmt.Errorf("sdfx: size %g out of range", size)
	}
	touched := map[kernel.Edge]bool{}
	for _, e := range edges {
		touched[e] = true
	}
	out := &shapeRec{solid: rec.solid}
	out.topo.Faces = append(out.topo.Faces, rec.topo.Faces...)
	out.topo.Verts = append(out.topo.Verts, rec.topo.Verts...)
	for i, e := range rec.topo.Edges {
		spec := e
		if i < len(rec.edgeHandles) && touched[rec.edgeHandles[i]] {
			spec.Length = math.Max(0, e.Length-2*size)
		}
		out.topo.Edges = append(out.topo.Edges, spec)
	}
	return k.install(out), nil
}

// Shell hollows a solid. SDF shelling closes every face; the open-face
// selection gates the operation and extends the synthetic topology but
// cannot cut openings in this representation.
func (k *Kernel) Shell(s kernel.Shape, open []kernel.Face, thickness float64) (kernel.Shape, error) {
	rec, err := k.solid(s)
	if err != nil {
		return 0, err
	}
	if len(open) == 0 {
		return 0, fmt.Errorf("sdfx: no faces selected")
	}
	if thickness <= 0 {
		return 0, fmt.Errorf("sdfx: thickness %g out of range", thickness)
	}
	s3, err := sdf.Shell3D(rec.solid, thickness)
	if err != nil {
		return 0, fmt.Errorf("sdfx: shell: %w", err)
	}
	out := &shapeRec{solid: s3}
	out.topo.Faces = append(out.topo.Faces, rec.topo.Faces...)
	out.topo.Edges = append(out.topo.Edges, rec.topo.Edges...)
	out.topo.Verts = append(out.topo.Verts, rec.topo.Verts...)
	for _, f := range open {
		if spec, ok := k.facePos[f]; ok {
			inner := spec
			inner.Center = spec.Center.Sub(spec.Normal.Unit().Scale(thickness))
			out.topo.Faces = append(out.topo.Faces, inner)
		}
	}
	return k.install(out), nil
}

// Transform translates a solid by offset and rotates it by Euler angles.
func (k *Kernel) Transform(s kernel.Shape, offset, rotate kernel.Vec3) (kernel.Shape, error) {
	rec, err := k.solid(s)
	if err != nil {
		return 0, err
	}
	m := sdf.Translate3d(v3.Vec{X: offset.X, Y: offset.Y, Z: offset.Z}).
		Mul(sdf.RotateZ(rotate.Z)).
		Mul(sdf.RotateY(rotate.Y)).
		Mul(sdf.RotateX(rotate.X))
	return k.install(&shapeRec{
		solid: sdf.Transform3D(rec.solid, m),
		topo:  brep.Transformed(rec.topo, offset, rotate),
	}), nil
}

// mirrorSDF evaluates a solid at the reflection of the query point,
// which mirrors the solid across the plane.
type mirrorSDF struct {
	s      sdf.SDF3
	origin v3.Vec
	normal v3.Vec // unit
	bb     sdf.Box3
}

func (m *mirrorSDF) reflect(p v3.Vec) v3.Vec {
	d := p.Sub(m.origin)
	return p.Sub(m.normal.MulScalar(2 * d.Dot(m.normal)))
}

func (m *mirrorSDF) Evaluate(p v3.Vec) float64 {
	return m.s.Evaluate(m.reflect(p))
}

func (m *mirrorSDF) BoundingBox() sdf.Box3 {
	return m.bb
}

// Mirror reflects a solid across the plane through origin with the given
// normal.
func (k *Kernel) Mirror(s kernel.Shape, origin, normal kernel.Vec3) (kernel.Shape, error) {
	rec, err := k.solid(s)
	if err != nil {
		return 0, err
	}
	if normal.Length() == 0 {
		return 0, fmt.Errorf("sdfx: mirror normal is zero")
	}
	n := normal.Unit()
	m := &mirrorSDF{
		s:      rec.solid,
		origin: v3.Vec{X: origin.X, Y: origin.Y, Z: origin.Z},
		normal: v3.Vec{X: n.X, Y: n.Y, Z: n.Z},
	}
	// Bounding box of the mirrored solid: reflect the source box corners.
	bb := rec.solid.BoundingBox()
	first := true
	for _, x := range []float64{bb.Min.X, bb.Max.X} {
		for _, y := range []float64{bb.Min.Y, bb.Max.Y} {
			for _, z := range []float64{bb.Min.Z, bb.Max.Z} {
				c := m.reflect(v3.Vec{X: x, Y: y, Z: z})
				if first {
					m.bb = sdf.Box3{Min: c, Max: c}
					first = false
					continue
				}
				m.bb.Min = v3.Vec{X: math.Min(m.bb.Min.X, c.X), Y: math.Min(m.bb.Min.Y, c.Y), Z: math.Min(m.bb.Min.Z, c.Z)}
				m.bb.Max = v3.Vec{X: math.Max(m.bb.Max.X, c.X), Y: math.Max(m.bb.Max.Y, c.Y), Z: math.Max(m.bb.Max.Z, c.Z)}
			}
		}
	}
	return k.install(&shapeRec{
		solid: m,
		topo:  brep.Mirrored(rec.topo, origin, n),
	}), nil
}

// Box creates a box with its minimum corner at the origin. sdf.Box3D
// centers the box, so it is shifted by half-dimensions.
func (k *Kernel) Box(x, y, z float64) (kernel.Shape, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return 0, fmt.Errorf("sdfx: box dimensions must be positive")
	}
	s3, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return 0, fmt.Errorf("sdfx: box: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return k.install(&shapeRec{
		solid: sdf.Transform3D(s3, m),
		topo:  brep.Box(x, y, z),
	}), nil
}

// Cylinder creates a cylinder standing on the XY plane.
func (k *Kernel) Cylinder(height, radius float64) (kernel.Shape, error) {
	if height <= 0 || radius <= 0 {
		return 0, fmt.Errorf("sdfx: cylinder dimensions must be positive")
	}
	s3, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return 0, fmt.Errorf("sdfx: cylinder: %w", err)
	}
	// Cylinder3D is centered; stand it on z=0.
	m := sdf.Translate3d(v3.Vec{Z: height / 2})
	return k.install(&shapeRec{
		solid: sdf.Transform3D(s3, m),
		topo:  brep.Cylinder(height, radius),
	}), nil
}

// ---------------------------------------------------------------------------
// Interrogation
// ---------------------------------------------------------------------------

// Faces enumerates a shape's synthetic face handles.
func (k *Kernel) Faces(s kernel.Shape) ([]kernel.Face, error) {
	rec, err := k.shape(s)
	if err != nil {
		return nil, err
	}
	return append([]kernel.Face(nil), rec.faceHandles...), nil
}

// Edges enumerates a shape's synthetic edge handles.
func (k *Kernel) Edges(s kernel.Shape) ([]kernel.Edge, error) {
	rec, err := k.shape(s)
	if err != nil {
		return nil, err
	}
	return append([]kernel.Edge(nil), rec.edgeHandles...), nil
}

// Vertices enumerates a shape's synthetic vertex handles.
func (k *Kernel) Vertices(s kernel.Shape) ([]kernel.Vertex, error) {
	rec, err := k.shape(s)
	if err != nil {
		return nil, err
	}
	return append([]kernel.Vertex(nil), rec.vertHandles...), nil
}

// FaceCenter returns the synthetic face center.
func (k *Kernel) FaceCenter(s kernel.Shape, f kernel.Face) (kernel.Vec3, error) {
	spec, ok := k.facePos[f]
	if !ok {
		return kernel.Vec3{}, fmt.Errorf("sdfx: unknown face %d", f)
	}
	return spec.Center, nil
}

// FaceNormal returns the synthetic face normal.
func (k *Kernel) FaceNormal(s kernel.Shape, f kernel.Face) (kernel.Vec3, error) {
	spec, ok := k.facePos[f]
	if !ok {
		return kernel.Vec3{}, fmt.Errorf("sdfx: unknown face %d", f)
	}
	return spec.Normal, nil
}

// FaceArea returns the synthetic face area.
func (k *Kernel) FaceArea(s kernel.Shape, f kernel.Face) (float64, error) {
	spec, ok := k.facePos[f]
	if !ok {
		return 0, fmt.Errorf("sdfx: unknown face %d", f)
	}
	return spec.Area, nil
}

// EdgeMidpoint returns the synthetic edge midpoint.
func (k *Kernel) EdgeMidpoint(s kernel.Shape, e kernel.Edge) (kernel.Vec3, error) {
	spec, ok := k.edgePos[e]
	if !ok {
		return kernel.Vec3{}, fmt.Errorf("sdfx: unknown edge %d", e)
	}
	return spec.Mid, nil
}

// EdgeLength returns the synthetic edge length.
func (k *Kernel) EdgeLength(s kernel.Shape, e kernel.Edge) (float64, error) {
	spec, ok := k.edgePos[e]
	if !ok {
		return 0, fmt.Errorf("sdfx: unknown edge %d", e)
	}
	return spec.Length, nil
}

// FaceWire returns the boundary wire of a planar face. Curved faces
// (revolve bands, cylinder walls and caps) carry no boundary polygon.
func (k *Kernel) FaceWire(s kernel.Shape, f kernel.Face) (kernel.Wire, error) {
	spec, ok := k.facePos[f]
	if !ok {
		return 0, fmt.Errorf("sdfx: unknown face %d", f)
	}
	if len(spec.Poly) < 3 {
		return 0, fmt.Errorf("sdfx: face %d has no planar boundary", f)
	}
	return k.PolygonWire(spec.Poly)
}

// VertexPosition returns the synthetic vertex position.
func (k *Kernel) VertexPosition(s kernel.Shape, v kernel.Vertex) (kernel.Vec3, error) {
	pos, ok := k.vertPos[v]
	if !ok {
		return kernel.Vec3{}, fmt.Errorf("sdfx: unknown vertex %d", v)
	}
	return pos, nil
}

// Release frees a shape handle and its boundary handles.
func (k *Kernel) Release(s kernel.Shape) {
	if rec, ok := k.shapes[s]; ok {
		for _, f := range rec.faceHandles {
			delete(k.facePos, f)
		}
		for _, e := range rec.edgeHandles {
			delete(k.edgePos, e)
		}
		for _, v := range rec.vertHandles {
			delete(k.vertPos, v)
		}
		delete(k.shapes, s)
	}
}
