// Package kerneltest provides a deterministic in-memory kernel for
// engine tests. Solids are not modeled; only the boundary bookkeeping the
// engine observes is, with honestly computed planar measurements (via
// kernel/brep), so topology references and signature matching behave the
// way they would against a real kernel. Tests can also script shapes
// directly and inject failures per capability call.
package kerneltest

import (
	"fmt"
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/brep"
)

// FaceSpec and EdgeSpec script boundary elements of a shape.
type (
	FaceSpec = brep.Face
	EdgeSpec = brep.Edge
)

type wireRec struct {
	pts []kernel.Vec3
}

type shapeRec struct {
	topo brep.Topology

	faceHandles []kernel.Face
	edgeHandles []kernel.Edge
	vertHandles []kernel.Vertex

	// Planar face shapes keep their boundary for sweeping.
	poly []kernel.Vec3
}

// Kernel is the fake kernel. The zero value is not usable; call New.
type Kernel struct {
	next   int
	wires  map[kernel.Wire]*wireRec
	shapes map[kernel.Shape]*shapeRec

	facePos map[kernel.Face]FaceSpec
	edgePos map[kernel.Edge]EdgeSpec
	vertPos map[kernel.Vertex]kernel.Vec3

	// failures maps a capability name ("boolean", "extrude", "fillet",
	// ...) to an error returned by its next invocation.
	failures map[string]error

	// Calls counts invocations per capability, for assertions.
	Calls map[string]int

	// Released records every released shape handle, in order.
	Released []kernel.Shape
}

// New returns an empty fake kernel.
func New() *Kernel {
	return &Kernel{
		wires:    map[kernel.Wire]*wireRec{},
		shapes:   map[kernel.Shape]*shapeRec{},
		facePos:  map[kernel.Face]FaceSpec{},
		edgePos:  map[kernel.Edge]EdgeSpec{},
		vertPos:  map[kernel.Vertex]kernel.Vec3{},
		failures: map[string]error{},
		Calls:    map[string]int{},
	}
}

// FailNext makes the next call to the named capability return err.
func (k *Kernel) FailNext(capability string, err error) {
	k.failures[capability] = err
}

func (k *Kernel) checkFail(capability string) error {
	k.Calls[capability]++
	if err, ok := k.failures[capability]; ok {
		delete(k.failures, capability)
		return err
	}
	return nil
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

// Script installs a shape with exactly the given boundary elements.
func (k *Kernel) Script(faces []FaceSpec, edges []EdgeSpec, verts []kernel.Vec3) kernel.Shape {
	return k.install(&shapeRec{topo: brep.Topology{Faces: faces, Edges: edges, Verts: verts}})
}

// Has reports whether a shape handle is live.
func (k *Kernel) Has(s kernel.Shape) bool {
	_, ok := k.shapes[s]
	return ok
}

func (k *Kernel) shape(s kernel.Shape) (*shapeRec, error) {
	rec, ok := k.shapes[s]
	if !ok {
		return nil, fmt.Errorf("kerneltest: unknown shape %d", s)
	}
	return rec, nil
}

// ---------------------------------------------------------------------------
// Construction capabilities
// ---------------------------------------------------------------------------

// PolygonWire records a closed wire through the points.
func (k *Kernel) PolygonWire(points []kernel.Vec3) (kernel.Wire, error) {
	if err := k.checkFail("polygon_wire"); err != nil {
		return 0, err
	}
	if len(points) < 3 {
		return 0, fmt.Errorf("kerneltest: polygon wire needs at least 3 points, got %d", len(points))
	}
	w := kernel.Wire(k.handle())
	pts := make([]kernel.Vec3, len(points))
	copy(pts, points)
	k.wires[w] = &wireRec{pts: pts}
	return w, nil
}

// FaceFromWire builds a planar single-face shape bounded by the wire.
func (k *Kernel) FaceFromWire(outer kernel.Wire, holes []kernel.Wire) (kernel.Shape, error) {
	if err := k.checkFail("face_from_wire"); err != nil {
		return 0, err
	}
	w, ok := k.wires[outer]
	if !ok {
		return 0, fmt.Errorf("kerneltest: unknown wire %d", outer)
	}
	var holePts [][]kernel.Vec3
	for _, h := range holes {
		hw, ok := k.wires[h]
		if !ok {
			return 0, fmt.Errorf("kerneltest: unknown hole wire %d", h)
		}
		holePts = append(holePts, hw.pts)
	}
	return k.install(&shapeRec{topo: brep.PlanarFace(w.pts, holePts), poly: w.pts}), nil
}

// Extrude sweeps a planar face shape along dir.
func (k *Kernel) Extrude(face kernel.Shape, dir kernel.Vec3) (kernel.Shape, error) {
	if err := k.checkFail("extrude"); err != nil {
		return 0, err
	}
	rec, err := k.shape(face)
	if err != nil {
		return 0, err
	}
	if len(rec.poly) < 3 {
		return 0, fmt.Errorf("kerneltest: shape %d is not a planar face", face)
	}
	return k.install(&shapeRec{topo: brep.Prism(rec.poly, dir)}), nil
}

// Revolve sweeps a planar face shape around the axis.
func (k *Kernel) Revolve(face kernel.Shape, origin, axis kernel.Vec3, angle float64) (kernel.Shape, error) {
	if err := k.checkFail("revolve"); err != nil {
		return 0, err
	}
	rec, err := k.shape(face)
	if err != nil {
		return 0, err
	}
	if len(rec.poly) < 3 {
		return 0, fmt.Errorf("kerneltest: shape %d is not a planar face", face)
	}
	return k.install(&shapeRec{topo: brep.Revolved(rec.poly, origin, axis, angle)}), nil
}

// Boolean concatenates operand topology (see brep.Concat).
func (k *Kernel) Boolean(bop kernel.BoolOp, a, b kernel.Shape) (kernel.Shape, error) {
	if err := k.checkFail("boolean"); err != nil {
		return 0, err
	}
	ra, err := k.shape(a)
	if err != nil {
		return 0, err
	}
	rb, err := k.shape(b)
	if err != nil {
		return 0, err
	}
	return k.install(&shapeRec{topo: brep.Concat(ra.topo, rb.topo)}), nil
}

// Fillet keeps the boundary but shrinks the rounded edges' recorded
// lengths, which is enough for the engine's bookkeeping.
func (k *Kernel) Fillet(s kernel.Shape, edges []kernel.Edge, radius float64) (kernel.Shape, error) {
	if err := k.checkFail("fillet"); err != nil {
		return 0, err
	}
	return k.dressUp(s, edges, radius)
}

// Chamfer behaves like Fillet in the fake.
func (k *Kernel) Chamfer(s kernel.Shape, edges []kernel.Edge, distance float64) (kernel.Shape, error) {
	if err := k.checkFail("chamfer"); err != nil {
		return 0, err
	}
	return k.dressUp(s, edges, distance)
}

func (k *Kernel) dressUp(s kernel.Shape, edges []kernel.Edge, size float64) (kernel.Shape, error) {
	rec, err := k.shape(s)
	if err != nil {
		return 0, err
	}
	if len(edges) == 0 {
		return 0, fmt.Errorf("kerneltest: no edges selected")
	}
	if size <= 0 {
		return 0, fmt.Errorf("kerneltest: size %g out of range", size)
	}
	touched := map[kernel.Edge]bool{}
	for _, e := range edges {
		touched[e] = true
	}
	out := &shapeRec{poly: rec.poly}
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

// Shell keeps the outer boundary and adds an inner face per removed one.
func (k *Kernel) Shell(s kernel.Shape, open []kernel.Face, thickness float64) (kernel.Shape, error) {
	if err := k.checkFail("shell"); err != nil {
		return 0, err
	}
	rec, err := k.shape(s)
	if err != nil {
		return 0, err
	}
	if len(open) == 0 {
		return 0, fmt.Errorf("kerneltest: no faces selected")
	}
	if thickness <= 0 {
		return 0, fmt.Errorf("kerneltest: thickness %g out of range", thickness)
	}
	out := &shapeRec{}
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

// Transform offsets and rotates every recorded measurement.
func (k *Kernel) Transform(s kernel.Shape, offset, rotate kernel.Vec3) (kernel.Shape, error) {
	if err := k.checkFail("transform"); err != nil {
		return 0, err
	}
	rec, err := k.shape(s)
	if err != nil {
		return 0, err
	}
	out := &shapeRec{topo: brep.Transformed(rec.topo, offset, rotate)}
	for _, p := range rec.poly {
		out.poly = append(out.poly, brep.RotateEuler(p, rotate).Add(offset))
	}
	return k.install(out), nil
}

// Mirror reflects every recorded measurement across the plane.
func (k *Kernel) Mirror(s kernel.Shape, origin, normal kernel.Vec3) (kernel.Shape, error) {
	if err := k.checkFail("mirror"); err != nil {
		return 0, err
	}
	rec, err := k.shape(s)
	if err != nil {
		return 0, err
	}
	if normal.Length() == 0 {
		return 0, fmt.Errorf("kerneltest: mirror normal is zero")
	}
	return k.install(&shapeRec{topo: brep.Mirrored(rec.topo, origin, normal.Unit())}), nil
}

// Box builds an axis-aligned box with its minimum corner at the origin.
func (k *Kernel) Box(x, y, z float64) (kernel.Shape, error) {
	if err := k.checkFail("box"); err != nil {
		return 0, err
	}
	if x <= 0 || y <= 0 || z <= 0 {
		return 0, fmt.Errorf("kerneltest: box dimensions must be positive")
	}
	return k.install(&shapeRec{topo: brep.Box(x, y, z)}), nil
}

// Cylinder builds a cylinder standing on the XY plane.
func (k *Kernel) Cylinder(height, radius float64) (kernel.Shape, error) {
	if err := k.checkFail("cylinder"); err != nil {
		return 0, err
	}
	if height <= 0 || radius <= 0 {
		return 0, fmt.Errorf("kerneltest: cylinder dimensions must be positive")
	}
	return k.install(&shapeRec{topo: brep.Cylinder(height, radius)}), nil
}

// ---------------------------------------------------------------------------
// Interrogation capabilities
// ---------------------------------------------------------------------------

// Faces enumerates a shape's face handles.
func (k *Kernel) Faces(s kernel.Shape) ([]kernel.Face, error) {
	rec, err := k.shape(s)
	if err != nil {
		return nil, err
	}
	return append([]kernel.Face(nil), rec.faceHandles...), nil
}

// Edges enumerates a shape's edge handles.
func (k *Kernel) Edges(s kernel.Shape) ([]kernel.Edge, error) {
	rec, err := k.shape(s)
	if err != nil {
		return nil, err
	}
	return append([]kernel.Edge(nil), rec.edgeHandles...), nil
}

// Vertices enumerates a shape's vertex handles.
func (k *Kernel) Vertices(s kernel.Shape) ([]kernel.Vertex, error) {
	rec, err := k.shape(s)
	if err != nil {
		return nil, err
	}
	return append([]kernel.Vertex(nil), rec.vertHandles...), nil
}

// FaceCenter returns the recorded face center.
func (k *Kernel) FaceCenter(s kernel.Shape, f kernel.Face) (kernel.Vec3, error) {
	spec, ok := k.facePos[f]
	if !ok {
		return kernel.Vec3{}, fmt.Errorf("kerneltest: unknown face %d", f)
	}
	return spec.Center, nil
}

// FaceNormal returns the recorded face normal.
func (k *Kernel) FaceNormal(s kernel.Shape, f kernel.Face) (kernel.Vec3, error) {
	spec, ok := k.facePos[f]
	if !ok {
		return kernel.Vec3{}, fmt.Errorf("kerneltest: unknown face %d", f)
	}
	return spec.Normal, nil
}

// FaceArea returns the recorded face area.
func (k *Kernel) FaceArea(s kernel.Shape, f kernel.Face) (float64, error) {
	spec, ok := k.facePos[f]
	if !ok {
		return 0, fmt.Errorf("kerneltest: unknown face %d", f)
	}
	return spec.Area, nil
}

// EdgeMidpoint returns the recorded edge midpoint.
func (k *Kernel) EdgeMidpoint(s kernel.Shape, e kernel.Edge) (kernel.Vec3, error) {
	spec, ok := k.edgePos[e]
	if !ok {
		return kernel.Vec3{}, fmt.Errorf("kerneltest: unknown edge %d", e)
	}
	return spec.Mid, nil
}

// EdgeLength returns the recorded edge length.
func (k *Kernel) EdgeLength(s kernel.Shape, e kernel.Edge) (float64, error) {
	spec, ok := k.edgePos[e]
	if !ok {
		return 0, fmt.Errorf("kerneltest: unknown edge %d", e)
	}
	return spec.Length, nil
}

// FaceWire returns the boundary wire of a planar face.
func (k *Kernel) FaceWire(s kernel.Shape, f kernel.Face) (kernel.Wire, error) {
	if err := k.checkFail("face_wire"); err != nil {
		return 0, err
	}
	spec, ok := k.facePos[f]
	if !ok {
		return 0, fmt.Errorf("kerneltest: unknown face %d", f)
	}
	if len(spec.Poly) < 3 {
		return 0, fmt.Errorf("kerneltest: face %d has no planar boundary", f)
	}
	return k.PolygonWire(spec.Poly)
}

// VertexPosition returns the recorded vertex position.
func (k *Kernel) VertexPosition(s kernel.Shape, v kernel.Vertex) (kernel.Vec3, error) {
	pos, ok := k.vertPos[v]
	if !ok {
		return kernel.Vec3{}, fmt.Errorf("kerneltest: unknown vertex %d", v)
	}
	return pos, nil
}

// Triangulate returns a token mesh: one degenerate triangle per face.
func (k *Kernel) Triangulate(s kernel.Shape, deflection float64) (*kernel.Mesh, error) {
	if err := k.checkFail("triangulate"); err != nil {
		return nil, err
	}
	rec, err := k.shape(s)
	if err != nil {
		return nil, err
	}
	m := &kernel.Mesh{}
	for i, f := range rec.topo.Faces {
		c := f.Center
		m.Vertices = append(m.Vertices,
			float32(c.X), float32(c.Y), float32(c.Z),
			float32(c.X+deflection), float32(c.Y), float32(c.Z),
			float32(c.X), float32(c.Y+deflection), float32(c.Z),
		)
		n := f.Normal
		for j := 0; j < 3; j++ {
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
		m.Indices = append(m.Indices, uint32(i*3), uint32(i*3+1), uint32(i*3+2))
	}
	return m, nil
}

// Release frees a shape handle.
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
		k.Released = append(k.Released, s)
	}
}

var _ kernel.Kernel = (*Kernel)(nil)
