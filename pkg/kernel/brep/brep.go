// Package brep synthesizes approximate boundary topology for kernel
// backends whose native representation has none (signed distance fields,
// meshes). Face, edge and vertex measurements are computed analytically
// from the construction inputs — a prism from its profile polygon, a
// revolve from its profile and axis — which is exactly the information
// the engine's topological references capture and match against.
package brep

import (
	"math"

	"github.com/chazu/kerf/pkg/kernel"
)

// Face is the measured signature of one boundary face. Poly, when
// present, is the face's planar boundary polygon; it is what lets a later
// operation use the face as a sweep profile. Curved faces have no Poly.
type Face struct {
	Center kernel.Vec3
	Normal kernel.Vec3
	Area   float64
	Poly   []kernel.Vec3
}

// Edge is the measured signature of one boundary edge.
type Edge struct {
	Mid    kernel.Vec3
	Length float64
}

// Topology is the synthetic boundary of one shape.
type Topology struct {
	Faces []Face
	Edges []Edge
	Verts []kernel.Vec3
}

// Concat appends b's elements after a's. Boolean results use this:
// computing the exact trimmed boundary needs a true B-rep kernel, and the
// engine's signature fallback is designed to survive the approximation.
func Concat(a, b Topology) Topology {
	var t Topology
	t.Faces = append(append(t.Faces, a.Faces...), b.Faces...)
	t.Edges = append(append(t.Edges, a.Edges...), b.Edges...)
	t.Verts = append(append(t.Verts, a.Verts...), b.Verts...)
	return t
}

// PlanarFace builds the topology of a single planar face bounded by poly,
// with the area of any holes subtracted.
func PlanarFace(poly []kernel.Vec3, holes [][]kernel.Vec3) Topology {
	area := PolygonArea(poly)
	for _, h := range holes {
		area -= PolygonArea(h)
	}
	t := Topology{
		Faces: []Face{{Center: Centroid(poly), Normal: PolygonNormal(poly), Area: area, Poly: poly}},
	}
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		t.Edges = append(t.Edges, Edge{Mid: a.Add(b).Scale(0.5), Length: b.Sub(a).Length()})
		t.Verts = append(t.Verts, a)
	}
	return t
}

// Prism builds the boundary of poly extruded along dir: bottom and top
// caps, one side face per polygon edge, both rims plus the vertical
// edges, and both vertex rings.
func Prism(poly []kernel.Vec3, dir kernel.Vec3) Topology {
	n := len(poly)
	area := PolygonArea(poly)
	normal := PolygonNormal(poly)
	depth := dir.Length()

	var t Topology
	t.Faces = append(t.Faces,
		Face{Center: Centroid(poly), Normal: normal.Scale(-1), Area: area, Poly: reversed(poly)},
		Face{Center: Centroid(poly).Add(dir), Normal: normal, Area: area, Poly: offset(poly, dir)},
	)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		mid := a.Add(b).Scale(0.5)
		edgeDir := b.Sub(a)
		t.Faces = append(t.Faces, Face{
			Center: mid.Add(dir.Scale(0.5)),
			Normal: edgeDir.Cross(dir).Unit(),
			Area:   edgeDir.Length() * depth,
			Poly:   []kernel.Vec3{a, b, b.Add(dir), a.Add(dir)},
		})
	}
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		mid := a.Add(b).Scale(0.5)
		length := b.Sub(a).Length()
		t.Edges = append(t.Edges,
			Edge{Mid: mid, Length: length},
			Edge{Mid: mid.Add(dir), Length: length},
			Edge{Mid: a.Add(dir.Scale(0.5)), Length: depth},
		)
	}
	for _, p := range poly {
		t.Verts = append(t.Verts, p, p.Add(dir))
	}
	return t
}

// Revolved builds the boundary of poly swept around the axis through
// origin by angle radians: one band face per profile edge, plus start and
// end caps when the sweep is partial.
func Revolved(poly []kernel.Vec3, origin, axis kernel.Vec3, angle float64) Topology {
	var t Topology
	mid := RotateAbout(Centroid(poly), origin, axis, angle/2)
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		chordMid := a.Add(b).Scale(0.5)
		bandMid := RotateAbout(chordMid, origin, axis, angle/2)
		r := DistToAxis(chordMid, origin, axis)
		t.Faces = append(t.Faces, Face{
			Center: bandMid,
			Normal: bandMid.Sub(mid).Unit(),
			Area:   b.Sub(a).Length() * r * math.Abs(angle),
		})
		t.Edges = append(t.Edges, Edge{Mid: bandMid, Length: r * math.Abs(angle)})
	}
	if math.Abs(angle) < 2*math.Pi-1e-9 {
		capArea := PolygonArea(poly)
		capNormal := PolygonNormal(poly)
		end := make([]kernel.Vec3, len(poly))
		for i, p := range poly {
			end[i] = RotateAbout(p, origin, axis, angle)
		}
		t.Faces = append(t.Faces,
			Face{Center: Centroid(poly), Normal: capNormal, Area: capArea, Poly: poly},
			Face{Center: RotateAbout(Centroid(poly), origin, axis, angle), Normal: capNormal, Area: capArea, Poly: end},
		)
		for _, p := range poly {
			t.Verts = append(t.Verts, p, RotateAbout(p, origin, axis, angle))
		}
	}
	return t
}

// Box builds the boundary of an axis-aligned box with its minimum corner
// at the origin.
func Box(x, y, z float64) Topology {
	base := []kernel.Vec3{{}, {X: x}, {X: x, Y: y}, {Y: y}}
	return Prism(base, kernel.Vec3{Z: z})
}

// Cylinder builds the boundary of a cylinder standing on the XY plane:
// one side face, two caps, two rim edges.
func Cylinder(height, radius float64) Topology {
	circumference := 2 * math.Pi * radius
	return Topology{
		Faces: []Face{
			{Center: kernel.Vec3{}, Normal: kernel.Vec3{Z: -1}, Area: math.Pi * radius * radius},
			{Center: kernel.Vec3{Z: height}, Normal: kernel.Vec3{Z: 1}, Area: math.Pi * radius * radius},
			{Center: kernel.Vec3{X: radius, Z: height / 2}, Normal: kernel.Vec3{X: 1}, Area: circumference * height},
		},
		Edges: []Edge{
			{Mid: kernel.Vec3{X: radius}, Length: circumference},
			{Mid: kernel.Vec3{X: radius, Z: height}, Length: circumference},
		},
	}
}

// Transformed rotates every measurement by Euler angles and then offsets
// it. Areas and lengths are rigid-motion invariant.
func Transformed(t Topology, offset, rotate kernel.Vec3) Topology {
	move := func(v kernel.Vec3) kernel.Vec3 { return RotateEuler(v, rotate).Add(offset) }
	var out Topology
	for _, f := range t.Faces {
		out.Faces = append(out.Faces, Face{
			Center: move(f.Center),
			Normal: RotateEuler(f.Normal, rotate),
			Area:   f.Area,
			Poly:   mapPoly(f.Poly, move),
		})
	}
	for _, e := range t.Edges {
		out.Edges = append(out.Edges, Edge{Mid: move(e.Mid), Length: e.Length})
	}
	for _, v := range t.Verts {
		out.Verts = append(out.Verts, move(v))
	}
	return out
}

// Mirrored reflects every measurement across the plane through origin
// with the given unit normal. Areas and lengths are preserved.
func Mirrored(t Topology, origin, normal kernel.Vec3) Topology {
	n := normal.Unit()
	reflect := func(v kernel.Vec3) kernel.Vec3 {
		d := v.Sub(origin)
		return origin.Add(d.Sub(n.Scale(2 * d.Dot(n))))
	}
	flip := func(v kernel.Vec3) kernel.Vec3 {
		return v.Sub(n.Scale(2 * v.Dot(n)))
	}
	var out Topology
	for _, f := range t.Faces {
		out.Faces = append(out.Faces, Face{
			Center: reflect(f.Center),
			Normal: flip(f.Normal),
			Area:   f.Area,
			Poly:   mapPoly(f.Poly, reflect),
		})
	}
	for _, e := range t.Edges {
		out.Edges = append(out.Edges, Edge{Mid: reflect(e.Mid), Length: e.Length})
	}
	for _, v := range t.Verts {
		out.Verts = append(out.Verts, reflect(v))
	}
	return out
}

func reversed(pts []kernel.Vec3) []kernel.Vec3 {
	out := make([]kernel.Vec3, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

func offset(pts []kernel.Vec3, d kernel.Vec3) []kernel.Vec3 {
	out := make([]kernel.Vec3, len(pts))
	for i, p := range pts {
		out[i] = p.Add(d)
	}
	return out
}

func mapPoly(pts []kernel.Vec3, fn func(kernel.Vec3) kernel.Vec3) []kernel.Vec3 {
	if pts == nil {
		return nil
	}
	out := make([]kernel.Vec3, len(pts))
	for i, p := range pts {
		out[i] = fn(p)
	}
	return out
}

// PolygonArea returns the unsigned area of a planar 3D polygon.
func PolygonArea(pts []kernel.Vec3) float64 {
	var sum kernel.Vec3
	for i := range pts {
		sum = sum.Add(pts[i].Cross(pts[(i+1)%len(pts)]))
	}
	return sum.Length() / 2
}

// PolygonNormal returns the unit normal of a planar 3D polygon via
// Newell's method.
func PolygonNormal(pts []kernel.Vec3) kernel.Vec3 {
	var n kernel.Vec3
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n.Unit()
}

// Centroid returns the vertex centroid of a polygon.
func Centroid(pts []kernel.Vec3) kernel.Vec3 {
	var c kernel.Vec3
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}

// RotateAbout rotates p around the axis through origin with direction
// axis by angle radians (Rodrigues' formula).
func RotateAbout(p, origin, axis kernel.Vec3, angle float64) kernel.Vec3 {
	u := axis.Unit()
	v := p.Sub(origin)
	cos, sin := math.Cos(angle), math.Sin(angle)
	rotated := v.Scale(cos).
		Add(u.Cross(v).Scale(sin)).
		Add(u.Scale(u.Dot(v) * (1 - cos)))
	return origin.Add(rotated)
}

// DistToAxis returns the perpendicular distance from p to the axis.
func DistToAxis(p, origin, axis kernel.Vec3) float64 {
	u := axis.Unit()
	v := p.Sub(origin)
	return v.Sub(u.Scale(u.Dot(v))).Length()
}

// RotateEuler rotates v by Euler angles (radians) around X, then Y,
// then Z.
func RotateEuler(v, angles kernel.Vec3) kernel.Vec3 {
	if angles == (kernel.Vec3{}) {
		return v
	}
	c, s := math.Cos(angles.X), math.Sin(angles.X)
	v = kernel.Vec3{X: v.X, Y: c*v.Y - s*v.Z, Z: s*v.Y + c*v.Z}
	c, s = math.Cos(angles.Y), math.Sin(angles.Y)
	v = kernel.Vec3{X: c*v.X + s*v.Z, Y: v.Y, Z: -s*v.X + c*v.Z}
	c, s = math.Cos(angles.Z), math.Sin(angles.Z)
	return kernel.Vec3{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y, Z: v.Z}
}
