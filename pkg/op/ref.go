package op

import "github.com/chazu/kerf/pkg/kernel"

// ElementKind distinguishes the boundary element a TopoRef points at.
type ElementKind int

const (
	ElementFace ElementKind = iota
	ElementEdge
	ElementVertex
)

func (k ElementKind) String() string {
	switch k {
	case ElementFace:
		return "face"
	case ElementEdge:
		return "edge"
	case ElementVertex:
		return "vertex"
	default:
		return "unknown"
	}
}

// Signature is a small bundle of geometric measurements captured when a
// topology element is minted. It re-identifies the element after a rebuild
// has regenerated the owning shape with different internal indexing.
type Signature struct {
	Center kernel.Vec3 `json:"center"`           // face center, edge midpoint, or vertex position
	Normal kernel.Vec3 `json:"normal,omitempty"` // faces only
	Area   float64     `json:"area,omitempty"`   // faces only
	Length float64     `json:"length,omitempty"` // edges only
}

// TopoRef is a durable reference to a face, edge or vertex of the shape
// produced by operation Producer. Index is the element's position in the
// kernel's enumeration at mint time; Sig is the geometric fallback used
// when the index no longer resolves.
type TopoRef struct {
	Producer ID          `json:"producer"`
	Kind     ElementKind `json:"kind"`
	Index    int         `json:"index"`
	Sig      *Signature  `json:"sig,omitempty"`
}

// Plane is a sketch plane: an origin and two in-plane basis vectors.
type Plane struct {
	Origin kernel.Vec3 `json:"origin"`
	U      kernel.Vec3 `json:"u"` // first basis vector (sketch X)
	V      kernel.Vec3 `json:"v"` // second basis vector (sketch Y)
}

// Normal returns the unit plane normal U × V.
func (p Plane) Normal() kernel.Vec3 {
	return p.U.Cross(p.V).Unit()
}

// Point maps 2D sketch coordinates onto the plane in model space.
func (p Plane) Point(x, y float64) kernel.Vec3 {
	return p.Origin.Add(p.U.Scale(x)).Add(p.V.Scale(y))
}

// XY is the default sketch plane: world XY with Z up.
var XY = Plane{
	U: kernel.Vec3{X: 1},
	V: kernel.Vec3{Y: 1},
}

// ProfileRef selects the cross-section consumed by an extrude or revolve:
// either loops of a sketch operation or a planar face of a prior result.
// Exactly one of Sketch and Face is set.
type ProfileRef struct {
	Sketch ID       `json:"sketch,omitempty"`
	Loops  []int    `json:"loops,omitempty"` // loop indices; empty = largest loop
	Face   *TopoRef `json:"face,omitempty"`
}
