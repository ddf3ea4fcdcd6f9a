package op

import (
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/sketch"
)

// Expr is a dimension expression, evaluated against the parameter
// environment at rebuild time. It may be a bare number ("12.5") or a
// formula over named parameters ("width / 2 + wall").
type Expr string

// ---------------------------------------------------------------------------
// Sketch
// ---------------------------------------------------------------------------

// SketchData holds 2D geometry authored on a plane. Sketches produce no
// solid geometry of their own; later operations extract closed profiles
// from them.
type SketchData struct {
	Plane Plane          `json:"plane"`
	Geo   *sketch.Sketch `json:"geo"`
}

func (SketchData) opData() {}

// ---------------------------------------------------------------------------
// Sweeps
// ---------------------------------------------------------------------------

// Direction controls which way an extrusion grows from its profile plane.
type Direction int

const (
	DirNormal    Direction = iota // along the plane normal
	DirReverse                    // against the plane normal
	DirSymmetric                  // half the depth both ways, unioned
)

func (d Direction) String() string {
	switch d {
	case DirNormal:
		return "normal"
	case DirReverse:
		return "reverse"
	case DirSymmetric:
		return "symmetric"
	default:
		return "unknown"
	}
}

// ExtrudeData sweeps a profile linearly along its plane normal.
type ExtrudeData struct {
	Profile   ProfileRef `json:"profile"`
	Depth     Expr       `json:"depth"`
	Direction Direction  `json:"direction"`
}

func (ExtrudeData) opData() {}

// RevolveData sweeps a profile around an axis.
type RevolveData struct {
	Profile    ProfileRef  `json:"profile"`
	AxisOrigin kernel.Vec3 `json:"axis_origin"`
	AxisDir    kernel.Vec3 `json:"axis_dir"`
	Angle      Expr        `json:"angle"` // degrees
}

func (RevolveData) opData() {}

// ---------------------------------------------------------------------------
// Combinations
// ---------------------------------------------------------------------------

// BooleanData combines the results of two earlier operations.
type BooleanData struct {
	Op     kernel.BoolOp `json:"op"`
	Target ID            `json:"target"`
	Tool   ID            `json:"tool"`
}

func (BooleanData) opData() {}

// ---------------------------------------------------------------------------
// Dress-ups
// ---------------------------------------------------------------------------

// FilletData rounds edges of an earlier result. Unresolvable edge
// references are dropped; the operation fails only when none resolve.
type FilletData struct {
	Target ID        `json:"target"`
	Edges  []TopoRef `json:"edges"`
	Radius Expr      `json:"radius"`
}

func (FilletData) opData() {}

// ChamferData bevels edges of an earlier result.
type ChamferData struct {
	Target   ID        `json:"target"`
	Edges    []TopoRef `json:"edges"`
	Distance Expr      `json:"distance"`
}

func (ChamferData) opData() {}

// ShellData hollows an earlier result, removing the referenced faces.
type ShellData struct {
	Target    ID        `json:"target"`
	Open      []TopoRef `json:"open"`
	Thickness Expr      `json:"thickness"`
}

func (ShellData) opData() {}

// ---------------------------------------------------------------------------
// Replications
// ---------------------------------------------------------------------------

// PatternData repeats an earlier result along a step vector and unions
// the instances.
type PatternData struct {
	Source ID          `json:"source"`
	Count  Expr        `json:"count"`
	Step   kernel.Vec3 `json:"step"`
}

func (PatternData) opData() {}

// MirrorData unions an earlier result with its reflection across a plane.
type MirrorData struct {
	Source      ID          `json:"source"`
	PlaneOrigin kernel.Vec3 `json:"plane_origin"`
	PlaneNormal kernel.Vec3 `json:"plane_normal"`
}

func (MirrorData) opData() {}

// ---------------------------------------------------------------------------
// Primitives and transforms
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes primitive solids.
type PrimitiveKind int

const (
	PrimBox PrimitiveKind = iota
	PrimCylinder
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimBox:
		return "box"
	case PrimCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// PrimitiveData builds a primitive solid directly, without a sketch.
type PrimitiveData struct {
	Prim PrimitiveKind `json:"prim"`
	// Box dimensions.
	X Expr `json:"x,omitempty"`
	Y Expr `json:"y,omitempty"`
	Z Expr `json:"z,omitempty"`
	// Cylinder dimensions.
	Height Expr `json:"height,omitempty"`
	Radius Expr `json:"radius,omitempty"`
}

func (PrimitiveData) opData() {}

// TransformData translates and rotates an earlier result.
type TransformData struct {
	Source    ID          `json:"source"`
	Translate kernel.Vec3 `json:"translate"`
	RotateDeg kernel.Vec3 `json:"rotate_deg"` // Euler angles in degrees
}

func (TransformData) opData() {}
