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

// frame is an orthonormal plane frame: origin plus in-plane basis u, v
// and normal w.
type frame struct {
	origin, u, v, w kernel.Vec3
}

// toLocal expresses a model-space point in frame coordinates.
func (f frame) toLocal(p kernel.Vec3) kernel.Vec3 {
	d := p.Sub(f.origin)
	return kernel.Vec3{X: d.Dot(f.u), Y: d.Dot(f.v), Z: d.Dot(f.w)}
}

// matrix returns the local-to-model transform of the frame. sdfx exposes
// axis rotations rather than a basis constructor, so the rotation part is
// decomposed into Z·Y·X Euler angles first.
func (f frame) matrix() sdf.M44 {
	// Rotation columns are u, v, w. For R = Rz(γ)·Ry(β)·Rx(α):
	// R20 = -sin β, R21 = cos β sin α, R22 = cos β cos α,
	// R10 = sin γ cos β, R00 = cos γ cos β.
	var alpha, beta, gamma float64
	if math.Abs(f.u.Z) > 1-1e-12 {
		// Gimbal lock: cos β = 0.
		beta = -math.Pi / 2 * sign(f.u.Z)
		alpha = 0
		gamma = math.Atan2(-f.v.X, f.v.Y)
	} else {
		beta = math.Asin(-f.u.Z)
		alpha = math.Atan2(f.v.Z, f.w.Z)
		gamma = math.Atan2(f.u.Y, f.u.X)
	}
	return sdf.Translate3d(v3.Vec{X: f.origin.X, Y: f.origin.Y, Z: f.origin.Z}).
		Mul(sdf.RotateZ(gamma)).
		Mul(sdf.RotateY(beta)).
		Mul(sdf.RotateX(alpha))
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// planeFrame derives the plane frame of a planar polygon and returns the
// polygon's vertices in local 2D coordinates.
func planeFrame(poly []kernel.Vec3) (frame, []v2.Vec, error) {
	w := brep.PolygonNormal(poly)
	if w.Length() == 0 {
		return frame{}, nil, fmt.Errorf("sdfx: degenerate profile polygon")
	}
	u := poly[1].Sub(poly[0])
	u = u.Sub(w.Scale(w.Dot(u))).Unit()
	if u.Length() == 0 {
		return frame{}, nil, fmt.Errorf("sdfx: degenerate profile polygon")
	}
	f := frame{origin: poly[0], u: u, v: w.Cross(u), w: w}
	local := make([]v2.Vec, len(poly))
	for i, p := range poly {
		q := f.toLocal(p)
		local[i] = v2.Vec{X: q.X, Y: q.Y}
	}
	return f, local, nil
}

// polygon2D builds the 2D profile SDF from local polygon coordinates.
func polygon2D(pts []v2.Vec) (sdf.SDF2, error) {
	s, err := sdf.Polygon2D(pts)
	if err != nil {
		return nil, fmt.Errorf("sdfx: profile polygon: %w", err)
	}
	return s, nil
}

// axisBasis returns two unit vectors perpendicular to the axis and to
// each other.
func axisBasis(axis kernel.Vec3) (kernel.Vec3, kernel.Vec3) {
	w := axis.Unit()
	pick := kernel.Vec3{X: 1}
	if math.Abs(w.X) > 0.9 {
		pick = kernel.Vec3{Y: 1}
	}
	u := pick.Cross(w).Unit()
	return u, w.Cross(u)
}
