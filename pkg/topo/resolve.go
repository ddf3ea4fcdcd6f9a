package topo

import (
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/op"
)

// Scoring weights for the signature fallback. The formula is a hand-tuned
// nearest-neighbor distance; the weights are exported so they can be
// adjusted without touching the resolver.
const (
	// NormalPenalty scales the face-normal mismatch term
	// (1 − |n̂_ref · n̂_candidate|).
	NormalPenalty = 100.0
)

// ResolveFace maps a face reference to a live kernel face handle of the
// producer's current shape. The direct index is preferred whenever it is
// still in range; otherwise every current face is scored against the
// stored signature and the best match wins. ok is false when the producer
// has no current shape, the shape has no faces, or an index-only reference
// went stale.
func ResolveFace(ref op.TopoRef, src ShapeSource, k kernel.Kernel) (kernel.Face, bool) {
	s, ok := src.Shape(ref.Producer)
	if !ok {
		return 0, false
	}
	faces, err := k.Faces(s)
	if err != nil || len(faces) == 0 {
		return 0, false
	}
	if ref.Index >= 0 && ref.Index < len(faces) {
		return faces[ref.Index], true
	}
	if ref.Sig == nil {
		return 0, false
	}

	best := -1
	bestScore := math.MaxFloat64
	for i, f := range faces {
		center, err := k.FaceCenter(s, f)
		if err != nil {
			continue
		}
		normal, err := k.FaceNormal(s, f)
		if err != nil {
			continue
		}
		area, err := k.FaceArea(s, f)
		if err != nil {
			continue
		}
		score := ref.Sig.Center.DistSq(center) +
			NormalPenalty*(1-math.Abs(ref.Sig.Normal.Unit().Dot(normal.Unit()))) +
			math.Abs(ref.Sig.Area-area)
		if score < bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return faces[best], true
}

// ResolveEdge maps an edge reference to a live kernel edge handle, with
// the same direct-index-then-signature policy as ResolveFace.
func ResolveEdge(ref op.TopoRef, src ShapeSource, k kernel.Kernel) (kernel.Edge, bool) {
	s, ok := src.Shape(ref.Producer)
	if !ok {
		return 0, false
	}
	edges, err := k.Edges(s)
	if err != nil || len(edges) == 0 {
		return 0, false
	}
	if ref.Index >= 0 && ref.Index < len(edges) {
		return edges[ref.Index], true
	}
	if ref.Sig == nil {
		return 0, false
	}

	best := -1
	bestScore := math.MaxFloat64
	for i, e := range edges {
		mid, err := k.EdgeMidpoint(s, e)
		if err != nil {
			continue
		}
		length, err := k.EdgeLength(s, e)
		if err != nil {
			continue
		}
		score := ref.Sig.Center.DistSq(mid) + math.Abs(ref.Sig.Length-length)
		if score < bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return edges[best], true
}

// ResolveVertex maps a vertex reference to a live kernel vertex handle.
// The fallback scores by position alone.
func ResolveVertex(ref op.TopoRef, src ShapeSource, k kernel.Kernel) (kernel.Vertex, bool) {
	s, ok := src.Shape(ref.Producer)
	if !ok {
		return 0, false
	}
	verts, err := k.Vertices(s)
	if err != nil || len(verts) == 0 {
		return 0, false
	}
	if ref.Index >= 0 && ref.Index < len(verts) {
		return verts[ref.Index], true
	}
	if ref.Sig == nil {
		return 0, false
	}

	best := -1
	bestScore := math.MaxFloat64
	for i, v := range verts {
		pos, err := k.VertexPosition(s, v)
		if err != nil {
			continue
		}
		if score := ref.Sig.Center.DistSq(pos); score < bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return verts[best], true
}
