// Package topo mints and resolves topological references. A reference
// names a face, edge or vertex of the shape produced by an operation in a
// way that survives the kernel reassigning raw indices on rebuild: direct
// indexing is tried first, and a geometric-signature nearest-neighbor
// fallback re-identifies the element when the index is no longer valid.
package topo

import (
	"fmt"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/op"
)

// ShapeSource supplies the current shape for a producing operation.
// The rebuild evaluator's in-progress result map implements it.
type ShapeSource interface {
	Shape(id op.ID) (kernel.Shape, bool)
}

// Map is the topology map of one operation result: freshly minted
// references for every face, edge and vertex of the shape, captured
// immediately after the geometry was created.
type Map struct {
	Faces    []op.TopoRef `json:"faces,omitempty"`
	Edges    []op.TopoRef `json:"edges,omitempty"`
	Vertices []op.TopoRef `json:"vertices,omitempty"`
}

// BuildFaceRef captures a reference to face index of a freshly produced
// shape. The signature must be computed now, before any further mutation,
// because it is what later rebuilds will match against.
func BuildFaceRef(k kernel.Kernel, producer op.ID, s kernel.Shape, index int) (op.TopoRef, error) {
	faces, err := k.Faces(s)
	if err != nil {
		return op.TopoRef{}, err
	}
	if index < 0 || index >= len(faces) {
		return op.TopoRef{}, fmt.Errorf("topo: face index %d out of range (shape has %d faces)", index, len(faces))
	}
	f := faces[index]
	center, err := k.FaceCenter(s, f)
	if err != nil {
		return op.TopoRef{}, err
	}
	normal, err := k.FaceNormal(s, f)
	if err != nil {
		return op.TopoRef{}, err
	}
	area, err := k.FaceArea(s, f)
	if err != nil {
		return op.TopoRef{}, err
	}
	return op.TopoRef{
		Producer: producer,
		Kind:     op.ElementFace,
		Index:    index,
		Sig:      &op.Signature{Center: center, Normal: normal, Area: area},
	}, nil
}

// BuildEdgeRef captures a reference to edge index of a freshly produced
// shape.
func BuildEdgeRef(k kernel.Kernel, producer op.ID, s kernel.Shape, index int) (op.TopoRef, error) {
	edges, err := k.Edges(s)
	if err != nil {
		return op.TopoRef{}, err
	}
	if index < 0 || index >= len(edges) {
		return op.TopoRef{}, fmt.Errorf("topo: edge index %d out of range (shape has %d edges)", index, len(edges))
	}
	e := edges[index]
	mid, err := k.EdgeMidpoint(s, e)
	if err != nil {
		return op.TopoRef{}, err
	}
	length, err := k.EdgeLength(s, e)
	if err != nil {
		return op.TopoRef{}, err
	}
	return op.TopoRef{
		Producer: producer,
		Kind:     op.ElementEdge,
		Index:    index,
		Sig:      &op.Signature{Center: mid, Length: length},
	}, nil
}

// BuildVertexRef captures a reference to vertex index of a freshly
// produced shape.
func BuildVertexRef(k kernel.Kernel, producer op.ID, s kernel.Shape, index int) (op.TopoRef, error) {
	verts, err := k.Vertices(s)
	if err != nil {
		return op.TopoRef{}, err
	}
	if index < 0 || index >= len(verts) {
		return op.TopoRef{}, fmt.Errorf("topo: vertex index %d out of range (shape has %d vertices)", index, len(verts))
	}
	pos, err := k.VertexPosition(s, verts[index])
	if err != nil {
		return op.TopoRef{}, err
	}
	return op.TopoRef{
		Producer: producer,
		Kind:     op.ElementVertex,
		Index:    index,
		Sig:      &op.Signature{Center: pos},
	}, nil
}

// Index mints the full topology map of a freshly produced shape.
func Index(k kernel.Kernel, producer op.ID, s kernel.Shape) (Map, error) {
	var m Map
	faces, err := k.Faces(s)
	if err != nil {
		return Map{}, err
	}
	for i := range faces {
		ref, err := BuildFaceRef(k, producer, s, i)
		if err != nil {
			return Map{}, err
		}
		m.Faces = append(m.Faces, ref)
	}
	edges, err := k.Edges(s)
	if err != nil {
		return Map{}, err
	}
	for i := range edges {
		ref, err := BuildEdgeRef(k, producer, s, i)
		if err != nil {
			return Map{}, err
		}
		m.Edges = append(m.Edges, ref)
	}
	verts, err := k.Vertices(s)
	if err != nil {
		return Map{}, err
	}
	for i := range verts {
		ref, err := BuildVertexRef(k, producer, s, i)
		if err != nil {
			return Map{}, err
		}
		m.Vertices = append(m.Vertices, ref)
	}
	return m, nil
}
