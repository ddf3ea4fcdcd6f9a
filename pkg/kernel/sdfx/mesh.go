package sdfx

import (
	"math"

	"github.com/deadsy/sdfx/render"

	"github.com/chazu/kerf/pkg/kernel"
)

// Triangulate converts a solid to a triangle mesh using marching cubes.
// The deflection tolerance maps to a cell count: finer tolerance, more
// cells, clamped to keep pathological inputs bounded.
func (k *Kernel) Triangulate(s kernel.Shape, deflection float64) (*kernel.Mesh, error) {
	rec, err := k.solid(s)
	if err != nil {
		return nil, err
	}

	cells := defaultMeshCells
	if deflection > 0 {
		bb := rec.solid.BoundingBox()
		size := bb.Max.Sub(bb.Min)
		maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
		cells = int(math.Ceil(maxDim / deflection))
		if cells < minMeshCells {
			cells = minMeshCells
		}
		if cells > maxMeshCells {
			cells = maxMeshCells
		}
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(rec.solid, renderer)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
