// Package stl writes triangle meshes as binary STL, the least common
// denominator every slicer and mesh viewer reads.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chazu/kerf/pkg/kernel"
)

// headerSize is the fixed binary STL header length.
const headerSize = 80

// Write emits the mesh as binary STL: an 80-byte header, a triangle
// count, then one 50-byte record per triangle.
func Write(w io.Writer, m *kernel.Mesh) error {
	if m == nil {
		return fmt.Errorf("stl: nil mesh")
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("stl: index count %d is not a multiple of 3", len(m.Indices))
	}

	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	copy(header[:], "kerf "+m.OpName)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("stl: %w", err)
	}

	count := uint32(len(m.Indices) / 3)
	if err := binary.Write(bw, binary.LittleEndian, count); err != nil {
		return fmt.Errorf("stl: %w", err)
	}

	var record [50]byte
	for t := 0; t < int(count); t++ {
		off := 0
		put := func(v float32) {
			binary.LittleEndian.PutUint32(record[off:], math.Float32bits(v))
			off += 4
		}

		// Per-vertex normals are flat-shaded; the first vertex's normal
		// stands in for the facet normal.
		n := vertexAt(m.Normals, m.Indices[t*3])
		put(n[0])
		put(n[1])
		put(n[2])
		for j := 0; j < 3; j++ {
			v := vertexAt(m.Vertices, m.Indices[t*3+j])
			put(v[0])
			put(v[1])
			put(v[2])
		}
		// Attribute byte count, always zero.
		record[48], record[49] = 0, 0

		if _, err := bw.Write(record[:]); err != nil {
			return fmt.Errorf("stl: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile writes the mesh to a file.
func WriteFile(path string, m *kernel.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stl: %w", err)
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("stl: %w", err)
	}
	return nil
}

func vertexAt(flat []float32, index uint32) [3]float32 {
	i := int(index) * 3
	if i+2 >= len(flat) {
		return [3]float32{}
	}
	return [3]float32{flat[i], flat[i+1], flat[i+2]}
}
