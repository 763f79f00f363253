// Package mesh provides the in-memory triangle mesh exchanged with the
// .3d codec, plus geometry helpers that work on its flat arrays.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshcodec/pkg/math"
)

// ErrInvalidMesh is returned by Validate for inconsistent attribute arrays.
var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh is a triangle mesh stored as flat arrays.
//
// Positions is required. Indices, Normals and UVs are optional: a nil slice
// means the attribute is absent. The .3d format cannot tell an empty slice
// from a missing one, so an empty slice is decoded back as nil.
type Mesh struct {
	Positions []float32 // x, y, z per vertex
	Indices   []uint32  // 3 per triangle; nil for non-indexed meshes
	Normals   []float32 // x, y, z per vertex
	UVs       []float32 // u, v per vertex
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	if m.HasIndices() {
		return len(m.Indices) / 3
	}
	return m.VertexCount() / 3
}

// HasIndices reports whether the mesh has an index buffer.
func (m *Mesh) HasIndices() bool {
	return len(m.Indices) > 0
}

// HasNormals reports whether the mesh has per-vertex normals.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0
}

// HasUVs reports whether the mesh has texture coordinates.
func (m *Mesh) HasUVs() bool {
	return len(m.UVs) > 0
}

// Bounds returns the bounding box of all vertex positions.
func (m *Mesh) Bounds() math.AABB {
	var box math.AABB
	for i := 0; i < m.VertexCount(); i++ {
		box.Extend(math.Vec3At(m.Positions, i))
	}
	return box
}

// Validate checks that the attribute arrays agree with each other.
func (m *Mesh) Validate() error {
	if len(m.Positions) == 0 {
		return fmt.Errorf("%w: no positions", ErrInvalidMesh)
	}
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d position floats is not a multiple of 3", ErrInvalidMesh, len(m.Positions))
	}

	vertexCount := m.VertexCount()

	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidMesh, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= vertexCount {
			return fmt.Errorf("%w: index %d references vertex %d of %d", ErrInvalidMesh, i, idx, vertexCount)
		}
	}
	if !m.HasIndices() && vertexCount%3 != 0 {
		return fmt.Errorf("%w: %d vertices do not form whole triangles", ErrInvalidMesh, vertexCount)
	}

	if m.HasNormals() && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: %d normal floats for %d vertices", ErrInvalidMesh, len(m.Normals), vertexCount)
	}
	if m.HasUVs() && len(m.UVs) != vertexCount*2 {
		return fmt.Errorf("%w: %d uv floats for %d vertices", ErrInvalidMesh, len(m.UVs), vertexCount)
	}

	return nil
}

// triangle returns the vertex indices of triangle t.
func (m *Mesh) triangle(t int) (a, b, c int) {
	if m.HasIndices() {
		return int(m.Indices[t*3]), int(m.Indices[t*3+1]), int(m.Indices[t*3+2])
	}
	return t * 3, t*3 + 1, t*3 + 2
}

// ComputeNormals replaces Normals with smooth per-vertex normals.
// Each face contributes its unnormalized cross product, so larger
// triangles weigh more. Vertices not referenced by any face get a zero
// normal.
func (m *Mesh) ComputeNormals() {
	vertexCount := m.VertexCount()
	normals := make([]float32, vertexCount*3)

	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.triangle(t)
		if a >= vertexCount || b >= vertexCount || c >= vertexCount {
			continue
		}
		pa := math.Vec3At(m.Positions, a)
		pb := math.Vec3At(m.Positions, b)
		pc := math.Vec3At(m.Positions, c)
		face := pb.Sub(pa).Cross(pc.Sub(pa))

		for _, v := range [3]int{a, b, c} {
			math.Vec3At(normals, v).Add(face).Put(normals, v)
		}
	}

	for v := 0; v < vertexCount; v++ {
		math.Vec3At(normals, v).Normalize().Put(normals, v)
	}

	m.Normals = normals
}
