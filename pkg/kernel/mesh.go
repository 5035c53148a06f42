package kernel

import "github.com/chazu/kerf/pkg/geom"

// Mesh is a flat triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
}

// ToMesh flattens a solid into a mesh with one vertex per triangle corner
// and the face normal repeated on each corner.
func ToMesh(s *geom.Solid) *Mesh {
	tris := s.Triangles()
	m := &Mesh{
		Vertices: make([]float32, 0, len(tris)*9),
		Normals:  make([]float32, 0, len(tris)*9),
		Indices:  make([]uint32, 0, len(tris)*3),
	}
	for i, tri := range tris {
		n := tri.Normal
		for j, v := range tri.V {
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}
	return m
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}
