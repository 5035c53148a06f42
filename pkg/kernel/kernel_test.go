package kernel

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/kerf/pkg/geom"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			assert.Equal(t, tt.want, m.VertexCount())
		})
	}
}

func TestToMeshCube(t *testing.T) {
	c, err := geom.Cube(v3.Vec{X: 1, Y: 2, Z: 3}, false)
	require.NoError(t, err)

	m := ToMesh(c)
	assert.Equal(t, 12, m.TriangleCount())
	assert.Equal(t, 36, m.VertexCount())
	assert.Len(t, m.Normals, len(m.Vertices))
	assert.False(t, m.IsEmpty())

	assert.True(t, ToMesh(geom.EmptySolid()).IsEmpty())
}

// --- Compile-time interface check with a stub kernel ---

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. Booleans return their first operand.
type stubKernel struct{}

func (stubKernel) Union(a, _ *geom.Solid) (*geom.Solid, error)        { return a, nil }
func (stubKernel) Difference(a, _ *geom.Solid) (*geom.Solid, error)   { return a, nil }
func (stubKernel) Intersection(a, _ *geom.Solid) (*geom.Solid, error) { return a, nil }

func (stubKernel) Union2D(a, _ *geom.Profile) (*geom.Profile, error)        { return a, nil }
func (stubKernel) Difference2D(a, _ *geom.Profile) (*geom.Profile, error)   { return a, nil }
func (stubKernel) Intersection2D(a, _ *geom.Profile) (*geom.Profile, error) { return a, nil }

var _ Kernel = stubKernel{}
