// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Unions are assemblies: the boundaries of both operands are kept as-is,
// which is exact for the polygon output. Difference and intersection are
// computed on the implicit fields carried by the operands and tessellated
// back into polygons with marching cubes.
package sdfx

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel. cells sets the marching cubes resolution
// along the longest axis; values <= 0 select DefaultMeshCells.
func New(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// Union returns the assembly of a and b.
func (k *SdfxKernel) Union(a, b *geom.Solid) (*geom.Solid, error) {
	return a.Merge(b), nil
}

// Difference returns a - b.
func (k *SdfxKernel) Difference(a, b *geom.Solid) (*geom.Solid, error) {
	if a.IsEmpty() || b.IsEmpty() {
		return a, nil
	}
	fa, fb, err := fields(a, b)
	if err != nil {
		return nil, fmt.Errorf("difference: %w", err)
	}
	return k.tessellate(sdf.Difference3D(fa, fb)), nil
}

// Intersection returns the volume common to a and b.
func (k *SdfxKernel) Intersection(a, b *geom.Solid) (*geom.Solid, error) {
	if a.IsEmpty() || b.IsEmpty() {
		return geom.EmptySolid(), nil
	}
	fa, fb, err := fields(a, b)
	if err != nil {
		return nil, fmt.Errorf("intersection: %w", err)
	}
	return k.tessellate(sdf.Intersect3D(fa, fb)), nil
}

// Union2D returns the contours of a followed by those of b.
func (k *SdfxKernel) Union2D(a, b *geom.Profile) (*geom.Profile, error) {
	return a.Merge(b), nil
}

// Difference2D is not supported: there is no contour recovery from 2-D
// fields.
func (k *SdfxKernel) Difference2D(a, b *geom.Profile) (*geom.Profile, error) {
	if b.IsEmpty() {
		return a, nil
	}
	return nil, fmt.Errorf("difference of profiles: %w", kernel.ErrUnsupported)
}

// Intersection2D is not supported, see Difference2D.
func (k *SdfxKernel) Intersection2D(a, b *geom.Profile) (*geom.Profile, error) {
	if a.IsEmpty() || b.IsEmpty() {
		return geom.EmptyProfile(), nil
	}
	return nil, fmt.Errorf("intersection of profiles: %w", kernel.ErrUnsupported)
}

func fields(a, b *geom.Solid) (sdf.SDF3, sdf.SDF3, error) {
	fa, fb := a.Field(), b.Field()
	if fa == nil || fb == nil {
		return nil, nil, fmt.Errorf("operand has no implicit form: %w", kernel.ErrUnsupported)
	}
	return fa, fb, nil
}

// tessellate converts a field to polygons using marching cubes. The result
// keeps the field so it can take part in further booleans.
func (k *SdfxKernel) tessellate(f sdf.SDF3) *geom.Solid {
	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(f, renderer)

	polys := make([]geom.Polygon, 0, len(triangles))
	for _, tri := range triangles {
		polys = append(polys, geom.Polygon{Vertices: []v3.Vec{tri[0], tri[1], tri[2]}})
	}
	return geom.NewSolid(polys, f)
}
