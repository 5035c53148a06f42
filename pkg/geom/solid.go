package geom

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Polygon is a planar convex face. Vertices are ordered counter-clockwise
// when viewed from outside the solid.
type Polygon struct {
	Vertices []v3.Vec
}

// Normal returns the unit face normal computed with Newell's method.
// Degenerate polygons return the zero vector.
func (p Polygon) Normal() v3.Vec {
	var n v3.Vec
	for i, a := range p.Vertices {
		b := p.Vertices[(i+1)%len(p.Vertices)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	if l := n.Length(); l > 0 {
		return n.DivScalar(l)
	}
	return v3.Vec{}
}

// flipped returns the polygon with reversed winding.
func (p Polygon) flipped() Polygon {
	vs := make([]v3.Vec, len(p.Vertices))
	for i, v := range p.Vertices {
		vs[len(vs)-1-i] = v
	}
	return Polygon{Vertices: vs}
}

// Triangle is one facet of a triangulated solid.
type Triangle struct {
	Normal v3.Vec
	V      [3]v3.Vec
}

// Solid is a closed 3-D boundary made of polygons. It optionally carries an
// implicit (signed distance) form of the same volume, which kernels use for
// boolean operations that cannot be done on the boundary alone.
type Solid struct {
	Polygons []Polygon
	field    sdf.SDF3
}

// NewSolid creates a solid from polygons and an optional implicit field.
// The polygon slice is copied.
func NewSolid(polygons []Polygon, field sdf.SDF3) *Solid {
	ps := make([]Polygon, len(polygons))
	copy(ps, polygons)
	return &Solid{Polygons: ps, field: field}
}

// EmptySolid returns a solid with no polygons.
func EmptySolid() *Solid {
	return &Solid{}
}

func (*Solid) Kind() Kind { return KindSolid }
func (*Solid) Dim() int   { return 3 }
func (*Solid) object()    {}

// Field returns the implicit form of the solid, or nil if none is known.
func (s *Solid) Field() sdf.SDF3 { return s.field }

// IsEmpty reports whether the solid has no polygons.
func (s *Solid) IsEmpty() bool { return len(s.Polygons) == 0 }

// Bounds returns the bounding box of all polygon vertices.
func (s *Solid) Bounds() Box3 {
	b := Box3{Empty: true}
	for _, p := range s.Polygons {
		for _, v := range p.Vertices {
			b = b.include(v)
		}
	}
	return b
}

// Triangles fan-triangulates every polygon around its first vertex.
// Polygons with fewer than three vertices produce nothing.
func (s *Solid) Triangles() []Triangle {
	var tris []Triangle
	for _, p := range s.Polygons {
		if len(p.Vertices) < 3 {
			continue
		}
		n := p.Normal()
		for i := 0; i < len(p.Vertices)-2; i++ {
			tris = append(tris, Triangle{
				Normal: n,
				V:      [3]v3.Vec{p.Vertices[0], p.Vertices[i+1], p.Vertices[i+2]},
			})
		}
	}
	return tris
}

// TriangleCount returns the number of triangles Triangles would produce.
func (s *Solid) TriangleCount() int {
	n := 0
	for _, p := range s.Polygons {
		if len(p.Vertices) >= 3 {
			n += len(p.Vertices) - 2
		}
	}
	return n
}

// Merge returns the assembly of s and o: the polygons of both, in order.
// The implicit fields are combined when both are known.
func (s *Solid) Merge(o *Solid) *Solid {
	ps := make([]Polygon, 0, len(s.Polygons)+len(o.Polygons))
	ps = append(ps, s.Polygons...)
	ps = append(ps, o.Polygons...)

	var field sdf.SDF3
	switch {
	case s.IsEmpty():
		field = o.field
	case o.IsEmpty():
		field = s.field
	case s.field != nil && o.field != nil:
		field = sdf.Union3D(s.field, o.field)
	}
	return &Solid{Polygons: ps, field: field}
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// cubeFaces lists the corner indices of each cube face. Corner i sits at
// (x1 if i&1, y1 if i&2, z1 if i&4).
var cubeFaces = [6][4]int{
	{0, 4, 6, 2}, // -x
	{1, 3, 7, 5}, // +x
	{0, 1, 5, 4}, // -y
	{2, 6, 7, 3}, // +y
	{0, 2, 3, 1}, // -z
	{4, 5, 7, 6}, // +z
}

// Cube creates a box with the given size. With center false the minimum
// corner sits at the origin, otherwise the box is centered on it.
func Cube(size v3.Vec, center bool) (*Solid, error) {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("cube: size must be positive, got %v", size)
	}
	lo := v3.Vec{}
	if center {
		lo = size.MulScalar(-0.5)
	}
	hi := lo.Add(size)

	polys := make([]Polygon, 0, 6)
	for _, face := range cubeFaces {
		vs := make([]v3.Vec, 4)
		for j, i := range face {
			vs[j] = v3.Vec{
				X: pick(i&1 != 0, hi.X, lo.X),
				Y: pick(i&2 != 0, hi.Y, lo.Y),
				Z: pick(i&4 != 0, hi.Z, lo.Z),
			}
		}
		polys = append(polys, Polygon{Vertices: vs})
	}

	var field sdf.SDF3
	if f, err := sdf.Box3D(size, 0); err == nil {
		field = sdf.Transform3D(f, sdf.Translate3d(lo.Add(size.MulScalar(0.5))))
	}
	return &Solid{Polygons: polys, field: field}, nil
}

// Sphere creates a UV sphere of the given radius centered on the origin.
// segments is the number of longitudinal slices; latitude uses half as many.
func Sphere(radius float64, segments int) (*Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("sphere: radius must be positive, got %g", radius)
	}
	if segments < 4 {
		segments = 4
	}
	rings := segments / 2
	point := func(i, j int) v3.Vec {
		phi := 2 * math.Pi * float64(i%segments) / float64(segments)
		theta := math.Pi * float64(j) / float64(rings)
		return v3.Vec{
			X: radius * math.Sin(theta) * math.Cos(phi),
			Y: radius * math.Sin(theta) * math.Sin(phi),
			Z: radius * math.Cos(theta),
		}
	}

	var polys []Polygon
	for i := 0; i < segments; i++ {
		for j := 0; j < rings; j++ {
			var vs []v3.Vec
			switch j {
			case 0:
				vs = []v3.Vec{point(i, 0), point(i, 1), point(i+1, 1)}
			case rings - 1:
				vs = []v3.Vec{point(i, j), point(i, j+1), point(i+1, j)}
			default:
				vs = []v3.Vec{point(i, j), point(i, j+1), point(i+1, j+1), point(i+1, j)}
			}
			polys = append(polys, Polygon{Vertices: vs})
		}
	}

	var field sdf.SDF3
	if f, err := sdf.Sphere3D(radius); err == nil {
		field = f
	}
	return &Solid{Polygons: polys, field: field}, nil
}

// Cylinder creates a cylinder along z. With center false the base sits on
// z = 0, otherwise the cylinder is centered on the origin.
func Cylinder(radius, height float64, segments int, center bool) (*Solid, error) {
	if radius <= 0 || height <= 0 {
		return nil, fmt.Errorf("cylinder: radius and height must be positive, got r=%g h=%g", radius, height)
	}
	if segments < 3 {
		segments = 3
	}
	z0 := 0.0
	if center {
		z0 = -height / 2
	}
	z1 := z0 + height
	ring := func(i int, z float64) v3.Vec {
		a := 2 * math.Pi * float64(i%segments) / float64(segments)
		return v3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a), Z: z}
	}

	bottom := make([]v3.Vec, segments)
	top := make([]v3.Vec, segments)
	for i := 0; i < segments; i++ {
		bottom[i] = ring(segments-i, z0)
		top[i] = ring(i, z1)
	}
	polys := []Polygon{{Vertices: bottom}, {Vertices: top}}
	for i := 0; i < segments; i++ {
		polys = append(polys, Polygon{Vertices: []v3.Vec{
			ring(i, z0), ring(i+1, z0), ring(i+1, z1), ring(i, z1),
		}})
	}

	var field sdf.SDF3
	if f, err := sdf.Cylinder3D(height, radius, 0); err == nil {
		field = sdf.Transform3D(f, sdf.Translate3d(v3.Vec{Z: z0 + height/2}))
	}
	return &Solid{Polygons: polys, field: field}, nil
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
