package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ExtrudeThickness is the depth used when a profile has to be turned into a
// solid implicitly, e.g. for export to a mesh format.
const ExtrudeThickness = 0.1

const tolerance = 1e-12

func deg2rad(d float64) float64 { return d * math.Pi / 180.0 }

// ---------------------------------------------------------------------------
// Solid transforms
// ---------------------------------------------------------------------------

// mapSolid applies fn to every vertex. Winding is reversed when flip is set
// so faces keep pointing outward after a reflection.
func (s *Solid) mapSolid(fn func(v3.Vec) v3.Vec, flip bool, field sdf.SDF3) *Solid {
	ps := make([]Polygon, len(s.Polygons))
	for i, p := range s.Polygons {
		vs := make([]v3.Vec, len(p.Vertices))
		for j, v := range p.Vertices {
			vs[j] = fn(v)
		}
		ps[i] = Polygon{Vertices: vs}
		if flip {
			ps[i] = ps[i].flipped()
		}
	}
	return &Solid{Polygons: ps, field: field}
}

func (s *Solid) transform(m sdf.M44, flip bool) *Solid {
	var field sdf.SDF3
	if s.field != nil {
		field = sdf.Transform3D(s.field, m)
	}
	return s.mapSolid(m.MulPosition, flip, field)
}

// Translate moves the solid by d.
func (s *Solid) Translate(d v3.Vec) *Solid {
	return s.transform(sdf.Translate3d(d), false)
}

// Rotate rotates the solid by Euler angles in degrees, X first, then Y,
// then Z.
func (s *Solid) Rotate(deg v3.Vec) *Solid {
	m := sdf.RotateZ(deg2rad(deg.Z)).Mul(sdf.RotateY(deg2rad(deg.Y))).Mul(sdf.RotateX(deg2rad(deg.X)))
	return s.transform(m, false)
}

// Scale scales the solid about the origin. A negative factor product
// mirrors the solid and reverses its winding.
func (s *Solid) Scale(f v3.Vec) *Solid {
	return s.transform(sdf.Scale3d(f), f.X*f.Y*f.Z < 0)
}

// Mirror reflects the solid across the plane through origin with the given
// normal. A zero normal returns the solid unchanged.
func (s *Solid) Mirror(origin, normal v3.Vec) *Solid {
	l := normal.Length()
	if l < tolerance {
		return s
	}
	n := normal.DivScalar(l)
	reflect := func(p v3.Vec) v3.Vec {
		d := p.Sub(origin).Dot(n)
		return p.Sub(n.MulScalar(2 * d))
	}

	var field sdf.SDF3
	if s.field != nil && origin.Length() < tolerance {
		switch {
		case axisAligned(n.X, n.Y, n.Z):
			field = sdf.Transform3D(s.field, sdf.MirrorYZ())
		case axisAligned(n.Y, n.X, n.Z):
			field = sdf.Transform3D(s.field, sdf.MirrorXZ())
		case axisAligned(n.Z, n.X, n.Y):
			field = sdf.Transform3D(s.field, sdf.MirrorXY())
		}
	}
	return s.mapSolid(reflect, true, field)
}

// axisAligned reports whether a is the only non-zero component.
func axisAligned(a, b, c float64) bool {
	return math.Abs(a) > tolerance && math.Abs(b) < tolerance && math.Abs(c) < tolerance
}

// ---------------------------------------------------------------------------
// Profile transforms
// ---------------------------------------------------------------------------

func (p *Profile) mapProfile(fn func(v2.Vec) v2.Vec, flip bool, field sdf.SDF2) *Profile {
	cs := make([]Contour, len(p.Contours))
	for i, c := range p.Contours {
		m := make(Contour, len(c))
		for j, pt := range c {
			m[j] = fn(pt)
		}
		if flip {
			m = m.reversed()
		}
		cs[i] = m
	}
	return &Profile{Contours: cs, field: field}
}

func (p *Profile) transform(m sdf.M33, flip bool) *Profile {
	var field sdf.SDF2
	if p.field != nil {
		field = sdf.Transform2D(p.field, m)
	}
	return p.mapProfile(m.MulPosition, flip, field)
}

// Translate moves the profile by d.
func (p *Profile) Translate(d v2.Vec) *Profile {
	return p.transform(sdf.Translate2d(d), false)
}

// Rotate rotates the profile counter-clockwise by deg degrees about the
// origin.
func (p *Profile) Rotate(deg float64) *Profile {
	return p.transform(sdf.Rotate2d(deg2rad(deg)), false)
}

// Scale scales the profile about the origin.
func (p *Profile) Scale(f v2.Vec) *Profile {
	return p.transform(sdf.Scale2d(f), f.X*f.Y < 0)
}

// Mirror reflects the profile across the line through origin with the given
// normal.
func (p *Profile) Mirror(origin, normal v2.Vec) *Profile {
	l := normal.Length()
	if l < tolerance {
		return p
	}
	n := normal.DivScalar(l)
	reflect := func(q v2.Vec) v2.Vec {
		d := q.Sub(origin).Dot(n)
		return q.Sub(n.MulScalar(2 * d))
	}

	var field sdf.SDF2
	if p.field != nil && origin.Length() < tolerance {
		switch {
		case math.Abs(n.Y) < tolerance:
			field = sdf.Transform2D(p.field, sdf.MirrorY())
		case math.Abs(n.X) < tolerance:
			field = sdf.Transform2D(p.field, sdf.MirrorX())
		}
	}
	return p.mapProfile(reflect, true, field)
}

// ---------------------------------------------------------------------------
// Extrusion
// ---------------------------------------------------------------------------

// Extrude lifts the profile into a solid spanning z = 0 to z = height.
// Each contour yields one side quad per edge. Convex contours get a single
// bottom and top face, so a rectangle becomes six quads; concave ones get
// triangulated caps. A non-positive height yields an empty solid.
func (p *Profile) Extrude(height float64) *Solid {
	if height <= 0 || p.IsEmpty() {
		return EmptySolid()
	}
	var polys []Polygon
	for _, c := range p.Contours {
		n := len(c)
		if n < 3 {
			continue
		}
		polys = append(polys, caps(c, height)...)
		for i, a := range c {
			b := c[(i+1)%n]
			polys = append(polys, Polygon{Vertices: []v3.Vec{
				{X: a.X, Y: a.Y},
				{X: b.X, Y: b.Y},
				{X: b.X, Y: b.Y, Z: height},
				{X: a.X, Y: a.Y, Z: height},
			}})
		}
	}

	var field sdf.SDF3
	if p.field != nil {
		field = sdf.Transform3D(sdf.Extrude3D(p.field, height), sdf.Translate3d(v3.Vec{Z: height / 2}))
	}
	return &Solid{Polygons: polys, field: field}
}

// caps returns the bottom faces of c at z = 0, facing down, followed by the
// top faces at z = height.
func caps(c Contour, height float64) []Polygon {
	at := func(i int, z float64) v3.Vec { return v3.Vec{X: c[i].X, Y: c[i].Y, Z: z} }
	n := len(c)
	if c.convex() {
		bottom := make([]v3.Vec, n)
		top := make([]v3.Vec, n)
		for i := range c {
			bottom[n-1-i] = at(i, 0)
			top[i] = at(i, height)
		}
		return []Polygon{{Vertices: bottom}, {Vertices: top}}
	}
	tris := c.triangulate()
	out := make([]Polygon, 0, 2*len(tris))
	for _, t := range tris {
		out = append(out, Polygon{Vertices: []v3.Vec{at(t[2], 0), at(t[1], 0), at(t[0], 0)}})
	}
	for _, t := range tris {
		out = append(out, Polygon{Vertices: []v3.Vec{at(t[0], height), at(t[1], height), at(t[2], height)}})
	}
	return out
}
