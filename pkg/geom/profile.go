package geom

import (
	"fmt"
	"math"
	"slices"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Contour is a closed 2-D path. The last point connects back to the first.
// Outer boundaries run counter-clockwise.
type Contour []v2.Vec

// Area returns the signed area; positive for counter-clockwise contours.
func (c Contour) Area() float64 {
	a := 0.0
	for i, p := range c {
		q := c[(i+1)%len(c)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

func (c Contour) reversed() Contour {
	r := make(Contour, len(c))
	for i, p := range c {
		r[len(r)-1-i] = p
	}
	return r
}

const collinearTolerance = 1e-12

// turn is positive when a, b, c make a left turn.
func turn(a, b, c v2.Vec) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func (c Contour) orientation() float64 {
	if c.Area() < 0 {
		return -1
	}
	return 1
}

// convex reports whether no vertex of c turns against its orientation.
func (c Contour) convex() bool {
	s := c.orientation()
	n := len(c)
	for i := range c {
		if s*turn(c[(i+n-1)%n], c[i], c[(i+1)%n]) < -collinearTolerance {
			return false
		}
	}
	return true
}

// triangulate splits c into triangles by ear clipping. Triangles are index
// triples wound like c. Contours with no ear left, such as self-crossing
// ones, have their remainder fanned.
func (c Contour) triangulate() [][3]int {
	s := c.orientation()
	idx := make([]int, len(c))
	for i := range idx {
		idx[i] = i
	}
	tris := make([][3]int, 0, max(len(c)-2, 0))
	for len(idx) > 3 {
		n := len(idx)
		ear := -1
		for i := range idx {
			a, b, d := idx[(i+n-1)%n], idx[i], idx[(i+1)%n]
			if s*turn(c[a], c[b], c[d]) <= collinearTolerance {
				continue
			}
			if !c.blocked(idx, a, b, d, s) {
				ear = i
				break
			}
		}
		if ear < 0 {
			for i := 1; i < n-1; i++ {
				tris = append(tris, [3]int{idx[0], idx[i], idx[i+1]})
			}
			return tris
		}
		tris = append(tris, [3]int{idx[(ear+n-1)%n], idx[ear], idx[(ear+1)%n]})
		idx = slices.Delete(idx, ear, ear+1)
	}
	if len(idx) == 3 {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	return tris
}

// blocked reports whether a remaining vertex other than a, b, d lies in or
// on the triangle they span.
func (c Contour) blocked(idx []int, a, b, d int, s float64) bool {
	for _, j := range idx {
		if j == a || j == b || j == d {
			continue
		}
		p := c[j]
		if p == c[a] || p == c[b] || p == c[d] {
			continue
		}
		if s*turn(c[a], c[b], p) >= -collinearTolerance &&
			s*turn(c[b], c[d], p) >= -collinearTolerance &&
			s*turn(c[d], c[a], p) >= -collinearTolerance {
			return true
		}
	}
	return false
}

// Profile is a planar region made of closed contours in the z = 0 plane.
type Profile struct {
	Contours []Contour
	field    sdf.SDF2
}

// NewProfile creates a profile from contours and an optional implicit field.
// The contour slice is copied.
func NewProfile(contours []Contour, field sdf.SDF2) *Profile {
	cs := make([]Contour, len(contours))
	copy(cs, contours)
	return &Profile{Contours: cs, field: field}
}

// EmptyProfile returns a profile with no contours.
func EmptyProfile() *Profile {
	return &Profile{}
}

func (*Profile) Kind() Kind { return KindProfile }
func (*Profile) Dim() int   { return 2 }
func (*Profile) object()    {}

// Field returns the implicit form of the profile, or nil if none is known.
func (p *Profile) Field() sdf.SDF2 { return p.field }

// IsEmpty reports whether the profile has no contours.
func (p *Profile) IsEmpty() bool { return len(p.Contours) == 0 }

// Bounds returns the bounding box of all contour points with z = 0.
func (p *Profile) Bounds() Box3 {
	b := Box3{Empty: true}
	for _, c := range p.Contours {
		for _, pt := range c {
			b = b.include(v3.Vec{X: pt.X, Y: pt.Y})
		}
	}
	return b
}

// Merge returns the contours of p followed by those of o.
func (p *Profile) Merge(o *Profile) *Profile {
	cs := make([]Contour, 0, len(p.Contours)+len(o.Contours))
	cs = append(cs, p.Contours...)
	cs = append(cs, o.Contours...)

	var field sdf.SDF2
	switch {
	case p.IsEmpty():
		field = o.field
	case o.IsEmpty():
		field = p.field
	case p.field != nil && o.field != nil:
		field = sdf.Union2D(p.field, o.field)
	}
	return &Profile{Contours: cs, field: field}
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Square creates a rectangle. With center false the minimum corner sits at
// the origin.
func Square(size v2.Vec, center bool) (*Profile, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("square: size must be positive, got %v", size)
	}
	lo := v2.Vec{}
	if center {
		lo = size.MulScalar(-0.5)
	}
	hi := lo.Add(size)
	return Polygon2(Contour{
		{X: lo.X, Y: lo.Y},
		{X: hi.X, Y: lo.Y},
		{X: hi.X, Y: hi.Y},
		{X: lo.X, Y: hi.Y},
	})
}

// Circle creates a regular polygon approximating a circle centered on the
// origin.
func Circle(radius float64, segments int) (*Profile, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("circle: radius must be positive, got %g", radius)
	}
	if segments < 3 {
		segments = 3
	}
	c := make(Contour, segments)
	for i := range c {
		a := 2 * math.Pi * float64(i) / float64(segments)
		c[i] = v2.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}

	var field sdf.SDF2
	if f, err := sdf.Circle2D(radius); err == nil {
		field = f
	}
	return &Profile{Contours: []Contour{c}, field: field}, nil
}

// Polygon2 creates a profile from a single closed contour. Clockwise input
// is reversed so the boundary runs counter-clockwise.
func Polygon2(points Contour) (*Profile, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("polygon: need at least 3 points, got %d", len(points))
	}
	c := make(Contour, len(points))
	copy(c, points)
	if c.Area() < 0 {
		c = c.reversed()
	}

	var field sdf.SDF2
	if f, err := sdf.Polygon2D(c); err == nil {
		field = f
	}
	return &Profile{Contours: []Contour{c}, field: field}, nil
}
