package geom

import (
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approxVec(t *testing.T, want, got v3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "z")
}

// centroid of the solid's vertices; outward normals point away from it.
func centroid(s *Solid) v3.Vec {
	var c v3.Vec
	n := 0
	for _, p := range s.Polygons {
		for _, v := range p.Vertices {
			c = c.Add(v)
			n++
		}
	}
	return c.DivScalar(float64(n))
}

func assertOutward(t *testing.T, s *Solid) {
	t.Helper()
	c := centroid(s)
	for i, p := range s.Polygons {
		n := p.Normal()
		d := p.Vertices[0].Sub(c).Dot(n)
		assert.Greater(t, d, 0.0, "polygon %d faces inward", i)
	}
}

func TestCube(t *testing.T) {
	tests := []struct {
		name    string
		size    v3.Vec
		center  bool
		wantMin v3.Vec
		wantMax v3.Vec
	}{
		{"corner", v3.Vec{X: 10, Y: 20, Z: 30}, false, v3.Vec{}, v3.Vec{X: 10, Y: 20, Z: 30}},
		{"centered", v3.Vec{X: 2, Y: 2, Z: 2}, true, v3.Vec{X: -1, Y: -1, Z: -1}, v3.Vec{X: 1, Y: 1, Z: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Cube(tt.size, tt.center)
			require.NoError(t, err)
			assert.Len(t, c.Polygons, 6)
			assert.Equal(t, 12, c.TriangleCount())
			assert.Len(t, c.Triangles(), 12)
			b := c.Bounds()
			approxVec(t, tt.wantMin, b.Min)
			approxVec(t, tt.wantMax, b.Max)
			assertOutward(t, c)
			assert.NotNil(t, c.Field())
		})
	}
}

func TestCubeRejectsNonPositiveSize(t *testing.T) {
	_, err := Cube(v3.Vec{X: 1, Y: 0, Z: 1}, false)
	assert.Error(t, err)
}

func TestSphereAndCylinderFaceOutward(t *testing.T) {
	s, err := Sphere(5, 12)
	require.NoError(t, err)
	assertOutward(t, s)
	assert.Len(t, s.Polygons, 12*6)

	c, err := Cylinder(2, 10, 16, true)
	require.NoError(t, err)
	assertOutward(t, c)
	assert.Len(t, c.Polygons, 16+2)
	b := c.Bounds()
	assert.InDelta(t, -5, b.Min.Z, 1e-9)
	assert.InDelta(t, 5, b.Max.Z, 1e-9)
}

func TestPolygon2NormalizesWinding(t *testing.T) {
	cw := Contour{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
	require.Less(t, cw.Area(), 0.0)

	p, err := Polygon2(cw)
	require.NoError(t, err)
	assert.Greater(t, p.Contours[0].Area(), 0.0)
	// input is never mutated
	assert.Equal(t, v2.Vec{X: 0, Y: 1}, cw[1])

	_, err = Polygon2(Contour{{X: 0, Y: 0}, {X: 1, Y: 1}})
	assert.Error(t, err)
}

func TestExtrudeSquare(t *testing.T) {
	sq, err := Square(v2.Vec{X: 4, Y: 3}, false)
	require.NoError(t, err)

	s := sq.Extrude(ExtrudeThickness)
	assert.Len(t, s.Polygons, 6)
	assert.Equal(t, 12, s.TriangleCount())
	assertOutward(t, s)

	b := s.Bounds()
	approxVec(t, v3.Vec{}, b.Min)
	approxVec(t, v3.Vec{X: 4, Y: 3, Z: ExtrudeThickness}, b.Max)
}

func TestExtrudeConcave(t *testing.T) {
	// a U opening upward, starting at the inner corner of the notch
	u := Contour{
		{X: 2, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 3}, {X: 0, Y: 3},
		{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}, {X: 2, Y: 3},
	}
	pr, err := Polygon2(u)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, pr.Contours[0].Area(), 1e-12)

	const h = 0.5
	s := pr.Extrude(h)
	// 6 cap triangles each side and 8 side quads
	assert.Len(t, s.Polygons, 2*6+8)

	capArea := 0.0
	for i, tri := range s.Triangles() {
		w := tri.V[1].Sub(tri.V[0]).Cross(tri.V[2].Sub(tri.V[0]))
		assert.Greater(t, w.Dot(tri.Normal), 0.0, "triangle %d is inverted", i)
		if tri.V[0].Z == tri.V[1].Z && tri.V[1].Z == tri.V[2].Z {
			want := 1.0
			if tri.V[0].Z == 0 {
				want = -1
			}
			assert.InDelta(t, want, tri.Normal.Z, 1e-12, "cap triangle %d", i)
			capArea += w.Length() / 2
		}
	}
	assert.InDelta(t, 2*7.0, capArea, 1e-9)
}

func TestTriangulateConvexAndCollinear(t *testing.T) {
	sq := Contour{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}
	assert.True(t, sq.convex())
	tris := sq.triangulate()
	require.Len(t, tris, 3)
	area := 0.0
	for _, tr := range tris {
		a := turn(sq[tr[0]], sq[tr[1]], sq[tr[2]])
		assert.GreaterOrEqual(t, a, 0.0)
		area += a / 2
	}
	assert.InDelta(t, 4.0, area, 1e-12)

	assert.False(t, Contour{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 0.5}, {X: 1, Y: 2}}.convex())
}

func TestExtrudeDegenerate(t *testing.T) {
	sq, err := Square(v2.Vec{X: 1, Y: 1}, false)
	require.NoError(t, err)
	assert.True(t, sq.Extrude(0).IsEmpty())
	assert.True(t, EmptyProfile().Extrude(1).IsEmpty())
}

func TestSolidTransforms(t *testing.T) {
	c, err := Cube(v3.Vec{X: 1, Y: 1, Z: 1}, false)
	require.NoError(t, err)

	moved := c.Translate(v3.Vec{X: 5})
	approxVec(t, v3.Vec{X: 5}, moved.Bounds().Min)
	// the original is untouched
	approxVec(t, v3.Vec{}, c.Bounds().Min)

	rotated := c.Rotate(v3.Vec{Z: 90})
	b := rotated.Bounds()
	approxVec(t, v3.Vec{X: -1}, b.Min)
	approxVec(t, v3.Vec{Y: 1, Z: 1}, b.Max)
	assertOutward(t, rotated)

	scaled := c.Scale(v3.Vec{X: 2, Y: 3, Z: 4})
	approxVec(t, v3.Vec{X: 2, Y: 3, Z: 4}, scaled.Bounds().Max)

	flipped := c.Scale(v3.Vec{X: -1, Y: 1, Z: 1})
	assertOutward(t, flipped)
}

func TestSolidMirror(t *testing.T) {
	c, err := Cube(v3.Vec{X: 1, Y: 2, Z: 3}, false)
	require.NoError(t, err)

	m := c.Mirror(v3.Vec{}, v3.Vec{X: 1})
	b := m.Bounds()
	approxVec(t, v3.Vec{X: -1}, b.Min)
	approxVec(t, v3.Vec{Y: 2, Z: 3}, b.Max)
	assertOutward(t, m)
	assert.NotNil(t, m.Field())

	// an oblique plane keeps exact polygons but drops the implicit form
	o := c.Mirror(v3.Vec{}, v3.Vec{X: 1, Y: 1})
	assertOutward(t, o)
	assert.Nil(t, o.Field())

	assert.Same(t, c, c.Mirror(v3.Vec{}, v3.Vec{}))
}

func TestProfileTransforms(t *testing.T) {
	sq, err := Square(v2.Vec{X: 2, Y: 1}, false)
	require.NoError(t, err)

	r := sq.Rotate(90)
	b := r.Bounds()
	assert.InDelta(t, -1, b.Min.X, 1e-9)
	assert.InDelta(t, 2, b.Max.Y, 1e-9)

	m := sq.Mirror(v2.Vec{}, v2.Vec{X: 1})
	assert.Greater(t, m.Contours[0].Area(), 0.0)
	assert.InDelta(t, -2, m.Bounds().Min.X, 1e-9)

	tr := sq.Translate(v2.Vec{X: 1, Y: 1})
	assert.InDelta(t, 1, tr.Bounds().Min.Y, 1e-9)
}

func TestMergeKeepsOrder(t *testing.T) {
	a, _ := Cube(v3.Vec{X: 1, Y: 1, Z: 1}, false)
	b, _ := Cube(v3.Vec{X: 2, Y: 2, Z: 2}, true)

	m := a.Merge(b)
	require.Len(t, m.Polygons, 12)
	assert.Equal(t, a.Polygons, m.Polygons[:6])
	assert.Equal(t, b.Polygons, m.Polygons[6:])
	assert.NotNil(t, m.Field())

	e := EmptySolid().Merge(a)
	assert.Equal(t, a.Polygons, e.Polygons)
}

func TestMatchAndPresence(t *testing.T) {
	c, _ := Cube(v3.Vec{X: 1, Y: 1, Z: 1}, false)
	sq, _ := Square(v2.Vec{X: 1, Y: 1}, false)

	name := func(o Object) string {
		return Match(o,
			func(*Solid) string { return "solid" },
			func(*Profile) string { return "profile" },
		)
	}
	assert.Equal(t, "solid", name(c))
	assert.Equal(t, "profile", name(sq))

	tests := []struct {
		name        string
		seq         Sequence
		solid, prof bool
	}{
		{"empty", nil, false, false},
		{"solid", Sequence{c}, true, false},
		{"profile", Sequence{sq}, false, true},
		{"mixed", Sequence{sq, c}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs, hp := tt.seq.Presence()
			assert.Equal(t, tt.solid, hs)
			assert.Equal(t, tt.prof, hp)
		})
	}
}

func TestPolygonNormal(t *testing.T) {
	p := Polygon{Vertices: []v3.Vec{{}, {X: 1}, {X: 1, Y: 1}}}
	approxVec(t, v3.Vec{Z: 1}, p.Normal())

	degenerate := Polygon{Vertices: []v3.Vec{{}, {X: 1}, {X: 2}}}
	assert.Equal(t, v3.Vec{}, degenerate.Normal())
	assert.False(t, math.IsNaN(degenerate.Normal().X))
}
