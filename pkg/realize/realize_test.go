package realize_test

import (
	"context"
	"errors"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/chazu/kerf/pkg/realize"
	"github.com/chazu/kerf/pkg/vtree"
)

func newKernel() kernel.Kernel {
	return sdfx.New(24)
}

func unitCube(t *testing.T) *geom.Solid {
	t.Helper()
	c, err := geom.Cube(v3.Vec{X: 1, Y: 1, Z: 1}, false)
	require.NoError(t, err)
	return c
}

func unitSquare(t *testing.T) *geom.Profile {
	t.Helper()
	s, err := geom.Square(v2.Vec{X: 1, Y: 1}, false)
	require.NoError(t, err)
	return s
}

func TestLeafIsReturnedAsIs(t *testing.T) {
	c := unitCube(t)
	obj, err := realize.Realize(context.Background(), newKernel(), c)
	require.NoError(t, err)
	assert.Same(t, c, obj)
}

func TestTranslateAppliesToUnionOfChildren(t *testing.T) {
	a, b := unitCube(t), unitCube(t).Translate(v3.Vec{X: 2})
	n := vtree.Translate(vtree.Params{"offset": []float64{0, 0, 5}}, a, b)

	obj, err := realize.Realize(context.Background(), newKernel(), n)
	require.NoError(t, err)
	s, ok := obj.(*geom.Solid)
	require.True(t, ok)
	assert.Len(t, s.Polygons, 12)

	bb := s.Bounds()
	assert.InDelta(t, 5, bb.Min.Z, 1e-9)
	assert.InDelta(t, 3, bb.Max.X, 1e-9)
}

func TestProfileTransforms(t *testing.T) {
	sq := unitSquare(t)
	tests := []struct {
		name    string
		node    *vtree.Node
		wantMin v2.Vec
		wantMax v2.Vec
	}{
		{"translate", vtree.Translate(vtree.Params{"offset": []float64{2, 3}}, sq), v2.Vec{X: 2, Y: 3}, v2.Vec{X: 3, Y: 4}},
		{"rotate", vtree.Rotate(vtree.Params{"angles": []float64{0, 0, 90}}, sq), v2.Vec{X: -1}, v2.Vec{Y: 1}},
		{"scale", vtree.Scale(vtree.Params{"factor": 2.0}, sq), v2.Vec{}, v2.Vec{X: 2, Y: 2}},
		{"mirror", vtree.Mirror(vtree.Params{"normal": []float64{1, 0}}, sq), v2.Vec{X: -1}, v2.Vec{Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := realize.Realize(context.Background(), newKernel(), tt.node)
			require.NoError(t, err)
			require.Equal(t, geom.KindProfile, obj.Kind())
			bb := obj.Bounds()
			assert.InDelta(t, tt.wantMin.X, bb.Min.X, 1e-9)
			assert.InDelta(t, tt.wantMin.Y, bb.Min.Y, 1e-9)
			assert.InDelta(t, tt.wantMax.X, bb.Max.X, 1e-9)
			assert.InDelta(t, tt.wantMax.Y, bb.Max.Y, 1e-9)
		})
	}
}

func TestExtrude(t *testing.T) {
	n := vtree.Extrude(vtree.Params{"height": 4.0}, unitSquare(t))
	obj, err := realize.Realize(context.Background(), newKernel(), n)
	require.NoError(t, err)
	s, ok := obj.(*geom.Solid)
	require.True(t, ok)
	assert.Equal(t, 12, s.TriangleCount())
	assert.InDelta(t, 4, s.Bounds().Max.Z, 1e-9)

	_, err = realize.Realize(context.Background(), newKernel(),
		vtree.Extrude(vtree.Params{"height": 1.0}, unitCube(t)))
	assert.Error(t, err)

	_, err = realize.Realize(context.Background(), newKernel(),
		vtree.Extrude(vtree.Params{"height": -1.0}, unitSquare(t)))
	assert.Error(t, err)
}

func TestDifference(t *testing.T) {
	big, err := geom.Cube(v3.Vec{X: 10, Y: 10, Z: 10}, true)
	require.NoError(t, err)
	hole, err := geom.Sphere(3, 16)
	require.NoError(t, err)

	obj, err := realize.Realize(context.Background(), newKernel(), vtree.Difference(nil, big, hole))
	require.NoError(t, err)
	s := obj.(*geom.Solid)
	require.NotNil(t, s.Field())
	assert.Greater(t, s.Field().Evaluate(v3.Vec{}), 0.0)
}

func TestNestedTree(t *testing.T) {
	inner := vtree.Union(nil, unitCube(t), vtree.List{unitCube(t), unitCube(t)})
	outer := vtree.Rotate(vtree.Params{"angles": []float64{0, 0, 90}}, inner)

	obj, err := realize.Realize(context.Background(), newKernel(), outer)
	require.NoError(t, err)
	assert.Len(t, obj.(*geom.Solid).Polygons, 18)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		op   vtree.Operand
	}{
		{"no operands", vtree.Union(nil)},
		{"mixed dimensions", vtree.Union(nil, unitCube(t), unitSquare(t))},
		{"bad param", vtree.Translate(vtree.Params{"offset": "up"}, unitCube(t))},
		{"profile difference", vtree.Difference(nil, unitSquare(t), unitSquare(t))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := realize.Realize(context.Background(), newKernel(), tt.op)
			assert.Error(t, err)
		})
	}

	_, err := realize.Realize(context.Background(), newKernel(), vtree.Union(nil))
	assert.True(t, errors.Is(err, realize.ErrNoOperands))

	_, err = realize.Realize(context.Background(), newKernel(),
		vtree.Difference(nil, unitSquare(t), unitSquare(t)))
	assert.ErrorIs(t, err, kernel.ErrUnsupported)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := realize.Realize(ctx, newKernel(), vtree.Union(nil, unitCube(t)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAll(t *testing.T) {
	ops := []vtree.Operand{
		unitCube(t),
		vtree.List{unitSquare(t), vtree.Translate(nil, unitCube(t))},
	}
	seq, err := realize.All(context.Background(), newKernel(), ops)
	require.NoError(t, err)
	require.Len(t, seq, 3)
	assert.Equal(t, geom.KindSolid, seq[0].Kind())
	assert.Equal(t, geom.KindProfile, seq[1].Kind())
	assert.Equal(t, geom.KindSolid, seq[2].Kind())

	empty, err := realize.All(context.Background(), newKernel(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
