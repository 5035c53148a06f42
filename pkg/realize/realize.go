// Package realize walks operation trees and produces geometry objects
// using a geometry kernel. Realization is read-only: trees and their leaf
// objects are never mutated.
package realize

import (
	"context"
	"errors"
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/vtree"
)

// ErrNoOperands is returned for an operation node without children.
var ErrNoOperands = errors.New("operation has no operands")

// Realize evaluates op into a single object. Transform nodes apply to the
// union of their children; boolean nodes fold their children left to right
// through k.
func Realize(ctx context.Context, k kernel.Kernel, op vtree.Operand) (geom.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch v := op.(type) {
	case geom.Object:
		return v, nil
	case *vtree.Node:
		return realizeNode(ctx, k, v)
	case vtree.List:
		return realizeNode(ctx, k, vtree.Union(nil, v))
	case nil:
		return nil, errors.New("realize: nil operand")
	default:
		return nil, fmt.Errorf("realize: unsupported operand %T", op)
	}
}

// All realizes each operand in order. Lists contribute one object per
// element.
func All(ctx context.Context, k kernel.Kernel, ops []vtree.Operand) (geom.Sequence, error) {
	flat := vtree.Normalize(ops)
	seq := make(geom.Sequence, 0, len(flat))
	for i, op := range flat {
		obj, err := Realize(ctx, k, op)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		seq = append(seq, obj)
	}
	return seq, nil
}

func realizeNode(ctx context.Context, k kernel.Kernel, n *vtree.Node) (geom.Object, error) {
	if len(n.Children) == 0 {
		return nil, fmt.Errorf("%s: %w", n.Kind, ErrNoOperands)
	}
	children := make([]geom.Object, 0, len(n.Children))
	for _, c := range n.Children {
		obj, err := Realize(ctx, k, c)
		if err != nil {
			return nil, err
		}
		children = append(children, obj)
	}
	dim := children[0].Dim()
	for _, c := range children[1:] {
		if c.Dim() != dim {
			return nil, fmt.Errorf("%s: cannot mix 2D and 3D operands", n.Kind)
		}
	}

	switch {
	case n.Kind.IsBoolean():
		return fold(k, n.Kind, children)
	case n.Kind.IsTransform():
		u, err := fold(k, vtree.KindUnion, children)
		if err != nil {
			return nil, err
		}
		return transform(n, u)
	default:
		return nil, fmt.Errorf("unknown operation %v", n.Kind)
	}
}

// fold combines objects pairwise in order. All objects share one dimension.
func fold(k kernel.Kernel, kind vtree.Kind, objs []geom.Object) (geom.Object, error) {
	acc := objs[0]
	for _, o := range objs[1:] {
		var err error
		acc, err = combine(k, kind, acc, o)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
	}
	return acc, nil
}

func combine(k kernel.Kernel, kind vtree.Kind, a, b geom.Object) (geom.Object, error) {
	if sa, ok := a.(*geom.Solid); ok {
		sb := b.(*geom.Solid)
		switch kind {
		case vtree.KindIntersection:
			return k.Intersection(sa, sb)
		case vtree.KindDifference:
			return k.Difference(sa, sb)
		default:
			return k.Union(sa, sb)
		}
	}
	pa, pb := a.(*geom.Profile), b.(*geom.Profile)
	switch kind {
	case vtree.KindIntersection:
		return k.Intersection2D(pa, pb)
	case vtree.KindDifference:
		return k.Difference2D(pa, pb)
	default:
		return k.Union2D(pa, pb)
	}
}

func transform(n *vtree.Node, obj geom.Object) (geom.Object, error) {
	p := n.Params
	switch n.Kind {
	case vtree.KindTranslate:
		d, err := p.Vec3("offset", v3.Vec{}, 0)
		if err != nil {
			return nil, err
		}
		return geom.Match(obj,
			func(s *geom.Solid) geom.Object { return s.Translate(d) },
			func(pr *geom.Profile) geom.Object { return pr.Translate(v2.Vec{X: d.X, Y: d.Y}) },
		), nil

	case vtree.KindRotate:
		a, err := p.Vec3("angles", v3.Vec{}, 0)
		if err != nil {
			return nil, err
		}
		return geom.Match(obj,
			func(s *geom.Solid) geom.Object { return s.Rotate(a) },
			func(pr *geom.Profile) geom.Object { return pr.Rotate(a.Z) },
		), nil

	case vtree.KindScale:
		f, err := p.Vec3("factor", v3.Vec{X: 1, Y: 1, Z: 1}, 1)
		if err != nil {
			return nil, err
		}
		return geom.Match(obj,
			func(s *geom.Solid) geom.Object { return s.Scale(f) },
			func(pr *geom.Profile) geom.Object { return pr.Scale(v2.Vec{X: f.X, Y: f.Y}) },
		), nil

	case vtree.KindMirror:
		nv, err := p.Vec3("normal", v3.Vec{X: 1}, 0)
		if err != nil {
			return nil, err
		}
		o, err := p.Vec3("origin", v3.Vec{}, 0)
		if err != nil {
			return nil, err
		}
		return geom.Match(obj,
			func(s *geom.Solid) geom.Object { return s.Mirror(o, nv) },
			func(pr *geom.Profile) geom.Object {
				return pr.Mirror(v2.Vec{X: o.X, Y: o.Y}, v2.Vec{X: nv.X, Y: nv.Y})
			},
		), nil

	case vtree.KindExtrude:
		h, err := p.Float("height", 1)
		if err != nil {
			return nil, err
		}
		if h <= 0 {
			return nil, fmt.Errorf("extrude: height must be positive, got %g", h)
		}
		pr, ok := obj.(*geom.Profile)
		if !ok {
			return nil, errors.New("extrude: operands must be 2D")
		}
		return pr.Extrude(h), nil
	}
	return nil, fmt.Errorf("unknown transform %v", n.Kind)
}
