package engine

import (
	"context"
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/vtree"
)

// DefaultSegments is the facet count used for round primitives when a
// script does not pass :segments.
const DefaultSegments = 32

// session is the per-run state shared by the builtins of one sandbox.
type session struct {
	ctx context.Context

	// scanning is set while collecting parameter definitions.
	scanning bool
	defs     []ParamDef
	paramErr error
	values   map[string]any

	emitted []vtree.Operand
}

type builtin func(s *session, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the geometry DSL into env.
//
// Source must go through preprocessSource first so :keyword tokens reach
// the builtins as recognizable strings.
func registerBuiltins(env *zygo.Zlisp, s *session) {
	table := map[string]builtin{
		"cube":         cubeBuiltin,
		"sphere":       sphereBuiltin,
		"cylinder":     cylinderBuiltin,
		"square":       squareBuiltin,
		"circle":       circleBuiltin,
		"polygon":      polygonBuiltin,
		"translate":    vectorOp(vtree.KindTranslate, "offset"),
		"rotate":       vectorOp(vtree.KindRotate, "angles"),
		"scale":        vectorOp(vtree.KindScale, "factor"),
		"mirror":       mirrorBuiltin,
		"extrude":      extrudeBuiltin,
		"union":        booleanOp(vtree.KindUnion),
		"intersection": booleanOp(vtree.KindIntersection),
		"difference":   booleanOp(vtree.KindDifference),
		"emit":         emitBuiltin,
		"param":        paramBuiltin,
	}
	for name, fn := range table {
		env.AddFunction(name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := s.ctx.Err(); err != nil {
				return zygo.SexpNull, err
			}
			res, err := fn(s, args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return res, nil
		})
	}
}

func wrap(op vtree.Operand) zygo.Sexp { return &sexpNode{op: op} }

func kwFloat(pa kwArgs, key string, def float64) (float64, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func kwInt(pa kwArgs, key string, def int) (int, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func kwBool(pa kwArgs, key string) (bool, error) {
	v, ok := pa.kw[key]
	if !ok {
		return false, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// sizeArg reads :size (or the first positional argument) as a scalar or a
// vector of n components.
func sizeArg(pa kwArgs, n int) ([]float64, error) {
	v, ok := pa.kw["size"]
	if !ok && len(pa.positional) > 0 {
		v, ok = pa.positional[0], true
	}
	if !ok {
		out := make([]float64, n)
		for i := range out {
			out[i] = 1
		}
		return out, nil
	}
	fs, err := toFloats(v)
	if err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}
	switch len(fs) {
	case 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = fs[0]
		}
		return out, nil
	case n:
		return fs, nil
	}
	return nil, fmt.Errorf("size: expected 1 or %d components, got %d", n, len(fs))
}

// radiusArg reads :r, :d (diameter) or the first positional argument.
func radiusArg(pa kwArgs) (float64, error) {
	if _, ok := pa.kw["d"]; ok {
		d, err := kwFloat(pa, "d", 0)
		return d / 2, err
	}
	if _, ok := pa.kw["r"]; !ok && len(pa.positional) > 0 {
		return toFloat64(pa.positional[0])
	}
	return kwFloat(pa, "r", 1)
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// (cube :size [10 20 30] :center true)
func cubeBuiltin(_ *session, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	size, err := sizeArg(pa, 3)
	if err != nil {
		return nil, err
	}
	center, err := kwBool(pa, "center")
	if err != nil {
		return nil, err
	}
	c, err := geom.Cube(v3.Vec{X: size[0], Y: size[1], Z: size[2]}, center)
	if err != nil {
		return nil, err
	}
	return wrap(c), nil
}

// (sphere :r 5 :segments 24)
func sphereBuiltin(_ *session, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	r, err := radiusArg(pa)
	if err != nil {
		return nil, err
	}
	seg, err := kwInt(pa, "segments", DefaultSegments)
	if err != nil {
		return nil, err
	}
	sp, err := geom.Sphere(r, seg)
	if err != nil {
		return nil, err
	}
	return wrap(sp), nil
}

// (cylinder :r 2 :h 10 :segments 24 :center true)
func cylinderBuiltin(_ *session, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	r, err := radiusArg(pa)
	if err != nil {
		return nil, err
	}
	h, err := kwFloat(pa, "h", 1)
	if err != nil {
		return nil, err
	}
	seg, err := kwInt(pa, "segments", DefaultSegments)
	if err != nil {
		return nil, err
	}
	center, err := kwBool(pa, "center")
	if err != nil {
		return nil, err
	}
	c, err := geom.Cylinder(r, h, seg, center)
	if err != nil {
		return nil, err
	}
	return wrap(c), nil
}

// (square :size [4 3] :center false)
func squareBuiltin(_ *session, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	size, err := sizeArg(pa, 2)
	if err != nil {
		return nil, err
	}
	center, err := kwBool(pa, "center")
	if err != nil {
		return nil, err
	}
	sq, err := geom.Square(v2.Vec{X: size[0], Y: size[1]}, center)
	if err != nil {
		return nil, err
	}
	return wrap(sq), nil
}

// (circle :r 3 :segments 24)
func circleBuiltin(_ *session, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	r, err := radiusArg(pa)
	if err != nil {
		return nil, err
	}
	seg, err := kwInt(pa, "segments", DefaultSegments)
	if err != nil {
		return nil, err
	}
	c, err := geom.Circle(r, seg)
	if err != nil {
		return nil, err
	}
	return wrap(c), nil
}

// (polygon [[0 0] [10 0] [0 10]])
func polygonBuiltin(_ *session, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	v, ok := pa.kw["points"]
	if !ok {
		if len(pa.positional) == 0 {
			return nil, fmt.Errorf("requires a list of points")
		}
		v = pa.positional[0]
	}
	items, err := sexpListToSlice(v)
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	pts := make(geom.Contour, 0, len(items))
	for i, it := range items {
		xy, err := toFloats(it)
		if err != nil || len(xy) != 2 {
			return nil, fmt.Errorf("point %d: expected [x y]", i)
		}
		pts = append(pts, v2.Vec{X: xy[0], Y: xy[1]})
	}
	p, err := geom.Polygon2(pts)
	if err != nil {
		return nil, err
	}
	return wrap(p), nil
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// vectorOp builds (translate [x y z] obj...) style transforms. The vector
// may also be given as :key.
func vectorOp(kind vtree.Kind, key string) builtin {
	return func(_ *session, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		rest := pa.positional
		v, ok := pa.kw[key]
		if !ok {
			if len(rest) == 0 {
				return nil, fmt.Errorf("requires a vector")
			}
			v, rest = rest[0], rest[1:]
		}
		vec, err := toVector(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		ops, err := toOperands(rest)
		if err != nil {
			return nil, err
		}
		return wrap(vtree.New(kind, vtree.Params{key: vec}, ops...)), nil
	}
}

// (mirror [1 0 0] obj... :origin [0 0 0])
func mirrorBuiltin(_ *session, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	rest := pa.positional
	params := vtree.Params{}
	v, ok := pa.kw["normal"]
	if !ok {
		if len(rest) == 0 {
			return nil, fmt.Errorf("requires a plane normal")
		}
		v, rest = rest[0], rest[1:]
	}
	n, err := toFloats(v)
	if err != nil {
		return nil, fmt.Errorf("normal: %w", err)
	}
	params["normal"] = n
	if o, ok := pa.kw["origin"]; ok {
		of, err := toFloats(o)
		if err != nil {
			return nil, fmt.Errorf("origin: %w", err)
		}
		params["origin"] = of
	}
	ops, err := toOperands(rest)
	if err != nil {
		return nil, err
	}
	return wrap(vtree.Mirror(params, ops...)), nil
}

// (extrude :height 5 profile...)
func extrudeBuiltin(_ *session, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	h, err := kwFloat(pa, "height", 1)
	if err != nil {
		return nil, err
	}
	ops, err := toOperands(pa.positional)
	if err != nil {
		return nil, err
	}
	return wrap(vtree.Extrude(vtree.Params{"height": h}, ops...)), nil
}

func booleanOp(kind vtree.Kind) builtin {
	return func(_ *session, args []zygo.Sexp) (zygo.Sexp, error) {
		ops, err := toOperands(args)
		if err != nil {
			return nil, err
		}
		return wrap(vtree.New(kind, nil, ops...)), nil
	}
}

// (emit obj...) appends objects to the build output.
func emitBuiltin(s *session, args []zygo.Sexp) (zygo.Sexp, error) {
	ops, err := toOperands(args)
	if err != nil {
		return nil, err
	}
	s.emitted = append(s.emitted, ops...)
	return zygo.SexpNull, nil
}

// (param "name" :type :float :initial 1) declares a parameter and returns
// its current value.
func paramBuiltin(s *session, args []zygo.Sexp) (zygo.Sexp, error) {
	d, err := paramFromArgs(args)
	if err != nil {
		if s.scanning {
			s.paramErr = err
		}
		return nil, err
	}
	if s.scanning {
		if s.defs, err = addParamDef(s.defs, d); err != nil {
			s.paramErr = err
			return nil, err
		}
		return fromGoValue(d.Initial), nil
	}
	if v, ok := s.values[d.Name]; ok {
		c, err := d.Coerce(v)
		if err != nil {
			return nil, err
		}
		return fromGoValue(c), nil
	}
	return fromGoValue(d.Initial), nil
}
