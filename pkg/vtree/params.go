package vtree

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Float returns params[key] as a float64, or def if the key is absent.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	case int:
		return float64(f), nil
	case int64:
		return float64(f), nil
	}
	return 0, fmt.Errorf("param %q: expected number, got %T", key, v)
}

// Vec3 returns params[key] as a vector. Slices shorter than three are padded
// with pad; a scalar s becomes (s, s, s).
func (p Params) Vec3(key string, def v3.Vec, pad float64) (v3.Vec, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	var xs []float64
	switch f := v.(type) {
	case v3.Vec:
		return f, nil
	case []float64:
		xs = f
	case float64:
		return v3.Vec{X: f, Y: f, Z: f}, nil
	case int:
		s := float64(f)
		return v3.Vec{X: s, Y: s, Z: s}, nil
	default:
		return def, fmt.Errorf("param %q: expected vector, got %T", key, v)
	}
	if len(xs) > 3 {
		return def, fmt.Errorf("param %q: expected at most 3 components, got %d", key, len(xs))
	}
	out := [3]float64{pad, pad, pad}
	copy(out[:], xs)
	return v3.Vec{X: out[0], Y: out[1], Z: out[2]}, nil
}
