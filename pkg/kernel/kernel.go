// Package kernel defines the boolean geometry backend interface.
// Implementations (sdfx) combine geometry objects behind this interface so
// the realizer and exporter never depend on a particular algorithm.
package kernel

import (
	"errors"

	"github.com/chazu/kerf/pkg/geom"
)

// ErrUnsupported is returned when a kernel cannot perform an operation on
// the given operands.
var ErrUnsupported = errors.New("kernel: operation not supported")

// Kernel combines solids and profiles.
type Kernel interface {
	// Solids
	Union(a, b *geom.Solid) (*geom.Solid, error)
	Difference(a, b *geom.Solid) (*geom.Solid, error)
	Intersection(a, b *geom.Solid) (*geom.Solid, error)

	// Profiles
	Union2D(a, b *geom.Profile) (*geom.Profile, error)
	Difference2D(a, b *geom.Profile) (*geom.Profile, error)
	Intersection2D(a, b *geom.Profile) (*geom.Profile, error)
}
