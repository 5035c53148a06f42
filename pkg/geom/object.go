package geom

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Kind distinguishes the two object variants.
type Kind int

const (
	KindSolid   Kind = iota // 3-D volume
	KindProfile             // 2-D planar region
)

func (k Kind) String() string {
	switch k {
	case KindSolid:
		return "solid"
	case KindProfile:
		return "profile"
	default:
		return "unknown"
	}
}

// Object is a realized geometric object. The only implementations are
// *Solid and *Profile.
type Object interface {
	// Kind reports which variant the object is.
	Kind() Kind
	// Dim returns 3 for solids and 2 for profiles.
	Dim() int
	// Bounds returns the axis-aligned bounding box. Profiles report z = 0.
	Bounds() Box3
	// IsEmpty reports whether the object has no geometry.
	IsEmpty() bool

	object() // restricts implementations to this package
}

// Match dispatches on the variant of o. Both arms are required, so callers
// handle every variant at the call site.
func Match[T any](o Object, solid func(*Solid) T, profile func(*Profile) T) T {
	switch v := o.(type) {
	case *Solid:
		return solid(v)
	case *Profile:
		return profile(v)
	}
	panic("geom: unknown object variant")
}

// Sequence is the ordered output of one build. Indices into a Sequence
// identify objects for selection.
type Sequence []Object

// Presence reports whether the sequence contains solids and profiles.
func (s Sequence) Presence() (hasSolid, hasProfile bool) {
	for _, o := range s {
		switch o.Kind() {
		case KindSolid:
			hasSolid = true
		case KindProfile:
			hasProfile = true
		}
	}
	return hasSolid, hasProfile
}

// Box3 is an axis-aligned bounding box. The zero value with Empty set
// describes an object with no geometry.
type Box3 struct {
	Min, Max v3.Vec
	Empty    bool
}

// Size returns the extent of the box along each axis.
func (b Box3) Size() v3.Vec {
	if b.Empty {
		return v3.Vec{}
	}
	return b.Max.Sub(b.Min)
}

// include grows b to contain p.
func (b Box3) include(p v3.Vec) Box3 {
	if b.Empty {
		return Box3{Min: p, Max: p}
	}
	b.Min = v3.Vec{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)}
	b.Max = v3.Vec{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)}
	return b
}
