package vtree

import (
	"maps"

	"github.com/chazu/kerf/pkg/geom"
)

// Kind enumerates the operations a node can record.
type Kind int

const (
	KindTranslate Kind = iota
	KindRotate
	KindScale
	KindMirror
	KindExtrude
	KindUnion
	KindIntersection
	KindDifference
)

func (k Kind) String() string {
	switch k {
	case KindTranslate:
		return "translate"
	case KindRotate:
		return "rotate"
	case KindScale:
		return "scale"
	case KindMirror:
		return "mirror"
	case KindExtrude:
		return "extrude"
	case KindUnion:
		return "union"
	case KindIntersection:
		return "intersection"
	case KindDifference:
		return "difference"
	default:
		return "unknown"
	}
}

// IsTransform reports whether k is a spatial transform.
func (k Kind) IsTransform() bool {
	return k >= KindTranslate && k <= KindExtrude
}

// IsBoolean reports whether k is a boolean operation.
func (k Kind) IsBoolean() bool {
	return k >= KindUnion && k <= KindDifference
}

// Params is the parameter bag of a node.
type Params map[string]any

// Operand is anything an operation accepts as input: a geom.Object, a
// *Node, or a List of operands. Dim reports the dimensionality the operand
// realizes to (2 or 3, 0 if unknown).
type Operand interface {
	Dim() int
}

// List is a list-shaped operand. Constructors expand it in place, so
// Union(a, List{b, c}) has the same children as Union(a, b, c).
type List []Operand

// Dim returns the dimensionality of the first element.
func (l List) Dim() int {
	for _, o := range l {
		if d := o.Dim(); d != 0 {
			return d
		}
	}
	return 0
}

// Node is one recorded operation. Kind and Params fully describe it;
// Children holds the operands in the order they were passed, each either a
// *Node or a geom.Object.
type Node struct {
	Kind     Kind
	Params   Params
	Children []Operand
}

// Dim returns 3 for extrusions and the dimensionality of the first child
// otherwise.
func (n *Node) Dim() int {
	if n.Kind == KindExtrude {
		return 3
	}
	return List(n.Children).Dim()
}

// Walk visits n and its descendant nodes depth-first, parents before
// children. Returning false from fn stops the descent below that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		if child, ok := c.(*Node); ok {
			child.Walk(fn)
		}
	}
}

// Objects returns every geometry leaf below n, in order.
func (n *Node) Objects() []geom.Object {
	var objs []geom.Object
	n.Walk(func(m *Node) bool {
		for _, c := range m.Children {
			if o, ok := c.(geom.Object); ok {
				objs = append(objs, o)
			}
		}
		return true
	})
	return objs
}

// New creates a node of the given kind. params is copied and operands are
// normalized with Normalize.
func New(kind Kind, params Params, operands ...Operand) *Node {
	p := Params{}
	maps.Copy(p, params)
	return &Node{Kind: kind, Params: p, Children: Normalize(operands)}
}

// Normalize flattens operands into a fresh ordered slice. Lists are expanded
// recursively and nil entries are dropped.
func Normalize(operands []Operand) []Operand {
	out := make([]Operand, 0, len(operands))
	var add func(ops []Operand)
	add = func(ops []Operand) {
		for _, o := range ops {
			switch v := o.(type) {
			case nil:
			case List:
				add(v)
			default:
				out = append(out, v)
			}
		}
	}
	add(operands)
	return out
}

// Translate records a translation by params["offset"].
func Translate(params Params, operands ...Operand) *Node {
	return New(KindTranslate, params, operands...)
}

// Rotate records a rotation by params["angles"] (degrees).
func Rotate(params Params, operands ...Operand) *Node {
	return New(KindRotate, params, operands...)
}

// Scale records a scale by params["factor"].
func Scale(params Params, operands ...Operand) *Node {
	return New(KindScale, params, operands...)
}

// Mirror records a reflection across the plane with params["normal"]
// through params["origin"].
func Mirror(params Params, operands ...Operand) *Node {
	return New(KindMirror, params, operands...)
}

// Extrude records a linear extrusion of profiles by params["height"].
func Extrude(params Params, operands ...Operand) *Node {
	return New(KindExtrude, params, operands...)
}

// Union records the union of all operands.
func Union(params Params, operands ...Operand) *Node {
	return New(KindUnion, params, operands...)
}

// Intersection records the intersection of all operands.
func Intersection(params Params, operands ...Operand) *Node {
	return New(KindIntersection, params, operands...)
}

// Difference records the first operand minus all the others.
func Difference(params Params, operands ...Operand) *Node {
	return New(KindDifference, params, operands...)
}
