// Package format holds the static table of export formats and what kind
// of geometry each one can represent.
package format

import "slices"

// ID identifies an export format.
type ID string

const (
	STLASCII  ID = "stla"
	STLBinary ID = "stlb"
	AMF       ID = "amf"
	X3D       ID = "x3d"
	DXF       ID = "dxf"
	Source    ID = "source"
	SVG       ID = "svg"
	JSON      ID = "json"
)

// Descriptor describes one export format.
type Descriptor struct {
	ID             ID
	DisplayName    string
	Extension      string
	MIMEType       string
	AcceptsSolid   bool
	AcceptsProfile bool
}

// registry is ordered; listings follow this order.
var registry = []Descriptor{
	{STLASCII, "STL (ASCII)", "stl", "application/sla", true, false},
	{STLBinary, "STL (Binary)", "stl", "application/sla", true, false},
	{AMF, "AMF (experimental)", "amf", "application/amf+xml", true, false},
	{X3D, "X3D", "x3d", "model/x3d+xml", true, false},
	{DXF, "DXF", "dxf", "application/dxf", false, true},
	{Source, "Source (zygomys)", "zy", "text/x-lisp", true, true},
	{SVG, "SVG", "svg", "image/svg+xml", false, true},
	{JSON, "JSON", "json", "application/json", true, true},
}

// Lookup returns the descriptor for id.
func Lookup(id ID) (Descriptor, bool) {
	i := slices.IndexFunc(registry, func(d Descriptor) bool { return d.ID == id })
	if i < 0 {
		return Descriptor{}, false
	}
	return registry[i], true
}

// All returns every descriptor in registry order. The slice is a copy.
func All() []Descriptor {
	return slices.Clone(registry)
}

// Accepting returns the ids, in registry order, of formats that accept at
// least one of the present kinds.
func Accepting(hasSolid, hasProfile bool) []ID {
	var ids []ID
	for _, d := range registry {
		if (hasSolid && d.AcceptsSolid) || (hasProfile && d.AcceptsProfile) {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// Filename returns base with the extension of d.
func (d Descriptor) Filename(base string) string {
	return base + "." + d.Extension
}
