package export

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// encodeAMF writes one object whose vertices are listed per polygon and
// whose triangles fan around each polygon's first vertex.
func encodeAMF(e *Exporter, s *geom.Solid) ([]byte, error) {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<amf unit="millimeter">` + "\n")
	b.WriteString(`<metadata type="producer">` + escape(e.producer) + "</metadata>\n")
	b.WriteString(`<metadata type="date">` + e.now().UTC().Format(time.RFC3339) + "</metadata>\n")
	b.WriteString(`<object id="0">` + "\n<mesh>\n<vertices>\n")
	for _, p := range s.Polygons {
		if len(p.Vertices) < 3 {
			continue
		}
		for _, v := range p.Vertices {
			b.WriteString("<vertex><coordinates><x>" + num(v.X) + "</x><y>" + num(v.Y) + "</y><z>" + num(v.Z) + "</z></coordinates></vertex>\n")
		}
	}
	b.WriteString("</vertices>\n<volume>\n")
	base := 0
	for _, p := range s.Polygons {
		n := len(p.Vertices)
		if n < 3 {
			continue
		}
		for i := 0; i < n-2; i++ {
			b.WriteString("<triangle><v1>" + strconv.Itoa(base) +
				"</v1><v2>" + strconv.Itoa(base+i+1) +
				"</v2><v3>" + strconv.Itoa(base+i+2) + "</v3></triangle>\n")
		}
		base += n
	}
	b.WriteString("</volume>\n</mesh>\n</object>\n</amf>\n")
	return []byte(b.String()), nil
}

// encodeX3D writes an IndexedTriangleSet built from the solid's mesh.
func encodeX3D(e *Exporter, s *geom.Solid) ([]byte, error) {
	m := kernel.ToMesh(s)

	index := make([]string, len(m.Indices))
	for i, idx := range m.Indices {
		index[i] = strconv.FormatUint(uint64(idx), 10)
	}
	floats := func(fs []float32) string {
		out := make([]string, len(fs))
		for i, f := range fs {
			out[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
		}
		return strings.Join(out, " ")
	}

	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<!DOCTYPE X3D PUBLIC "ISO//Web3D//DTD X3D 3.1//EN" "http://www.web3d.org/specifications/x3d-3.1.dtd">` + "\n")
	b.WriteString(`<X3D profile="Interchange" version="3.1">` + "\n")
	b.WriteString(`<head><meta name="generator" content="` + escape(e.producer) + `"/></head>` + "\n")
	b.WriteString("<Scene>\n<Shape>\n")
	b.WriteString(`<IndexedTriangleSet index="` + strings.Join(index, " ") + `" normalPerVertex="true" solid="false">` + "\n")
	b.WriteString(`<Coordinate point="` + floats(m.Vertices) + `"/>` + "\n")
	b.WriteString(`<Normal vector="` + floats(m.Normals) + `"/>` + "\n")
	b.WriteString("</IndexedTriangleSet>\n</Shape>\n</Scene>\n</X3D>\n")
	return []byte(b.String()), nil
}
