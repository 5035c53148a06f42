package export

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/deadsy/sdfx/render"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/kerf/pkg/geom"
)

const stlName = "kerf"

func vec(v v3.Vec) string {
	return num(v.X) + " " + num(v.Y) + " " + num(v.Z)
}

func encodeSTLASCII(_ *Exporter, s *geom.Solid) ([]byte, error) {
	var b strings.Builder
	b.WriteString("solid " + stlName + "\n")
	for _, t := range s.Triangles() {
		b.WriteString("facet normal " + vec(t.Normal) + "\nouter loop\n")
		for _, v := range t.V {
			b.WriteString("vertex " + vec(v) + "\n")
		}
		b.WriteString("endloop\nendfacet\n")
	}
	b.WriteString("endsolid " + stlName + "\n")
	return []byte(b.String()), nil
}

// encodeSTLBinary writes the header and one record per triangle in the
// layout of sdfx's STL renderer.
func encodeSTLBinary(_ *Exporter, s *geom.Solid) ([]byte, error) {
	tris := s.Triangles()
	buf := bytes.NewBuffer(make([]byte, 0, 84+50*len(tris)))

	header := render.STLHeader{Count: uint32(len(tris))}
	if err := binary.Write(buf, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	var rec render.STLTriangle
	for _, t := range tris {
		rec.Normal = float32s(t.Normal)
		rec.Vertex1 = float32s(t.V[0])
		rec.Vertex2 = float32s(t.V[1])
		rec.Vertex3 = float32s(t.V[2])
		if err := binary.Write(buf, binary.LittleEndian, &rec); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func float32s(v v3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
