package export

import (
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"github.com/chazu/kerf/pkg/geom"
)

// encodeJSON dumps the object as sorted-key JSON:
//
//	{"type":"solid","polygons":[{"vertices":[[x,y,z],...]},...]}
//	{"type":"profile","contours":[[[x,y],...],...]}
func encodeJSON(obj geom.Object) ([]byte, error) {
	doc := geom.Match(obj, solidDoc, profileDoc)
	return []byte(oj.JSON(doc, &ojg.Options{Sort: true})), nil
}

func solidDoc(s *geom.Solid) map[string]any {
	polys := make([]any, len(s.Polygons))
	for i, p := range s.Polygons {
		vs := make([]any, len(p.Vertices))
		for j, v := range p.Vertices {
			vs[j] = []any{v.X, v.Y, v.Z}
		}
		polys[i] = map[string]any{"vertices": vs}
	}
	return map[string]any{"type": geom.KindSolid.String(), "polygons": polys}
}

func profileDoc(p *geom.Profile) map[string]any {
	cs := make([]any, len(p.Contours))
	for i, c := range p.Contours {
		pts := make([]any, len(c))
		for j, pt := range c {
			pts[j] = []any{pt.X, pt.Y}
		}
		cs[i] = pts
	}
	return map[string]any{"type": geom.KindProfile.String(), "contours": cs}
}
