package export

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/yofu/dxf"

	"github.com/chazu/kerf/pkg/geom"
)

// encodeDXF writes every contour edge as a LINE entity on layer "Lines".
func encodeDXF(_ *Exporter, p *geom.Profile) ([]byte, error) {
	d := dxf.NewDrawing()
	if _, err := d.AddLayer("Lines", dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return nil, fmt.Errorf("dxf layer: %w", err)
	}
	if err := d.ChangeLayer("Lines"); err != nil {
		return nil, fmt.Errorf("dxf layer: %w", err)
	}
	for _, c := range p.Contours {
		for i, a := range c {
			b := c[(i+1)%len(c)]
			if _, err := d.Line(a.X, a.Y, 0, b.X, b.Y, 0); err != nil {
				return nil, fmt.Errorf("dxf line: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("dxf write: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeSVG writes one closed path per contour. The y axis is flipped so
// the drawing appears the right way up.
func encodeSVG(_ *Exporter, p *geom.Profile) ([]byte, error) {
	var buf bytes.Buffer
	canvas := svg.New(&buf)

	minX, minY, w, h := 0, 0, 0, 0
	if b := p.Bounds(); !b.Empty {
		minX = int(math.Floor(b.Min.X))
		minY = int(math.Floor(-b.Max.Y))
		w = int(math.Ceil(b.Max.X)) - minX
		h = int(math.Ceil(-b.Min.Y)) - minY
	}
	canvas.Startview(w, h, minX, minY, w, h)
	canvas.Gstyle("fill:none;stroke:black;stroke-width:0.1")
	for _, c := range p.Contours {
		if len(c) == 0 {
			continue
		}
		var d strings.Builder
		for i, pt := range c {
			if i == 0 {
				d.WriteString("M")
			} else {
				d.WriteString(" L")
			}
			d.WriteString(num(pt.X) + " " + num(-pt.Y))
		}
		d.WriteString(" Z")
		canvas.Path(d.String())
	}
	canvas.Gend()
	canvas.End()
	return buf.Bytes(), nil
}
