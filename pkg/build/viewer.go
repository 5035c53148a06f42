package build

import (
	"github.com/charmbracelet/log"

	"github.com/chazu/kerf/pkg/export"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/selector"
)

// Viewer displays a solid.
type Viewer interface {
	Show(s *geom.Solid)
}

// ConnectViewer shows the selection of sel as a single solid every time
// the selection changes.
func ConnectViewer(sel *selector.Selector, ex *export.Exporter, v Viewer, logger *log.Logger) {
	sel.OnChange(func(_ selector.Range, slice geom.Sequence) {
		s, err := ex.ViewSolid(slice)
		if err != nil {
			if logger != nil {
				logger.Warn("view conversion failed", "err", err)
			}
			return
		}
		v.Show(s)
	})
}
