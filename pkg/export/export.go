// Package export serializes a selection of build objects into the
// registered interchange formats.
//
// A selection may mix solids and profiles. Export reduces it to a single
// object of the kind the target format can represent and hands that to the
// format's encoder.
package export

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chazu/kerf/pkg/format"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
)

// DefaultBasename is the file name, without extension, of exported files.
const DefaultBasename = "output"

// UnsupportedFormatError is returned for a format id that is not registered.
type UnsupportedFormatError struct {
	ID format.ID
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q", string(e.ID))
}

// Result is one serialized export.
type Result struct {
	Data     []byte
	Format   format.Descriptor
	Filename string
}

// Exporter converts selections to bytes. It is immutable and safe for
// concurrent use.
type Exporter struct {
	kernel   kernel.Kernel
	source   string
	producer string
	basename string
	now      func() time.Time
	logger   *log.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithProducer sets the generator string written by formats that carry one.
func WithProducer(p string) Option {
	return func(e *Exporter) { e.producer = p }
}

// WithClock sets the time source for timestamped formats.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// WithBasename sets the file name used in results.
func WithBasename(name string) Option {
	return func(e *Exporter) { e.basename = name }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// New creates an Exporter that unions objects with k.
func New(k kernel.Kernel, opts ...Option) *Exporter {
	e := &Exporter{
		kernel:   k,
		producer: "kerf",
		basename: DefaultBasename,
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "export"})
	}
	return e
}

// WithSource returns a copy of e that re-exports src for the source format.
func (e *Exporter) WithSource(src string) *Exporter {
	c := *e
	c.source = src
	return &c
}

// SupportedFormats returns, in registry order, the formats that can
// represent at least one object of slice.
func (e *Exporter) SupportedFormats(slice geom.Sequence) []format.ID {
	return format.Accepting(slice.Presence())
}

// Export serializes slice in the format id.
func (e *Exporter) Export(slice geom.Sequence, id format.ID) (*Result, error) {
	d, ok := format.Lookup(id)
	if !ok {
		return nil, &UnsupportedFormatError{ID: id}
	}
	enc, ok := encoders[id]
	if !ok {
		return nil, &UnsupportedFormatError{ID: id}
	}

	obj, err := e.accumulate(slice, useSolid(d, slice))
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", id, err)
	}
	data, err := enc(e, obj)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", id, err)
	}
	e.logger.Debug("exported", "format", id, "objects", len(slice), "bytes", len(data))
	return &Result{Data: data, Format: d, Filename: d.Filename(e.basename)}, nil
}

// ViewSolid reduces slice to one solid for display. Profiles are extruded.
func (e *Exporter) ViewSolid(slice geom.Sequence) (*geom.Solid, error) {
	obj, err := e.accumulate(slice, true)
	if err != nil {
		return nil, err
	}
	return obj.(*geom.Solid), nil
}

// useSolid decides the kind the selection is reduced to. Solids win when
// present and accepted. A format that cannot hold profiles always gets a
// solid, so profiles are extruded rather than dropped.
func useSolid(d format.Descriptor, slice geom.Sequence) bool {
	hasSolid, _ := slice.Presence()
	return d.AcceptsSolid && (hasSolid || !d.AcceptsProfile)
}

// accumulate folds slice, in order, into an empty solid or profile.
func (e *Exporter) accumulate(slice geom.Sequence, solid bool) (geom.Object, error) {
	if solid {
		acc := geom.EmptySolid()
		for _, o := range slice {
			s := geom.Match(o,
				func(s *geom.Solid) *geom.Solid { return s },
				func(p *geom.Profile) *geom.Solid { return p.Extrude(geom.ExtrudeThickness) },
			)
			var err error
			if acc, err = e.kernel.Union(acc, s); err != nil {
				return nil, err
			}
		}
		return acc, nil
	}

	acc := geom.EmptyProfile()
	for _, o := range slice {
		p := geom.Match(o,
			func(*geom.Solid) *geom.Profile { return nil },
			func(p *geom.Profile) *geom.Profile { return p },
		)
		if p == nil {
			continue
		}
		var err error
		if acc, err = e.kernel.Union2D(acc, p); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

type encoder func(e *Exporter, obj geom.Object) ([]byte, error)

var encoders = map[format.ID]encoder{
	format.STLASCII:  solidEncoder(encodeSTLASCII),
	format.STLBinary: solidEncoder(encodeSTLBinary),
	format.AMF:       solidEncoder(encodeAMF),
	format.X3D:       solidEncoder(encodeX3D),
	format.DXF:       profileEncoder(encodeDXF),
	format.SVG:       profileEncoder(encodeSVG),
	format.Source:    func(e *Exporter, _ geom.Object) ([]byte, error) { return []byte(e.source), nil },
	format.JSON:      func(_ *Exporter, obj geom.Object) ([]byte, error) { return encodeJSON(obj) },
}

func solidEncoder(fn func(e *Exporter, s *geom.Solid) ([]byte, error)) encoder {
	return func(e *Exporter, obj geom.Object) ([]byte, error) {
		s, ok := obj.(*geom.Solid)
		if !ok {
			return nil, fmt.Errorf("expected solid, got %s", obj.Kind())
		}
		return fn(e, s)
	}
}

func profileEncoder(fn func(e *Exporter, p *geom.Profile) ([]byte, error)) encoder {
	return func(e *Exporter, obj geom.Object) ([]byte, error) {
		p, ok := obj.(*geom.Profile)
		if !ok {
			return nil, fmt.Errorf("expected profile, got %s", obj.Kind())
		}
		return fn(e, p)
	}
}
