// Package sink stores exported files. FS writes them to a filesystem,
// Memory keeps them behind ephemeral handles.
package sink

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or revoked handles.
var ErrNotFound = errors.New("sink: no such handle")

// Handle identifies a stored export.
type Handle struct {
	ID       string
	Name     string
	MIMEType string
	// Path is the location inside the filesystem; empty for memory handles.
	Path string
	Size int
}

// Sink accepts the bytes of one export.
type Sink interface {
	Write(data []byte, name, mimeType string) (Handle, error)
}

// DefaultPrefix names the directories FS creates.
const DefaultPrefix = "kerf"

// FS writes each export into a fresh directory named
// <prefix>_<n>_<ext> and removes the previous export's directory first.
type FS struct {
	mu     sync.Mutex
	fs     billy.Filesystem
	prefix string
	n      int
	last   string
	logger *log.Logger
}

// FSOption configures an FS sink.
type FSOption func(*FS)

// WithPrefix sets the directory prefix.
func WithPrefix(p string) FSOption { return func(s *FS) { s.prefix = p } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) FSOption { return func(s *FS) { s.logger = l } }

// NewFS creates a sink writing into fs.
func NewFS(fs billy.Filesystem, opts ...FSOption) *FS {
	s := &FS{fs: fs, prefix: DefaultPrefix}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "sink"})
	}
	return s
}

// Write clears the previous export and stores data as name in a new
// directory.
func (s *FS) Write(data []byte, name, mimeType string) (Handle, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return Handle{}, fmt.Errorf("sink: invalid file name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.clearLocked(); err != nil {
		return Handle{}, err
	}

	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		ext = "bin"
	}
	var dir string
	for {
		s.n++
		dir = fmt.Sprintf("%s_%d_%s", s.prefix, s.n, ext)
		if _, err := s.fs.Stat(dir); errors.Is(err, os.ErrNotExist) {
			break
		} else if err != nil {
			return Handle{}, fmt.Errorf("sink: stat %s: %w", dir, err)
		}
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return Handle{}, fmt.Errorf("sink: create %s: %w", dir, err)
	}
	p := s.fs.Join(dir, name)
	if err := util.WriteFile(s.fs, p, data, 0o644); err != nil {
		return Handle{}, fmt.Errorf("sink: write %s: %w", p, err)
	}
	s.last = dir
	s.logger.Debug("stored export", "path", p, "bytes", len(data))
	return Handle{ID: p, Name: name, MIMEType: mimeType, Path: p, Size: len(data)}, nil
}

// Clear removes the directory of the last export, if any.
func (s *FS) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *FS) clearLocked() error {
	if s.last == "" {
		return nil
	}
	if err := util.RemoveAll(s.fs, s.last); err != nil {
		return fmt.Errorf("sink: clear %s: %w", s.last, err)
	}
	s.last = ""
	return nil
}

// Last returns the directory of the last export, or "" after Clear.
func (s *FS) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type blob struct {
	data []byte
	h    Handle
}

// Memory keeps exports in memory behind random handles. Each Write
// revokes the handle of the previous one.
type Memory struct {
	mu    sync.Mutex
	blobs map[string]blob
	last  string
}

// NewMemory creates an empty memory sink.
func NewMemory() *Memory {
	return &Memory{blobs: map[string]blob{}}
}

// Write stores a copy of data.
func (m *Memory) Write(data []byte, name, mimeType string) (Handle, error) {
	h := Handle{ID: uuid.NewString(), Name: name, MIMEType: mimeType, Size: len(data)}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, m.last)
	m.blobs[h.ID] = blob{data: append([]byte(nil), data...), h: h}
	m.last = h.ID
	return h, nil
}

// Open returns the data stored under id.
func (m *Memory) Open(id string) ([]byte, Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[id]
	if !ok {
		return nil, Handle{}, ErrNotFound
	}
	return append([]byte(nil), b.data...), b.h, nil
}

// Revoke releases id. It reports whether the handle was live.
func (m *Memory) Revoke(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[id]
	delete(m.blobs, id)
	if id == m.last {
		m.last = ""
	}
	return ok
}

var (
	_ Sink = (*FS)(nil)
	_ Sink = (*Memory)(nil)
)
