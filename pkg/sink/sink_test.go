package sink

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSWriteAndClear(t *testing.T) {
	fs := memfs.New()
	s := NewFS(fs, WithPrefix("out"))

	h, err := s.Write([]byte("solid kerf\n"), "output.stl", "model/stl")
	require.NoError(t, err)
	assert.Equal(t, "out_1_stl/output.stl", h.Path)
	assert.Equal(t, "model/stl", h.MIMEType)
	assert.Equal(t, 11, h.Size)

	data, err := util.ReadFile(fs, h.Path)
	require.NoError(t, err)
	assert.Equal(t, "solid kerf\n", string(data))

	// the next export replaces the previous directory
	h2, err := s.Write([]byte("<svg/>"), "output.svg", "image/svg+xml")
	require.NoError(t, err)
	assert.Equal(t, "out_2_svg/output.svg", h2.Path)
	_, err = fs.Stat("out_1_stl")
	assert.Error(t, err)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Last())
	_, err = fs.Stat("out_2_svg")
	assert.Error(t, err)
	require.NoError(t, s.Clear(), "clearing twice is fine")
}

func TestFSSkipsExistingDirectories(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("kerf_1_dxf", 0o755))

	h, err := NewFS(fs).Write([]byte("0\nEOF\n"), "output.dxf", "image/vnd.dxf")
	require.NoError(t, err)
	assert.Equal(t, "kerf_2_dxf/output.dxf", h.Path)
	_, err = fs.Stat("kerf_1_dxf")
	assert.NoError(t, err, "directories not created by the sink are left alone")
}

func TestFSRejectsBadNames(t *testing.T) {
	s := NewFS(memfs.New())
	for _, name := range []string{"", "a/b.stl", `a\b.stl`} {
		_, err := s.Write(nil, name, "")
		assert.Error(t, err, name)
	}
}

func TestFSNoExtension(t *testing.T) {
	h, err := NewFS(memfs.New()).Write([]byte{1}, "blob", "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "kerf_1_bin/blob", h.Path)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	src := []byte("abc")
	h, err := m.Write(src, "output.json", "application/json")
	require.NoError(t, err)
	_, err = uuid.Parse(h.ID)
	require.NoError(t, err)
	assert.Empty(t, h.Path)

	src[0] = 'x'
	data, got, err := m.Open(h.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data), "stored data is a copy")
	assert.Equal(t, h, got)

	h2, err := m.Write([]byte("def"), "output.svg", "image/svg+xml")
	require.NoError(t, err)
	assert.NotEqual(t, h.ID, h2.ID)
	_, _, err = m.Open(h.ID)
	assert.ErrorIs(t, err, ErrNotFound, "previous handle is revoked")

	assert.True(t, m.Revoke(h2.ID))
	assert.False(t, m.Revoke(h2.ID))
	_, _, err = m.Open(h2.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
