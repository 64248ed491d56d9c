package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsort/modsort/pkg/metadata"
)

func TestLoadOrderFileReadMissing(t *testing.T) {
	l := NewLoadOrderFile(filepath.Join(t.TempDir(), "plugins.txt"))

	entries, err := l.Read()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadOrderFileRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.txt")
	content := "# comment\n*Skyrim.esm\nInactive.esp\n\n*Mod.esp\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := NewLoadOrderFile(path).Read()
	require.NoError(t, err)

	assert.Equal(t, []LoadOrderEntry{
		{Name: "Skyrim.esm", Active: true},
		{Name: "Inactive.esp", Active: false},
		{Name: "Mod.esp", Active: true},
	}, entries)
}

func TestLoadOrderFileWriteRoundTrip(t *testing.T) {
	l := NewLoadOrderFile(filepath.Join(t.TempDir(), "plugins.txt"))

	entries := []LoadOrderEntry{
		{Name: "Skyrim.esm", Active: true},
		{Name: "Mod.esp", Active: false},
	}
	require.NoError(t, l.Write(entries))

	got, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestLoadOrderFileWriteReplaces(t *testing.T) {
	l := NewLoadOrderFile(filepath.Join(t.TempDir(), "plugins.txt"))

	require.NoError(t, l.Write([]LoadOrderEntry{{Name: "A.esp", Active: true}}))
	require.NoError(t, l.Write([]LoadOrderEntry{{Name: "B.esp", Active: true}}))

	got, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, []LoadOrderEntry{{Name: "B.esp", Active: true}}, got)
}

func TestLoadOrderFileWriteMissingDirectory(t *testing.T) {
	l := NewLoadOrderFile(filepath.Join(t.TempDir(), "missing", "plugins.txt"))

	err := l.Write([]LoadOrderEntry{{Name: "A.esp", Active: true}})
	require.ErrorIs(t, err, metadata.ErrInvalidArgument)
}
