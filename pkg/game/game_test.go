package game

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsort/modsort/pkg/metadata"
)

// writeGamePlugin writes a minimal 24-byte-header plugin file into the
// game's data directory.
func writeGamePlugin(t *testing.T, dataPath, name string, flags uint32, masters []string) {
	t.Helper()

	var header []byte
	for _, m := range masters {
		header = append(header, "MAST"...)
		header = binary.LittleEndian.AppendUint16(header, uint16(len(m)+1))
		header = append(header, m...)
		header = append(header, 0)
	}

	var data []byte
	data = append(data, "TES4"...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(header)))
	data = binary.LittleEndian.AppendUint32(data, flags)
	data = append(data, make([]byte, 12)...)
	data = append(data, header...)

	require.NoError(t, os.WriteFile(filepath.Join(dataPath, name), data, 0o644))
}

func newTestGame(t *testing.T) *Game {
	t.Helper()

	gamePath := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(gamePath, "Data"), 0o755))

	g, err := New(SkyrimSE, gamePath, t.TempDir())
	require.NoError(t, err)
	return g
}

func TestNewGameMissingPath(t *testing.T) {
	_, err := New(SkyrimSE, filepath.Join(t.TempDir(), "missing"), t.TempDir())
	require.ErrorIs(t, err, metadata.ErrFileAccess)

	_, err = New(SkyrimSE, "", t.TempDir())
	require.ErrorIs(t, err, metadata.ErrInvalidArgument)
}

func TestGameLoadPlugins(t *testing.T) {
	g := newTestGame(t)
	writeGamePlugin(t, g.DataPath(), "A.esm", 1, nil)
	writeGamePlugin(t, g.DataPath(), "B.esp", 0, []string{"A.esm"})

	require.NoError(t, g.LoadPlugins([]string{"A.esm", "B.esp"}, true))

	p, ok := g.Plugin("a.ESM")
	require.True(t, ok)
	assert.True(t, p.IsMaster())

	p, ok = g.Plugin("B.esp")
	require.True(t, ok)
	assert.Equal(t, []string{"A.esm"}, p.Masters())

	assert.Len(t, g.Plugins(), 2)

	g.ClearLoadedPlugins()
	assert.Empty(t, g.Plugins())
}

func TestGameSortPlugins(t *testing.T) {
	g := newTestGame(t)
	writeGamePlugin(t, g.DataPath(), "A.esm", 1, nil)
	writeGamePlugin(t, g.DataPath(), "B.esp", 0, []string{"A.esm"})
	writeGamePlugin(t, g.DataPath(), "C.esp", 0, nil)

	require.NoError(t, g.LoadPlugins([]string{"A.esm", "B.esp", "C.esp"}, true))

	sorted, err := g.SortPlugins([]string{"C.esp", "B.esp", "A.esm"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A.esm", "C.esp", "B.esp"}, sorted)
}

func TestGameSortPluginsUnloaded(t *testing.T) {
	g := newTestGame(t)

	_, err := g.SortPlugins([]string{"Ghost.esp"})
	require.ErrorIs(t, err, metadata.ErrInvalidArgument)
}

func TestGameSortPluginsUsesUserMetadata(t *testing.T) {
	g := newTestGame(t)
	writeGamePlugin(t, g.DataPath(), "A.esp", 0, nil)
	writeGamePlugin(t, g.DataPath(), "B.esp", 0, nil)

	require.NoError(t, g.LoadPlugins([]string{"A.esp", "B.esp"}, true))
	require.NoError(t, g.Database().SetPluginUserMetadata(metadata.PluginMetadata{
		Name:      "A.esp",
		LoadAfter: []metadata.File{{Name: "B.esp"}},
	}))

	sorted, err := g.SortPlugins([]string{"A.esp", "B.esp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B.esp", "A.esp"}, sorted)
}

func TestGameLoadOrderState(t *testing.T) {
	g := newTestGame(t)

	require.NoError(t, g.SetLoadOrder([]string{"A.esm", "B.esp"}))

	names, err := g.LoadCurrentLoadOrderState()
	require.NoError(t, err)
	assert.Equal(t, []string{"A.esm", "B.esp"}, names)

	// SetLoadOrder marks everything active, which active() conditions
	// then see.
	ok, err := g.Database().Evaluator().Evaluate(`active("B.esp")`)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGameSortFailureLeavesLoadOrderUntouched(t *testing.T) {
	g := newTestGame(t)
	writeGamePlugin(t, g.DataPath(), "A.esp", 0, nil)
	writeGamePlugin(t, g.DataPath(), "B.esp", 0, nil)

	require.NoError(t, g.LoadPlugins([]string{"A.esp", "B.esp"}, true))
	require.NoError(t, g.SetLoadOrder([]string{"A.esp", "B.esp"}))

	require.NoError(t, g.Database().SetPluginUserMetadata(metadata.PluginMetadata{
		Name: "A.esp", Requirements: []metadata.File{{Name: "B.esp"}},
	}))
	require.NoError(t, g.Database().SetPluginUserMetadata(metadata.PluginMetadata{
		Name: "B.esp", Requirements: []metadata.File{{Name: "A.esp"}},
	}))

	_, err := g.SortPlugins([]string{"A.esp", "B.esp"})
	require.Error(t, err)

	names, readErr := g.LoadCurrentLoadOrderState()
	require.NoError(t, readErr)
	assert.Equal(t, []string{"A.esp", "B.esp"}, names)
}
