package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/modsort/modsort/pkg/condition"
	"github.com/modsort/modsort/pkg/database"
	"github.com/modsort/modsort/pkg/metadata"
	"github.com/modsort/modsort/pkg/plugin"
	"github.com/modsort/modsort/pkg/sorting"
)

// Game is one configured game install: its paths, its loaded plugins,
// its metadata database and its load-order state.
type Game struct {
	gameType      Type
	gamePath      string
	localDataPath string

	db            *database.Database
	fileEvaluator *condition.FileEvaluator
	plugins       map[string]plugin.Plugin
	loadOrder     *LoadOrderFile

	logger zerolog.Logger
}

// New creates a game context. The game path must exist; the local data
// path may be created later by the game itself.
func New(gameType Type, gamePath, localDataPath string) (*Game, error) {
	if gamePath == "" {
		return nil, metadata.NewInvalidArgumentError("game path must not be empty")
	}
	if _, err := os.Stat(gamePath); err != nil {
		return nil, metadata.NewFileAccessError(gamePath, "game path does not exist")
	}

	g := &Game{
		gameType:      gameType,
		gamePath:      gamePath,
		localDataPath: localDataPath,
		plugins:       make(map[string]plugin.Plugin),
		loadOrder:     NewLoadOrderFile(filepath.Join(localDataPath, "plugins.txt")),
		logger:        log.With().Str("component", "game").Str("game", gameType.String()).Logger(),
	}

	g.fileEvaluator = condition.NewFileEvaluator(g.DataPath())
	g.db = database.New(g.fileEvaluator)

	return g, nil
}

// Type returns the game's type.
func (g *Game) Type() Type {
	return g.gameType
}

// DataPath returns the directory plugins are installed in.
func (g *Game) DataPath() string {
	return filepath.Join(g.gamePath, g.gameType.DataDirectory())
}

// Database returns the game's metadata database.
func (g *Game) Database() *database.Database {
	return g.db
}

// LoadPlugins reads the named plugins from the data directory,
// replacing any previously loaded state for them. With headersOnly set
// the override sweep is skipped, which is much faster and sufficient
// for everything but overlap-aware sorting.
func (g *Game) LoadPlugins(names []string, headersOnly bool) error {
	format := g.gameType.Format()

	for _, name := range names {
		record, err := plugin.ReadFile(filepath.Join(g.DataPath(), name), format, headersOnly)
		if err != nil {
			return err
		}
		g.plugins[strings.ToLower(name)] = record
	}

	g.logger.Debug().
		Int("count", len(names)).
		Bool("headersOnly", headersOnly).
		Msg("Loaded plugins")

	return nil
}

// Plugin returns the loaded plugin with the given filename.
func (g *Game) Plugin(name string) (plugin.Plugin, bool) {
	p, ok := g.plugins[strings.ToLower(name)]
	return p, ok
}

// Plugins returns every loaded plugin.
func (g *Game) Plugins() []plugin.Plugin {
	plugins := make([]plugin.Plugin, 0, len(g.plugins))
	for _, p := range g.plugins {
		plugins = append(plugins, p)
	}
	return plugins
}

// ClearLoadedPlugins drops all loaded plugin state.
func (g *Game) ClearLoadedPlugins() {
	g.plugins = make(map[string]plugin.Plugin)
}

// LoadOrderFile returns the game's load-order oracle.
func (g *Game) LoadOrderFile() *LoadOrderFile {
	return g.loadOrder
}

// LoadCurrentLoadOrderState returns the on-disk load order and primes
// the condition evaluator's active-plugin knowledge.
func (g *Game) LoadCurrentLoadOrderState() ([]string, error) {
	entries, err := g.loadOrder.Read()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	var active []string
	for _, e := range entries {
		names = append(names, e.Name)
		if e.Active {
			active = append(active, e.Name)
		}
	}

	g.fileEvaluator.SetActivePlugins(active)

	return names, nil
}

// SetLoadOrder writes the given order to disk, marking every plugin
// active.
func (g *Game) SetLoadOrder(names []string) error {
	entries := make([]LoadOrderEntry, len(names))
	for i, name := range names {
		entries[i] = LoadOrderEntry{Name: name, Active: true}
	}
	return g.loadOrder.Write(entries)
}

// SortPlugins computes the load order for the named plugins, which must
// all have been loaded. The input order seeds the final tie-break. On
// any failure the on-disk load order is untouched; writing the result
// back is the caller's decision via SetLoadOrder.
func (g *Game) SortPlugins(names []string) ([]string, error) {
	plugins := make([]plugin.Plugin, len(names))
	for i, name := range names {
		p, ok := g.Plugin(name)
		if !ok {
			return nil, metadata.NewInvalidArgumentError(fmt.Sprintf("plugin %q has not been loaded", name))
		}
		plugins[i] = p
	}

	return sorting.Sort(sorting.Params{
		Plugins:    plugins,
		Masterlist: g.db.Masterlist(),
		Userlist:   g.db.Userlist(),
		Evaluator:  g.db.Evaluator(),
		Hardcoded:  g.gameType.HardcodedPlugins(),
	})
}
