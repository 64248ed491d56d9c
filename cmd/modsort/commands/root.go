// Package commands wires up the modsort CLI.
package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/modsort/modsort/cmd/modsort/internal/format"
	"github.com/modsort/modsort/pkg/config"
	"github.com/modsort/modsort/pkg/database"
	"github.com/modsort/modsort/pkg/game"
	"github.com/modsort/modsort/pkg/logging"
	"github.com/modsort/modsort/pkg/sorting"
)

const cliExecutable = "modsort"

// appState carries configuration shared across subcommands.
type appState struct {
	manager *config.Manager
	quiet   bool
	noColor bool
}

func (s *appState) config() config.Config {
	return s.manager.Get()
}

// newGame builds the configured game context and loads its metadata
// documents.
func (s *appState) newGame() (*game.Game, error) {
	if err := s.manager.ValidateGame(); err != nil {
		return nil, err
	}
	cfg := s.config()

	gameType, err := game.ParseType(cfg.Game.Type)
	if err != nil {
		return nil, err
	}

	localPath := cfg.Game.LocalPath
	if localPath == "" {
		localPath = cfg.Game.Path
	}

	g, err := game.New(gameType, cfg.Game.Path, localPath)
	if err != nil {
		return nil, err
	}

	if err := loadMetadata(g.Database(), cfg); err != nil {
		return nil, err
	}

	return g, nil
}

func loadMetadata(db *database.Database, cfg config.Config) error {
	if cfg.Game.Masterlist != "" {
		var err error
		if cfg.Game.MasterlistPrelude != "" {
			err = db.LoadMasterlistWithPrelude(cfg.Game.Masterlist, cfg.Game.MasterlistPrelude)
		} else {
			err = db.LoadMasterlist(cfg.Game.Masterlist)
		}
		if err != nil {
			return fmt.Errorf("loading masterlist: %w", err)
		}
	}

	if cfg.Game.Userlist != "" {
		if err := db.LoadUserlist(cfg.Game.Userlist); err != nil {
			return fmt.Errorf("loading userlist: %w", err)
		}
	}

	return nil
}

// defaultConfigPath returns the conventional config file location, or
// empty when the user's config directory is unknown.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, cliExecutable, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// NewCommand constructs the top-level modsort CLI command.
func NewCommand() *cobra.Command {
	var configFile string
	state := &appState{manager: config.NewManager()}

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "modsort computes optimised plugin load orders",
		Long: "modsort sorts game plugin load orders against community masterlists\n" +
			"and user metadata, and inspects the metadata driving the result.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if path == "" {
				path = defaultConfigPath()
			}

			if err := state.manager.Load(cmd.Flags(), path); err != nil {
				return err
			}

			return logging.ConfigureGlobalLogging(state.config().Log.Level)
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().BoolVarP(&state.quiet, "quiet", "q", false, "Suppress progress output")
	cmd.PersistentFlags().BoolVar(&state.noColor, "no-color", false, "Disable coloured output")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newSortCommand(state))
	cmd.AddCommand(newMetadataCommand(state))
	cmd.AddCommand(newGroupsCommand(state))

	return cmd
}

// newFormatter builds the output formatter from the shared flags.
func newFormatter(state *appState) *format.Formatter {
	return format.New(os.Stdout, os.Stderr, state.quiet, !state.noColor)
}

// exitWithDiagnostics prints rich diagnostics for sorting failures
// before handing the error back to cobra.
func exitWithDiagnostics(state *appState, err error) error {
	f := newFormatter(state)

	var cyclic *sorting.CyclicInteractionError
	if errors.As(err, &cyclic) {
		_ = f.PrintCycle(cyclic.Cycle)
		return err
	}

	_ = f.PrintError(err)
	return err
}
