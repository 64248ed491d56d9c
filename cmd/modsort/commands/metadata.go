package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMetadataCommand builds the metadata inspection command.
func newMetadataCommand(state *appState) *cobra.Command {
	var (
		userOnly bool
		skipUser bool
		evaluate bool
	)

	cmd := &cobra.Command{
		Use:   "metadata <plugin>",
		Short: "Show the effective metadata for a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := state.newGame()
			if err != nil {
				return exitWithDiagnostics(state, err)
			}

			db := g.Database()
			name := args[0]

			meta, found, err := db.PluginMetadata(name, !skipUser, evaluate)
			if userOnly {
				meta, found, err = db.PluginUserMetadata(name, evaluate)
			}
			if err != nil {
				return exitWithDiagnostics(state, err)
			}
			if !found {
				return exitWithDiagnostics(state, fmt.Errorf("no metadata found for %q", name))
			}

			return newFormatter(state).PrintYAML(meta)
		},
	}

	cmd.Flags().BoolVar(&userOnly, "user-only", false, "Show only userlist metadata")
	cmd.Flags().BoolVar(&skipUser, "no-user", false, "Ignore userlist metadata")
	cmd.Flags().BoolVar(&evaluate, "evaluate", false, "Evaluate conditions and drop inapplicable entries")

	return cmd
}
