package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// newGroupsCommand builds the group inspection commands.
func newGroupsCommand(state *appState) *cobra.Command {
	var includeUser bool

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List plugin groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := state.newGame()
			if err != nil {
				return exitWithDiagnostics(state, err)
			}

			groups := g.Database().Groups(includeUser)
			rows := make([][]string, len(groups))
			for i, group := range groups {
				rows[i] = []string{group.Name, strings.Join(group.After, ", "), group.Description}
			}

			return newFormatter(state).PrintTable([]string{"name", "after", "description"}, rows)
		},
	}

	cmd.Flags().BoolVar(&includeUser, "include-user", true, "Merge userlist groups into the listing")

	path := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Show the ordering path between two groups",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := state.newGame()
			if err != nil {
				return exitWithDiagnostics(state, err)
			}

			groupsPath, err := g.Database().GroupsPath(args[0], args[1])
			if err != nil {
				return exitWithDiagnostics(state, err)
			}

			return newFormatter(state).PrintGroupsPath(groupsPath)
		},
	}

	cmd.AddCommand(path)
	return cmd
}
