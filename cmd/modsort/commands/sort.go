package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// newSortCommand builds the sort command: compute a load order and
// optionally write it back.
func newSortCommand(state *appState) *cobra.Command {
	var (
		apply       bool
		headersOnly bool
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "sort [plugin...]",
		Short: "Compute an optimised load order",
		Long: "Computes an optimised load order for the given plugins, or for the\n" +
			"game's current load order when none are named. The result is printed;\n" +
			"--apply also writes it back to the load-order file, and --watch keeps\n" +
			"re-sorting whenever the metadata documents change.",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := state.newGame()
			if err != nil {
				return exitWithDiagnostics(state, err)
			}

			f := newFormatter(state)

			names := args
			if len(names) == 0 {
				names, err = g.LoadCurrentLoadOrderState()
				if err != nil {
					return exitWithDiagnostics(state, err)
				}
			}
			if len(names) == 0 {
				return exitWithDiagnostics(state, fmt.Errorf("no plugins to sort: name plugins or populate %q", g.LoadOrderFile().Path()))
			}

			if err := g.LoadPlugins(names, headersOnly); err != nil {
				return exitWithDiagnostics(state, err)
			}

			sortOnce := func() error {
				sorted, err := g.SortPlugins(names)
				if err != nil {
					return exitWithDiagnostics(state, err)
				}

				if err := f.PrintLoadOrder(sorted); err != nil {
					return err
				}

				if !apply {
					return nil
				}
				if err := g.SetLoadOrder(sorted); err != nil {
					return exitWithDiagnostics(state, err)
				}
				return f.PrintSummary(fmt.Sprintf("Wrote %d plugins to %s", len(sorted), g.LoadOrderFile().Path()))
			}

			if err := sortOnce(); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			_ = f.PrintSummary("Watching metadata documents; press Ctrl-C to stop.")
			err = g.Database().Watch(ctx, 0, func(reloadErr error) {
				if reloadErr != nil {
					_ = f.PrintError(reloadErr)
					return
				}
				_ = sortOnce()
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Write the sorted order back to the load-order file")
	cmd.Flags().BoolVar(&headersOnly, "headers-only", false, "Skip the record sweep; disables overlap-aware ordering")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and re-sort when the metadata documents change")

	return cmd
}
