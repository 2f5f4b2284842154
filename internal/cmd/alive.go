package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newAliveCmd creates the alive command.
func newAliveCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "alive",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if err := app.Client.Alive(cmd.Context()); err != nil {
				return fmt.Errorf("server %s is not reachable: %w", app.Config.Client.URL, err)
			}
			if app.JSON {
				return writeJSON(app.Out, map[string]any{"alive": true, "url": app.Config.Client.URL})
			}
			fmt.Fprintf(app.Out, "%s %s\n", app.SuccessColor("alive"), app.Config.Client.URL)
			return nil
		},
	}
}
