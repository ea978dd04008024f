package cli

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/forecastgrid/internal/app"
)

func newComponentsCmd(g *globalFlags, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List the registered components",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(outW, g.config())
			if err != nil {
				return err
			}
			app.PrintComponents(cmd.OutOrStdout(), a.Registry())
			return nil
		},
	}
}
