package cli

import (
	"io"

	"github.com/spf13/cobra"
)

func newValidateCmd(g *globalFlags, outW io.Writer) *cobra.Command {
	var pipelines []string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate pipelines without running them",
		Long:  "Loads every pipeline file, validates the named pipelines and prints their execution order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := g.config()
			cfg.Pipelines = pipelines
			a, err := newApp(outW, cfg)
			if err != nil {
				return err
			}
			if _, err := a.Validate(cmd.Context()); err != nil {
				return failure(err)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&pipelines, "pipelines", "p", nil, "Pipelines to validate.")
	_ = cmd.MarkFlagRequired("pipelines")
	return cmd
}
