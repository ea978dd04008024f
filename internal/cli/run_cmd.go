package cli

import (
	"io"

	"github.com/spf13/cobra"
)

func newRunCmd(g *globalFlags, outW io.Writer) *cobra.Command {
	var (
		pipelines       []string
		mode            string
		outputRoot      string
		runID           string
		inputs          []string
		eventsURL       string
		eventsNamespace string
		healthcheckPort int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one or more pipelines",
		Long: `Runs the named pipelines sequentially, in the order given. Jobs run in
dependency order; a failed job skips its dependents while independent jobs
continue. The command exits 1 if any job failed.`,
		Example: `  forecastgrid run --pipelines preprocessing,training -e test
  forecastgrid run -p forecast_uk --input db_path=data/retail.db --run-id nightly`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bound, err := parseInputs(inputs)
			if err != nil {
				return usageError(err)
			}

			cfg := g.config()
			cfg.Pipelines = pipelines
			cfg.Mode = mode
			cfg.OutputRoot = outputRoot
			cfg.RunID = runID
			cfg.Inputs = bound
			cfg.EventsURL = eventsURL
			cfg.EventsNamespace = eventsNamespace
			cfg.HealthcheckPort = healthcheckPort

			a, err := newApp(outW, cfg)
			if err != nil {
				return err
			}
			result, err := a.Run(cmd.Context())
			if err != nil {
				return failure(err)
			}
			if result.Failed() {
				return &ExitError{Code: ExitFailure, Message: "one or more jobs failed"}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&pipelines, "pipelines", "p", nil, "Pipelines to run, in order.")
	flags.StringVar(&mode, "mode", "local", "Execution mode: local or remote.")
	flags.StringVar(&outputRoot, "output-root", "", "Base directory of run artifacts. Overrides the environment files.")
	flags.StringVar(&runID, "run-id", "", "Run identifier. A random one is generated per pipeline when empty.")
	flags.StringArrayVar(&inputs, "input", nil, "Bind an external input as name=value. Repeatable.")
	flags.StringVar(&eventsURL, "events-url", "", "socket.io server to stream job state transitions to.")
	flags.StringVar(&eventsNamespace, "events-namespace", "/", "socket.io namespace for run events.")
	flags.IntVar(&healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check and status server. 0 is disabled.")
	_ = cmd.MarkFlagRequired("pipelines")
	return cmd
}
