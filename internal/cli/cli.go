package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/forecastgrid/internal/app"
)

// Exit codes of the forecastgrid process.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) *ExitError {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// failure maps an application error to an exit error. Requests naming
// pipelines that do not exist are usage errors; everything else is a failure.
func failure(err error) *ExitError {
	var selErr *app.SelectionError
	if errors.As(err, &selErr) {
		return usageError(err)
	}
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}

// globalFlags are shared by every command.
type globalFlags struct {
	pipelinesDir string
	configDir    string
	environment  string
	logLevel     string
	logFormat    string
}

func (g *globalFlags) config() app.Config {
	return app.Config{
		PipelinesDir: g.pipelinesDir,
		ConfigDir:    g.configDir,
		Environment:  g.environment,
		LogLevel:     g.logLevel,
		LogFormat:    g.logFormat,
	}
}

// Run parses args and executes the selected command. Every failure is
// returned as an *ExitError: errors raised by cobra before a command runs
// (unknown commands or flags, missing required flags) are usage errors.
func Run(ctx context.Context, outW io.Writer, args []string) error {
	root := newRootCmd(outW)
	root.SetArgs(args)
	root.SetOut(outW)
	root.SetErr(outW)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return usageError(err)
}

func newRootCmd(outW io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "forecastgrid",
		Short: "Run declarative forecasting pipelines locally",
		Long: `forecastgrid executes forecasting workflows described as pipelines of
file-mediated jobs. Pipelines are declared in HCL or in orchestrator-style
YAML, ordered by their data dependencies and run job by job.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.pipelinesDir, "pipelines-dir", "pipelines", "Directory searched for .hcl, .yaml and .yml pipeline files.")
	flags.StringVar(&g.configDir, "config-dir", "environments", "Directory holding defaults.hcl and <environment>.hcl.")
	flags.StringVarP(&g.environment, "environment", "e", "dev", "Environment: dev, test or prod.")
	flags.StringVar(&g.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&g.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	root.AddCommand(newRunCmd(g, outW))
	root.AddCommand(newValidateCmd(g, outW))
	root.AddCommand(newSeedDBCmd(g, outW))
	root.AddCommand(newComponentsCmd(g, outW))
	return root
}

// newApp validates the configuration and builds the application.
func newApp(outW io.Writer, cfg app.Config) (*app.App, error) {
	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	return app.NewApp(outW, validated), nil
}
