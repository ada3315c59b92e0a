package cli

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vk/plugflow/internal/app"
)

// Commands selectable on the command line.
const (
	CommandRun      = "run"
	CommandValidate = "validate"
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

// Invocation is a parsed command line: the command to run and its
// validated configuration.
type Invocation struct {
	Command string
	Config  *app.Config
}

type flags struct {
	modulesPath     string
	logLevel        string
	logFormat       string
	workers         int
	healthcheckPort int
	sets            []string
	requests        []string
}

// Parse processes command-line arguments. It returns the invocation, a
// boolean indicating if the program should exit cleanly (help was printed),
// or an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		f   flags
		inv *Invocation
	)
	selected := func(command string) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, pos []string) error {
			cfg := app.Config{
				ModulesPath:     f.modulesPath,
				LogFormat:       f.logFormat,
				LogLevel:        f.logLevel,
				WorkerCount:     f.workers,
				HealthcheckPort: f.healthcheckPort,
				Sets:            f.sets,
				Requests:        f.requests,
			}
			if len(pos) > 0 {
				cfg.GridPath = pos[0]
			}
			validated, err := app.NewConfig(cfg)
			if err != nil {
				return err
			}
			inv = &Invocation{Command: command, Config: validated}
			return nil
		}
	}

	root := &cobra.Command{
		Use:   "plugflow",
		Short: "Incremental dataflow evaluation of plug graphs.",
		Long: `plugflow loads plugin manifests that declare node types, builds the
grid of instances and connections described by GRID_PATH and evaluates the
requested plugs, recomputing only what changed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetArgs(args)
	root.SetOut(output)
	root.SetErr(output)

	pf := root.PersistentFlags()
	pf.StringVar(&f.modulesPath, "modules-path", "modules", "Path to the directory containing plugin manifests.")
	pf.StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.IntVar(&f.workers, "workers", 10, "Number of concurrent workers for the executor.")

	runCmd := &cobra.Command{
		Use:   "run [flags] GRID_PATH",
		Short: "Evaluate the requested plugs of a grid.",
		Args:  cobra.ExactArgs(1),
		RunE:  selected(CommandRun),
	}
	runCmd.Flags().IntVar(&f.healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	runCmd.Flags().StringArrayVar(&f.sets, "set", nil, "Override an instance input, as inst.plug=EXPR. Repeatable.")
	runCmd.Flags().StringArrayVar(&f.requests, "request", nil, "Evaluate an extra plug address. Repeatable.")

	validateCmd := &cobra.Command{
		Use:   "validate [flags] [GRID_PATH]",
		Short: "Load manifests and an optional grid without evaluating anything.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  selected(CommandValidate),
	}

	root.AddCommand(runCmd, validateCmd)

	if err := root.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if inv == nil {
		// Help or bare invocation: cobra already printed the usage.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "command", inv.Command)
	return inv, false, nil
}
