package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/objstore/internal/harness"
	"github.com/roach88/objstore/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print its trace",
		Long: `Run one scenario on a fresh store and print the step trace and the
final owner of every bound record.

With --db (or database in the config file) every transaction is also
journaled to SQLite.

Exit codes:
  0 - Scenario passed
  1 - A step or assertion failed
  2 - Command error (unreadable scenario, journal failure, etc.)

Examples:
  objstore run scenarios/escrow_swap.yaml
  objstore run --db ./objstore.db scenarios/hero_equip.yaml
  objstore run --format json scenarios/hero_equip.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (overrides config)")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	sc, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	hopts := []harness.Option{harness.WithConfig(opts.Config)}
	db := opts.Database
	if db == "" {
		db = opts.Config.Database
	}
	if db != "" {
		j, err := store.Open(db)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if err := j.Close(); err != nil {
				slog.Error("error closing journal", "error", err)
			}
		}()
		hopts = append(hopts, harness.WithJournal(j))
		formatter.VerboseLog("Journaling to %s", db)
	}

	result, err := harness.Run(commandContext(cmd), sc, hopts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	if !result.Pass {
		msg := fmt.Sprintf("scenario %s failed", sc.Name)
		if err := formatter.Failure(ErrCodeScenarioFailed, msg, result, func(w io.Writer) {
			writeResult(w, result)
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(result, func(w io.Writer) {
		writeResult(w, result)
	})
}

func writeResult(w io.Writer, result *harness.Result) {
	fmt.Fprint(w, result.Render())
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
