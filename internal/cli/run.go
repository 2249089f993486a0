package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drifa/tandem/internal/harness"
	"github.com/drifa/tandem/internal/journal"
	"github.com/drifa/tandem/internal/scenario"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string
}

// RunSummary is the run command's JSON payload.
type RunSummary struct {
	Scenario string         `json:"scenario"`
	Pass     bool           `json:"pass"`
	Commits  map[string]int `json:"commits"`
	Errors   []string       `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and report pass/fail",
		Long: `Run a scenario: mount its components, execute its steps, and
evaluate its assertions.

With --journal the run's init state, mutations, and committed render
passes are appended to a SQLite journal, replayable with the replay
command.

Examples:
  tandem run scenario.yaml
  tandem run scenario.yaml --journal run.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to a SQLite journal to record the run")

	return cmd
}

func runRun(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	res, sc, err := executeScenario(opts.RootOptions, path, opts.Journal)
	if err != nil {
		return err
	}

	summary := RunSummary{
		Scenario: sc.Name,
		Pass:     res.Pass,
		Commits:  res.Commits,
		Errors:   res.Errors,
	}

	if formatter.Format == "json" {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		if res.Pass {
			fmt.Fprintf(formatter.Writer, "✓ %s passed (%d trace events)\n", sc.Name, len(res.Trace))
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s failed\n", sc.Name)
			for _, msg := range res.Errors {
				fmt.Fprintf(formatter.Writer, "%s\n", msg)
			}
		}
	}

	if !res.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed with %d error(s)", sc.Name, len(res.Errors)))
	}
	return nil
}

// executeScenario loads and runs one scenario file, optionally journaled.
// Shared by the run and trace commands.
func executeScenario(opts *RootOptions, path, journalPath string) (*harness.Result, *scenario.Scenario, error) {
	sc, err := scenario.Load(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "failed to load scenario", err)
	}

	cfg := harness.Config{Logger: newLogger(opts)}
	if journalPath != "" {
		j, err := journal.Open(journalPath)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()
		cfg.Journal = j
	}

	res, err := harness.RunWith(sc, cfg)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "scenario run failed", err)
	}
	return res, sc, nil
}
