package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drifa/tandem/internal/harness"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <scenario.yaml>",
		Short: "Run a scenario and print its canonical trace",
		Long: `Run a scenario and print its canonical trace JSON: the scenario
name, every mutation and committed render pass in order, and the final
state. The output is byte-identical across runs and matches the golden
file format, so it can diff directly against testdata/golden fixtures.

The trace prints even when the scenario's assertions fail; the exit
code still reports the failure.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, args[0], cmd)
		},
	}
}

func runTrace(opts *RootOptions, path string, cmd *cobra.Command) error {
	res, sc, err := executeScenario(opts, path, "")
	if err != nil {
		return err
	}

	data, err := harness.CanonicalTrace(sc.Name, res)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to serialize trace", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)

	if !res.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed with %d error(s)", sc.Name, len(res.Errors)))
	}
	return nil
}
