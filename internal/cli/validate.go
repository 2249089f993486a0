package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/drifa/tandem/internal/scenario"
)

// ValidationResult is the validate command's JSON payload.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	File  string `json:"file"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Validate a scenario file without running it",
		Long: `Validate a scenario file against the schema without running it.

Checks YAML shape and enums against the embedded CUE schema, rejects
unknown fields, and enforces cross-field rules (e.g. a callback step
requires its component to retain a wrapper).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sc, err := scenario.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}
		// Everything else is the file's fault: schema violations,
		// malformed YAML, cross-field rule failures.
		if formatter.Format == "json" {
			_ = formatter.Error(err.Error(), ValidationResult{Valid: false, File: path, Error: err.Error()})
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s\n", err.Error())
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	formatter.VerboseLog("scenario %q: %d component(s), %d step(s), %d assertion(s)",
		sc.Name, len(sc.Components), len(sc.Steps), len(sc.Assertions))

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, File: path})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s valid\n", path)
	return nil
}
