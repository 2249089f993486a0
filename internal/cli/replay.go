package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drifa/tandem/internal/journal"
	"github.com/drifa/tandem/internal/store"
	"github.com/drifa/tandem/internal/value"
)

// ReplaySummary is the replay command's JSON payload.
type ReplaySummary struct {
	Journal string `json:"journal"`
	Events  int64  `json:"events"`
	State   any    `json:"state"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <journal.db>",
		Short: "Rebuild state from a journal",
		Long: `Rebuild the store from a journal recorded with run --journal and
print the resulting state as canonical JSON.

Replay applies the init event and every mutation in sequence order;
render events are skipped. The printed state is byte-identical to the
live run's final state.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, args[0], cmd)
		},
	}
}

func runReplay(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// sql.Open creates missing files; a typo'd path should fail, not
	// produce an empty journal.
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	j, err := journal.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	ctx := context.Background()
	root, err := j.Replay(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	lastSeq, err := j.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	formatter.VerboseLog("replayed %d event(s) from %s", lastSeq, path)

	exported, err := store.ExportNode(root)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to export replayed state", err)
	}
	state, err := value.MarshalCanonical(exported)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to serialize replayed state", err)
	}

	if formatter.Format == "json" {
		var plain any
		if err := json.Unmarshal(state, &plain); err != nil {
			return WrapExitError(ExitFailure, "failed to decode replayed state", err)
		}
		return formatter.Success(ReplaySummary{Journal: path, Events: lastSeq, State: plain})
	}
	fmt.Fprintf(formatter.Writer, "%s\n", state)
	return nil
}
