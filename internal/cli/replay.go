package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/formlogic/internal/journal"
	"github.com/roach88/formlogic/internal/submission"
)

// ReplayOptions are the replay command's flags.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// NewReplayCommand returns "formlogic replay".
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the decision journal and verify determinism",
		Long: `Replay every journaled submission and verify its decision.

Each entry is re-decided twice with the validator clock pinned to the time
it was first decided. Both runs must agree with each other and with the
recorded decision, and the stored submission must still hash to its
recorded digest.

Exit codes:
  0 - Every entry reproduced its decision
  1 - One or more mismatches
  2 - Journal missing or unreadable

Examples:
  formlogic replay --db ./journal.db
  formlogic replay --db ./journal.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	// Opening a missing path would create an empty journal.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("journal not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	st, err := journal.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	result, err := journal.Replay(ctx, st, journal.AtDecisionTime(submission.WithLogger(slog.Default())))
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to replay journal", err)
	}

	if formatter.IsJSON() {
		if result.OK() {
			return formatter.Success(result)
		}
		msg := fmt.Sprintf("%d of %d entries did not replay", len(result.Mismatches), result.Checked)
		if err := formatter.Fail(result, ErrCodeReplay, msg); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	return outputReplayText(cmd, result, opts.Verbose)
}

// outputReplayText lists each mismatch, then a verdict line.
func outputReplayText(cmd *cobra.Command, result *journal.ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.Checked == 0 {
		fmt.Fprintln(w, "No entries found in journal.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d entr%s\n", result.Checked, plural(result.Checked, "y", "ies"))
	for _, m := range result.Mismatches {
		fmt.Fprintf(w, "✗ Entry %s (seq %d): %s\n", m.EntryID, m.Seq, m.Reason)
		if m.Detail != "" {
			fmt.Fprintf(w, "  %s\n", m.Detail)
		}
		if verbose && m.Reason != journal.ReasonUndecodable && m.Reason != journal.ReasonDigestChanged {
			fmt.Fprintf(w, "  recorded: %s\n", describeDecision(m.Want))
			fmt.Fprintf(w, "  replayed: %s\n", describeDecision(m.Got))
		}
	}
	fmt.Fprintln(w)

	if result.OK() {
		fmt.Fprintln(w, "✓ All entries verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}

func describeDecision(d submission.Decision) string {
	if d.Accepted {
		return "accepted"
	}
	return fmt.Sprintf("rejected (%s)", d.Message)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
