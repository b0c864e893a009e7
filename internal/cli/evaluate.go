package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/formlogic/internal/form"
	"github.com/roach88/formlogic/internal/journal"
	"github.com/roach88/formlogic/internal/submission"
	"github.com/roach88/formlogic/internal/validate"
)

// EvaluateOptions holds flags for the evaluate command.
type EvaluateOptions struct {
	*RootOptions
	FormID   string
	Database string // optional - journal the decision
	Now      string // optional - RFC3339 time for date restrictions
}

// EvaluateResult holds the decision for one submission.
type EvaluateResult struct {
	FormID   string              `json:"form_id"`
	Digest   string              `json:"digest"`
	EntryID  string              `json:"entry_id,omitempty"`
	Seq      int64               `json:"seq,omitempty"`
	Decision submission.Decision `json:"decision"`
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "evaluate <form-path> <responses-file>",
		Short: "Decide whether a submission is accepted",
		Long: `Evaluate a submission against a form.

Resolves which fields are visible, checks the prevent-submit rules and
validates every visible answer. Responses are a JSON or YAML list in the
form's wire shape. With --db the decision is appended to a SQLite journal
for later replay.

Exit codes:
  0 - Submission accepted
  1 - Submission rejected (E201-E204)
  2 - Command error (unreadable form or responses, journal failure)

Examples:
  formlogic evaluate ./forms/programmes.cue answers.json --form youth
  formlogic evaluate form.json answers.yaml --db ./journal.db
  formlogic evaluate form.json answers.json --now 2024-03-15T09:00:00+08:00`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.FormID, "form", "", "form id when the path declares several forms")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal the decision to this SQLite database")
	cmd.Flags().StringVar(&opts.Now, "now", "", "evaluate date restrictions at this RFC3339 time")

	return cmd
}

func runEvaluate(opts *EvaluateOptions, formPath, responsesPath string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	now := time.Now()
	if opts.Now != "" {
		var err error
		if now, err = time.Parse(time.RFC3339, opts.Now); err != nil {
			return reportLoadError(formatter, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("invalid --now: %v", err)})
		}
	}

	forms, err := LoadForms(formPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	f, err := SelectForm(forms, opts.FormID, formPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	responses, err := LoadResponses(responsesPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Evaluating %d response(s) against form %s", len(responses), f.ID)

	p := submission.New(
		submission.WithLogger(slog.Default()),
		submission.WithValidator(validate.New(validate.WithClock(func() time.Time { return now }))),
	)
	d := p.Decide(f, responses)

	digest, err := form.SubmissionDigest(f, responses)
	if err != nil {
		return reportLoadError(formatter, &LoadError{Code: ErrCodeGeneric, Message: err.Error()})
	}
	result := EvaluateResult{FormID: f.ID, Digest: digest, Decision: d}

	if opts.Database != "" {
		entry, err := journalDecision(ctx, opts.Database, f, responses, d, now)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to journal decision", err)
		}
		result.EntryID = entry.ID
		result.Seq = entry.Seq
		formatter.VerboseLog("Journaled as %s (seq %d)", entry.ID, entry.Seq)
	}

	if formatter.IsJSON() {
		if d.Accepted {
			return formatter.Success(result)
		}
		if err := formatter.Fail(result, string(d.ErrorCode), d.Message); err != nil {
			return err
		}
		return NewExitError(ExitFailure, d.Message)
	}

	return outputEvaluateText(cmd, result)
}

func journalDecision(ctx context.Context, path string, f *form.Form, responses []form.Response, d submission.Decision, now time.Time) (journal.Entry, error) {
	st, err := journal.Open(path)
	if err != nil {
		return journal.Entry{}, err
	}
	defer st.Close()

	entry, err := journal.NewEntry(f, responses, d, now)
	if err != nil {
		return journal.Entry{}, err
	}
	return st.Record(ctx, entry)
}

// outputEvaluateText outputs the decision as text.
func outputEvaluateText(cmd *cobra.Command, result EvaluateResult) error {
	w := cmd.OutOrStdout()
	d := result.Decision

	if d.Accepted {
		fmt.Fprintf(w, "✓ Submission accepted (form %s)\n", result.FormID)
	} else {
		fmt.Fprintf(w, "✗ Submission rejected (form %s)\n", result.FormID)
		fmt.Fprintf(w, "  %s\n", d.Message)
	}
	fmt.Fprintf(w, "  Visible: %s\n", strings.Join(d.Visible, ", "))
	if d.Blocking != "" {
		fmt.Fprintf(w, "  Blocked by: %s\n", d.Blocking)
	}
	if len(d.InvalidFields) > 0 {
		fmt.Fprintf(w, "  Invalid fields: %s\n", strings.Join(d.InvalidFields, ", "))
	}
	if result.EntryID != "" {
		fmt.Fprintf(w, "  Journaled as %s (seq %d)\n", result.EntryID, result.Seq)
	}

	if d.Accepted {
		return nil
	}
	return NewExitError(ExitFailure, d.Message)
}
