package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/formlogic/internal/compiler"
	"github.com/roach88/formlogic/internal/form"
)

// FormReport is the lint outcome for one form.
type FormReport struct {
	ID     string               `json:"id"`
	Title  string               `json:"title,omitempty"`
	Fields int                  `json:"fields"`
	Logic  int                  `json:"logic"`
	Digest string               `json:"digest"`
	Issues []compiler.LintIssue `json:"issues"`
}

// CheckResult holds lint results for every form in the input.
type CheckResult struct {
	Valid  bool         `json:"valid"`
	Forms  []FormReport `json:"forms"`
	Errors int          `json:"errors"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <form-path>",
		Short: "Load and lint form definitions",
		Long: `Load form definitions and lint their logic.

The path may be a CUE, JSON or YAML file, or a directory loaded as one CUE
package. Lint errors (E1xx) fail the check; warnings (W1xx) such as logic
cycles are reported but do not.

Exit codes:
  0 - All forms valid
  1 - One or more lint errors
  2 - Command error (path not found, CUE does not compile, etc.)

Examples:
  formlogic check ./forms/programmes.cue
  formlogic check ./forms --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	forms, err := LoadForms(path)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d form(s) from %s", len(forms), path)

	result := CheckResult{Valid: true, Forms: make([]FormReport, 0, len(forms))}
	for _, f := range forms {
		report, err := checkForm(f)
		if err != nil {
			return reportLoadError(formatter, &LoadError{Code: ErrCodeGeneric, Message: err.Error()})
		}
		for _, issue := range report.Issues {
			if issue.Level == compiler.LevelError {
				result.Errors++
			}
		}
		result.Forms = append(result.Forms, report)
	}
	result.Valid = result.Errors == 0

	if formatter.IsJSON() {
		if result.Valid {
			return formatter.Success(result)
		}
		first := firstError(result)
		if err := formatter.Fail(result, first.Code, first.Error()); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("lint failed with %d error(s)", result.Errors))
	}

	return outputCheckText(cmd, result)
}

func checkForm(f *form.Form) (FormReport, error) {
	digest, err := form.FormDigest(f)
	if err != nil {
		return FormReport{}, fmt.Errorf("form %s: %w", f.ID, err)
	}
	issues := compiler.Lint(f)
	if issues == nil {
		issues = []compiler.LintIssue{}
	}
	return FormReport{
		ID:     f.ID,
		Title:  f.Title,
		Fields: len(f.Fields),
		Logic:  len(f.Logic),
		Digest: digest,
		Issues: issues,
	}, nil
}

func firstError(result CheckResult) compiler.LintIssue {
	for _, r := range result.Forms {
		for _, issue := range r.Issues {
			if issue.Level == compiler.LevelError {
				return issue
			}
		}
	}
	return compiler.LintIssue{}
}

// outputCheckText outputs the check result as text.
func outputCheckText(cmd *cobra.Command, result CheckResult) error {
	w := cmd.OutOrStdout()

	for _, r := range result.Forms {
		status := "✓"
		if compiler.HasErrors(r.Issues) {
			status = "✗"
		}
		fmt.Fprintf(w, "%s form %s (%d fields, %d logic units)\n", status, r.ID, r.Fields, r.Logic)
		for _, issue := range r.Issues {
			fmt.Fprintf(w, "  %s %s\n", issue.Level, issue.Error())
		}
	}
	fmt.Fprintln(w)

	if result.Valid {
		fmt.Fprintln(w, "✓ All forms valid")
		return nil
	}

	fmt.Fprintf(w, "✗ Check failed with %d error(s)\n", result.Errors)
	return NewExitError(ExitFailure, fmt.Sprintf("lint failed with %d error(s)", result.Errors))
}
