package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/formlogic/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name        string   `json:"name"`
	Pass        bool     `json:"pass"`
	Submissions int      `json:"submissions"`
	Errors      []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run submission scenarios",
		Long: `Run YAML submission scenarios through the processor.

Each scenario names a form (inline or form_file, relative to the scenario)
and a list of submissions with expected decisions. Every decision is
journaled in memory and replayed. When golden/<scenario>.golden exists next
to a scenario file, the decisions must also match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  formlogic test ./scenarios
  formlogic test ./scenarios --filter "youth*"
  formlogic test ./scenarios --update
  formlogic test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); err != nil {
		return WrapExitError(ExitCommandError, "scenarios directory not found: "+scenariosDir, err)
	}
	paths, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot list scenarios", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	result := TestResult{Scenarios: []ScenarioResult{}, Total: len(paths)}
	if len(paths) == 0 && !formatter.IsJSON() {
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	for _, path := range paths {
		formatter.VerboseLog("Running %s", path)
		r := runScenario(path, opts.Update)
		result.Scenarios = append(result.Scenarios, r)
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		if !formatter.IsJSON() {
			printScenario(cmd, r)
		}
	}

	if formatter.IsJSON() {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(cmd, result)
}

// findScenarioFiles lists the .yaml and .yml files under dir whose base
// name, without extension, matches the glob filter. An empty filter
// matches everything.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir():
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenario runs one scenario file and, unless update is set, holds its
// decisions against the golden snapshot when one exists.
func runScenario(path string, update bool) ScenarioResult {
	failed := func(name, format string, args ...any) ScenarioResult {
		return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf(format, args...)}}
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return failed(filepath.Base(path), "load: %v", err)
	}
	run, err := harness.Run(scenario)
	if err != nil {
		return failed(scenario.Name, "run: %v", err)
	}

	r := ScenarioResult{
		Name:        scenario.Name,
		Pass:        run.Pass,
		Submissions: len(run.Submissions),
		Errors:      run.Errors,
	}
	snapshot, err := harness.Snapshot(scenario.Name, run)
	if err == nil {
		err = syncGolden(goldenFilePath(path), snapshot, update)
	}
	if err != nil {
		r.Pass = false
		r.Errors = append(r.Errors, err.Error())
	}
	return r
}

var errGoldenMismatch = errors.New("decisions do not match golden file (run with --update to regenerate)")

// syncGolden writes snapshot to path when update is set. Otherwise it
// compares against path, treating a missing file as nothing to compare.
func syncGolden(path string, snapshot []byte, update bool) error {
	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("golden directory: %w", err)
		}
		return os.WriteFile(path, snapshot, 0o644)
	}

	want, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("read golden: %w", err)
	case !bytes.Equal(want, snapshot):
		return errGoldenMismatch
	}
	return nil
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(scenarioFile string) string {
	name := filepath.Base(scenarioFile)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func printScenario(cmd *cobra.Command, r ScenarioResult) {
	w := cmd.OutOrStdout()
	if r.Pass {
		fmt.Fprintf(w, "✓ %s (%d submissions)\n", r.Name, r.Submissions)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", r.Name)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	if result.Failed == 0 {
		return formatter.Success(result)
	}
	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if err := formatter.Fail(result, ErrCodeTestFailed, msg); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
