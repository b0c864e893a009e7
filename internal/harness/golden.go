package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/formlogic/internal/form"
	"github.com/roach88/formlogic/internal/submission"
)

// DecisionSnapshot captures the decisions for a scenario run.
// Serialized with canonical JSON for deterministic comparison.
type DecisionSnapshot struct {
	ScenarioName string             `json:"scenario_name"`
	FormID       string             `json:"form_id"`
	Submissions  []SubmissionRecord `json:"submissions"`
}

// SubmissionRecord is one decision in a snapshot. Entry ids are left out
// so renaming a scenario does not churn its decisions.
type SubmissionRecord struct {
	Name     string              `json:"name"`
	Decision submission.Decision `json:"decision"`
}

// Snapshot renders a result as canonical JSON.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snap := DecisionSnapshot{
		ScenarioName: scenarioName,
		FormID:       result.FormID,
		Submissions:  make([]SubmissionRecord, len(result.Submissions)),
	}
	for i, s := range result.Submissions {
		snap.Submissions[i] = SubmissionRecord{Name: s.Name, Decision: s.Decision}
	}
	return form.MarshalCanonical(snap)
}

// RunWithGolden executes a scenario and compares its decisions against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the decisions don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
