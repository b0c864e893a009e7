package harness

import "github.com/roach88/formlogic/internal/submission"

// SubmissionResult is the decision reached for one scenario submission.
type SubmissionResult struct {
	Name     string              `json:"name"`
	EntryID  string              `json:"entry_id"`
	Decision submission.Decision `json:"decision"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation held and the journal replayed
	// cleanly.
	Pass bool `json:"pass"`

	// FormID is the id of the form the scenario ran against.
	FormID string `json:"form_id"`

	// Submissions holds one decision per scenario submission, in order.
	Submissions []SubmissionResult `json:"submissions"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Submissions: []SubmissionResult{},
		Errors:      []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
