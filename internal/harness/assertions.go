package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/formlogic/internal/submission"
)

// AssertionError is one failed expectation on a submission.
type AssertionError struct {
	Submission string // Submission name
	Check      string // Expect key that failed
	Expected   string // Human-readable expected outcome
	Actual     string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", e.Submission, e.Check, e.Expected, e.Actual)
}

// CheckExpect compares a decision against its expect clause and returns
// one message per failed check. A nil clause checks nothing.
func CheckExpect(name string, e *Expect, d submission.Decision) []string {
	if e == nil {
		return nil
	}

	var failures []string
	fail := func(check, expected, actual string) {
		failures = append(failures, (&AssertionError{
			Submission: name,
			Check:      check,
			Expected:   expected,
			Actual:     actual,
		}).Error())
	}

	if e.Accepted != nil && *e.Accepted != d.Accepted {
		fail("accepted", fmt.Sprint(*e.Accepted), describeRejection(d))
	}
	if e.Visible != nil && !slices.Equal(e.Visible, d.Visible) {
		fail("visible", formatList(e.Visible), formatList(d.Visible))
	}
	for _, id := range e.Hidden {
		if slices.Contains(d.Visible, id) {
			fail("hidden", id+" hidden", id+" visible")
		}
	}
	if e.Blocked != "" && e.Blocked != d.Blocking {
		fail("blocked", e.Blocked, orNone(d.Blocking))
	}
	if e.ErrorCode != "" && e.ErrorCode != string(d.ErrorCode) {
		fail("error_code", e.ErrorCode, orNone(string(d.ErrorCode)))
	}
	if e.InvalidFields != nil && !slices.Equal(e.InvalidFields, d.InvalidFields) {
		fail("invalid_fields", formatList(e.InvalidFields), formatList(d.InvalidFields))
	}
	return failures
}

func describeRejection(d submission.Decision) string {
	if d.Accepted {
		return "true"
	}
	return fmt.Sprintf("false (%s)", d.Message)
}

func formatList(ids []string) string {
	return "[" + strings.Join(ids, ", ") + "]"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
