package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formlogic/internal/journal"
)

const (
	adultResponses = `[
  {"_id": "age", "fieldType": "number", "answer": "30"},
  {"_id": "guardian", "fieldType": "textfield", "answer": ""}
]`
	childResponses = `[
  {"_id": "age", "fieldType": "number", "answer": "10"},
  {"_id": "guardian", "fieldType": "textfield", "answer": "Mum"}
]`
	unaccompaniedTeenResponses = `[
  {"_id": "age", "fieldType": "number", "answer": "15"},
  {"_id": "guardian", "fieldType": "textfield", "answer": ""}
]`
)

func TestEvaluate_Accepted(t *testing.T) {
	responses := writeFile(t, t.TempDir(), "adult.json", adultResponses)

	out, err := execute(t, "evaluate", programmesCUE, responses, "--form", "youth")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Submission accepted (form youth)")
	assert.Contains(t, out, "Visible: age\n")
	assert.NotContains(t, out, "Journaled")
}

func TestEvaluate_Blocked(t *testing.T) {
	responses := writeFile(t, t.TempDir(), "child.json", childResponses)

	out, err := execute(t, "evaluate", programmesCUE, responses, "--form", "youth")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Submission rejected (form youth)")
	assert.Contains(t, out, "E203")
	assert.Contains(t, out, "Blocked by: too-young")
}

func TestEvaluate_InvalidField(t *testing.T) {
	responses := writeFile(t, t.TempDir(), "teen.json", unaccompaniedTeenResponses)

	out, err := execute(t, "evaluate", programmesCUE, responses, "--form", "youth")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Visible: age, guardian")
	assert.Contains(t, out, "Invalid fields: guardian")
}

func TestEvaluate_YAMLResponses(t *testing.T) {
	responses := writeFile(t, t.TempDir(), "adult.yaml", `
- { _id: age, fieldType: number, answer: "30" }
- { _id: guardian, fieldType: textfield, answer: "" }
`)

	out, err := execute(t, "evaluate", programmesCUE, responses, "--form", "youth")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Submission accepted")
}

func TestEvaluate_PinnedNow(t *testing.T) {
	responses := writeFile(t, t.TempDir(), "late.json", `[
  {"_id": "sessions", "fieldType": "checkbox", "answerArray": ["Afternoon"]},
  {"_id": "lunch", "fieldType": "yes_no", "answer": ""},
  {"_id": "start", "fieldType": "date", "answer": "14 Mar 2024"}
]`)

	out, err := execute(t, "evaluate", programmesCUE, responses,
		"--form", "workshop", "--now", "2024-03-15T09:00:00+08:00")
	require.Error(t, err)
	assert.Contains(t, out, "Invalid fields: start")

	_, err = execute(t, "evaluate", programmesCUE, responses,
		"--form", "workshop", "--now", "2024-03-14T09:00:00+08:00")
	require.NoError(t, err)
}

func TestEvaluate_JSON(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "evaluate", programmesCUE, writeFile(t, dir, "adult.json", adultResponses),
		"--form", "youth", "--format", "json")
	require.NoError(t, err)

	var ok struct {
		Status string         `json:"status"`
		Data   EvaluateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ok))
	assert.Equal(t, "ok", ok.Status)
	assert.Equal(t, "youth", ok.Data.FormID)
	assert.Len(t, ok.Data.Digest, 64)
	assert.True(t, ok.Data.Decision.Accepted)
	assert.Equal(t, []string{"age"}, ok.Data.Decision.Visible)

	out, err = execute(t, "evaluate", programmesCUE, writeFile(t, dir, "child.json", childResponses),
		"--form", "youth", "--format", "json")
	require.Error(t, err)

	var rejected struct {
		Status string         `json:"status"`
		Data   EvaluateResult `json:"data"`
		Error  *CLIError      `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rejected))
	assert.Equal(t, "error", rejected.Status)
	require.NotNil(t, rejected.Error)
	assert.Equal(t, "E203", rejected.Error.Code)
	assert.Equal(t, "too-young", rejected.Data.Decision.Blocking)
}

func TestEvaluate_Journal(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "journal.db")

	out, err := execute(t, "evaluate", programmesCUE, writeFile(t, dir, "adult.json", adultResponses),
		"--form", "youth", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "(seq 1)")

	_, err = execute(t, "evaluate", programmesCUE, writeFile(t, dir, "child.json", childResponses),
		"--form", "youth", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	st, err := journal.Open(db)
	require.NoError(t, err)
	defer st.Close()

	entries, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "youth", entries[0].FormID)
	assert.True(t, entries[0].Decision.Accepted)
	assert.Equal(t, "too-young", entries[1].Decision.Blocking)
	assert.False(t, entries[1].DecidedAt.IsZero())
}

func TestEvaluate_CommandErrors(t *testing.T) {
	dir := t.TempDir()
	adult := writeFile(t, dir, "adult.json", adultResponses)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"ambiguous form", []string{programmesCUE, adult}, "E006"},
		{"unknown form", []string{programmesCUE, adult, "--form", "ghost"}, "E005"},
		{"missing form file", []string{filepath.Join(dir, "nope.cue"), adult}, "E005"},
		{"missing responses", []string{programmesCUE, filepath.Join(dir, "nope.json"), "--form", "youth"}, "E005"},
		{"malformed responses", []string{programmesCUE, writeFile(t, dir, "bad.json", `{"_id": "age"}`), "--form", "youth"}, "E008"},
		{"bad now", []string{programmesCUE, adult, "--form", "youth", "--now", "tomorrow"}, "E001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"evaluate"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}
