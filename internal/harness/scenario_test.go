package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inlineScenario = `
name: inline
description: "Inline form"
form:
  _id: inline
  form_fields:
    - { _id: q, fieldType: yes_no, required: true }
submissions:
  - name: agree
    responses:
      - { _id: q, fieldType: yes_no, answer: "Yes" }
    expect:
      accepted: true
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Inline(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "inline.yaml", inlineScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "inline", scenario.Name)
	assert.Equal(t, "inline", scenario.Form["_id"])
	require.Len(t, scenario.Submissions, 1)
	require.NotNil(t, scenario.Submissions[0].Expect)
	require.NotNil(t, scenario.Submissions[0].Expect.Accepted)
	assert.True(t, *scenario.Submissions[0].Expect.Accepted)

	f, err := scenario.LoadForm()
	require.NoError(t, err)
	assert.Equal(t, "inline", f.ID)
	assert.Len(t, f.Fields, 1)
}

func TestLoadScenario_FormFileRelativeToScenario(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("..", "..", "testdata", "scenarios", "youth_programme.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("..", "..", "testdata", "forms", "programmes.cue"), scenario.FormFile)

	f, err := scenario.LoadForm()
	require.NoError(t, err)
	assert.Equal(t, "youth", f.ID)
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	dir := t.TempDir()
	formsDir := filepath.Join(dir, "forms")
	require.NoError(t, os.MkdirAll(formsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(formsDir, "f.json"),
		[]byte(`{"_id": "f", "form_fields": [{"_id": "q", "fieldType": "yes_no"}]}`), 0644))

	path := writeScenario(t, t.TempDir(), "s.yaml", `
name: based
description: "Form file under a base path"
form_file: forms/f.json
submissions:
  - name: blank
    responses: [{ _id: q, fieldType: yes_no }]
`)

	scenario, err := LoadScenarioWithBasePath(path, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "forms", "f.json"), scenario.FormFile)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "typo.yaml", `
name: typo
description: "Typo in a key"
form: { form_fields: [] }
submission:
  - name: x
    responses: []
`)
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			"missing name",
			"description: d\nform: {form_fields: []}\nsubmissions: [{name: a, responses: []}]\n",
			"name is required",
		},
		{
			"missing description",
			"name: n\nform: {form_fields: []}\nsubmissions: [{name: a, responses: []}]\n",
			"description is required",
		},
		{
			"no form",
			"name: n\ndescription: d\nsubmissions: [{name: a, responses: []}]\n",
			"one of form or form_file is required",
		},
		{
			"both forms",
			"name: n\ndescription: d\nform: {form_fields: []}\nform_file: x.json\nsubmissions: [{name: a, responses: []}]\n",
			"mutually exclusive",
		},
		{
			"form file missing",
			"name: n\ndescription: d\nform_file: missing.cue\nsubmissions: [{name: a, responses: []}]\n",
			"form file not found",
		},
		{
			"no submissions",
			"name: n\ndescription: d\nform: {form_fields: []}\n",
			"submissions list is required",
		},
		{
			"unnamed submission",
			"name: n\ndescription: d\nform: {form_fields: []}\nsubmissions: [{responses: []}]\n",
			"submissions[0]: name is required",
		},
		{
			"duplicate submission",
			"name: n\ndescription: d\nform: {form_fields: []}\nsubmissions: [{name: a, responses: []}, {name: a, responses: []}]\n",
			"duplicate name",
		},
		{
			"no responses key",
			"name: n\ndescription: d\nform: {form_fields: []}\nsubmissions: [{name: a}]\n",
			"responses is required",
		},
		{
			"unknown error code",
			"name: n\ndescription: d\nform: {form_fields: []}\nsubmissions: [{name: a, responses: [], expect: {error_code: E999}}]\n",
			"unknown error_code",
		},
		{
			"accepted with error",
			"name: n\ndescription: d\nform: {form_fields: []}\nsubmissions: [{name: a, responses: [], expect: {accepted: true, error_code: E204}}]\n",
			"cannot also expect an error",
		},
		{
			"bad now",
			"name: n\ndescription: d\nform: {form_fields: []}\nnow: yesterday\nsubmissions: [{name: a, responses: []}]\n",
			"now:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := LoadScenario(writeScenario(t, dir, "s.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadForm_FormIDSelection(t *testing.T) {
	file := filepath.Join("..", "..", "testdata", "forms", "programmes.cue")

	_, err := (&Scenario{FormFile: file}).LoadForm()
	assert.ErrorContains(t, err, "set form_id")

	_, err = (&Scenario{FormFile: file, FormID: "ghost"}).LoadForm()
	assert.ErrorContains(t, err, `form "ghost" not found`)

	f, err := (&Scenario{FormFile: file, FormID: "workshop"}).LoadForm()
	require.NoError(t, err)
	assert.Equal(t, "Workshop sign-up", f.Title)
}
