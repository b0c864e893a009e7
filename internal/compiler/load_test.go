package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formlogic/internal/form"
)

func TestLoadCUEMultipleForms(t *testing.T) {
	forms, err := LoadFile(filepath.Join("testdata", "forms.cue"))
	require.NoError(t, err)
	require.Len(t, forms, 2)

	elig := forms[0]
	assert.Equal(t, "eligibility", elig.ID, "key is the default id")
	assert.Equal(t, "Eligibility check", elig.Title)
	require.Len(t, elig.Fields, 2)
	assert.Equal(t, form.TypeNumber, elig.Fields[0].Type())
	assert.True(t, elig.Fields[0].Required)
	require.Len(t, elig.Logic, 1)
	assert.Equal(t, form.ScalarOperand("18"), elig.Logic[0].Conditions[0].Value)

	fb := forms[1]
	assert.Equal(t, "feedback-2024", fb.ID, "explicit _id wins")
	assert.Equal(t, form.RatingSpec{Steps: 5}, fb.Fields[0].Spec)
	assert.Equal(t, form.RadioSpec{Options: []string{"Red", "Blue"}, AllowOthers: true}, fb.Fields[1].Spec)
}

func TestLoadFormatsAgree(t *testing.T) {
	fromCUE, err := LoadFile(filepath.Join("testdata", "forms.cue"))
	require.NoError(t, err)
	fromJSON, err := LoadFile(filepath.Join("testdata", "eligibility.json"))
	require.NoError(t, err)
	fromYAML, err := LoadFile(filepath.Join("testdata", "eligibility.yaml"))
	require.NoError(t, err)

	require.Len(t, fromJSON, 1)
	require.Len(t, fromYAML, 1)
	assert.Equal(t, fromJSON[0], fromCUE[0])
	assert.Equal(t, fromJSON[0], fromYAML[0])

	jsonDigest, err := form.FormDigest(fromJSON[0])
	require.NoError(t, err)
	yamlDigest, err := form.FormDigest(fromYAML[0])
	require.NoError(t, err)
	assert.Equal(t, jsonDigest, yamlDigest)
}

func TestLoadDir(t *testing.T) {
	forms, err := LoadDir(filepath.Join("testdata", "dir"))
	require.NoError(t, err)
	require.Len(t, forms, 1)

	f := forms[0]
	assert.Equal(t, "signup", f.ID)
	assert.Equal(t, "Sign up", f.Title)
	assert.Len(t, f.Fields, 3)
	require.Len(t, f.Logic, 1)
	assert.Equal(t, []string{"card"}, f.Logic[0].Show)
}

func TestLoadDirErrors(t *testing.T) {
	_, err := LoadDir(filepath.Join("testdata", "missing"))
	assert.Error(t, err)

	_, err = LoadDir(filepath.Join("testdata", "eligibility.json"))
	assert.ErrorContains(t, err, "not a directory")

	_, err = LoadDir(t.TempDir())
	assert.ErrorContains(t, err, "no CUE files")
}

func TestLoadCUESyntaxErrorHasPosition(t *testing.T) {
	_, err := LoadCUE([]byte("form: broken: {\n\ttitle: \n"), "broken.cue")
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestLoadCUESchemaRejectsUnknownFieldType(t *testing.T) {
	src := `form: bad: form_fields: [{"_id": "x", fieldType: "slider"}]`
	_, err := LoadCUE([]byte(src), "bad.cue")
	assert.Error(t, err)
}

func TestLoadCUESchemaRejectsUnknownFormKey(t *testing.T) {
	src := `form: bad: {
	form_fields: []
	form_logic: []
}`
	_, err := LoadCUE([]byte(src), "bad.cue")
	assert.Error(t, err)
}

func TestLoadCUEIncompleteValue(t *testing.T) {
	src := `form: open: form_fields: [{"_id": string, fieldType: "textfield"}]`
	_, err := LoadCUE([]byte(src), "open.cue")
	assert.Error(t, err)
}

func TestLoadCUENoForms(t *testing.T) {
	_, err := LoadCUE([]byte(`other: 1`), "none.cue")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "form", ce.Field)
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.txt")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "unsupported form file extension")
}

func TestLoadYAMLErrors(t *testing.T) {
	_, err := LoadYAML([]byte(""))
	assert.ErrorContains(t, err, "empty form document")

	_, err = LoadYAML([]byte("form_fields: [{fieldType: number}]"))
	assert.ErrorContains(t, err, "_id is required")

	_, err = LoadYAML([]byte("form_fields: [\n"))
	assert.Error(t, err)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "form.x", Message: "bad"}
	assert.Equal(t, "form.x: bad", err.Error())
}
