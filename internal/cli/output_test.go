package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, buf *bytes.Buffer) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp), buf.String())
	return resp
}

func TestOutputFormatter_JSON(t *testing.T) {
	tests := []struct {
		name      string
		write     func(*OutputFormatter) error
		status    string
		code      string
		wantData  any
		wantExtra bool
	}{
		{
			name:     "success",
			write:    func(f *OutputFormatter) error { return f.Success(map[string]string{"form": "youth"}) },
			status:   "ok",
			wantData: map[string]any{"form": "youth"},
		},
		{
			name:   "error",
			write:  func(f *OutputFormatter) error { return f.Error(ErrCodeLoadFailed, "form load failed", nil) },
			status: "error",
			code:   "E004",
		},
		{
			name: "error with details",
			write: func(f *OutputFormatter) error {
				return f.Error(ErrCodeLoadFailed, "expected label", map[string]any{"file": "forms.cue", "line": 42})
			},
			status:    "error",
			code:      "E004",
			wantExtra: true,
		},
		{
			name:     "fail carries data",
			write:    func(f *OutputFormatter) error { return f.Fail(map[string]bool{"accepted": false}, "E203", "blocked") },
			status:   "error",
			code:     "E203",
			wantData: map[string]any{"accepted": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, tt.write(&OutputFormatter{Format: "json", Writer: buf}))

			resp := decodeResponse(t, buf)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.wantData, resp.Data)
			if tt.code == "" {
				assert.Nil(t, resp.Error)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.wantExtra, resp.Error.Details != nil)
		})
	}
}

func TestOutputFormatter_EmitKeepsAngleBrackets(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}
	require.NoError(t, f.Error("E202", "pattern <[0-9]+> rejected", nil))
	assert.Contains(t, buf.String(), "<[0-9]+>")
	assert.Contains(t, buf.String(), "\n  \"status\"")
}

func TestOutputFormatter_Text(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		write   func(*OutputFormatter) error
		want    string
	}{
		{
			name:  "success",
			write: func(f *OutputFormatter) error { return f.Success("All forms valid") },
			want:  "All forms valid\n",
		},
		{
			name:  "error hides details",
			write: func(f *OutputFormatter) error { return f.Error("E004", "form load failed", "forms.cue") },
			want:  "Error [E004]: form load failed\n",
		},
		{
			name:    "verbose error shows details",
			verbose: true,
			write:   func(f *OutputFormatter) error { return f.Error("E004", "form load failed", "forms.cue") },
			want:    "Error [E004]: form load failed\nDetails: forms.cue\n",
		},
		{
			name:  "fail is left to the command",
			write: func(f *OutputFormatter) error { return f.Fail(nil, "E203", "blocked") },
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, tt.write(&OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	t.Run("quiet", func(t *testing.T) {
		buf := &bytes.Buffer{}
		(&OutputFormatter{Format: "text", Writer: buf}).VerboseLog("Loaded %d form(s)", 2)
		assert.Empty(t, buf.String())
	})

	t.Run("falls back to writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		(&OutputFormatter{Format: "text", Writer: buf, Verbose: true}).VerboseLog("Loaded %d form(s) from %s", 2, "forms.cue")
		assert.Equal(t, "Loaded 2 form(s) from forms.cue\n", buf.String())
	})

	t.Run("prefers err writer", func(t *testing.T) {
		out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}
		f.VerboseLog("Running %s", "youth.yaml")
		assert.Empty(t, out.String())
		assert.Equal(t, "Running youth.yaml\n", errOut.String())
	})
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "missing", NewExitError(ExitCommandError, "missing").Error())

	cause := errors.New("E204")
	wrapped := WrapExitError(ExitFailure, "rejected", cause)
	assert.Equal(t, "rejected: E204", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("plain"), ExitFailure},
		{"command error", NewExitError(ExitCommandError, "missing"), ExitCommandError},
		{"wrapped", fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "journal", errors.New("locked"))), ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}
