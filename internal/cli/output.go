package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit statuses.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the input was read but judged bad: rejection, lint error, mismatch
	ExitCommandError = 2 // the input could not be read at all
)

// CLI-level codes for CLIError.Code. A rejected submission reports its
// E2xx decision code and a failed check its first E1xx lint code.
const (
	ErrCodeGeneric       = "E001"
	ErrCodeScanError     = "E002" // walking a form directory
	ErrCodeNoFiles       = "E003" // directory holds no .cue files
	ErrCodeLoadFailed    = "E004" // form did not compile or decode
	ErrCodeNotFound      = "E005" // path, form id or journal missing
	ErrCodeFormAmbiguous = "E006" // several forms and no --form
	ErrCodeWriteFailed   = "E007"
	ErrCodeResponses     = "E008" // responses file unreadable
	ErrCodeJournal       = "E009"
	ErrCodeReplay        = "E010"
	ErrCodeTestFailed    = "E011"
)

// ExitError carries the process exit status a command wants.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps a command's error to an exit status. Errors that carry
// no ExitError count as ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	default:
		return ExitFailure
	}
}

// CLIResponse is the envelope of every --format json document.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes why a command did not succeed.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as a CLIResponse.
// Diagnostics go to ErrWriter so they never interleave with JSON on Writer.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// IsJSON reports whether output is machine-readable.
func (f *OutputFormatter) IsJSON() bool {
	return f.Format == "json"
}

// Success reports data as the command's result.
func (f *OutputFormatter) Success(data any) error {
	if !f.IsJSON() {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return f.Emit(CLIResponse{Status: "ok", Data: data})
}

// Error reports a failure that produced no result.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.IsJSON() {
		return f.Emit(CLIResponse{Status: "error", Error: &CLIError{code, message, details}})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if details != nil && f.Verbose {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports a failure together with the result that explains it, such
// as a rejected decision. It writes nothing in text mode; commands print
// their own summaries there.
func (f *OutputFormatter) Fail(data any, code, message string) error {
	if !f.IsJSON() {
		return nil
	}
	return f.Emit(CLIResponse{Status: "error", Data: data, Error: &CLIError{Code: code, Message: message}})
}

// Emit writes resp as indented JSON. Field patterns such as "<" stay
// readable.
func (f *OutputFormatter) Emit(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// VerboseLog writes a diagnostic line when --verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter is ErrWriter, or Writer when none was given.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}
