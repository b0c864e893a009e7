package submission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/formlogic/internal/form"
	"github.com/roach88/formlogic/internal/normalize"
	"github.com/roach88/formlogic/internal/validate"
)

// ErrorCode categorizes a rejected submission.
type ErrorCode string

const (
	// ErrCodeConflict indicates the response set does not line up with
	// the form's answerable fields.
	ErrCodeConflict ErrorCode = "E201"

	// ErrCodeMalformed indicates an answer whose shape is not valid for
	// its field type.
	ErrCodeMalformed ErrorCode = "E202"

	// ErrCodePrevented indicates a prevent-submit logic unit applies.
	ErrCodePrevented ErrorCode = "E203"

	// ErrCodeValidation indicates one or more answers failed validation.
	ErrCodeValidation ErrorCode = "E204"
)

// PreventedMessage is the ProcessingError message for a blocked submission.
const PreventedMessage = "Submission prevented by form logic"

// ConflictError reports a response set that does not contain exactly one
// response per answerable field.
type ConflictError struct {
	Missing    []string
	Duplicated []string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing responses for "+strings.Join(e.Missing, ", "))
	}
	if len(e.Duplicated) > 0 {
		parts = append(parts, "duplicate responses for "+strings.Join(e.Duplicated, ", "))
	}
	return fmt.Sprintf("%s: %s", ErrCodeConflict, strings.Join(parts, "; "))
}

// ProcessingError is a policy rejection raised by form logic.
type ProcessingError struct {
	Message string
	Unit    *form.LogicUnit
}

// Error implements the error interface.
func (e *ProcessingError) Error() string {
	if e.Unit != nil {
		return fmt.Sprintf("%s: %s (logic=%s)", ErrCodePrevented, e.Message, e.Unit.ID)
	}
	return fmt.Sprintf("%s: %s", ErrCodePrevented, e.Message)
}

// ValidationErrors collects every field that failed validation, in form
// order.
type ValidationErrors struct {
	Fields []*validate.FieldError
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("%s: %s", ErrCodeValidation, e.Fields[0].Error())
	}
	msgs := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("%s: %d fields invalid: %s", ErrCodeValidation, len(e.Fields), strings.Join(msgs, "; "))
}

// FieldIDs returns the ids of the invalid fields.
func (e *ValidationErrors) FieldIDs() []string {
	ids := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		ids[i] = fe.FieldID
	}
	return ids
}

// IsConflict returns true if err is, or wraps, a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsMalformed returns true if err is, or wraps, a malformed answer error.
func IsMalformed(err error) bool {
	return normalize.IsMalformed(err)
}

// IsPrevented returns true if err is, or wraps, a ProcessingError.
func IsPrevented(err error) bool {
	var pe *ProcessingError
	return errors.As(err, &pe)
}

// IsValidation returns true if err is, or wraps, ValidationErrors.
func IsValidation(err error) bool {
	var ve *ValidationErrors
	return errors.As(err, &ve)
}

// Code maps a Process error to its category. It returns "" for nil and
// for errors that did not originate in this package's pipeline.
func Code(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case IsConflict(err):
		return ErrCodeConflict
	case IsMalformed(err):
		return ErrCodeMalformed
	case IsPrevented(err):
		return ErrCodePrevented
	case IsValidation(err):
		return ErrCodeValidation
	default:
		return ""
	}
}
