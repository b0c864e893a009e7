// Package validate checks one normalized answer against its field's
// configuration.
//
// Each call is independent of every other field except through the
// visible flag the caller passes in. A Validator holds only a clock, so a
// single instance is safe for concurrent use.
package validate

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/formlogic/internal/form"
)

// Messages shared with callers that match on them.
const (
	HiddenFieldMessage = "Attempted to submit response on a hidden field"
	RequiredMessage    = "Answer is required"
	AdminFieldMessage  = "Field type does not accept answers"
	WrongShapeMessage  = "Answer has the wrong shape for this field type"
)

// FieldError is a validation failure for one field.
type FieldError struct {
	FieldID   string         `json:"field_id"`
	FieldType form.FieldType `json:"field_type"`
	Reason    string         `json:"reason"`
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s field %s: %s", e.FieldType, e.FieldID, e.Reason)
}

// IsHiddenFieldError reports whether err is a FieldError for an answer on
// a hidden field.
func IsHiddenFieldError(err error) bool {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Reason == HiddenFieldMessage
	}
	return false
}

// Validator validates answers. The zero value is not usable; call New.
type Validator struct {
	now func() time.Time
	loc *time.Location
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the clock used for date restrictions.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// WithLocation overrides the zone in which "today" is computed. Defaults
// to Singapore time.
func WithLocation(loc *time.Location) Option {
	return func(v *Validator) {
		v.loc = loc
	}
}

// singapore is fixed at UTC+8; it has no daylight saving.
var singapore = time.FixedZone("SGT", 8*60*60)

// New returns a Validator using the wall clock and Singapore time.
func New(opts ...Option) *Validator {
	v := &Validator{now: time.Now, loc: singapore}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Field validates value for field. visible is the field's membership in
// the resolved visible set. It returns nil or a *FieldError.
func (v *Validator) Field(field form.Field, value form.Value, visible bool) error {
	fail := func(reason string) error {
		return &FieldError{FieldID: field.ID, FieldType: field.Type(), Reason: reason}
	}

	if field.Type().IsAdmin() {
		return fail(AdminFieldMessage)
	}
	empty := form.IsEmpty(value)
	if !visible && !empty {
		return fail(HiddenFieldMessage)
	}
	if empty {
		if field.Required && visible {
			return fail(RequiredMessage)
		}
		return nil
	}

	reason := v.check(field, value)
	if reason != "" {
		return fail(reason)
	}
	return nil
}

// check dispatches on the field spec. It returns "" when the answer is
// valid and a human-readable reason otherwise.
func (v *Validator) check(field form.Field, value form.Value) string {
	switch spec := field.Spec.(type) {
	case form.ShortTextSpec:
		return withText(value, func(s string) string { return checkTextLength(spec.Length, s) })
	case form.LongTextSpec:
		return withText(value, func(s string) string { return checkTextLength(spec.Length, s) })
	case form.NumberSpec:
		return withText(value, func(s string) string { return checkNumber(spec, s) })
	case form.DecimalSpec:
		return withText(value, func(s string) string { return checkDecimal(spec, s) })
	case form.RatingSpec:
		return withText(value, func(s string) string { return checkRating(spec, s) })
	case form.YesNoSpec:
		return withText(value, checkYesNo)
	case form.NricSpec:
		return withText(value, checkNric)
	case form.DropdownSpec:
		return withText(value, func(s string) string { return checkDropdown(spec, s) })
	case form.RadioSpec:
		return withText(value, func(s string) string { return checkRadio(spec, s) })
	case form.CheckboxSpec:
		sel, ok := value.(form.Selection)
		if !ok {
			return WrongShapeMessage
		}
		return checkCheckbox(spec, sel)
	case form.EmailSpec:
		return withText(value, func(s string) string { return checkEmail(spec, s) })
	case form.MobileSpec:
		return withText(value, func(s string) string { return checkMobile(spec, s) })
	case form.HomeNoSpec:
		return withText(value, func(s string) string { return checkHomeNo(spec, s) })
	case form.DateSpec:
		return withText(value, func(s string) string { return v.checkDate(spec, s) })
	case form.TableSpec:
		grid, ok := value.(form.Grid)
		if !ok {
			return WrongShapeMessage
		}
		return checkTable(spec, grid)
	case form.AttachmentSpec:
		file, ok := value.(form.File)
		if !ok {
			return WrongShapeMessage
		}
		return checkAttachment(spec, file)
	case form.SectionSpec, form.StatementSpec, form.ImageSpec:
		return AdminFieldMessage
	default:
		return fmt.Sprintf("unsupported field spec %T", field.Spec)
	}
}

func withText(value form.Value, fn func(string) string) string {
	text, ok := value.(form.Text)
	if !ok {
		return WrongShapeMessage
	}
	return fn(string(text))
}
