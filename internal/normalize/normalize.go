// Package normalize converts submitted answers, in whichever physical
// shape they arrive, into the canonical form.Value that the condition
// evaluator and the field validator operate on.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/formlogic/internal/form"
)

// MalformedValueError reports an answer whose shape is not a known shape
// for its field type. Such answers are never coerced.
type MalformedValueError struct {
	FieldID   string
	FieldType form.FieldType
	Shape     string
	Reason    string
}

// Error implements the error interface.
func (e *MalformedValueError) Error() string {
	msg := fmt.Sprintf("malformed %s answer for %s field %s", e.Shape, e.FieldType, e.FieldID)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// IsMalformed reports whether err is, or wraps, a MalformedValueError.
func IsMalformed(err error) bool {
	var me *MalformedValueError
	return errors.As(err, &me)
}

// Normalize converts one response for field into its canonical value.
// A nil answer yields a nil value, which counts as empty.
func Normalize(field form.Field, r form.Response) (form.Value, error) {
	if r.Answer == nil {
		return nil, nil
	}
	malformed := func(reason string) error {
		return &MalformedValueError{FieldID: field.ID, FieldType: field.Type(), Shape: r.Answer.Shape(), Reason: reason}
	}
	if r.FieldType != "" && r.FieldType != field.Type() {
		return nil, malformed(fmt.Sprintf("response declares fieldType %q", r.FieldType))
	}

	switch spec := field.Spec.(type) {
	case form.CheckboxSpec:
		return normalizeCheckbox(spec, r.Answer, malformed)
	case form.RadioSpec:
		a, ok := r.Answer.(form.TextAnswer)
		if !ok {
			return nil, malformed("")
		}
		return normalizeRadio(a), nil
	case form.TableSpec:
		return normalizeTable(r.Answer, malformed)
	case form.AttachmentSpec:
		a, ok := r.Answer.(form.FileAnswer)
		if !ok {
			return nil, malformed("")
		}
		return form.File{Name: a.Name, Size: a.Size}, nil
	case form.ShortTextSpec, form.LongTextSpec, form.NumberSpec, form.DecimalSpec,
		form.DropdownSpec, form.RatingSpec, form.YesNoSpec, form.EmailSpec,
		form.MobileSpec, form.HomeNoSpec, form.DateSpec, form.NricSpec:
		a, ok := r.Answer.(form.TextAnswer)
		if !ok {
			return nil, malformed("")
		}
		if a.OthersInput != "" {
			return nil, malformed("othersInput is only valid on radio fields")
		}
		return form.Text(strings.TrimSpace(a.Text)), nil
	case form.SectionSpec, form.StatementSpec, form.ImageSpec:
		// Any answer on these is rejected by validation, whatever its shape.
		if a, ok := r.Answer.(form.TextAnswer); ok {
			return form.Text(strings.TrimSpace(a.Text)), nil
		}
		return nil, nil
	default:
		return nil, malformed(fmt.Sprintf("unsupported field spec %T", field.Spec))
	}
}

// NormalizeAll normalizes every response whose field exists on f. Responses
// for unknown fields are skipped; callers that care check the response set
// beforehand. The first malformed answer aborts.
func NormalizeAll(f *form.Form, responses []form.Response) (form.Answers, error) {
	answers := make(form.Answers, len(responses))
	for _, r := range responses {
		field, ok := f.Field(r.FieldID)
		if !ok {
			continue
		}
		v, err := Normalize(field, r)
		if err != nil {
			return nil, err
		}
		answers[r.FieldID] = v
	}
	return answers, nil
}

// normalizeRadio folds the client-side others marker into the server
// "Others: <text>" form when the free text is present. Without text the
// marker is kept as is; the evaluator recognizes both.
func normalizeRadio(a form.TextAnswer) form.Value {
	text := strings.TrimSpace(a.Text)
	if text == form.RadioOthersValue {
		input := strings.TrimSpace(a.OthersInput)
		if input != "" {
			return form.Text(form.OthersPrefix + input)
		}
	}
	return form.Text(text)
}

// normalizeTable copies the rows. A bare [] on the wire decodes as an empty
// list and is read here as a table with no rows.
func normalizeTable(answer form.RawAnswer, malformed func(string) error) (form.Value, error) {
	switch a := answer.(type) {
	case form.TableAnswer:
		grid := make(form.Grid, len(a))
		for i, row := range a {
			grid[i] = append([]string(nil), row...)
		}
		return grid, nil
	case form.ListAnswer:
		if len(a) == 0 {
			return form.Grid{}, nil
		}
	}
	return nil, malformed("")
}

func normalizeCheckbox(spec form.CheckboxSpec, answer form.RawAnswer, malformed func(string) error) (form.Value, error) {
	switch a := answer.(type) {
	case form.ListAnswer:
		return fromServerList(spec, a), nil
	case form.ChecksAnswer:
		return fromClientChecks(spec, a, malformed)
	case form.SelectionAnswer:
		return form.Selection{Options: append([]string{}, a.Options...), Others: a.Others}, nil
	default:
		return nil, malformed("")
	}
}

// fromServerList partitions the literal answer strings. An exact match of
// a configured option stays an option even if it starts with the others
// prefix. An unconfigured entry with the prefix is free text. Anything else
// is kept as an option so validation can reject it.
func fromServerList(spec form.CheckboxSpec, answers form.ListAnswer) form.Selection {
	configured := make(map[string]struct{}, len(spec.Options))
	for _, opt := range spec.Options {
		configured[opt] = struct{}{}
	}

	sel := form.Selection{Options: []string{}}
	for _, ans := range answers {
		if _, ok := configured[ans]; ok {
			sel.Options = append(sel.Options, ans)
			continue
		}
		if strings.HasPrefix(ans, form.OthersPrefix) {
			sel.Others = true
			sel.OthersText = append(sel.OthersText, strings.TrimSpace(strings.TrimPrefix(ans, form.OthersPrefix)))
			continue
		}
		sel.Options = append(sel.Options, ans)
	}
	return sel
}

// fromClientChecks reads the positional booleans. The others flag sits one
// past the last configured option.
func fromClientChecks(spec form.CheckboxSpec, a form.ChecksAnswer, malformed func(string) error) (form.Value, error) {
	limit := len(spec.Options)
	if spec.AllowOthers {
		limit++
	}
	if len(a.Checked) > limit {
		return nil, malformed(fmt.Sprintf("%d checkbox states for %d choices", len(a.Checked), limit))
	}

	sel := form.Selection{Options: []string{}}
	for i, checked := range a.Checked {
		if !checked {
			continue
		}
		if i < len(spec.Options) {
			sel.Options = append(sel.Options, spec.Options[i])
			continue
		}
		sel.Others = true
		if input := strings.TrimSpace(a.OthersInput); input != "" {
			sel.OthersText = []string{input}
		}
	}
	return sel, nil
}
