// Package logic evaluates form logic: conditions, the per-field logic
// index, the visible field set and prevent-submit guards.
//
// Everything here is a pure function of its arguments. Nothing logs and
// nothing is cached between calls, so callers may evaluate concurrently.
package logic

import (
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/formlogic/internal/form"
)

// EvaluateCondition reports whether c holds against v, the normalized
// answer of the condition's field. fieldType is that field's type.
// An unanswered field never satisfies a condition. Unknown states and
// malformed operands evaluate to false.
func EvaluateCondition(c form.Condition, fieldType form.FieldType, v form.Value) bool {
	if form.IsEmpty(v) || c.Value == nil {
		return false
	}

	switch c.State {
	case form.StateEqual, form.StateEither:
		return matchesAny(c.Value, fieldType, v)
	case form.StateLte:
		return compareNumeric(c.Value, v, func(a, b float64) bool { return a <= b })
	case form.StateGte:
		return compareNumeric(c.Value, v, func(a, b float64) bool { return a >= b })
	default:
		return false
	}
}

// matchesAny implements equality against an operand set. A scalar operand
// is a one-element set.
func matchesAny(op form.Operand, fieldType form.FieldType, v form.Value) bool {
	switch val := v.(type) {
	case form.Selection:
		return selectionMatches(op, val)
	case form.Text:
		answer := strings.TrimSpace(string(val))
		wanted := form.TrimmedStrings(op)
		if fieldType == form.TypeRadio && slices.Contains(wanted, form.OthersOption) && isRadioOthers(answer) {
			return true
		}
		if fieldType == form.TypeDecimal {
			return slices.ContainsFunc(wanted, func(w string) bool { return numericEqual(answer, w) })
		}
		return slices.Contains(wanted, answer)
	default:
		return false
	}
}

// isRadioOthers requires the free text. Normalization has already turned a
// client marker that carried text into "Others: <text>", so a bare marker
// here means the others box was ticked but left blank.
func isRadioOthers(answer string) bool {
	text, ok := strings.CutPrefix(answer, form.OthersPrefix)
	return ok && strings.TrimSpace(text) != ""
}

// selectionMatches is satisfied when any checked option is in the operand
// set, or the operand asks for others and others was checked.
func selectionMatches(op form.Operand, sel form.Selection) bool {
	wanted := form.TrimmedStrings(op)
	wantOthers := false
	switch o := op.(type) {
	case form.CheckboxOperand:
		wantOthers = o.Others
	case form.ListOperand, form.ScalarOperand:
		wantOthers = slices.Contains(wanted, form.OthersOption)
	}

	if wantOthers && sel.Others {
		return true
	}
	for _, opt := range sel.Options {
		if slices.Contains(wanted, strings.TrimSpace(opt)) {
			return true
		}
	}
	return false
}

func compareNumeric(op form.Operand, v form.Value, cmp func(a, b float64) bool) bool {
	text, ok := v.(form.Text)
	if !ok {
		return false
	}
	scalar, ok := op.(form.ScalarOperand)
	if !ok {
		return false
	}
	answer, err := parseNumber(string(text))
	if err != nil {
		return false
	}
	operand, err := parseNumber(string(scalar))
	if err != nil {
		return false
	}
	return cmp(answer, operand)
}

func numericEqual(a, b string) bool {
	x, err := parseNumber(a)
	if err != nil {
		return false
	}
	y, err := parseNumber(b)
	if err != nil {
		return false
	}
	return x == y
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
