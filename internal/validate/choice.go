package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/formlogic/internal/form"
)

func checkDropdown(spec form.DropdownSpec, s string) string {
	if !slices.Contains(spec.Options, s) {
		return "answer is not a valid option"
	}
	return ""
}

// checkRadio accepts a configured option, or "Others: <text>" when the
// field allows others. A configured option wins over the others reading.
func checkRadio(spec form.RadioSpec, s string) string {
	if slices.Contains(spec.Options, s) {
		return ""
	}
	if spec.AllowOthers && strings.HasPrefix(s, form.OthersPrefix) {
		if strings.TrimSpace(strings.TrimPrefix(s, form.OthersPrefix)) == "" {
			return "others answer is empty"
		}
		return ""
	}
	return "answer is not a valid option"
}

func checkCheckbox(spec form.CheckboxSpec, sel form.Selection) string {
	seen := make(map[string]bool, len(sel.Options))
	for _, opt := range sel.Options {
		if !slices.Contains(spec.Options, opt) {
			return fmt.Sprintf("%q is not a valid option", opt)
		}
		if seen[opt] {
			return fmt.Sprintf("%q is selected more than once", opt)
		}
		seen[opt] = true
	}

	if sel.Others {
		if !spec.AllowOthers {
			return "others is not enabled for this field"
		}
		if len(sel.OthersText) > 1 {
			return "more than one others answer"
		}
		for _, text := range sel.OthersText {
			if strings.TrimSpace(text) == "" {
				return "others answer is empty"
			}
		}
	}

	if spec.ValidateByValue && spec.Limits != nil {
		count := len(sel.Options)
		if sel.Others {
			count++
		}
		if spec.Limits.Min > 0 && count < spec.Limits.Min {
			return fmt.Sprintf("at least %d options must be selected", spec.Limits.Min)
		}
		if spec.Limits.Max > 0 && count > spec.Limits.Max {
			return fmt.Sprintf("at most %d options may be selected", spec.Limits.Max)
		}
	}
	return ""
}
