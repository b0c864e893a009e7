package logic

import "github.com/roach88/formlogic/internal/form"

// FindBlockingUnit returns the first prevent-submit unit, in declaration
// order, whose conditions are all satisfied. A nil result means the
// submission is allowed. When visible is nil it is computed from answers.
func FindBlockingUnit(f *form.Form, answers form.Answers, visible *VisibleSet) *form.LogicUnit {
	if visible == nil {
		visible = ResolveVisible(f, answers)
	}
	units, _ := BuildSubmitGuardList(f)
	types := fieldTypes(f)

	for i := range units {
		if groupSatisfied(units[i].Conditions, types, answers, visible) {
			unit := units[i]
			return &unit
		}
	}
	return nil
}

// IsSubmitBlocked reports whether any prevent-submit unit applies.
func IsSubmitBlocked(f *form.Form, answers form.Answers, visible *VisibleSet) bool {
	return FindBlockingUnit(f, answers, visible) != nil
}
