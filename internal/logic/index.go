package logic

import (
	"fmt"

	"github.com/roach88/formlogic/internal/form"
)

// DiagnosticKind classifies why logic was left out of evaluation.
type DiagnosticKind string

const (
	// DiscardMissingConditionField: a condition references a field that
	// is not on the form. The whole unit is dropped.
	DiscardMissingConditionField DiagnosticKind = "missing_condition_field"

	// DiscardMissingShowTarget: a show target is not on the form. Only
	// that target is skipped.
	DiscardMissingShowTarget DiagnosticKind = "missing_show_target"
)

// Diagnostic is an informational record of discarded logic. It is never
// an error; the caller decides whether to log it.
type Diagnostic struct {
	LogicID string         `json:"logic_id"`
	Kind    DiagnosticKind `json:"kind"`
	FieldID string         `json:"field_id"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("logic %s: %s %s", d.LogicID, d.Kind, d.FieldID)
}

// ConditionGroup is one logic unit's conditions. All must hold.
type ConditionGroup struct {
	LogicID    string
	Conditions []form.Condition
}

// Index maps each controlled field to the groups that can show it. A
// field absent from Groups has no controlling logic.
type Index struct {
	Groups      map[string][]ConditionGroup
	Diagnostics []Diagnostic
}

// Controlled reports whether any logic unit targets fieldID.
func (idx Index) Controlled(fieldID string) bool {
	return len(idx.Groups[fieldID]) > 0
}

// BuildIndex groups the form's show-fields units by target field. Units
// whose conditions reference a missing field are discarded whole.
func BuildIndex(f *form.Form) Index {
	fieldIDs := f.FieldIDs()
	idx := Index{Groups: make(map[string][]ConditionGroup)}

	for _, unit := range f.Logic {
		if unit.Type != form.LogicShowFields {
			continue
		}
		if missing, ok := missingConditionField(unit, fieldIDs); ok {
			idx.Diagnostics = append(idx.Diagnostics, Diagnostic{
				LogicID: unit.ID,
				Kind:    DiscardMissingConditionField,
				FieldID: missing,
			})
			continue
		}
		group := ConditionGroup{LogicID: unit.ID, Conditions: unit.Conditions}
		for _, target := range unit.Show {
			if _, ok := fieldIDs[target]; !ok {
				idx.Diagnostics = append(idx.Diagnostics, Diagnostic{
					LogicID: unit.ID,
					Kind:    DiscardMissingShowTarget,
					FieldID: target,
				})
				continue
			}
			idx.Groups[target] = append(idx.Groups[target], group)
		}
	}
	return idx
}

// BuildSubmitGuardList returns the form's prevent-submit units, in
// declaration order, that pass the same existence check as BuildIndex.
func BuildSubmitGuardList(f *form.Form) ([]form.LogicUnit, []Diagnostic) {
	fieldIDs := f.FieldIDs()
	var units []form.LogicUnit
	var diags []Diagnostic

	for _, unit := range f.Logic {
		if unit.Type != form.LogicPreventSubmit {
			continue
		}
		if missing, ok := missingConditionField(unit, fieldIDs); ok {
			diags = append(diags, Diagnostic{
				LogicID: unit.ID,
				Kind:    DiscardMissingConditionField,
				FieldID: missing,
			})
			continue
		}
		units = append(units, unit)
	}
	return units, diags
}

func missingConditionField(unit form.LogicUnit, fieldIDs map[string]struct{}) (string, bool) {
	for _, c := range unit.Conditions {
		if _, ok := fieldIDs[c.Field]; !ok {
			return c.Field, true
		}
	}
	return "", false
}
