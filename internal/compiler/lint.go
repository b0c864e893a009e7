package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/formlogic/internal/form"
)

// Lint issue codes (E101-E110)
const (
	ErrDuplicateFieldID     = "E101" // two fields share an id
	ErrConditionFieldAbsent = "E102" // condition references a missing field
	ErrShowTargetAbsent     = "E103" // show list references a missing field
	ErrStateNotApplicable   = "E104" // state not allowed for the condition field's type
	ErrNoConditions         = "E105" // unit has no conditions
	ErrEmptyShowList        = "E106" // show-fields unit shows nothing
	ErrPreventWithShow      = "E107" // prevent-submit unit carries a show list
	ErrOperandShape         = "E108" // operand shape does not fit the state
	ErrUnknownLogicType     = "E109" // logic type is neither show nor prevent
	ErrSelfCondition        = "E110" // unit shows a field it conditions on

	WarnLogicCycle = "W101" // fields gated on each other in a cycle
)

// Severity levels for lint issues.
const (
	LevelError   = "error"
	LevelWarning = "warning"
)

// LintIssue is one problem found in a form definition.
type LintIssue struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Field   string `json:"field,omitempty"`
	LogicID string `json:"logic_id,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (i LintIssue) Error() string {
	var where []string
	if i.LogicID != "" {
		where = append(where, "logic "+i.LogicID)
	}
	if i.Field != "" {
		where = append(where, "field "+i.Field)
	}
	if len(where) == 0 {
		return fmt.Sprintf("[%s] %s", i.Code, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Code, strings.Join(where, ", "), i.Message)
}

// HasErrors reports whether any issue is an error rather than a warning.
func HasErrors(issues []LintIssue) bool {
	return slices.ContainsFunc(issues, func(i LintIssue) bool { return i.Level == LevelError })
}

// applicableStates lists the condition states each logic-capable field
// type accepts. Types not listed cannot be used in conditions.
var applicableStates = map[form.FieldType][]form.State{
	form.TypeDropdown: {form.StateEqual, form.StateEither},
	form.TypeRadio:    {form.StateEqual, form.StateEither},
	form.TypeCheckbox: {form.StateEqual, form.StateEither},
	form.TypeNumber:   {form.StateEqual, form.StateLte, form.StateGte},
	form.TypeDecimal:  {form.StateEqual, form.StateLte, form.StateGte},
	form.TypeRating:   {form.StateEqual, form.StateLte, form.StateGte},
	form.TypeYesNo:    {form.StateEqual},
}

// ApplicableStates returns the condition states allowed on a field type.
func ApplicableStates(t form.FieldType) []form.State {
	return slices.Clone(applicableStates[t])
}

// Lint checks a form's fields and logic. Returns all issues found (does
// not fail-fast). Logic cycles are reported as warnings.
func Lint(f *form.Form) []LintIssue {
	var issues []LintIssue

	types := make(map[string]form.FieldType, len(f.Fields))
	for _, fld := range f.Fields {
		if _, dup := types[fld.ID]; dup {
			issues = append(issues, LintIssue{
				Code:    ErrDuplicateFieldID,
				Level:   LevelError,
				Field:   fld.ID,
				Message: fmt.Sprintf("duplicate field id %q", fld.ID),
			})
			continue
		}
		types[fld.ID] = fld.Type()
	}

	for _, unit := range f.Logic {
		issues = append(issues, lintUnit(unit, types)...)
	}

	for _, w := range AnalyzeCycles(f) {
		issues = append(issues, LintIssue{
			Code:    WarnLogicCycle,
			Level:   LevelWarning,
			Field:   w.Path[0],
			Message: w.Message,
		})
	}
	return issues
}

func lintUnit(unit form.LogicUnit, types map[string]form.FieldType) []LintIssue {
	var issues []LintIssue
	add := func(code, field, msg string) {
		issues = append(issues, LintIssue{Code: code, Level: LevelError, Field: field, LogicID: unit.ID, Message: msg})
	}

	switch unit.Type {
	case form.LogicShowFields:
		if len(unit.Show) == 0 {
			add(ErrEmptyShowList, "", "show-fields logic must show at least one field")
		}
		for _, target := range unit.Show {
			if _, ok := types[target]; !ok {
				add(ErrShowTargetAbsent, target, "show target is not on the form")
			}
		}
	case form.LogicPreventSubmit:
		if len(unit.Show) > 0 {
			add(ErrPreventWithShow, "", "prevent-submit logic cannot show fields")
		}
	default:
		add(ErrUnknownLogicType, "", fmt.Sprintf("unknown logic type %q", unit.Type))
	}

	if len(unit.Conditions) == 0 {
		add(ErrNoConditions, "", "logic must have at least one condition")
	}

	for _, c := range unit.Conditions {
		fieldType, ok := types[c.Field]
		if !ok {
			add(ErrConditionFieldAbsent, c.Field, "condition field is not on the form")
			continue
		}
		allowed, logicable := applicableStates[fieldType]
		switch {
		case !logicable:
			add(ErrStateNotApplicable, c.Field, fmt.Sprintf("%s fields cannot be used in conditions", fieldType))
		case !slices.Contains(allowed, c.State):
			add(ErrStateNotApplicable, c.Field, fmt.Sprintf("state %q is not applicable to %s fields", c.State, fieldType))
		}
		if msg := operandProblem(c, fieldType); msg != "" {
			add(ErrOperandShape, c.Field, msg)
		}
		if unit.Type == form.LogicShowFields && slices.Contains(unit.Show, c.Field) {
			add(ErrSelfCondition, c.Field, "logic shows a field it also conditions on")
		}
	}
	return issues
}

// operandProblem describes a mismatch between a condition's operand and
// its state or field type, or returns "".
func operandProblem(c form.Condition, fieldType form.FieldType) string {
	switch op := c.Value.(type) {
	case nil:
		return "condition has no value"
	case form.CheckboxOperand:
		if fieldType != form.TypeCheckbox {
			return "checkbox operand used on a non-checkbox field"
		}
		if len(op.Options) == 0 && !op.Others {
			return "checkbox operand selects nothing"
		}
	case form.ListOperand:
		if c.State == form.StateLte || c.State == form.StateGte {
			return "numeric comparison needs a single value"
		}
		if len(op) == 0 {
			return "value list is empty"
		}
	case form.ScalarOperand:
		if c.State == form.StateEither && fieldType != form.TypeCheckbox {
			return "\"is either\" needs a list of values"
		}
		if strings.TrimSpace(string(op)) == "" {
			return "condition value is empty"
		}
	}
	return ""
}
