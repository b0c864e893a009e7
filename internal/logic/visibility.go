package logic

import (
	"github.com/hashicorp/go-set/v2"

	"github.com/roach88/formlogic/internal/form"
)

// VisibleSet is the set of field ids visible for one submission.
type VisibleSet struct {
	ids   *set.Set[string]
	order []string
}

func newVisibleSet(capacity int) *VisibleSet {
	return &VisibleSet{ids: set.New[string](capacity)}
}

// NewVisibleSet builds a set from caller-supplied ids, kept in the order
// given.
func NewVisibleSet(ids ...string) *VisibleSet {
	v := newVisibleSet(len(ids))
	for _, id := range ids {
		v.add(id)
	}
	return v
}

func (v *VisibleSet) add(id string) bool {
	if !v.ids.Insert(id) {
		return false
	}
	v.order = append(v.order, id)
	return true
}

// Has reports whether fieldID is visible. A nil set contains nothing.
func (v *VisibleSet) Has(fieldID string) bool {
	if v == nil {
		return false
	}
	return v.ids.Contains(fieldID)
}

// Len returns the number of visible fields.
func (v *VisibleSet) Len() int {
	if v == nil {
		return 0
	}
	return v.ids.Size()
}

// IDs returns the visible field ids in form order.
func (v *VisibleSet) IDs() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.order...)
}

// ResolveVisible computes the visible field set of f for the given answers.
func ResolveVisible(f *form.Form, answers form.Answers) *VisibleSet {
	return ResolveVisibleWithIndex(f, BuildIndex(f), answers)
}

// ResolveVisibleWithIndex is ResolveVisible with a prebuilt index.
//
// The set is grown to a fixed point in form order. A field joins when it
// has no controlling group, or when one of its groups is satisfied, which
// requires each condition's own field to be visible already. Fields whose
// logic depends on each other in a cycle can never satisfy that and stay
// hidden. The set only grows, so at most len(fields)+1 passes run.
func ResolveVisibleWithIndex(f *form.Form, idx Index, answers form.Answers) *VisibleSet {
	types := fieldTypes(f)
	visible := newVisibleSet(len(f.Fields))

	for changed := true; changed; {
		changed = false
		for _, field := range f.Fields {
			if visible.Has(field.ID) {
				continue
			}
			groups := idx.Groups[field.ID]
			if len(groups) == 0 || anyGroupSatisfied(groups, types, answers, visible) {
				changed = visible.add(field.ID) || changed
			}
		}
	}

	visible.order = formOrder(f, visible)
	return visible
}

func anyGroupSatisfied(groups []ConditionGroup, types map[string]form.FieldType, answers form.Answers, visible *VisibleSet) bool {
	for _, g := range groups {
		if groupSatisfied(g.Conditions, types, answers, visible) {
			return true
		}
	}
	return false
}

// groupSatisfied is the shared rule for show-fields and prevent-submit
// units: every condition's field is answered, visible, and the condition
// holds.
func groupSatisfied(conditions []form.Condition, types map[string]form.FieldType, answers form.Answers, visible *VisibleSet) bool {
	for _, c := range conditions {
		v, answered := answers[c.Field]
		if !answered || !visible.Has(c.Field) {
			return false
		}
		if !EvaluateCondition(c, types[c.Field], v) {
			return false
		}
	}
	return true
}

func fieldTypes(f *form.Form) map[string]form.FieldType {
	types := make(map[string]form.FieldType, len(f.Fields))
	for _, fld := range f.Fields {
		types[fld.ID] = fld.Type()
	}
	return types
}

func formOrder(f *form.Form, visible *VisibleSet) []string {
	ordered := make([]string, 0, visible.Len())
	seen := make(map[string]bool, visible.Len())
	for _, fld := range f.Fields {
		if visible.Has(fld.ID) && !seen[fld.ID] {
			seen[fld.ID] = true
			ordered = append(ordered, fld.ID)
		}
	}
	return ordered
}
