package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Sentinels shared by the client and server representations of an
// "others" answer.
const (
	// OthersOption is the operand text a condition uses to mean "the
	// free-text others choice was selected".
	OthersOption = "Others"

	// OthersPrefix starts a server-side free-text others answer.
	OthersPrefix = "Others: "

	// RadioOthersValue is the client-side marker for a selected radio
	// others choice before the free text is merged in.
	RadioOthersValue = "!!FORMSG_INTERNAL_RADIO_OTHERS_VALUE!!"
)

// State is a condition's comparison.
type State string

const (
	StateEqual  State = "is equals to"
	StateLte    State = "is less than or equal to"
	StateGte    State = "is more than or equal to"
	StateEither State = "is either"
)

// OperandShape is the declared shape of a condition operand.
type OperandShape string

const (
	ShapeNumber       OperandShape = "number"
	ShapeSingleSelect OperandShape = "single-select"
	ShapeMultiSelect  OperandShape = "multi-select"
	ShapeMultiValue   OperandShape = "multi-value"
)

// Operand is the right-hand side of a condition.
type Operand interface {
	operand()
}

// ScalarOperand is a single string or number. Numbers keep their JSON text.
type ScalarOperand string

// ListOperand is a set of accepted values, used by "is either".
type ListOperand []string

// CheckboxOperand is the structured operand for checkbox conditions.
type CheckboxOperand struct {
	Options []string `json:"options"`
	Others  bool     `json:"others"`
}

func (ScalarOperand) operand()   {}
func (ListOperand) operand()     {}
func (CheckboxOperand) operand() {}

// Condition is one atomic test against another field's answer.
type Condition struct {
	Field       string
	State       State
	Value       Operand
	IfValueType OperandShape
}

type conditionJSON struct {
	Field       string          `json:"field"`
	State       State           `json:"state"`
	Value       json.RawMessage `json:"value"`
	IfValueType OperandShape    `json:"ifValueType,omitempty"`
}

// UnmarshalJSON classifies the operand by its JSON shape.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw conditionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	op, err := decodeOperand(raw.Value)
	if err != nil {
		return fmt.Errorf("condition on %s: %w", raw.Field, err)
	}
	*c = Condition{Field: raw.Field, State: raw.State, Value: op, IfValueType: raw.IfValueType}
	return nil
}

// MarshalJSON encodes the condition with its operand in native JSON form.
func (c Condition) MarshalJSON() ([]byte, error) {
	var value any
	switch v := c.Value.(type) {
	case ScalarOperand:
		value = string(v)
	case ListOperand:
		value = []string(v)
	case CheckboxOperand:
		value = v
	}
	return json.Marshal(struct {
		Field       string       `json:"field"`
		State       State        `json:"state"`
		Value       any          `json:"value"`
		IfValueType OperandShape `json:"ifValueType,omitempty"`
	}{c.Field, c.State, value, c.IfValueType})
}

func decodeOperand(raw json.RawMessage) (Operand, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return ScalarOperand(s), nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		list := make(ListOperand, 0, len(items))
		for _, item := range items {
			op, err := decodeOperand(item)
			if err != nil {
				return nil, err
			}
			s, ok := op.(ScalarOperand)
			if !ok {
				return nil, fmt.Errorf("list operand entries must be scalars")
			}
			list = append(list, string(s))
		}
		return list, nil
	case '{':
		var cb CheckboxOperand
		if err := json.Unmarshal(trimmed, &cb); err != nil {
			return nil, err
		}
		return cb, nil
	case 't', 'f':
		return nil, fmt.Errorf("boolean operands are not supported")
	default:
		// Numbers keep their literal text so "5" and 5 compare alike.
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return nil, err
		}
		return ScalarOperand(n.String()), nil
	}
}

// LogicType distinguishes visibility rules from submit guards.
type LogicType string

const (
	LogicShowFields    LogicType = "showFields"
	LogicPreventSubmit LogicType = "preventSubmit"
)

// LogicUnit is a conjunction of conditions plus its effect.
type LogicUnit struct {
	ID                   string      `json:"_id"`
	Type                 LogicType   `json:"logicType"`
	Conditions           []Condition `json:"conditions"`
	Show                 []string    `json:"show,omitempty"`
	PreventSubmitMessage string      `json:"preventSubmitMessage,omitempty"`
}

// Form is a form definition: ordered fields plus logic.
type Form struct {
	ID     string      `json:"_id"`
	Title  string      `json:"title"`
	Fields []Field     `json:"form_fields"`
	Logic  []LogicUnit `json:"form_logics,omitempty"`
}

// Field looks up a field by id.
func (f *Form) Field(id string) (Field, bool) {
	for _, fld := range f.Fields {
		if fld.ID == id {
			return fld, true
		}
	}
	return Field{}, false
}

// FieldIDs returns a lookup set of every field id on the form.
func (f *Form) FieldIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(f.Fields))
	for _, fld := range f.Fields {
		ids[fld.ID] = struct{}{}
	}
	return ids
}

// Decode parses a form document.
func Decode(data []byte) (*Form, error) {
	var f Form
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}
	return &f, nil
}

// TrimmedStrings returns the operand as a list of trimmed strings. A
// checkbox operand contributes its options only; its others flag is not
// a string.
func TrimmedStrings(op Operand) []string {
	var out []string
	switch v := op.(type) {
	case ScalarOperand:
		out = []string{strings.TrimSpace(string(v))}
	case ListOperand:
		out = make([]string, len(v))
		for i, s := range v {
			out[i] = strings.TrimSpace(s)
		}
	case CheckboxOperand:
		out = make([]string, len(v.Options))
		for i, s := range v.Options {
			out[i] = strings.TrimSpace(s)
		}
	}
	return out
}
