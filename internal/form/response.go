package form

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawAnswer is a submitted answer in the physical shape it arrived in.
// Each variant is one known shape; UnknownAnswer holds anything else.
type RawAnswer interface {
	Shape() string
	rawAnswer()
}

// TextAnswer is a scalar answer. OthersInput carries the free text that
// accompanies a client-side radio others selection.
type TextAnswer struct {
	Text        string
	OthersInput string
}

// ListAnswer is the server checkbox shape: the literal selected strings,
// with free text encoded as "Others: <text>".
type ListAnswer []string

// ChecksAnswer is the client checkbox shape: one boolean per configured
// option, plus a trailing boolean for others when the field allows it.
type ChecksAnswer struct {
	Checked     []bool
	OthersInput string
}

// SelectionAnswer is a checkbox answer already in canonical shape.
type SelectionAnswer struct {
	Options []string `json:"options"`
	Others  bool     `json:"others"`
}

// TableAnswer is a grid of rows of cells.
type TableAnswer [][]string

// FileAnswer describes an uploaded attachment. Content is not carried.
type FileAnswer struct {
	Name string
	Size int64
}

// UnknownAnswer is an answer whose JSON shape matched no known variant.
type UnknownAnswer struct {
	Raw json.RawMessage
}

func (TextAnswer) Shape() string      { return "text" }
func (ListAnswer) Shape() string      { return "list" }
func (ChecksAnswer) Shape() string    { return "checks" }
func (SelectionAnswer) Shape() string { return "selection" }
func (TableAnswer) Shape() string     { return "table" }
func (FileAnswer) Shape() string      { return "file" }
func (UnknownAnswer) Shape() string   { return "unknown" }

func (TextAnswer) rawAnswer()      {}
func (ListAnswer) rawAnswer()      {}
func (ChecksAnswer) rawAnswer()    {}
func (SelectionAnswer) rawAnswer() {}
func (TableAnswer) rawAnswer()     {}
func (FileAnswer) rawAnswer()      {}
func (UnknownAnswer) rawAnswer()   {}

// Response is one submitted answer. A nil Answer means the field was left
// blank.
type Response struct {
	FieldID   string
	FieldType FieldType
	Question  string
	Answer    RawAnswer
}

type responseJSON struct {
	ID          string           `json:"_id"`
	FieldType   FieldType        `json:"fieldType"`
	Question    string           `json:"question,omitempty"`
	Answer      json.RawMessage  `json:"answer,omitempty"`
	AnswerArray json.RawMessage  `json:"answerArray,omitempty"`
	Checked     []bool           `json:"checked,omitempty"`
	OthersInput string           `json:"othersInput,omitempty"`
	Selection   *SelectionAnswer `json:"selection,omitempty"`
	Filename    *string          `json:"filename,omitempty"`
	Size        int64            `json:"size,omitempty"`
}

// UnmarshalJSON classifies the answer by which keys are present and what
// JSON shape they hold. It never fails on an odd answer shape; those become
// UnknownAnswer and are rejected during normalization.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw responseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ID == "" {
		return fmt.Errorf("response: _id is required")
	}
	*r = Response{FieldID: raw.ID, FieldType: raw.FieldType, Question: raw.Question}

	switch {
	case raw.Selection != nil:
		r.Answer = *raw.Selection
	case raw.Checked != nil:
		r.Answer = ChecksAnswer{Checked: raw.Checked, OthersInput: raw.OthersInput}
	case raw.Filename != nil:
		r.Answer = FileAnswer{Name: *raw.Filename, Size: raw.Size}
	case len(raw.AnswerArray) > 0:
		r.Answer = classifyArray(raw.AnswerArray)
	case len(raw.Answer) > 0:
		r.Answer = classifyScalar(raw.Answer, raw.OthersInput)
	}
	return nil
}

func classifyArray(raw json.RawMessage) RawAnswer {
	var strs []string
	if err := json.Unmarshal(raw, &strs); err == nil {
		return ListAnswer(strs)
	}
	var grid [][]string
	if err := json.Unmarshal(raw, &grid); err == nil {
		return TableAnswer(grid)
	}
	return UnknownAnswer{Raw: raw}
}

func classifyScalar(raw json.RawMessage, othersInput string) RawAnswer {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return TextAnswer{Text: s, OthersInput: othersInput}
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return TextAnswer{Text: n.String()}
	}
	return UnknownAnswer{Raw: raw}
}

// MarshalJSON writes the response back in the shape it was read from.
func (r Response) MarshalJSON() ([]byte, error) {
	out := responseJSON{ID: r.FieldID, FieldType: r.FieldType, Question: r.Question}
	var err error
	switch a := r.Answer.(type) {
	case nil:
	case TextAnswer:
		out.Answer, err = json.Marshal(a.Text)
		out.OthersInput = a.OthersInput
	case ListAnswer:
		out.AnswerArray, err = json.Marshal([]string(a))
	case ChecksAnswer:
		out.Checked = a.Checked
		out.OthersInput = a.OthersInput
	case SelectionAnswer:
		sel := a
		out.Selection = &sel
	case TableAnswer:
		out.AnswerArray, err = json.Marshal([][]string(a))
	case FileAnswer:
		name := a.Name
		out.Filename = &name
		out.Size = a.Size
	case UnknownAnswer:
		out.Answer = a.Raw
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// DecodeResponses parses a JSON array of responses.
func DecodeResponses(data []byte) ([]Response, error) {
	var rs []Response
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return rs, nil
}
