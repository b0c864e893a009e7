package form

import "strings"

// Value is a normalized answer. Condition evaluation and validation only
// ever see these; the physical RawAnswer shapes stop at the normalizer.
type Value interface {
	value()
}

// Text is a scalar answer, already trimmed.
type Text string

// Selection is the canonical checkbox answer: the configured options that
// were checked, whether a free-text others answer was given, and the
// others text itself when the submission carried it.
type Selection struct {
	Options    []string
	Others     bool
	OthersText []string
}

// Grid is a table answer.
type Grid [][]string

// File is an attachment answer.
type File struct {
	Name string
	Size int64
}

func (Text) value()      {}
func (Selection) value() {}
func (Grid) value()      {}
func (File) value()      {}

// Answers maps field ids to normalized values.
type Answers map[string]Value

// IsEmpty reports whether v counts as unanswered: absent, an empty or
// whitespace-only string, or an empty collection.
func IsEmpty(v Value) bool {
	switch val := v.(type) {
	case nil:
		return true
	case Text:
		return strings.TrimSpace(string(val)) == ""
	case Selection:
		return len(val.Options) == 0 && !val.Others
	case Grid:
		return len(val) == 0
	case File:
		return val.Name == "" && val.Size == 0
	default:
		return true
	}
}
