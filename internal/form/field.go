package form

import (
	"encoding/json"
	"fmt"
)

// FieldType is the closed set of field type tags a form may use.
type FieldType string

const (
	TypeShortText  FieldType = "textfield"
	TypeLongText   FieldType = "textarea"
	TypeNumber     FieldType = "number"
	TypeDecimal    FieldType = "decimal"
	TypeDropdown   FieldType = "dropdown"
	TypeRadio      FieldType = "radiobutton"
	TypeCheckbox   FieldType = "checkbox"
	TypeRating     FieldType = "rating"
	TypeYesNo      FieldType = "yes_no"
	TypeEmail      FieldType = "email"
	TypeMobile     FieldType = "mobile"
	TypeHomeNo     FieldType = "homeno"
	TypeDate       FieldType = "date"
	TypeAttachment FieldType = "attachment"
	TypeTable      FieldType = "table"
	TypeNric       FieldType = "nric"
	TypeSection    FieldType = "section"
	TypeStatement  FieldType = "statement"
	TypeImage      FieldType = "image"
)

// IsAdmin reports whether the type is presentational only. Admin fields
// never carry an answer.
func (t FieldType) IsAdmin() bool {
	return t == TypeSection || t == TypeStatement || t == TypeImage
}

// FieldSpec is the type-specific configuration of a field.
// Sealed: only the spec structs in this package implement it, so a type
// switch over FieldSpec is exhaustive when it names every spec below.
type FieldSpec interface {
	FieldType() FieldType
	fieldSpec()
}

// Field is one form question.
type Field struct {
	ID       string
	Title    string
	Required bool
	Spec     FieldSpec
}

// Type returns the field's type tag, or "" when no spec is set.
func (f Field) Type() FieldType {
	if f.Spec == nil {
		return ""
	}
	return f.Spec.FieldType()
}

// LengthRule constrains the character count (text) or digit count (number)
// of an answer. Kind is one of LengthMinimum, LengthMaximum, LengthExact.
type LengthRule struct {
	Kind  string `json:"selectedValidation"`
	Value int    `json:"customVal"`
}

const (
	LengthMinimum = "Minimum"
	LengthMaximum = "Maximum"
	LengthExact   = "Exact"
)

// NumericRange is an inclusive range; a nil bound is open.
type NumericRange struct {
	Min *float64 `json:"customMin,omitempty"`
	Max *float64 `json:"customMax,omitempty"`
}

// ShortTextSpec configures a single-line text field.
type ShortTextSpec struct {
	Length *LengthRule `json:"lengthValidation,omitempty"`
}

// LongTextSpec configures a paragraph field.
type LongTextSpec struct {
	Length *LengthRule `json:"lengthValidation,omitempty"`
}

// NumberSpec configures an integer field. At most one of Length and Range
// is expected; both are enforced when present.
type NumberSpec struct {
	Length *LengthRule   `json:"lengthValidation,omitempty"`
	Range  *NumericRange `json:"rangeValidation,omitempty"`
}

// DecimalSpec configures a decimal field.
type DecimalSpec struct {
	Range *NumericRange `json:"rangeValidation,omitempty"`
}

// DropdownSpec configures a single-select dropdown.
type DropdownSpec struct {
	Options []string `json:"fieldOptions"`
}

// RadioSpec configures a radio group, optionally with a free-text others choice.
type RadioSpec struct {
	Options     []string `json:"fieldOptions"`
	AllowOthers bool     `json:"othersRadioButton,omitempty"`
}

// CheckboxSpec configures a multi-select checkbox group.
type CheckboxSpec struct {
	Options         []string       `json:"fieldOptions"`
	AllowOthers     bool           `json:"othersRadioButton,omitempty"`
	ValidateByValue bool           `json:"validateByValue,omitempty"`
	Limits          *SelectionRule `json:"selectionLimits,omitempty"`
}

// SelectionRule bounds the number of checked options. Zero means unbounded.
type SelectionRule struct {
	Min int `json:"customMin,omitempty"`
	Max int `json:"customMax,omitempty"`
}

// RatingSpec configures a rating scale of 1..Steps.
type RatingSpec struct {
	Steps int    `json:"steps"`
	Shape string `json:"shape,omitempty"`
}

// YesNoSpec configures a yes/no toggle.
type YesNoSpec struct{}

// EmailSpec configures an email field.
type EmailSpec struct {
	IsVerifiable           bool     `json:"isVerifiable,omitempty"`
	HasAllowedEmailDomains bool     `json:"hasAllowedEmailDomains,omitempty"`
	AllowedEmailDomains    []string `json:"allowedEmailDomains,omitempty"`
}

// MobileSpec configures a mobile number field.
type MobileSpec struct {
	AllowIntlNumbers bool `json:"allowIntlNumbers,omitempty"`
	IsVerifiable     bool `json:"isVerifiable,omitempty"`
}

// HomeNoSpec configures a home (fixed line) number field.
type HomeNoSpec struct {
	AllowIntlNumbers bool `json:"allowIntlNumbers,omitempty"`
}

// DateSpec configures a date field.
type DateSpec struct {
	Validation *DateRule `json:"dateValidation,omitempty"`
}

// DateRule restricts which dates are accepted. CustomMin and CustomMax are
// YYYY-MM-DD and only apply to DateCustomRange.
type DateRule struct {
	Kind      string `json:"selectedDateValidation"`
	CustomMin string `json:"customMinDate,omitempty"`
	CustomMax string `json:"customMaxDate,omitempty"`
}

const (
	DateNoPast      = "Disallow past dates"
	DateNoFuture    = "Disallow future dates"
	DateCustomRange = "Custom date range"
)

// AttachmentSpec configures a file upload. SizeMB is the upload limit.
type AttachmentSpec struct {
	SizeMB int `json:"attachmentSize"`
}

// TableSpec configures a grid of rows, each with one cell per column.
type TableSpec struct {
	Columns     []Column `json:"columns"`
	MinimumRows int      `json:"minimumRows"`
	AddMoreRows bool     `json:"addMoreRows,omitempty"`
	MaximumRows int      `json:"maximumRows,omitempty"`
}

// Column is one table column. ColumnType is textfield or dropdown.
type Column struct {
	ID         string    `json:"_id,omitempty"`
	Title      string    `json:"title"`
	Required   bool      `json:"required,omitempty"`
	ColumnType FieldType `json:"columnType"`
	Options    []string  `json:"fieldOptions,omitempty"`
}

// NricSpec configures a Singapore NRIC/FIN field.
type NricSpec struct{}

// SectionSpec is a section header.
type SectionSpec struct {
	Description string `json:"description,omitempty"`
}

// StatementSpec is a block of read-only text.
type StatementSpec struct {
	Description string `json:"description,omitempty"`
}

// ImageSpec is a read-only image.
type ImageSpec struct {
	URL string `json:"url,omitempty"`
}

func (ShortTextSpec) FieldType() FieldType  { return TypeShortText }
func (LongTextSpec) FieldType() FieldType   { return TypeLongText }
func (NumberSpec) FieldType() FieldType     { return TypeNumber }
func (DecimalSpec) FieldType() FieldType    { return TypeDecimal }
func (DropdownSpec) FieldType() FieldType   { return TypeDropdown }
func (RadioSpec) FieldType() FieldType      { return TypeRadio }
func (CheckboxSpec) FieldType() FieldType   { return TypeCheckbox }
func (RatingSpec) FieldType() FieldType     { return TypeRating }
func (YesNoSpec) FieldType() FieldType      { return TypeYesNo }
func (EmailSpec) FieldType() FieldType      { return TypeEmail }
func (MobileSpec) FieldType() FieldType     { return TypeMobile }
func (HomeNoSpec) FieldType() FieldType     { return TypeHomeNo }
func (DateSpec) FieldType() FieldType       { return TypeDate }
func (AttachmentSpec) FieldType() FieldType { return TypeAttachment }
func (TableSpec) FieldType() FieldType      { return TypeTable }
func (NricSpec) FieldType() FieldType       { return TypeNric }
func (SectionSpec) FieldType() FieldType    { return TypeSection }
func (StatementSpec) FieldType() FieldType  { return TypeStatement }
func (ImageSpec) FieldType() FieldType      { return TypeImage }

func (ShortTextSpec) fieldSpec()  {}
func (LongTextSpec) fieldSpec()   {}
func (NumberSpec) fieldSpec()     {}
func (DecimalSpec) fieldSpec()    {}
func (DropdownSpec) fieldSpec()   {}
func (RadioSpec) fieldSpec()      {}
func (CheckboxSpec) fieldSpec()   {}
func (RatingSpec) fieldSpec()     {}
func (YesNoSpec) fieldSpec()      {}
func (EmailSpec) fieldSpec()      {}
func (MobileSpec) fieldSpec()     {}
func (HomeNoSpec) fieldSpec()     {}
func (DateSpec) fieldSpec()       {}
func (AttachmentSpec) fieldSpec() {}
func (TableSpec) fieldSpec()      {}
func (NricSpec) fieldSpec()       {}
func (SectionSpec) fieldSpec()    {}
func (StatementSpec) fieldSpec()  {}
func (ImageSpec) fieldSpec()      {}

// newSpec returns a pointer to the zero spec for t, ready for decoding.
func newSpec(t FieldType) (FieldSpec, error) {
	switch t {
	case TypeShortText:
		return &ShortTextSpec{}, nil
	case TypeLongText:
		return &LongTextSpec{}, nil
	case TypeNumber:
		return &NumberSpec{}, nil
	case TypeDecimal:
		return &DecimalSpec{}, nil
	case TypeDropdown:
		return &DropdownSpec{}, nil
	case TypeRadio:
		return &RadioSpec{}, nil
	case TypeCheckbox:
		return &CheckboxSpec{}, nil
	case TypeRating:
		return &RatingSpec{}, nil
	case TypeYesNo:
		return &YesNoSpec{}, nil
	case TypeEmail:
		return &EmailSpec{}, nil
	case TypeMobile:
		return &MobileSpec{}, nil
	case TypeHomeNo:
		return &HomeNoSpec{}, nil
	case TypeDate:
		return &DateSpec{}, nil
	case TypeAttachment:
		return &AttachmentSpec{}, nil
	case TypeTable:
		return &TableSpec{}, nil
	case TypeNric:
		return &NricSpec{}, nil
	case TypeSection:
		return &SectionSpec{}, nil
	case TypeStatement:
		return &StatementSpec{}, nil
	case TypeImage:
		return &ImageSpec{}, nil
	default:
		return nil, fmt.Errorf("unknown field type %q", t)
	}
}

// deref turns the decoding pointer back into the value form stored on Field.
func deref(s FieldSpec) FieldSpec {
	switch v := s.(type) {
	case *ShortTextSpec:
		return *v
	case *LongTextSpec:
		return *v
	case *NumberSpec:
		return *v
	case *DecimalSpec:
		return *v
	case *DropdownSpec:
		return *v
	case *RadioSpec:
		return *v
	case *CheckboxSpec:
		return *v
	case *RatingSpec:
		return *v
	case *YesNoSpec:
		return *v
	case *EmailSpec:
		return *v
	case *MobileSpec:
		return *v
	case *HomeNoSpec:
		return *v
	case *DateSpec:
		return *v
	case *AttachmentSpec:
		return *v
	case *TableSpec:
		return *v
	case *NricSpec:
		return *v
	case *SectionSpec:
		return *v
	case *StatementSpec:
		return *v
	case *ImageSpec:
		return *v
	default:
		return s
	}
}

type fieldHeader struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Required  bool      `json:"required"`
	FieldType FieldType `json:"fieldType"`
}

// UnmarshalJSON decodes a flat field document, selecting the spec from
// the fieldType tag.
func (f *Field) UnmarshalJSON(data []byte) error {
	var h fieldHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}
	if h.ID == "" {
		return fmt.Errorf("field: _id is required")
	}
	spec, err := newSpec(h.FieldType)
	if err != nil {
		return fmt.Errorf("field %s: %w", h.ID, err)
	}
	if err := json.Unmarshal(data, spec); err != nil {
		return fmt.Errorf("field %s: %w", h.ID, err)
	}
	*f = Field{ID: h.ID, Title: h.Title, Required: h.Required, Spec: deref(spec)}
	return nil
}

// MarshalJSON encodes the field as one flat object.
func (f Field) MarshalJSON() ([]byte, error) {
	obj := map[string]json.RawMessage{}
	if f.Spec != nil {
		specJSON, err := json.Marshal(f.Spec)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(specJSON, &obj); err != nil {
			return nil, err
		}
	}
	header, err := json.Marshal(fieldHeader{ID: f.ID, Title: f.Title, Required: f.Required, FieldType: f.Type()})
	if err != nil {
		return nil, err
	}
	var hdr map[string]json.RawMessage
	if err := json.Unmarshal(header, &hdr); err != nil {
		return nil, err
	}
	for k, v := range hdr {
		obj[k] = v
	}
	return json.Marshal(obj)
}
