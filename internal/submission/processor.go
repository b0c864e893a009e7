// Package submission runs a form's full acceptance pipeline over one set
// of responses.
//
// The pipeline is:
//  1. Check the response set against the form's answerable fields
//  2. Normalize every answer to its canonical value
//  3. Resolve the visible field set from the logic index
//  4. Reject the submission if a prevent-submit unit applies
//  5. Validate every answer, collecting all field failures
//
// A Processor holds no per-submission state, so one instance may serve
// concurrent callers.
package submission

import (
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/formlogic/internal/form"
	"github.com/roach88/formlogic/internal/logic"
	"github.com/roach88/formlogic/internal/normalize"
	"github.com/roach88/formlogic/internal/validate"
)

// Outcome is the result of an accepted submission.
type Outcome struct {
	// Visible lists the visible field ids in form order.
	Visible []string `json:"visible"`

	// Blocking is always nil on an accepted submission. Evaluate fills it
	// when a prevent-submit unit applies.
	Blocking *form.LogicUnit `json:"blocking,omitempty"`

	// Diagnostics records logic that was left out of evaluation.
	Diagnostics []logic.Diagnostic `json:"diagnostics,omitempty"`

	// Values holds the normalized answers keyed by field id.
	Values form.Answers `json:"-"`
}

// Processor validates submissions against forms.
type Processor struct {
	logger    *slog.Logger
	validator *validate.Validator
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for discarded-logic diagnostics and
// dropped responses.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithValidator replaces the field validator, typically to pin its clock.
func WithValidator(v *validate.Validator) Option {
	return func(p *Processor) {
		p.validator = v
	}
}

// New creates a Processor. Without options it logs nowhere and validates
// dates against the wall clock.
func New(opts ...Option) *Processor {
	p := &Processor{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		validator: validate.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the whole pipeline. On success it returns the outcome and
// a nil error. Errors are *ConflictError, *normalize.MalformedValueError,
// *ProcessingError or *ValidationErrors.
func (p *Processor) Process(f *form.Form, responses []form.Response) (*Outcome, error) {
	out, err := p.Evaluate(f, responses)
	if err != nil {
		return nil, err
	}
	if out.Blocking != nil {
		return nil, &ProcessingError{Message: PreventedMessage, Unit: out.Blocking}
	}

	if err := p.validateAll(f, responses, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluate runs the pipeline up to and including the submit guard without
// validating answers. A blocked submission is reported through
// Outcome.Blocking rather than as an error.
func (p *Processor) Evaluate(f *form.Form, responses []form.Response) (*Outcome, error) {
	if err := p.CheckResponseSet(f, responses); err != nil {
		return nil, err
	}

	answers, err := normalize.NormalizeAll(f, responses)
	if err != nil {
		return nil, err
	}

	idx := logic.BuildIndex(f)
	_, guardDiags := logic.BuildSubmitGuardList(f)
	diags := append(slices.Clone(idx.Diagnostics), guardDiags...)
	for _, d := range diags {
		p.logger.Info("logic discarded",
			"form", f.ID,
			"logic", d.LogicID,
			"kind", string(d.Kind),
			"field", d.FieldID,
		)
	}

	visible := logic.ResolveVisibleWithIndex(f, idx, answers)
	blocking := logic.FindBlockingUnit(f, answers, visible)
	if blocking != nil {
		p.logger.Debug("submission blocked", "form", f.ID, "logic", blocking.ID)
	}

	return &Outcome{
		Visible:     visible.IDs(),
		Blocking:    blocking,
		Diagnostics: diags,
		Values:      answers,
	}, nil
}

// CheckResponseSet verifies that every answerable field has exactly one
// response. Responses naming fields that are not on the form are ignored
// and logged.
func (p *Processor) CheckResponseSet(f *form.Form, responses []form.Response) error {
	counts := make(map[string]int, len(responses))
	for _, r := range responses {
		if _, ok := f.Field(r.FieldID); !ok {
			p.logger.Debug("response for unknown field dropped", "form", f.ID, "field", r.FieldID)
			continue
		}
		counts[r.FieldID]++
	}

	var conflict ConflictError
	for _, field := range f.Fields {
		n := counts[field.ID]
		switch {
		case n == 0 && !field.Type().IsAdmin():
			conflict.Missing = append(conflict.Missing, field.ID)
		case n > 1:
			conflict.Duplicated = append(conflict.Duplicated, field.ID)
		}
	}
	if len(conflict.Missing) > 0 || len(conflict.Duplicated) > 0 {
		return &conflict
	}
	return nil
}

// validateAll validates each response in form order. Failures across
// fields are collected, not short-circuited.
func (p *Processor) validateAll(f *form.Form, responses []form.Response, out *Outcome) error {
	responded := make(map[string]bool, len(responses))
	for _, r := range responses {
		responded[r.FieldID] = true
	}
	visible := logic.NewVisibleSet(out.Visible...)

	var verrs ValidationErrors
	for _, field := range f.Fields {
		if !responded[field.ID] {
			continue
		}
		err := p.validator.Field(field, out.Values[field.ID], visible.Has(field.ID))
		if err == nil {
			continue
		}
		var fe *validate.FieldError
		if !errors.As(err, &fe) {
			fe = &validate.FieldError{FieldID: field.ID, FieldType: field.Type(), Reason: err.Error()}
		}
		verrs.Fields = append(verrs.Fields, fe)
	}
	if len(verrs.Fields) > 0 {
		return &verrs
	}
	return nil
}
