package submission

import (
	"errors"
	"slices"

	"github.com/roach88/formlogic/internal/form"
)

// Decision is the externally observable verdict on one submission. Unlike
// Process, it keeps the visible set for rejected submissions so journals
// and scenario snapshots can compare whole decisions.
type Decision struct {
	Accepted      bool      `json:"accepted"`
	Visible       []string  `json:"visible"`
	Blocking      string    `json:"blocking,omitempty"`
	ErrorCode     ErrorCode `json:"error_code,omitempty"`
	InvalidFields []string  `json:"invalid_fields,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// Equal reports whether two decisions are identical.
func (d Decision) Equal(o Decision) bool {
	return d.Accepted == o.Accepted &&
		d.Blocking == o.Blocking &&
		d.ErrorCode == o.ErrorCode &&
		d.Message == o.Message &&
		slices.Equal(d.Visible, o.Visible) &&
		slices.Equal(d.InvalidFields, o.InvalidFields)
}

// Decide runs the pipeline and folds the result into a Decision. It never
// returns an error; pipeline failures are carried in ErrorCode and Message.
func (p *Processor) Decide(f *form.Form, responses []form.Response) Decision {
	out, err := p.Evaluate(f, responses)
	if err != nil {
		return Decision{Visible: []string{}, ErrorCode: Code(err), Message: err.Error()}
	}

	d := Decision{Visible: out.Visible}
	if d.Visible == nil {
		d.Visible = []string{}
	}
	if out.Blocking != nil {
		perr := &ProcessingError{Message: PreventedMessage, Unit: out.Blocking}
		d.Blocking = out.Blocking.ID
		d.ErrorCode = ErrCodePrevented
		d.Message = perr.Error()
		return d
	}

	if err := p.validateAll(f, responses, out); err != nil {
		d.ErrorCode = Code(err)
		d.Message = err.Error()
		var verrs *ValidationErrors
		if errors.As(err, &verrs) {
			d.InvalidFields = verrs.FieldIDs()
		}
		return d
	}
	d.Accepted = true
	return d
}
