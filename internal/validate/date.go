package validate

import (
	"time"

	"github.com/roach88/formlogic/internal/form"
)

// DateLayout is the answer format, DD MMM YYYY.
const DateLayout = "02 Jan 2006"

// customDateLayout is the format of configured range bounds.
const customDateLayout = "2006-01-02"

func (v *Validator) checkDate(spec form.DateSpec, s string) string {
	date, err := time.ParseInLocation(DateLayout, s, v.loc)
	if err != nil {
		return "answer is not a valid date"
	}
	if spec.Validation == nil {
		return ""
	}

	now := v.now().In(v.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, v.loc)

	switch spec.Validation.Kind {
	case form.DateNoPast:
		if date.Before(today) {
			return "past dates are not allowed"
		}
	case form.DateNoFuture:
		if date.After(today) {
			return "future dates are not allowed"
		}
	case form.DateCustomRange:
		if spec.Validation.CustomMin != "" {
			lo, err := time.ParseInLocation(customDateLayout, spec.Validation.CustomMin, v.loc)
			if err == nil && date.Before(lo) {
				return "date is before the allowed range"
			}
		}
		if spec.Validation.CustomMax != "" {
			hi, err := time.ParseInLocation(customDateLayout, spec.Validation.CustomMax, v.loc)
			if err == nil && date.After(hi) {
				return "date is after the allowed range"
			}
		}
	}
	return ""
}
