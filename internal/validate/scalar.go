package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/roach88/formlogic/internal/form"
)

var (
	digitsPattern  = regexp.MustCompile(`^\d*$`)
	decimalPattern = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?$`)
	ratingPattern  = regexp.MustCompile(`^[1-9]\d*$`)
	nricPattern    = regexp.MustCompile(`^[STFGM]\d{7}[A-Z]$`)
)

// checkLength applies a length rule to n. A zero rule value means no
// restriction.
func checkLength(rule *form.LengthRule, n int, unit string) string {
	if rule == nil || rule.Value <= 0 {
		return ""
	}
	switch rule.Kind {
	case form.LengthMinimum:
		if n < rule.Value {
			return fmt.Sprintf("answer is shorter than the minimum of %d %s", rule.Value, unit)
		}
	case form.LengthMaximum:
		if n > rule.Value {
			return fmt.Sprintf("answer is longer than the maximum of %d %s", rule.Value, unit)
		}
	case form.LengthExact:
		if n != rule.Value {
			return fmt.Sprintf("answer must be exactly %d %s", rule.Value, unit)
		}
	}
	return ""
}

func checkTextLength(rule *form.LengthRule, s string) string {
	return checkLength(rule, utf8.RuneCountInString(s), "characters")
}

func checkRange(r *form.NumericRange, n float64) string {
	if r == nil {
		return ""
	}
	if r.Min != nil && n < *r.Min {
		return "answer does not fall within specified range"
	}
	if r.Max != nil && n > *r.Max {
		return "answer does not fall within specified range"
	}
	return ""
}

func checkNumber(spec form.NumberSpec, s string) string {
	if !digitsPattern.MatchString(s) {
		return "answer is not a valid number format"
	}
	if reason := checkLength(spec.Length, len(s), "digits"); reason != "" {
		return reason
	}
	if spec.Range != nil {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "answer is not a valid number format"
		}
		return checkRange(spec.Range, n)
	}
	return ""
}

func checkDecimal(spec form.DecimalSpec, s string) string {
	if !decimalPattern.MatchString(s) {
		return "answer is not a valid decimal"
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "answer is not a valid decimal"
	}
	return checkRange(spec.Range, n)
}

func checkRating(spec form.RatingSpec, s string) string {
	if !ratingPattern.MatchString(s) {
		return "answer is not a valid rating"
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > spec.Steps {
		return fmt.Sprintf("rating must be between 1 and %d", spec.Steps)
	}
	return ""
}

func checkYesNo(s string) string {
	if s != "Yes" && s != "No" {
		return "answer must be Yes or No"
	}
	return ""
}

// Check letters indexed by the weighted digit sum modulo 11.
const (
	nricLettersST = "JZIHGFEDCBA"
	nricLettersFG = "XWUTRQPNMLK"
	nricLettersM  = "XWUTRQPNJLK"
)

var nricWeights = [7]int{2, 7, 6, 5, 4, 3, 2}

func checkNric(s string) string {
	if !nricPattern.MatchString(s) {
		return "answer is not a valid NRIC/FIN"
	}
	sum := 0
	for i, w := range nricWeights {
		sum += int(s[i+1]-'0') * w
	}

	var letters string
	switch s[0] {
	case 'S':
		letters = nricLettersST
	case 'T':
		letters = nricLettersST
		sum += 4
	case 'F':
		letters = nricLettersFG
	case 'G':
		letters = nricLettersFG
		sum += 4
	case 'M':
		letters = nricLettersM
		sum += 3
	}
	if letters[sum%11] != s[8] {
		return "answer is not a valid NRIC/FIN"
	}
	return ""
}
