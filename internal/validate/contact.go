package validate

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/roach88/formlogic/internal/form"
)

const singaporeCallingCode = 65

// phonePattern is the E.164 shape: a plus and up to fifteen digits.
var phonePattern = regexp.MustCompile(`^\+\d{7,15}$`)

// checkEmail accepts a single bare address. The domain allow-list applies
// only to verifiable fields that enable it with a non-empty list.
func checkEmail(spec form.EmailSpec, s string) string {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return "answer is not a valid email"
	}

	if !spec.IsVerifiable || !spec.HasAllowedEmailDomains || len(spec.AllowedEmailDomains) == 0 {
		return ""
	}
	at := strings.LastIndex(s, "@")
	domain := strings.ToLower(s[at:])
	for _, allowed := range spec.AllowedEmailDomains {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if !strings.HasPrefix(allowed, "@") {
			allowed = "@" + allowed
		}
		if domain == allowed {
			return ""
		}
	}
	return "email domain is not allowed"
}

func checkMobile(spec form.MobileSpec, s string) string {
	return checkPhone(s, spec.AllowIntlNumbers, "mobile",
		phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE)
}

func checkHomeNo(spec form.HomeNoSpec, s string) string {
	return checkPhone(s, spec.AllowIntlNumbers, "home",
		phonenumbers.FIXED_LINE, phonenumbers.FIXED_LINE_OR_MOBILE, phonenumbers.VOIP)
}

func checkPhone(s string, allowIntl bool, kind string, types ...phonenumbers.PhoneNumberType) string {
	if !phonePattern.MatchString(s) {
		return "answer is not a valid " + kind + " number"
	}
	num, err := phonenumbers.Parse(s, "SG")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "answer is not a valid " + kind + " number"
	}
	if !allowIntl && num.GetCountryCode() != singaporeCallingCode {
		return "international numbers are not allowed"
	}
	numType := phonenumbers.GetNumberType(num)
	for _, t := range types {
		if numType == t {
			return ""
		}
	}
	return "answer is not a valid " + kind + " number"
}
