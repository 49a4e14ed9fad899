package forms

import (
	"fmt"
	"net/mail"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"
)

// Issue codes reported by Validate. The web layer maps them to localized copy.
const (
	CodeRequired     = "required"
	CodeConsent      = "consent"
	CodeTooShort     = "too_short"
	CodeTooLong      = "too_long"
	CodeEmail        = "email"
	CodeURL          = "url"
	CodePhone        = "phone"
	CodeAlphanumeric = "alphanumeric"
	CodeOption       = "option"
)

// Issue describes why a single field failed validation.
type Issue struct {
	Code  string
	Limit int
}

// Message renders a default English message.
func (i Issue) Message() string {
	switch i.Code {
	case CodeRequired:
		return "This field is required."
	case CodeConsent:
		return "You must agree before submitting."
	case CodeTooShort:
		return fmt.Sprintf("Must be at least %d characters.", i.Limit)
	case CodeTooLong:
		return fmt.Sprintf("Must be at most %d characters.", i.Limit)
	case CodeEmail:
		return "Enter a valid email address."
	case CodeURL:
		return "Enter a valid website address."
	case CodePhone:
		return "Enter a valid phone number."
	case CodeAlphanumeric:
		return "Use letters and numbers only."
	case CodeOption:
		return "Choose one of the listed options."
	default:
		return "This value is invalid."
	}
}

// Errors maps field names to their first failing rule. An empty map means valid.
type Errors map[string]Issue

// Fields returns the failing field names sorted.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ValidationError is returned by Instance.Submit when the submission fails its schema.
type ValidationError struct {
	Form   string
	Errors Errors
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("forms: %s failed validation on [%s]", e.Form, strings.Join(e.Errors.Fields(), ", "))
}

// Validate checks sub against every field rule and returns the failures. It performs
// no I/O.
func (s *Schema) Validate(sub Submission) Errors {
	errs := Errors{}
	for _, f := range s.Fields {
		if issue, bad := validateField(f, sub); bad {
			errs[f.Name] = issue
		}
	}
	return errs
}

func validateField(f Field, sub Submission) (Issue, bool) {
	required := f.Required
	if c := f.RequiredWhen; c != nil && strings.EqualFold(sub.Get(c.Field), c.Equals) {
		required = true
	}

	if f.Kind == KindCheckbox {
		if required && !IsChecked(sub.Get(f.Name)) {
			return Issue{Code: CodeConsent}, true
		}
		return Issue{}, false
	}

	if f.IsMulti() {
		values := sub[f.Name]
		if len(values) == 0 {
			if required {
				return Issue{Code: CodeRequired}, true
			}
			return Issue{}, false
		}
		for _, v := range values {
			if !hasOption(f.Options, v) {
				return Issue{Code: CodeOption}, true
			}
		}
		return Issue{}, false
	}

	value := strings.TrimSpace(sub.Get(f.Name))
	if value == "" {
		if required {
			return Issue{Code: CodeRequired}, true
		}
		return Issue{}, false
	}

	n := utf8.RuneCountInString(value)
	if f.MinLen > 0 && n < f.MinLen {
		return Issue{Code: CodeTooShort, Limit: f.MinLen}, true
	}
	if f.MaxLen > 0 && n > f.MaxLen {
		return Issue{Code: CodeTooLong, Limit: f.MaxLen}, true
	}
	if len(f.Options) > 0 && !hasOption(f.Options, value) {
		return Issue{Code: CodeOption}, true
	}

	switch f.Format {
	case FormatEmail:
		if !isEmail(value) {
			return Issue{Code: CodeEmail}, true
		}
	case FormatURL:
		if !isURL(value) {
			return Issue{Code: CodeURL}, true
		}
	case FormatPhone:
		if !isPhone(value) {
			return Issue{Code: CodePhone}, true
		}
	case FormatAlphanumeric:
		if !isAlphanumeric(value) {
			return Issue{Code: CodeAlphanumeric}, true
		}
	}
	return Issue{}, false
}

func hasOption(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

func isEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return false
	}
	at := strings.LastIndexByte(v, '@')
	return at > 0 && strings.Contains(v[at+1:], ".")
}

func isURL(v string) bool {
	if !strings.Contains(v, "://") {
		v = "https://" + v
	}
	u, err := url.ParseRequestURI(v)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.Contains(u.Hostname(), ".")
}

// isPhone accepts common North American and international notations: digits with
// optional spaces, dots, dashes, parentheses and a leading plus; 10 to 15 digits.
func isPhone(v string) bool {
	digits := 0
	for i, r := range v {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 10 && digits <= 15
}

func isAlphanumeric(v string) bool {
	for _, r := range v {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return v != ""
}
