// Package forms validates lead-capture submissions against declarative schemas and
// drives each form instance through its submit lifecycle.
package forms

import (
	"net/url"
	"strings"
)

// Kind controls how a field is drawn and how its value is read.
type Kind string

const (
	KindText     Kind = "text"
	KindTextarea Kind = "textarea"
	KindEmail    Kind = "email"
	KindTel      Kind = "tel"
	KindURL      Kind = "url"
	KindSelect   Kind = "select"
	KindRadio    Kind = "radio"
	KindCheckbox Kind = "checkbox" // single boolean, e.g. legal consent
	KindMulti    Kind = "multi"    // checkbox group, several values
)

// Format is an additional syntactic check applied to non-empty values.
type Format string

const (
	FormatNone         Format = ""
	FormatEmail        Format = "email"
	FormatURL          Format = "url"
	FormatPhone        Format = "phone"
	FormatAlphanumeric Format = "alphanumeric"
)

// Option is a selectable value for select, radio and multi fields.
type Option struct {
	Value string
	Label string
}

// Condition makes a field required only when another field has a given value.
type Condition struct {
	Field  string
	Equals string
}

// Field declares one input of a form.
type Field struct {
	Name         string
	Label        string
	Placeholder  string
	Help         string
	Kind         Kind
	Required     bool
	RequiredWhen *Condition
	MinLen       int
	MaxLen       int
	Format       Format
	Options      []Option
}

// IsMulti reports whether the field carries several values.
func (f Field) IsMulti() bool { return f.Kind == KindMulti }

// Schema is the ordered field list of one form. Name doubles as the form-name
// discriminator sent to the form backend.
type Schema struct {
	Name   string
	Title  string
	Fields []Field
}

// Field returns the field declared under name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in declaration order.
func (s *Schema) FieldNames() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	return out
}

// HoneypotField is the hidden input every rendered form carries. People leave it empty;
// a value marks the post as spam downstream.
const HoneypotField = "bot-field"

// Submission is the flat field-name to values mapping captured from a form post.
type Submission map[string][]string

// FromValues keeps the fields declared by the schema, trimming whitespace and dropping
// blank entries of multi-value fields. A filled honeypot is kept alongside them.
func (s *Schema) FromValues(values url.Values) Submission {
	sub := Submission{}
	if hp := strings.TrimSpace(values.Get(HoneypotField)); hp != "" {
		sub[HoneypotField] = []string{hp}
	}
	for _, f := range s.Fields {
		raw := values[f.Name]
		if f.IsMulti() {
			var kept []string
			for _, v := range raw {
				if v = strings.TrimSpace(v); v != "" {
					kept = append(kept, v)
				}
			}
			if len(kept) > 0 {
				sub[f.Name] = kept
			}
			continue
		}
		if len(raw) > 0 {
			sub[f.Name] = []string{strings.TrimSpace(raw[0])}
		}
	}
	return sub
}

// Get returns the first value for name, or "".
func (s Submission) Get(name string) string {
	if vs := s[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// All returns every value for name.
func (s Submission) All(name string) []string {
	return append([]string(nil), s[name]...)
}

// Has reports whether name carries value, used by templates for checked/selected state.
func (s Submission) Has(name, value string) bool {
	for _, v := range s[name] {
		if v == value {
			return true
		}
	}
	return false
}

// Honeypot reports whether the hidden honeypot input was filled in.
func (s Submission) Honeypot() bool { return s.Get(HoneypotField) != "" }

// Clone returns a deep copy.
func (s Submission) Clone() Submission {
	if s == nil {
		return nil
	}
	cp := make(Submission, len(s))
	for k, v := range s {
		cp[k] = append([]string(nil), v...)
	}
	return cp
}

// IsChecked reports whether a checkbox value means "on".
func IsChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "yes", "1":
		return true
	default:
		return false
	}
}
