package handlers

import (
	"fmt"

	"merchanthaus.com/web/internal/forms"
)

// Translator is satisfied by *i18n.Bundle.
type Translator interface {
	T(lang, key string) string
}

// FormView is the template model for a schema-driven form.
type FormView struct {
	Name      string
	Title     string
	Action    string
	CSRFToken string
	State     string
	Fields    []FieldView
	// Submitted shows the confirmation dialog; Failed shows the error toast.
	Submitted bool
	Failed    bool
	// Busy is set when a submission for this session is still in flight.
	Busy bool
}

// FieldView is one rendered input.
type FieldView struct {
	Name        string
	ID          string
	Label       string
	Placeholder string
	Help        string
	Kind        string
	InputType   string
	Required    bool
	MaxLen      int
	Value       string
	Checked     bool
	Options     []OptionView
	Error       string
}

// OptionView is one choice of a select, radio or multi field.
type OptionView struct {
	Value    string
	Label    string
	Selected bool
}

// NewFormView builds the view for schema with the given values and errors. Labels use
// form.<name>.<field> keys and fall back to the schema's English copy.
func NewFormView(tr Translator, lang string, schema *forms.Schema, action string, values forms.Submission, errs forms.Errors) *FormView {
	v := &FormView{
		Name:   schema.Name,
		Title:  translate(tr, lang, "form."+schema.Name+".title", schema.Title),
		Action: action,
		Fields: make([]FieldView, 0, len(schema.Fields)),
	}
	for _, f := range schema.Fields {
		fv := FieldView{
			Name:        f.Name,
			ID:          schema.Name + "-" + f.Name,
			Label:       translate(tr, lang, "form."+schema.Name+"."+f.Name, f.Label),
			Placeholder: f.Placeholder,
			Help:        translate(tr, lang, "form."+schema.Name+"."+f.Name+".help", f.Help),
			Kind:        string(f.Kind),
			InputType:   inputType(f.Kind),
			Required:    f.Required,
			MaxLen:      f.MaxLen,
			Value:       values.Get(f.Name),
			Checked:     f.Kind == forms.KindCheckbox && forms.IsChecked(values.Get(f.Name)),
		}
		for _, o := range f.Options {
			fv.Options = append(fv.Options, OptionView{
				Value:    o.Value,
				Label:    translate(tr, lang, "option."+o.Value, o.Label),
				Selected: values.Has(f.Name, o.Value),
			})
		}
		if issue, ok := errs[f.Name]; ok {
			fv.Error = IssueMessage(tr, lang, issue)
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}

// IssueMessage localizes a validation issue.
func IssueMessage(tr Translator, lang string, issue forms.Issue) string {
	msg := translate(tr, lang, "error."+issue.Code, "")
	if msg == "" {
		return issue.Message()
	}
	if issue.Limit > 0 {
		return fmt.Sprintf(msg, issue.Limit)
	}
	return msg
}

// HasErrors reports whether any field failed validation.
func (v *FormView) HasErrors() bool {
	for _, f := range v.Fields {
		if f.Error != "" {
			return true
		}
	}
	return false
}

func inputType(k forms.Kind) string {
	switch k {
	case forms.KindEmail:
		return "email"
	case forms.KindTel:
		return "tel"
	case forms.KindURL:
		return "url"
	default:
		return "text"
	}
}

func translate(tr Translator, lang, key, fallback string) string {
	if tr == nil {
		return fallback
	}
	if s := tr.T(lang, key); s != key {
		return s
	}
	return fallback
}
