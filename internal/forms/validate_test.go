package forms

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validContact() Submission {
	return Submission{
		"name":    {"Jane Doe"},
		"email":   {"jane@example.com"},
		"phone":   {"5551234567"},
		"message": {"Hello"},
	}
}

func validQuote() Submission {
	return Submission{
		"name":          {"Sam Rivera"},
		"email":         {"sam@rivera.co"},
		"phone":         {"(555) 010-2030"},
		"company":       {"Rivera Coffee"},
		"monthlyVolume": {"10k-50k"},
		"services":      {"card-present", "mobile"},
	}
}

func validApplication() Submission {
	return Submission{
		"dbaName":             {"Rivera Coffee"},
		"address1":            {"12 Main St"},
		"city":                {"Austin"},
		"state":               {"TX"},
		"zip":                 {"73301"},
		"contactName":         {"Sam Rivera"},
		"email":               {"sam@rivera.co"},
		"phone":               {"+1 555 010 2030"},
		"username":            {"riveracoffee"},
		"hasCurrentProcessor": {"no"},
		"products":            {"card-present"},
		"agreeTerms":          {"on"},
		"agreePrivacy":        {"on"},
	}
}

func TestSchemasAcceptValidSubmissions(t *testing.T) {
	cases := map[string]struct {
		schema *Schema
		sub    Submission
	}{
		"contact":     {ContactSchema, validContact()},
		"quote":       {QuoteSchema, validQuote()},
		"application": {MerchantApplicationSchema, validApplication()},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if errs := tc.schema.Validate(tc.sub); len(errs) != 0 {
				t.Fatalf("expected valid submission, got %v", errs)
			}
		})
	}
}

func TestEveryRequiredFieldIsEnforced(t *testing.T) {
	cases := map[string]struct {
		schema *Schema
		valid  func() Submission
	}{
		"contact":     {ContactSchema, validContact},
		"quote":       {QuoteSchema, validQuote},
		"application": {MerchantApplicationSchema, validApplication},
	}
	for name, tc := range cases {
		for _, f := range tc.schema.Fields {
			if !f.Required {
				continue
			}
			t.Run(name+"/"+f.Name, func(t *testing.T) {
				sub := tc.valid()
				delete(sub, f.Name)
				errs := tc.schema.Validate(sub)
				if diff := cmp.Diff([]string{f.Name}, errs.Fields()); diff != "" {
					t.Fatalf("failing fields mismatch (-want +got):\n%s", diff)
				}
				want := CodeRequired
				if f.Kind == KindCheckbox {
					want = CodeConsent
				}
				if errs[f.Name].Code != want {
					t.Fatalf("expected code %s, got %s", want, errs[f.Name].Code)
				}
			})
		}
	}
}

func TestValidateFieldRules(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value []string
		want  Issue
	}{
		{"short name", "name", []string{"J"}, Issue{Code: CodeTooShort, Limit: 2}},
		{"bad email", "email", []string{"jane@"}, Issue{Code: CodeEmail}},
		{"email without tld", "email", []string{"jane@localhost"}, Issue{Code: CodeEmail}},
		{"email with display name", "email", []string{"Jane <jane@example.com>"}, Issue{Code: CodeEmail}},
		{"phone letters", "phone", []string{"555-CALL-NOW"}, Issue{Code: CodePhone}},
		{"phone too short", "phone", []string{"555 1234"}, Issue{Code: CodePhone}},
		{"whitespace only", "message", []string{"   "}, Issue{Code: CodeRequired}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := validContact()
			sub[tc.field] = tc.value
			errs := ContactSchema.Validate(sub)
			got, ok := errs[tc.field]
			if !ok {
				t.Fatalf("expected error on %s, got %v", tc.field, errs)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestValidateTooLongCountsRunes(t *testing.T) {
	f := Field{Name: "state", Kind: KindText, MaxLen: 2}
	s := &Schema{Name: "t", Fields: []Field{f}}
	if errs := s.Validate(Submission{"state": {"ÑÑ"}}); len(errs) != 0 {
		t.Fatalf("two runes should fit a max of 2, got %v", errs)
	}
	errs := s.Validate(Submission{"state": {"ÑÑÑ"}})
	if errs["state"] != (Issue{Code: CodeTooLong, Limit: 2}) {
		t.Fatalf("unexpected issue %+v", errs["state"])
	}
}

func TestValidateFormats(t *testing.T) {
	cases := []struct {
		format Format
		value  string
		ok     bool
	}{
		{FormatURL, "merchanthaus.io", true},
		{FormatURL, "https://merchanthaus.io/pricing", true},
		{FormatURL, "ftp://merchanthaus.io", false},
		{FormatURL, "not a url", false},
		{FormatAlphanumeric, "rivera42", true},
		{FormatAlphanumeric, "rivera_42", false},
		{FormatAlphanumeric, "riveraé", false},
		{FormatPhone, "+44 20 7946 0958", true},
		{FormatPhone, "1+5551234567", false},
	}
	for _, tc := range cases {
		s := &Schema{Name: "t", Fields: []Field{{Name: "v", Kind: KindText, Format: tc.format}}}
		errs := s.Validate(Submission{"v": {tc.value}})
		if got := len(errs) == 0; got != tc.ok {
			t.Errorf("%s %q: expected ok=%v, got errors %v", tc.format, tc.value, tc.ok, errs)
		}
	}
}

func TestValidateOptions(t *testing.T) {
	sub := validQuote()
	sub["monthlyVolume"] = []string{"a-lot"}
	sub["services"] = []string{"ach", "crypto"}
	errs := QuoteSchema.Validate(sub)
	if diff := cmp.Diff([]string{"monthlyVolume", "services"}, errs.Fields()); diff != "" {
		t.Fatalf("failing fields mismatch (-want +got):\n%s", diff)
	}
	if errs["services"].Code != CodeOption {
		t.Fatalf("expected option code, got %s", errs["services"].Code)
	}
}

func TestValidateConsentRequiresAffirmativeValue(t *testing.T) {
	for _, v := range []string{"", "off", "no", "0"} {
		sub := validApplication()
		sub["agreeTerms"] = []string{v}
		if errs := MerchantApplicationSchema.Validate(sub); errs["agreeTerms"].Code != CodeConsent {
			t.Fatalf("value %q: expected consent error, got %v", v, errs)
		}
	}
	for _, v := range []string{"on", "true", "YES", "1"} {
		sub := validApplication()
		sub["agreeTerms"] = []string{v}
		if errs := MerchantApplicationSchema.Validate(sub); len(errs) != 0 {
			t.Fatalf("value %q: expected valid, got %v", v, errs)
		}
	}
}

func TestValidateRequiredWhen(t *testing.T) {
	sub := validApplication()
	sub["hasCurrentProcessor"] = []string{"yes"}
	sub["currentProcessorName"] = []string{""}

	errs := MerchantApplicationSchema.Validate(sub)
	if diff := cmp.Diff([]string{"currentProcessorName"}, errs.Fields()); diff != "" {
		t.Fatalf("failing fields mismatch (-want +got):\n%s", diff)
	}
	if errs["currentProcessorName"].Code != CodeRequired {
		t.Fatalf("expected required, got %s", errs["currentProcessorName"].Code)
	}

	sub["currentProcessorName"] = []string{"Square"}
	if errs := MerchantApplicationSchema.Validate(sub); len(errs) != 0 {
		t.Fatalf("expected valid once processor named, got %v", errs)
	}
}

func TestFromValuesKeepsDeclaredFieldsOnly(t *testing.T) {
	values := url.Values{
		"name":       {"  Jane Doe "},
		"email":      {"jane@example.com"},
		"csrf_token": {"abc"},
		"bot-field":  {""},
	}
	got := ContactSchema.FromValues(values)
	want := Submission{"name": {"Jane Doe"}, "email": {"jane@example.com"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}

	bot := ContactSchema.FromValues(url.Values{"name": {"Bot"}, HoneypotField: {" http://spam.example "}})
	if diff := cmp.Diff(Submission{"name": {"Bot"}, HoneypotField: {"http://spam.example"}}, bot); diff != "" {
		t.Fatalf("filled honeypot must be kept (-want +got):\n%s", diff)
	}
	if !bot.Honeypot() || got.Honeypot() {
		t.Fatalf("Honeypot() = %v for bot, %v for person", bot.Honeypot(), got.Honeypot())
	}

	multi := QuoteSchema.FromValues(url.Values{"services": {"ach", " ", " mobile"}})
	if diff := cmp.Diff([]string{"ach", "mobile"}, multi.All("services")); diff != "" {
		t.Fatalf("multi values mismatch (-want +got):\n%s", diff)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Form: "contact", Errors: Errors{"phone": {Code: CodePhone}, "email": {Code: CodeEmail}}}
	if got := err.Error(); got != "forms: contact failed validation on [email, phone]" {
		t.Fatalf("unexpected message %q", got)
	}
	if msg := (Issue{Code: CodeTooLong, Limit: 5}).Message(); msg != "Must be at most 5 characters." {
		t.Fatalf("unexpected issue message %q", msg)
	}
}

func TestSchemaFieldNamesAreUnique(t *testing.T) {
	for name, s := range Schemas {
		seen := map[string]bool{}
		for _, f := range s.FieldNames() {
			if seen[f] {
				t.Fatalf("%s: duplicate field %s", name, f)
			}
			seen[f] = true
		}
		if s.Name != name {
			t.Fatalf("schema registered as %s is named %s", name, s.Name)
		}
	}
}
