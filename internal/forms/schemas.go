package forms

// Form names double as the form-name discriminator understood by the form backend.
const (
	ContactForm             = "contact"
	QuoteForm               = "quote"
	MerchantApplicationForm = "merchant-application"
)

var yesNo = []Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}}

// ServiceOptions are the payment products a lead can ask about.
var ServiceOptions = []Option{
	{Value: "card-present", Label: "In-store card payments"},
	{Value: "ecommerce", Label: "Online payments"},
	{Value: "ach", Label: "ACH & eCheck"},
	{Value: "mobile", Label: "Mobile & tap to pay"},
	{Value: "gateway", Label: "Gateway API"},
}

// ContactSchema is the general enquiry form.
var ContactSchema = &Schema{
	Name:  ContactForm,
	Title: "Contact us",
	Fields: []Field{
		{Name: "name", Label: "Full name", Kind: KindText, Required: true, MinLen: 2, MaxLen: 100},
		{Name: "email", Label: "Email", Kind: KindEmail, Required: true, MaxLen: 254, Format: FormatEmail},
		{Name: "phone", Label: "Phone", Kind: KindTel, MaxLen: 25, Format: FormatPhone},
		{Name: "message", Label: "How can we help?", Kind: KindTextarea, Required: true, MaxLen: 2000},
	},
}

// QuoteSchema requests pricing for a business.
var QuoteSchema = &Schema{
	Name:  QuoteForm,
	Title: "Request a quote",
	Fields: []Field{
		{Name: "name", Label: "Full name", Kind: KindText, Required: true, MinLen: 2, MaxLen: 100},
		{Name: "email", Label: "Email", Kind: KindEmail, Required: true, MaxLen: 254, Format: FormatEmail},
		{Name: "phone", Label: "Phone", Kind: KindTel, Required: true, MaxLen: 25, Format: FormatPhone},
		{Name: "company", Label: "Business name", Kind: KindText, Required: true, MaxLen: 120},
		{Name: "website", Label: "Website", Kind: KindURL, MaxLen: 200, Format: FormatURL},
		{Name: "monthlyVolume", Label: "Monthly card volume", Kind: KindSelect, Required: true, Options: []Option{
			{Value: "under-10k", Label: "Under $10,000"},
			{Value: "10k-50k", Label: "$10,000 – $50,000"},
			{Value: "50k-250k", Label: "$50,000 – $250,000"},
			{Value: "over-250k", Label: "Over $250,000"},
		}},
		{Name: "averageTicket", Label: "Average ticket (USD)", Kind: KindText, MaxLen: 12, Help: "Whole dollars, e.g. 45"},
		{Name: "services", Label: "Services of interest", Kind: KindMulti, Required: true, Options: ServiceOptions},
		{Name: "message", Label: "Anything else?", Kind: KindTextarea, MaxLen: 2000},
	},
}

// MerchantApplicationSchema collects what onboarding needs to open a merchant account.
var MerchantApplicationSchema = &Schema{
	Name:  MerchantApplicationForm,
	Title: "Merchant application",
	Fields: []Field{
		{Name: "dbaName", Label: "Business name (DBA)", Kind: KindText, Required: true, MaxLen: 120},
		{Name: "legalName", Label: "Legal business name", Kind: KindText, MaxLen: 120},
		{Name: "address1", Label: "Street address", Kind: KindText, Required: true, MaxLen: 120},
		{Name: "address2", Label: "Suite / unit", Kind: KindText, MaxLen: 60},
		{Name: "city", Label: "City", Kind: KindText, Required: true, MaxLen: 80},
		{Name: "state", Label: "State", Kind: KindText, Required: true, MinLen: 2, MaxLen: 2, Format: FormatAlphanumeric},
		{Name: "zip", Label: "ZIP code", Kind: KindText, Required: true, MinLen: 5, MaxLen: 10},
		{Name: "contactName", Label: "Contact name", Kind: KindText, Required: true, MinLen: 2, MaxLen: 100},
		{Name: "email", Label: "Email", Kind: KindEmail, Required: true, MaxLen: 254, Format: FormatEmail},
		{Name: "phone", Label: "Phone", Kind: KindTel, Required: true, MaxLen: 25, Format: FormatPhone},
		{Name: "website", Label: "Website", Kind: KindURL, MaxLen: 200, Format: FormatURL},
		{Name: "username", Label: "Portal username", Kind: KindText, Required: true, MinLen: 4, MaxLen: 32, Format: FormatAlphanumeric, Help: "Letters and numbers, used to sign in to your dashboard"},
		{Name: "hasCurrentProcessor", Label: "Do you currently accept cards?", Kind: KindRadio, Required: true, Options: yesNo},
		{Name: "currentProcessorName", Label: "Current processor", Kind: KindText, MaxLen: 120, RequiredWhen: &Condition{Field: "hasCurrentProcessor", Equals: "yes"}},
		{Name: "products", Label: "Products needed", Kind: KindMulti, Required: true, Options: ServiceOptions},
		{Name: "notes", Label: "Notes", Kind: KindTextarea, MaxLen: 2000},
		{Name: "agreeTerms", Label: "I agree to the Terms of Service", Kind: KindCheckbox, Required: true},
		{Name: "agreePrivacy", Label: "I have read the Privacy Policy", Kind: KindCheckbox, Required: true},
	},
}

// Schemas indexes every form by name.
var Schemas = map[string]*Schema{
	ContactForm:             ContactSchema,
	QuoteForm:               QuoteSchema,
	MerchantApplicationForm: MerchantApplicationSchema,
}
