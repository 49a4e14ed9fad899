package nav

// Docs is the documentation sidebar. Every leaf has a matching markdown file under
// content/docs.
var Docs = MustTree([]Node{
	{Title: "Getting Started", Children: []Node{
		{Title: "Overview", Href: "/docs/overview"},
		{Title: "Account Setup", Href: "/docs/account-setup"},
		{Title: "Going Live", Href: "/docs/going-live"},
	}},
	{Title: "Card Payments", Children: []Node{
		{Title: "Card Present", Href: "/docs/card-present"},
		{Title: "Card Not Present", Href: "/docs/card-not-present"},
		{Title: "Fraud Tools", Children: []Node{
			{Title: "AVS", Href: "/docs/avs"},
			{Title: "CVV", Href: "/docs/cvv"},
			{Title: "3-D Secure", Href: "/docs/3ds"},
		}},
	}},
	{Title: "ACH & eCheck", Children: []Node{
		{Title: "ACH Overview", Href: "/docs/ach"},
		{Title: "SEC Codes", Href: "/docs/sec-codes"},
		{Title: "NACHA Rules", Href: "/docs/nacha-rules"},
		{Title: "Returns", Href: "/docs/ach-returns"},
	}},
	{Title: "Gateway API", Children: []Node{
		{Title: "Authentication", Href: "/docs/api-authentication"},
		{Title: "Transactions", Href: "/docs/api-transactions"},
		{Title: "Webhooks", Href: "/docs/webhooks"},
	}},
	{Title: "Support", Children: []Node{
		{Title: "Chargebacks", Href: "/docs/chargebacks"},
		{Title: "Statements", Href: "/docs/statements"},
		{Title: "FAQ", Href: "/docs/faq"},
	}},
})
