package handlers

import (
	"merchanthaus.com/web/internal/config"
	"merchanthaus.com/web/internal/content"
	"merchanthaus.com/web/internal/flash"
	"merchanthaus.com/web/internal/nav"
	"merchanthaus.com/web/internal/seo"
)

// PageData is the view model for every page using the shared layout.
type PageData struct {
	Title     string
	Lang      string
	Languages []string
	SiteName  string
	Year      int
	SEO       seo.Meta
	Analytics Analytics

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	Flash       *flash.Notice
	CSRFToken   string
	// Fragment is set when only a partial is rendered for htmx.
	Fragment bool

	// Optional per-page payloads
	Page    *content.Page
	Pages   []content.Page
	DocsNav *DocsNav
	Form    *FormView
	Plans   []Plan
}

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
	GA4MeasurementID string
	GTMContainerID   string
	Debug            bool
}

// Enabled reports whether any tag should be rendered.
func (a Analytics) Enabled() bool { return a.GA4MeasurementID != "" || a.GTMContainerID != "" }

// AnalyticsFromConfig copies the analytics identifiers out of the runtime config.
func AnalyticsFromConfig(c config.AnalyticsConfig) Analytics {
	return Analytics{
		GA4MeasurementID: c.GA4MeasurementID,
		GTMContainerID:   c.GTMContainerID,
		Debug:            c.Debug,
	}
}

// DocsNav is the documentation sidebar as rendered for one request.
type DocsNav struct {
	Nodes    []nav.RenderedNode
	OpenKeys []string
	Path     string
}

// BuildDocsNav renders tree for currentPath with state as given. Callers expand the
// current section themselves on a first visit.
func BuildDocsNav(tree *nav.Tree, state nav.OpenState, currentPath, toggleBase string) *DocsNav {
	return &DocsNav{
		Nodes:    tree.Render(state, nav.RenderOptions{CurrentPath: currentPath, ToggleBase: toggleBase}),
		OpenKeys: state.OpenKeys(),
		Path:     currentPath,
	}
}

// Plan is a pricing tier shown on /pricing.
type Plan struct {
	Key          string
	MonthlyCents int64
	// Rate is the headline card-present rate, e.g. "2.49% + 10¢".
	Rate     string
	Featured bool
	Features []string // i18n keys
}

// Plans lists the published pricing tiers.
var Plans = []Plan{
	{
		Key: "starter", MonthlyCents: 0, Rate: "2.69% + 15¢",
		Features: []string{"pricing.feature.nextday", "pricing.feature.terminal", "pricing.feature.support"},
	},
	{
		Key: "growth", MonthlyCents: 2900, Rate: "2.49% + 10¢", Featured: true,
		Features: []string{"pricing.feature.nextday", "pricing.feature.ach", "pricing.feature.gateway", "pricing.feature.support"},
	},
	{
		Key: "interchange", MonthlyCents: 9900, Rate: "IC + 0.30% + 8¢",
		Features: []string{"pricing.feature.sameday", "pricing.feature.ach", "pricing.feature.gateway", "pricing.feature.manager"},
	},
}
