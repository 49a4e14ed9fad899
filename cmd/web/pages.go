package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"merchanthaus.com/web/internal/content"
	handlersPkg "merchanthaus.com/web/internal/handlers"
	mw "merchanthaus.com/web/internal/middleware"
	"merchanthaus.com/web/internal/nav"
	"merchanthaus.com/web/internal/observability"
	"merchanthaus.com/web/internal/seo"
)

const docsNavEndpoint = "/docs/nav"

// basePage fills the layout fields shared by every page and consumes any pending flash.
func (a *app) basePage(w http.ResponseWriter, r *http.Request, title string, labels map[string]string) handlersPkg.PageData {
	lang := mw.Lang(r)
	vm := handlersPkg.PageData{
		Title:       title,
		Lang:        lang,
		Languages:   a.bundle.Supported(),
		SiteName:    a.cfg.Site.Name,
		Year:        time.Now().Year(),
		Analytics:   handlersPkg.AnalyticsFromConfig(a.cfg.Analytics),
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path),
		Breadcrumbs: nav.Breadcrumbs(r.URL.Path, labels),
		CSRFToken:   mw.CSRFToken(r),
	}
	if n, ok := a.flashes.ReadAndClear(w, r); ok {
		vm.Flash = &n
	}

	vm.SEO.Title = title
	if title != a.cfg.Site.Name {
		vm.SEO.Title = title + " | " + a.cfg.Site.Name
	}
	vm.SEO.Description = a.bundle.T(lang, "site.tagline")
	vm.SEO.Canonical = a.absoluteURL(r.URL.Path)
	vm.SEO.OGType = "website"
	vm.SEO.Alternates = a.alternates(r.URL.Path)
	vm.SEO.JSONLD = []string{
		seo.JSON(seo.Organization(a.cfg.Site.Name, a.cfg.Site.URL, a.absoluteURL("/assets/logo.svg"))),
		seo.JSON(seo.BreadcrumbList(a.breadcrumbItems(lang, vm.Breadcrumbs))),
	}
	return vm
}

func (a *app) withContent(vm *handlersPkg.PageData, page content.Page) {
	vm.Page = &page
	if page.SEO.Title != "" {
		vm.SEO.Title = page.SEO.Title
	}
	if d := firstNonEmpty(page.SEO.Description, page.Summary); d != "" {
		vm.SEO.Description = d
	}
	if page.Draft {
		vm.SEO.Robots = "noindex"
	}
}

// staticPage serves content/pages/<slug>.md through the page template of the same name.
func (a *app) staticPage(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := a.content.Page(r.Context(), content.KindPages, slug, mw.Lang(r))
		if err != nil {
			a.contentError(w, r, err)
			return
		}
		title := page.Title
		if slug == "home" {
			title = a.cfg.Site.Name
		}
		vm := a.basePage(w, r, title, map[string]string{r.URL.Path: page.Title})
		a.withContent(&vm, page)
		if slug == "pricing" {
			vm.Plans = handlersPkg.Plans
		}
		a.render.renderPage(w, r, slug, http.StatusOK, vm)
	}
}

func (a *app) blogIndex(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	posts, err := a.content.List(r.Context(), content.KindBlog, lang)
	if err != nil {
		a.contentError(w, r, err)
		return
	}
	vm := a.basePage(w, r, a.bundle.T(lang, "blog.title"), nil)
	vm.Pages = posts
	a.render.renderPage(w, r, "blog", http.StatusOK, vm)
}

func (a *app) blogPost(w http.ResponseWriter, r *http.Request) {
	page, err := a.content.Page(r.Context(), content.KindBlog, chi.URLParam(r, "slug"), mw.Lang(r))
	if err == nil && page.Draft {
		err = content.ErrNotFound
	}
	if err != nil {
		a.contentError(w, r, err)
		return
	}
	vm := a.basePage(w, r, page.Title, map[string]string{r.URL.Path: page.Title})
	a.withContent(&vm, page)
	vm.SEO.OGType = "article"
	vm.SEO.JSONLD = append(vm.SEO.JSONLD, seo.JSON(seo.Article(
		page.Title, vm.SEO.Canonical, page.Author, page.Date, page.UpdatedAt,
	)))
	a.render.renderPage(w, r, "post", http.StatusOK, vm)
}

func (a *app) docsIndex(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	docs, err := a.content.List(r.Context(), content.KindDocs, lang)
	if err != nil {
		a.contentError(w, r, err)
		return
	}
	vm := a.basePage(w, r, a.bundle.T(lang, "docs.title"), nil)
	vm.Pages = docs
	vm.DocsNav = handlersPkg.BuildDocsNav(a.docs, nav.ParseOpenState(r.URL.Query()["open"]), r.URL.Path, docsNavEndpoint)
	a.render.renderPage(w, r, "docs", http.StatusOK, vm)
}

func (a *app) docsPage(w http.ResponseWriter, r *http.Request) {
	page, err := a.content.Page(r.Context(), content.KindDocs, chi.URLParam(r, "slug"), mw.Lang(r))
	if err != nil {
		a.contentError(w, r, err)
		return
	}
	labels := map[string]string{r.URL.Path: page.Title}
	if title, ok := a.docs.Title(r.URL.Path); ok {
		labels[r.URL.Path] = title
	}
	vm := a.basePage(w, r, page.Title, labels)
	vm.Breadcrumbs = a.docs.Trail(vm.Breadcrumbs, r.URL.Path)
	a.withContent(&vm, page)

	// ?open= carries an explicit state from a no-JS toggle; otherwise open the section
	// holding this page.
	q := r.URL.Query()
	state := nav.ParseOpenState(q["open"])
	if _, explicit := q["open"]; !explicit && q.Get("toggled") == "" {
		a.docs.ExpandTo(state, r.URL.Path)
	}
	vm.DocsNav = handlersPkg.BuildDocsNav(a.docs, state, r.URL.Path, docsNavEndpoint)
	a.render.renderPage(w, r, "docs", http.StatusOK, vm)
}

// docsNav applies one toggle to the open state carried in the query. htmx gets the
// sidebar fragment; plain browsers are redirected to the page with the new state.
func (a *app) docsNav(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := nav.ParseOpenState(q["open"])
	if key := q.Get("toggle"); key != "" {
		if !a.docs.IsGroup(key) {
			mw.WriteError(w, r, http.StatusBadRequest, "unknown navigation group")
			return
		}
		state.Toggle(key)
	}
	current := q.Get("path")
	if _, ok := a.docs.Title(current); !ok {
		current = "/docs"
	}

	if !mw.IsHTMX(r.Context()) {
		target := url.Values{"open": state.OpenKeys()}
		target.Set("toggled", "1")
		http.Redirect(w, r, current+"?"+target.Encode(), http.StatusSeeOther)
		return
	}
	vm := handlersPkg.PageData{
		Lang:    mw.Lang(r),
		Path:    current,
		DocsNav: handlersPkg.BuildDocsNav(a.docs, state, current, docsNavEndpoint),
	}
	a.render.renderTemplate(w, r, "navtree", http.StatusOK, vm)
}

func (a *app) legalPage(w http.ResponseWriter, r *http.Request) {
	page, err := a.content.Page(r.Context(), content.KindLegal, chi.URLParam(r, "slug"), mw.Lang(r))
	if err != nil {
		a.contentError(w, r, err)
		return
	}
	vm := a.basePage(w, r, page.Title, map[string]string{r.URL.Path: page.Title, "/legal": a.bundle.T(mw.Lang(r), "nav.legal")})
	a.withContent(&vm, page)
	a.render.renderPage(w, r, "legal", http.StatusOK, vm)
}

func (a *app) notFound(w http.ResponseWriter, r *http.Request) {
	if mw.IsHTMX(r.Context()) {
		mw.WriteError(w, r, http.StatusNotFound, "not found")
		return
	}
	vm := a.basePage(w, r, a.bundle.T(mw.Lang(r), "error.notfound.title"), nil)
	vm.SEO.Robots = "noindex"
	a.render.renderPage(w, r, "notfound", http.StatusNotFound, vm)
}

func (a *app) contentError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, content.ErrNotFound) {
		a.notFound(w, r)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	observability.FromContext(r.Context()).Error("content: load failed", zap.Error(err))
	mw.WriteError(w, r, http.StatusInternalServerError, a.bundle.T(mw.Lang(r), "error.server.title"))
}

func (a *app) breadcrumbItems(lang string, crumbs []nav.Crumb) []seo.BreadcrumbItem {
	items := make([]seo.BreadcrumbItem, 0, len(crumbs))
	for _, c := range crumbs {
		if c.Href == "" {
			continue
		}
		name := c.Label
		if c.LabelKey != "" {
			name = a.bundle.T(lang, c.LabelKey)
		}
		items = append(items, seo.BreadcrumbItem{Name: name, Item: a.absoluteURL(c.Href)})
	}
	return items
}

func (a *app) absoluteURL(path string) string {
	return a.cfg.Site.URL + path
}

func (a *app) alternates(path string) []seo.Alternate {
	var out []seo.Alternate
	for _, l := range a.bundle.Supported() {
		out = append(out, seo.Alternate{Href: a.absoluteURL(path) + "?hl=" + l, Hreflang: l})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
