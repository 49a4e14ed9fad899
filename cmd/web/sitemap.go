package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"merchanthaus.com/web/internal/content"
	"merchanthaus.com/web/internal/observability"
	"merchanthaus.com/web/internal/seo"
)

var sitemapStatic = []string{"/", "/about", "/services", "/pricing", "/blog", "/docs", "/contact", "/quote", "/apply"}

func (a *app) sitemap(w http.ResponseWriter, r *http.Request) {
	urls := make([]seo.SitemapURL, 0, 64)
	for _, p := range sitemapStatic {
		urls = append(urls, seo.NewSitemapURL(a.absoluteURL(p), time.Time{}))
	}
	for _, kind := range []string{content.KindDocs, content.KindBlog, content.KindLegal} {
		pages, err := a.content.List(r.Context(), kind, a.bundle.Fallback())
		if err != nil {
			observability.FromContext(r.Context()).Error("sitemap: list content", zap.String("kind", kind), zap.Error(err))
			http.Error(w, "sitemap unavailable", http.StatusInternalServerError)
			return
		}
		for _, p := range pages {
			modified := p.UpdatedAt
			if modified.IsZero() {
				modified = p.Date
			}
			urls = append(urls, seo.NewSitemapURL(a.absoluteURL(p.Path()), modified))
		}
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if err := seo.WriteSitemap(w, urls); err != nil {
		observability.FromContext(r.Context()).Warn("sitemap: write", zap.Error(err))
	}
}
