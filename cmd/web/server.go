package main

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"merchanthaus.com/web/internal/config"
	"merchanthaus.com/web/internal/content"
	"merchanthaus.com/web/internal/flash"
	"merchanthaus.com/web/internal/forms"
	"merchanthaus.com/web/internal/i18n"
	"merchanthaus.com/web/internal/metrics"
	mw "merchanthaus.com/web/internal/middleware"
	"merchanthaus.com/web/internal/nav"
	"merchanthaus.com/web/internal/observability"
)

// app bundles everything the handlers need. Tests build one with fakes for the
// transports and stores.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	bundle   *i18n.Bundle
	content  *content.Store
	render   *renderer
	assets   *mw.Assets
	docs     *nav.Tree
	sessions *mw.Sessions
	flashes  *flash.Cookies
	metrics  *metrics.Metrics

	registry   *forms.Registry
	transports map[string]forms.Transport
	// leads is the form backend mounted at POST /.
	leads http.Handler
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chimw.RealIP)
	r.Use(observability.InjectLogger(a.logger))
	r.Use(observability.RequestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	r.Handle("/metrics", a.metrics.Handler())
	r.Handle("/assets/*", a.assets)
	r.Get("/sitemap.xml", a.sitemap)
	// The form backend accepts cross-origin posts and has no session.
	r.Post("/", a.leads.ServeHTTP)

	pages := chi.Middlewares{
		chimw.Compress(5),
		chimw.Timeout(30 * time.Second),
		mw.HTMX,
		a.sessions.Middleware,
		mw.Locale(a.bundle),
		mw.CSRF(a.sessions.Secure()),
	}
	r.Group(func(r chi.Router) {
		r.Use(pages...)

		r.Get("/", a.staticPage("home"))
		r.Get("/about", a.staticPage("about"))
		r.Get("/services", a.staticPage("services"))
		r.Get("/pricing", a.staticPage("pricing"))

		r.Get("/blog", a.blogIndex)
		r.Get("/blog/{slug}", a.blogPost)
		r.Get("/docs", a.docsIndex)
		r.Get("/docs/nav", a.docsNav)
		r.Get("/docs/{slug}", a.docsPage)
		r.Get("/legal/{slug}", a.legalPage)

		for _, fr := range formRoutes {
			r.Get(fr.Path, a.formGet(fr))
			r.Post(fr.Path, a.formPost(fr))
		}
	})
	r.NotFound(pages.HandlerFunc(a.notFound).ServeHTTP)
	return r
}
