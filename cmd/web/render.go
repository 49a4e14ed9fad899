package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"merchanthaus.com/web/internal/format"
	"merchanthaus.com/web/internal/i18n"
	mw "merchanthaus.com/web/internal/middleware"
	"merchanthaus.com/web/internal/observability"
)

// renderer owns the parsed template sets. Every file under pages/ gets its own clone of
// the layout and partials so each can define "content" without clashing. In dev mode
// the sets are reparsed on each request.
type renderer struct {
	dir   string
	dev   bool
	funcs template.FuncMap

	mu     sync.RWMutex
	shared *template.Template
	pages  map[string]*template.Template
}

func newRenderer(dir string, dev bool, bundle *i18n.Bundle, assets *mw.Assets) (*renderer, error) {
	rd := &renderer{
		dir: dir,
		dev: dev,
		funcs: template.FuncMap{
			"t":       bundle.T,
			"tf":      bundle.Tf,
			"fmtDate": format.FmtDate,
			"isoDate": format.ISODate,
			"usd":     format.FmtUSD,
			"now":     time.Now,
			"join":    strings.Join,
			"asset":   assets.URL,
		},
	}
	shared, pages, err := rd.parse()
	if err != nil {
		return nil, err
	}
	rd.shared, rd.pages = shared, pages
	return rd, nil
}

func (rd *renderer) parse() (*template.Template, map[string]*template.Template, error) {
	var common []string
	pageFiles := map[string]string{}
	err := filepath.WalkDir(rd.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmpl") {
			return nil
		}
		rel, _ := filepath.Rel(rd.dir, path)
		if strings.HasPrefix(filepath.ToSlash(rel), "pages/") {
			pageFiles[strings.TrimSuffix(d.Name(), ".tmpl")] = path
			return nil
		}
		common = append(common, path)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(common) == 0 || len(pageFiles) == 0 {
		return nil, nil, fmt.Errorf("no templates found under %s", rd.dir)
	}

	shared, err := template.New("_root").Funcs(rd.funcs).ParseFiles(common...)
	if err != nil {
		return nil, nil, err
	}
	pages := make(map[string]*template.Template, len(pageFiles))
	for name, file := range pageFiles {
		clone, err := shared.Clone()
		if err != nil {
			return nil, nil, err
		}
		if _, err := clone.ParseFiles(file); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[name] = clone
	}
	return shared, pages, nil
}

func (rd *renderer) sets() (*template.Template, map[string]*template.Template, error) {
	if rd.dev {
		return rd.parse()
	}
	rd.mu.RLock()
	defer rd.mu.RUnlock()
	return rd.shared, rd.pages, nil
}

// renderPage executes the base layout with page's "content" block.
func (rd *renderer) renderPage(w http.ResponseWriter, r *http.Request, page string, status int, data any) {
	_, pages, err := rd.sets()
	if err != nil {
		rd.fail(w, r, "template parse error", err)
		return
	}
	t, ok := pages[page]
	if !ok {
		rd.fail(w, r, "unknown page template", fmt.Errorf("page %q", page))
		return
	}
	rd.write(w, r, t, "base", status, data)
}

// renderTemplate executes one shared template, e.g. an htmx fragment.
func (rd *renderer) renderTemplate(w http.ResponseWriter, r *http.Request, name string, status int, data any) {
	shared, _, err := rd.sets()
	if err != nil {
		rd.fail(w, r, "template parse error", err)
		return
	}
	rd.write(w, r, shared, name, status, data)
}

func (rd *renderer) write(w http.ResponseWriter, r *http.Request, t *template.Template, name string, status int, data any) {
	// buffer so a failing template never leaves a half-written 200
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		rd.fail(w, r, "template exec error", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (rd *renderer) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	observability.FromContext(r.Context()).Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}
