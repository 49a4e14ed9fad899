// Package content loads the site's markdown pages, documentation, blog posts and legal
// text from disk and renders them to sanitized HTML.
package content

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no file backs the requested page.
var ErrNotFound = errors.New("content: not found")

// Kinds of content, one directory each.
const (
	KindPages = "pages"
	KindDocs  = "docs"
	KindBlog  = "blog"
	KindLegal = "legal"
)

const (
	defaultDir      = "content"
	defaultCacheTTL = 5 * time.Minute
	defaultLang     = "en"
)

// Page is one rendered markdown document.
type Page struct {
	Kind      string
	Slug      string
	Lang      string
	Title     string
	Summary   string
	Author    string
	Tags      []string
	Weight    int
	Draft     bool
	Date      time.Time
	UpdatedAt time.Time
	Body      string
	HTML      template.HTML
	TOC       []Heading
	SEO       SEO
}

// SEO holds optional metadata overrides.
type SEO struct {
	Title       string
	Description string
	OGImage     string
}

// Path returns the public URL of the page.
func (p Page) Path() string {
	switch p.Kind {
	case KindPages:
		if p.Slug == "home" {
			return "/"
		}
		return "/" + p.Slug
	case KindLegal:
		return "/legal/" + p.Slug
	default:
		return "/" + p.Kind + "/" + p.Slug
	}
}

type frontMatter struct {
	Title     string   `yaml:"title"`
	Summary   string   `yaml:"summary"`
	Author    string   `yaml:"author"`
	Tags      []string `yaml:"tags"`
	Weight    int      `yaml:"weight"`
	Draft     bool     `yaml:"draft"`
	Date      string   `yaml:"date"`
	UpdatedAt string   `yaml:"updated_at"`
	SEO       struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		OGImage     string `yaml:"og_image"`
	} `yaml:"seo"`
}

// Store reads content from a directory laid out as <kind>/<slug>.md, with optional
// per-language overrides at <kind>/<lang>/<slug>.md.
type Store struct {
	dir    string
	ttl    time.Duration
	now    func() time.Time
	md     goldmark.Markdown
	policy *bluemonday.Policy

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	page    Page
	expires time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithCacheTTL sets how long rendered pages are reused. Zero disables caching, which
// suits local development.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.ttl = d
		}
	}
}

// WithClock overrides the cache clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore reads from dir ("content" when empty).
func NewStore(dir string, opts ...Option) *Store {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultDir
	}
	s := &Store{
		dir:    dir,
		ttl:    defaultCacheTTL,
		now:    time.Now,
		md:     newMarkdown(),
		policy: newHTMLPolicy(),
		cache:  map[string]cacheEntry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the content root.
func (s *Store) Dir() string { return s.dir }

// Page loads and renders kind/slug for lang, falling back to the default language.
func (s *Store) Page(ctx context.Context, kind, slug, lang string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	slug = sanitizeSlug(slug)
	if slug == "" || !validKind(kind) {
		return Page{}, ErrNotFound
	}
	lang = normalizeLang(lang)

	key := kind + "|" + lang + "|" + slug
	if page, ok := s.cached(key); ok {
		return page, nil
	}

	candidates := []string{filepath.Join(s.dir, kind, lang, slug+".md")}
	if lang != defaultLang {
		candidates = append(candidates, filepath.Join(s.dir, kind, defaultLang, slug+".md"))
	}
	candidates = append(candidates, filepath.Join(s.dir, kind, slug+".md"))

	for _, file := range candidates {
		page, err := s.load(file, kind, slug)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Page{}, err
		}
		if page.Lang == "" {
			page.Lang = lang
		}
		s.store(key, page)
		return clonePage(page), nil
	}
	return Page{}, ErrNotFound
}

// List returns every non-draft page of kind: blog posts newest first, everything else
// by weight then title.
func (s *Store) List(ctx context.Context, kind, lang string) ([]Page, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if !validKind(kind) {
		return nil, ErrNotFound
	}
	slugs, err := s.slugs(kind)
	if err != nil {
		return nil, err
	}
	out := make([]Page, 0, len(slugs))
	for _, slug := range slugs {
		page, err := s.Page(ctx, kind, slug, lang)
		if err != nil {
			return nil, err
		}
		if page.Draft {
			continue
		}
		out = append(out, page)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if kind == KindBlog {
			if !out[i].Date.Equal(out[j].Date) {
				return out[i].Date.After(out[j].Date)
			}
			return out[i].Slug < out[j].Slug
		}
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// Check parses and renders every file under the content root and returns all failures
// joined.
func (s *Store) Check(ctx context.Context) (int, error) {
	var errs []error
	count := 0
	for _, kind := range []string{KindPages, KindDocs, KindBlog, KindLegal} {
		slugs, err := s.slugs(kind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, slug := range slugs {
			file := filepath.Join(s.dir, kind, slug+".md")
			if _, err := s.load(file, kind, slug); err != nil {
				errs = append(errs, err)
				continue
			}
			count++
		}
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return count, errors.Join(errs...)
}

// slugs lists the default-language files of kind.
func (s *Store) slugs(kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, kind))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("content: list %s: %w", kind, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, "_") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".md"))
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) load(file, kind, slug string) (Page, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Page{}, err
	}
	fm, body := splitFrontMatter(string(data))
	var front frontMatter
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("content: parse front matter %s: %w", file, err)
		}
	}
	rendered, toc, err := s.render(body)
	if err != nil {
		return Page{}, fmt.Errorf("content: render %s: %w", file, err)
	}

	page := Page{
		Kind:    kind,
		Slug:    slug,
		Title:   strings.TrimSpace(front.Title),
		Summary: strings.TrimSpace(front.Summary),
		Author:  strings.TrimSpace(front.Author),
		Tags:    front.Tags,
		Weight:  front.Weight,
		Draft:   front.Draft,
		Date:    parseDate(front.Date),
		Body:    body,
		HTML:    rendered,
		TOC:     toc,
		SEO: SEO{
			Title:       strings.TrimSpace(front.SEO.Title),
			Description: strings.TrimSpace(front.SEO.Description),
			OGImage:     strings.TrimSpace(front.SEO.OGImage),
		},
	}
	if dir := filepath.Base(filepath.Dir(file)); dir != kind {
		page.Lang = dir
	}
	page.UpdatedAt = parseDate(front.UpdatedAt)
	if page.UpdatedAt.IsZero() {
		if info, err := os.Stat(file); err == nil {
			page.UpdatedAt = info.ModTime().UTC()
		}
	}
	if page.Title == "" {
		page.Title = prettifySlug(slug)
	}
	return page, nil
}

func (s *Store) cached(key string) (Page, bool) {
	if s.ttl == 0 {
		return Page{}, false
	}
	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expires) {
		return Page{}, false
	}
	return clonePage(entry.page), true
}

func (s *Store) store(key string, page Page) {
	if s.ttl == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{page: clonePage(page), expires: s.now().Add(s.ttl)}
}

func clonePage(p Page) Page {
	cp := p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.TOC = append([]Heading(nil), p.TOC...)
	return cp
}

func validKind(kind string) bool {
	switch kind {
	case KindPages, KindDocs, KindBlog, KindLegal:
		return true
	}
	return false
}

func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if lang == "" || sanitizeSlug(lang) != lang {
		return defaultLang
	}
	return lang
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func prettifySlug(slug string) string {
	parts := strings.Split(slug, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

// sanitizeSlug rejects anything that could escape the content directory.
func sanitizeSlug(slug string) string {
	slug = strings.Trim(strings.ToLower(strings.TrimSpace(slug)), "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return ""
	}
	for _, r := range slug {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return ""
		}
	}
	return slug
}
