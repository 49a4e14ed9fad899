package nav

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/services"
	LabelKey string // i18n key, e.g. "nav.services"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/services", LabelKey: "nav.services"},
	{Path: "/pricing", LabelKey: "nav.pricing"},
	{Path: "/docs", LabelKey: "nav.docs"},
	{Path: "/blog", LabelKey: "nav.blog"},
	{Path: "/about", LabelKey: "nav.about"},
	{Path: "/contact", LabelKey: "nav.contact"},
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	// exact match or a prefix on a segment boundary: "/docs" or "/docs/..."
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}

// Breadcrumbs builds breadcrumb entries from the current path.
// Known top-level sections use nav label keys; deeper segments use a prettified label
// unless labels supplies one for the full href.
func Breadcrumbs(currentPath string, labels map[string]string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", LabelKey: "nav.home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean(currentPath)
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return crumbs
	}

	top := "/" + parts[0]
	labelKey := ""
	for _, it := range Main {
		if it.Path == top {
			labelKey = it.LabelKey
			break
		}
	}
	crumbs = append(crumbs, Crumb{Href: top, LabelKey: labelKey, Label: labelFor(top, parts[0], labels), Active: len(parts) == 1})

	href := top
	for i := 1; i < len(parts); i++ {
		href = href + "/" + parts[i]
		crumbs = append(crumbs, Crumb{
			Href:   href,
			Label:  labelFor(href, parts[i], labels),
			Active: i == len(parts)-1,
		})
	}
	return crumbs
}

func labelFor(href, segment string, labels map[string]string) string {
	if l, ok := labels[href]; ok && l != "" {
		return l
	}
	return titleFromSegment(segment)
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	s := strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	// Casers are stateful, so each call gets its own.
	return cases.Title(language.English).String(s)
}

// Trail inserts an unlinked crumb for each group of t enclosing href, in order, just
// before the last crumb: Home / Docs / Card Payments / Fraud Tools / AVS.
func (t *Tree) Trail(crumbs []Crumb, href string) []Crumb {
	keys := t.ancestors[href]
	if len(keys) == 0 || len(crumbs) == 0 {
		return crumbs
	}
	out := make([]Crumb, 0, len(crumbs)+len(keys))
	out = append(out, crumbs[:len(crumbs)-1]...)
	for _, key := range keys {
		title := key
		if i := strings.LastIndex(key, "/"); i >= 0 {
			title = key[i+1:]
		}
		out = append(out, Crumb{Label: title})
	}
	return append(out, crumbs[len(crumbs)-1])
}
