package seo

import (
	"encoding/json"
	"time"
)

// Meta is the per-page head metadata rendered by the base layout.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OGType      string
	Alternates  []Alternate
	JSONLD      []string
}

// Alternate is an hreflang link.
type Alternate struct {
	Href     string
	Hreflang string
}

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// Article returns a minimal Article schema payload. Zero dates are omitted.
func Article(headline, url, authorName string, published, modified time.Time) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Article",
		"headline": headline,
	}
	if url != "" {
		m["url"] = url
	}
	if authorName != "" {
		m["author"] = map[string]any{"@type": "Person", "name": authorName}
	}
	if !published.IsZero() {
		m["datePublished"] = published.Format("2006-01-02")
	}
	if !modified.IsZero() {
		m["dateModified"] = modified.Format("2006-01-02")
	}
	return m
}
