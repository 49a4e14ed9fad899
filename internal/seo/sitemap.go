package seo

import (
	"encoding/xml"
	"io"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapURL is one <url> entry.
type SitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// NewSitemapURL builds an entry; a zero modified time leaves lastmod out.
func NewSitemapURL(loc string, modified time.Time) SitemapURL {
	u := SitemapURL{Loc: loc}
	if !modified.IsZero() {
		u.LastMod = modified.UTC().Format("2006-01-02")
	}
	return u
}

// WriteSitemap encodes urls as a sitemaps.org urlset.
func WriteSitemap(w io.Writer, urls []SitemapURL) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(urlset{Xmlns: sitemapNS, URLs: urls}); err != nil {
		return err
	}
	return enc.Flush()
}
