// Package i18n holds the UI string tables and picks a language per request.
package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Bundle is a set of flat key -> string tables, one per language.
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []string
	matcher   language.Matcher
	matched   []string // matcher index -> language
}

// Load reads <dir>/<lang>.json for every supported language. Only the fallback file is
// mandatory.
func Load(dir string, fallback string, supported []string) (*Bundle, error) {
	if len(supported) == 0 {
		supported = []string{"en", "es"}
	}
	b := &Bundle{
		dict:     map[string]map[string]string{},
		fallback: fallback,
	}
	for _, l := range supported {
		raw, err := os.ReadFile(filepath.Join(dir, l+".json"))
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
		b.supported = append(b.supported, l)
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %s not loaded", fallback)
	}

	// the fallback goes first so the matcher prefers it on ties and unknown input
	b.matched = []string{fallback}
	for _, l := range b.supported {
		if l != fallback {
			b.matched = append(b.matched, l)
		}
	}
	tags := make([]language.Tag, len(b.matched))
	for i, l := range b.matched {
		tags[i] = language.Make(l)
	}
	b.matcher = language.NewMatcher(tags)
	sort.Strings(b.supported)
	return b, nil
}

// Supported returns the loaded languages sorted.
func (b *Bundle) Supported() []string { return append([]string(nil), b.supported...) }

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang has a loaded table.
func (b *Bundle) IsSupported(lang string) bool {
	_, ok := b.dict[lang]
	return ok
}

// T returns the string for key in lang, then in the fallback, and finally the key itself.
func (b *Bundle) T(lang, key string) string {
	if m, ok := b.dict[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := b.dict[b.fallback][key]; ok {
		return v
	}
	return key
}

// Tf formats the translated string with args.
func (b *Bundle) Tf(lang, key string, args ...any) string {
	return fmt.Sprintf(b.T(lang, key), args...)
}

// Resolve picks the best supported base language for an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No {
		return b.fallback
	}
	if idx < 0 || idx >= len(b.matched) {
		return b.fallback
	}
	return b.matched[idx]
}

// Normalize lowercases lang and strips any region, e.g. "es-MX" -> "es".
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
