package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Assets serves the static files under one directory and fingerprints them so templates
// can link "/assets/site.css?v=<hash>" and browsers may cache those forever.
type Assets struct {
	prefix string
	hashes map[string]string // "/site.css" -> first 12 hex chars of sha256
	files  http.Handler
}

// NewAssets hashes every file below dir once; files added later are served without a
// fingerprint.
func NewAssets(prefix, dir string) (*Assets, error) {
	a := &Assets{
		prefix: strings.TrimRight(prefix, "/"),
		hashes: map[string]string{},
	}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		a.hashes["/"+filepath.ToSlash(rel)] = hex.EncodeToString(sum[:])[:12]
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.files = http.StripPrefix(a.prefix, http.FileServer(http.Dir(dir)))
	return a, nil
}

// URL returns the public path of name with its fingerprint, e.g. URL("site.css").
func (a *Assets) URL(name string) string {
	p := path.Clean("/" + name)
	if h, ok := a.hashes[p]; ok {
		return a.prefix + p + "?v=" + h
	}
	return a.prefix + p
}

// ServeHTTP answers conditional requests from the precomputed hashes. A request whose
// ?v= matches the current hash is marked immutable; anything else is revalidated daily.
func (a *Assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := a.hashes[strings.TrimPrefix(r.URL.Path, a.prefix)]
	w.Header().Add("Vary", "Accept-Encoding")
	if h != "" && r.URL.Query().Get("v") == h {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	}
	if h != "" {
		etag := `W/"` + h + `"`
		w.Header().Set("ETag", etag)
		if noneMatch(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	a.files.ServeHTTP(w, r)
}

func noneMatch(header, etag string) bool {
	for _, c := range strings.Split(header, ",") {
		if c = strings.TrimSpace(c); c == "*" || c == etag {
			return true
		}
	}
	return false
}
