// Package flash carries one-time toast notices across a redirect.
package flash

import (
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
)

// CookieName holds the pending notice.
const CookieName = "mh_flash"

// Kind selects the toast style.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindError   Kind = "error"
)

// Notice references a localized message by key.
type Notice struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
}

// Success creates a success notice for key.
func Success(key string) Notice { return Notice{Kind: KindSuccess, Key: key} }

// Error creates an error notice for key.
func Error(key string) Notice { return Notice{Kind: KindError, Key: key} }

// Cookies reads and writes the notice cookie through a securecookie codec, so a notice
// cannot be forged or altered by the client.
type Cookies struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// New uses codec, typically the session codec, to sign notice cookies.
func New(codec *securecookie.SecureCookie, secure bool) *Cookies {
	return &Cookies{codec: codec, secure: secure}
}

// Write stores notice for the next page render. Invalid notices are dropped.
func (c *Cookies) Write(w http.ResponseWriter, notice Notice) {
	normalized, ok := normalize(notice)
	if !ok {
		return
	}
	value, err := c.codec.Encode(CookieName, normalized)
	if err != nil {
		return
	}
	http.SetCookie(w, c.cookie(value, 0))
}

// ReadAndClear returns the pending notice, if any, and expires the cookie. A malformed
// or tampered cookie is cleared as well.
func (c *Cookies) ReadAndClear(w http.ResponseWriter, r *http.Request) (Notice, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Notice{}, false
	}
	http.SetCookie(w, c.cookie("", -1))

	raw := strings.TrimSpace(cookie.Value)
	if raw == "" {
		return Notice{}, false
	}
	var n Notice
	if err := c.codec.Decode(CookieName, raw, &n); err != nil {
		return Notice{}, false
	}
	return normalize(n)
}

func (c *Cookies) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

func normalize(n Notice) (Notice, bool) {
	n.Key = strings.TrimSpace(n.Key)
	if n.Key == "" {
		return Notice{}, false
	}
	n.Kind = Kind(strings.ToLower(strings.TrimSpace(string(n.Kind))))
	switch n.Kind {
	case KindSuccess, KindInfo, KindError:
		return n, true
	default:
		return Notice{}, false
	}
}
