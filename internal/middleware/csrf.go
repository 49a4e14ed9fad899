package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"
)

const (
	csrfCookieName = "csrf_token"
	// CSRFHeader carries the token on htmx requests.
	CSRFHeader = "X-CSRF-Token"
	// CSRFField carries the token on plain form posts.
	CSRFField = "csrf_token"
)

// CSRF issues the per-session token as a cookie (double submit) and verifies that every
// unsafe request echoes it in the X-CSRF-Token header or the csrf_token form field.
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := GetSession(r)
			token := s.CSRFToken
			if token == "" {
				token = newCSRFToken()
				s.CSRFToken = token
				s.MarkDirty()
			}

			if c, err := r.Cookie(csrfCookieName); err != nil || c.Value != token {
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(24 * time.Hour),
				})
			}

			if !isSafeMethod(r.Method) {
				sent := r.Header.Get(CSRFHeader)
				if sent == "" {
					sent = r.PostFormValue(CSRFField)
				}
				if !tokensEqual(sent, token) {
					WriteError(w, r, http.StatusForbidden, "invalid CSRF token")
					return
				}
				if c, err := r.Cookie(csrfCookieName); err != nil || !tokensEqual(c.Value, token) {
					WriteError(w, r, http.StatusForbidden, "invalid CSRF token")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CSRFToken returns the token templates must embed in forms.
func CSRFToken(r *http.Request) string { return GetSession(r).CSRFToken }

func tokensEqual(a, b string) bool {
	return a != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func newCSRFToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("csrf: generate token: " + err.Error())
	}
	return hex.EncodeToString(b)
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
