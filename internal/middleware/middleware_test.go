package middleware

import (
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"merchanthaus.com/web/internal/i18n"
)

func newTestSessions() *Sessions { return NewSessions("test-signing-key", "", false, nil) }

func encodeSession(t *testing.T, s *Sessions, sd *SessionData) string {
	t.Helper()
	v, err := s.Encode(sd)
	require.NoError(t, err)
	return v
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionCookieRoundTrip(t *testing.T) {
	s := newTestSessions()
	var first *SessionData
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = GetSession(r)
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	c := cookieNamed(rr, sessionCookieName)
	require.NotNil(t, c, "session cookie must be set before the body is written")
	require.NotEmpty(t, first.ID)
	require.NotEmpty(t, first.CSRFToken)

	decoded, ok := s.Decode(c.Value)
	require.True(t, ok)
	require.Equal(t, first.ID, decoded.ID)

	// tampering breaks the signature
	_, ok = s.Decode(c.Value + "x")
	require.False(t, ok)
	_, ok = NewSessions("other-key", "", false, nil).Decode(c.Value)
	require.False(t, ok)
}

func TestSessionEncryptionKeyHidesPayload(t *testing.T) {
	key := "0123456789abcdef0123456789abcdef"
	s := NewSessions("test-signing-key", key, false, nil)
	value := encodeSession(t, s, &SessionData{ID: "visitor-42", CSRFToken: "tok"})

	decoded, ok := s.Decode(value)
	require.True(t, ok)
	require.Equal(t, "visitor-42", decoded.ID)

	_, ok = newTestSessions().Decode(value)
	require.False(t, ok, "a signing-only codec must not read encrypted cookies")
	_, ok = NewSessions("test-signing-key", "fedcba9876543210fedcba9876543210", false, nil).Decode(value)
	require.False(t, ok)
}

func TestSessionReusesValidCookie(t *testing.T) {
	s := newTestSessions()
	existing := &SessionData{ID: "abc", CSRFToken: "tok"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: encodeSession(t, s, existing)})

	var got *SessionData
	rr := httptest.NewRecorder()
	s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSession(r)
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	require.Equal(t, "abc", got.ID)
	require.Nil(t, cookieNamed(rr, sessionCookieName), "unchanged session should not be rewritten")
}

func csrfStack(s *Sessions) http.Handler {
	return s.Middleware(CSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("passed"))
	})))
}

func TestCSRFRejectsPostWithoutToken(t *testing.T) {
	s := newTestSessions()
	sd := &SessionData{ID: "abc", CSRFToken: "tok"}
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: encodeSession(t, s, sd)})
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})

	rr := httptest.NewRecorder()
	csrfStack(s).ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCSRFAcceptsHeaderOrFormField(t *testing.T) {
	s := newTestSessions()
	sd := &SessionData{ID: "abc", CSRFToken: "tok"}

	tests := []struct {
		name  string
		build func() *http.Request
	}{
		{"header", func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/contact", nil)
			req.Header.Set(CSRFHeader, "tok")
			return req
		}},
		{"form field", func() *http.Request {
			body := url.Values{CSRFField: {"tok"}, "name": {"Jane"}}.Encode()
			req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.build()
			req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: encodeSession(t, s, sd)})
			req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
			rr := httptest.NewRecorder()
			csrfStack(s).ServeHTTP(rr, req)
			require.Equal(t, http.StatusOK, rr.Code)
			require.Equal(t, "passed", rr.Body.String())
		})
	}
}

func TestNewCSRFTokenIsRandomHex(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		tok := newCSRFToken()
		require.Len(t, tok, 32)
		require.NotEqual(t, strings.Repeat("0", 32), tok)
		_, err := hex.DecodeString(tok)
		require.NoError(t, err)
		require.False(t, seen[tok], "token %s repeated", tok)
		seen[tok] = true
	}
}

func TestCSRFAllowsSafeMethods(t *testing.T) {
	rr := httptest.NewRecorder()
	csrfStack(newTestSessions()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/contact", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, cookieNamed(rr, csrfCookieName))
}

func TestWriteErrorUsesJSONForHTMX(t *testing.T) {
	h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusForbidden, "nope")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.JSONEq(t, `{"status":403,"error":"nope"}`, rr.Body.String())
	require.Equal(t, "none", rr.Header().Get("HX-Reswap"))
	require.JSONEq(t, `{"app:error":"nope"}`, rr.Header().Get("HX-Trigger"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "nope\n", rr.Body.String())
	require.Empty(t, rr.Header().Get("HX-Reswap"))
}

func writeLocales(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"nav.home":"Home"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "es.json"), []byte(`{"nav.home":"Inicio"}`), 0o644))
	return dir
}

func TestLocaleResolution(t *testing.T) {
	bundle, err := i18n.Load(writeLocales(t), "en", []string{"en", "es"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		query  string
		cookie string
		accept string
		want   string
	}{
		{name: "accept-language", accept: "es-MX,es;q=0.9", want: "es"},
		{name: "query wins", query: "en", accept: "es", want: "en"},
		{name: "cookie", cookie: "es", accept: "en", want: "es"},
		{name: "unsupported falls back", accept: "fr", want: "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/"
			if tt.query != "" {
				target += "?hl=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: localeCookie, Value: tt.cookie})
			}
			req.Header.Set("Accept-Language", tt.accept)

			var got string
			h := newTestSessions().Middleware(Locale(bundle)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = Lang(r)
			})))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.want, rr.Header().Get("Content-Language"))
		})
	}
}

func TestAssetsFingerprintAndETag(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.css"), []byte("body{}"), 0o644))
	a, err := NewAssets("/assets", dir)
	require.NoError(t, err)

	u := a.URL("site.css")
	require.Regexp(t, `^/assets/site\.css\?v=[0-9a-f]{12}$`, u)
	require.Equal(t, "/assets/missing.js", a.URL("missing.js"))

	rr := httptest.NewRecorder()
	a.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, u, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "body{}", rr.Body.String())
	require.Contains(t, rr.Header().Get("Cache-Control"), "immutable")
	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/assets/site.css", nil)
	req.Header.Set("If-None-Match", etag)
	rr = httptest.NewRecorder()
	a.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotModified, rr.Code)
	require.NotContains(t, rr.Header().Get("Cache-Control"), "immutable")
}
