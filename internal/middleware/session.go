package middleware

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

const (
	sessionCookieName = "MH_SESSION"
	sessionLifetime   = 30 * 24 * time.Hour
)

// SessionData is the state kept in the signed session cookie.
type SessionData struct {
	ID        string    `json:"id"`
	Locale    string    `json:"locale,omitempty"`
	CSRFToken string    `json:"csrf,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// internal dirty flag; not serialized
	dirty bool
}

// MarkDirty flags the session for writing at end of request
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// Sessions encodes session cookies with a securecookie codec: always signed, and
// encrypted when an encryption key is configured.
type Sessions struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewSessions builds the codec from signingKey and the optional encryptionKey. An empty
// signing key gets a process-ephemeral random key, which only suits local development
// since cookies stop verifying after a restart.
func NewSessions(signingKey, encryptionKey string, secure bool, logger *zap.Logger) *Sessions {
	hashKey := []byte(signingKey)
	if strings.TrimSpace(signingKey) == "" {
		hashKey = securecookie.GenerateRandomKey(32)
		if hashKey == nil {
			panic("session: generate signing key")
		}
		if logger != nil {
			logger.Warn("session: using ephemeral signing key; set MH_SESSION_SIGNING_KEY outside local development")
		}
	}
	var blockKey []byte
	if encryptionKey != "" {
		blockKey = []byte(encryptionKey)
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(sessionLifetime / time.Second))
	return &Sessions{codec: codec, secure: secure}
}

// Codec exposes the cookie codec so other short-lived cookies share its keys.
func (s *Sessions) Codec() *securecookie.SecureCookie { return s.codec }

// Secure reports whether cookies carry the Secure flag.
func (s *Sessions) Secure() bool { return s.secure }

// Middleware loads or initializes a session and stores it in request context.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := s.read(r)
		if sd.ID == "" {
			sd.ID = randID()
			sd.CreatedAt = time.Now().UTC()
			sd.UpdatedAt = sd.CreatedAt
			sd.CSRFToken = newCSRFToken()
			sd.dirty = true
		}
		rw := NewResponseRecorder(w)
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				s.write(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(WithSession(r.Context(), sd)))
		// nothing written (e.g. HEAD): persist now
		if !rw.Wrote() && (sd.dirty || !fromCookie) {
			s.write(w, sd)
		}
	})
}

// GetSession returns session data from context
func GetSession(r *http.Request) *SessionData {
	if sd, ok := r.Context().Value(ctxKeySession).(*SessionData); ok && sd != nil {
		return sd
	}
	return &SessionData{}
}

// Encode signs sd into a cookie value.
func (s *Sessions) Encode(sd *SessionData) (string, error) {
	return s.codec.Encode(sessionCookieName, sd)
}

// Decode verifies and parses a cookie value.
func (s *Sessions) Decode(value string) (*SessionData, bool) {
	var sd SessionData
	if err := s.codec.Decode(sessionCookieName, value, &sd); err != nil {
		return nil, false
	}
	return &sd, true
}

func (s *Sessions) read(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	sd, ok := s.Decode(c.Value)
	if !ok {
		return &SessionData{}, false
	}
	return sd, true
}

func (s *Sessions) write(w http.ResponseWriter, sd *SessionData) {
	value, err := s.Encode(sd)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionLifetime),
	})
}

func randID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
