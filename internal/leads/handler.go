package leads

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"merchanthaus.com/web/internal/formpost"
	"merchanthaus.com/web/internal/forms"
	"merchanthaus.com/web/internal/observability"
)

const maxBodyBytes = 64 << 10

// Observer is told about every accepted post.
type Observer interface {
	LeadReceived(form string, spam bool)
}

// Handler is the form backend: it accepts URL-encoded posts carrying a form-name
// discriminator and stores them as leads.
type Handler struct {
	store    Store
	schemas  map[string]*forms.Schema
	now      func() time.Time
	observer Observer
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithClock overrides the receive timestamp source.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithObserver reports receipts, e.g. to metrics.
func WithObserver(o Observer) HandlerOption {
	return func(h *Handler) { h.observer = o }
}

// NewHandler accepts posts for the given schemas only.
func NewHandler(store Store, schemas map[string]*forms.Schema, opts ...HandlerOption) *Handler {
	h := &Handler{store: store, schemas: schemas, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP answers 200 for stored posts (spam included, so bots learn nothing), 400 for
// malformed bodies or unknown forms, and 500 when the store fails.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.PostForm.Get(formpost.FormNameField))
	schema, ok := h.schemas[name]
	if !ok {
		logger.Warn("form backend: unknown form", zap.String("form", name))
		http.Error(w, "unknown form", http.StatusBadRequest)
		return
	}

	now := h.now().UTC()
	lead := Lead{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		FormName:   schema.Name,
		Fields:     schema.FromValues(r.PostForm),
		RemoteIP:   clientIP(r),
		UserAgent:  r.UserAgent(),
		Spam:       strings.TrimSpace(r.PostForm.Get(formpost.HoneypotField)) != "",
		ReceivedAt: now,
	}
	if err := h.store.Insert(r.Context(), lead); err != nil {
		logger.Error("form backend: store lead", zap.String("form", name), zap.Error(err))
		http.Error(w, "could not store submission", http.StatusInternalServerError)
		return
	}
	if h.observer != nil {
		h.observer.LeadReceived(lead.FormName, lead.Spam)
	}
	if lead.Spam {
		logger.Info("form backend: honeypot tripped", zap.String("form", name), zap.String("lead_id", lead.ID))
	} else {
		logger.Info("form backend: lead received", zap.String("form", name), zap.String("lead_id", lead.ID))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
