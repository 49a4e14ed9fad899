package middleware

import (
	"encoding/json"
	"net/http"
)

// HTMX marks requests coming from htmx so handlers/middlewares can adapt responses
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		w.Header().Add("Vary", "HX-Request")
		next.ServeHTTP(w, r.WithContext(WithHTMX(r.Context(), is)))
	})
}

// HXTrigger sets the HX-Trigger header so the client fires event with detail.
func HXTrigger(w http.ResponseWriter, event string, detail any) {
	payload, err := json.Marshal(map[string]any{event: detail})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
}
