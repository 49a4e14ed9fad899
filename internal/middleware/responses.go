package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorEvent is the htmx event raised with every JSON error so the page can toast it.
const ErrorEvent = "app:error"

type errorBody struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// WriteError answers htmx requests with a JSON body that is never swapped into the page,
// and everyone else with plain text.
func WriteError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	w.Header().Set("Cache-Control", "no-store")
	if !IsHTMX(r.Context()) {
		http.Error(w, msg, code)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("HX-Reswap", "none")
	HXTrigger(w, ErrorEvent, msg)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorBody{Status: code, Error: msg})
}
