package responses

import (
	"bytes"
	"log"
	"net/http"
)

// Executor renders a named page template.
type Executor interface {
	Execute(buf *bytes.Buffer, name string, data any) error
}

// WriteHTML renders into a buffer first so a template error still yields a clean 500.
func WriteHTML(w http.ResponseWriter, HTTPStatusCode int, templates Executor, name string, data any) {
	var buf bytes.Buffer
	if err := templates.Execute(&buf, name, data); err != nil {
		log.Printf("[ERROR][HTML] render %q: %v", name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(HTTPStatusCode)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[ERROR][HTML] writing %q: %v", name, err)
	}
}
