// Package site serves the embedded operator console.
package site

import (
	"context"
	"errors"
	"net/http"
)

// Error constants
var (
	ErrServe = errors.New("console serve failed")
)

// Register attaches the console routes to mux. The console lives at "/"
// and its assets under /console/; any other unmatched path is a 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	root := NewRootHandler()
	mux.HandleFunc("/", root.HandleRoot)
	mux.Handle("/console/", http.StripPrefix("/console/", http.FileServer(FS())))
}

// RootHandler serves the console index page.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}
