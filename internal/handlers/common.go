// Package handlers exposes the scan, recognition and report pipelines over
// HTTP for the workshop frontend.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/workshoplabs/inspekt/internal/attachments"
	"github.com/workshoplabs/inspekt/internal/capture"
	"github.com/workshoplabs/inspekt/internal/compose"
	"github.com/workshoplabs/inspekt/internal/recognize"
	"github.com/workshoplabs/inspekt/internal/scanflow"
)

type Handler struct {
	flows      *scanflow.Store
	store      attachments.ObjectStore
	recognizer recognize.Client
	compositor *compose.Compositor
	source     capture.ImageSource
	renderOpts capture.RenderOptions

	mu       sync.Mutex
	archives map[string]*attachments.Archive
}

// New wires the handler. The recognizer may be nil when no API key is
// configured; recognition requests then fail with a clear message instead of
// disabling the rest of the surface.
func New(store attachments.ObjectStore, recognizer recognize.Client, compositor *compose.Compositor, renderOpts capture.RenderOptions) *Handler {
	return &Handler{
		flows:      scanflow.NewStore(),
		store:      store,
		recognizer: recognizer,
		compositor: compositor,
		source:     capture.StdImageSource{},
		renderOpts: renderOpts,
		archives:   make(map[string]*attachments.Archive),
	}
}

// archiveFor returns the request's attachment archive, creating it on first
// use.
func (h *Handler) archiveFor(requestID string) *attachments.Archive {
	h.mu.Lock()
	defer h.mu.Unlock()
	ar, ok := h.archives[requestID]
	if !ok {
		ar = attachments.NewArchive(h.store)
		h.archives[requestID] = ar
	}
	return ar
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
