package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/workshoplabs/inspekt/internal/capture"
	"github.com/workshoplabs/inspekt/internal/recognize"
	"github.com/workshoplabs/inspekt/internal/scanflow"
)

// HandleRecognize runs one recognition pass over an uploaded frame and
// drives the capture flow's state machine through it. On success the flow
// lands in review with the result attached; on failure it returns to capture
// carrying the error message, so the frontend can offer a retry.
//
// Multipart fields: image (file), mode (plate, car_details or
// text_correction), and optional flow_id to continue an existing flow.
func (h *Handler) HandleRecognize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.recognizer == nil {
		h.writeError(w, "Recognition is not configured", http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	mode, err := recognize.ParseMode(r.FormValue("mode"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, "Missing image file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.writeError(w, "Unable to read image", http.StatusBadRequest)
		return
	}

	flow := h.flowFor(r.FormValue("flow_id"))

	if err := flow.BeginProcessing(); err != nil {
		var te *scanflow.TransitionError
		if errors.As(err, &te) {
			h.writeError(w, err.Error(), http.StatusConflict)
			return
		}
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := h.recognizer.Recognize(r.Context(), data, mode)
	if err != nil {
		// Recognition failures are part of the flow, not transport errors:
		// the flow returns to capture and the client sees the message.
		_ = flow.FailRecognition(err.Error())
		h.writeJSON(w, flow.Snapshot())
		return
	}

	if err := flow.CompleteRecognition(result); err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, flow.Snapshot())
}

// flowFor resolves an existing flow or starts a fresh one. Unknown IDs start
// fresh rather than erroring; stale frontend state is not worth a 404 here.
func (h *Handler) flowFor(id string) *scanflow.Flow {
	if id != "" {
		if flow, ok := h.flows.Get(id); ok {
			return flow
		}
	}
	flow := scanflow.NewFlow(capture.PlateScaleBounds)
	h.flows.Set(flow.ID, flow)
	return flow
}
