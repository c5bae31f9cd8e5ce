package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/workshoplabs/inspekt/internal/attachments"
	"github.com/workshoplabs/inspekt/internal/capture"
)

const maxUploadBytes = 20 << 20

// scanResponse returns the rendered document. When a request ID was given
// the scan is also archived and URL points at the stored object; Data is the
// base64 JPEG either way so the frontend can preview without a second fetch.
type scanResponse struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   string `json:"data"`
	URL    string `json:"url,omitempty"`
}

// HandleScan renders a normalized document scan from an uploaded photo and
// the user's view transform.
//
// Multipart fields: image (file), viewport_width, viewport_height, and the
// optional transform fields scale, pan_x, pan_y, rotation, filter. With
// request_id set, the result is archived as a scanned document attachment.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
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

	src, err := h.source.Decode(data)
	if err != nil {
		var de *capture.DecodeError
		if errors.As(err, &de) {
			h.writeError(w, "Unsupported or corrupt image", http.StatusUnprocessableEntity)
			return
		}
		h.writeError(w, "Unable to decode image", http.StatusInternalServerError)
		return
	}

	vp := capture.Viewport{
		Width:  formInt(r, "viewport_width", 0),
		Height: formInt(r, "viewport_height", 0),
	}
	sess := sessionFromForm(r)

	doc, err := capture.Render(src, vp, sess, h.renderOpts)
	if err != nil {
		if errors.Is(err, capture.ErrRenderContext) {
			h.writeError(w, "Invalid viewport: "+err.Error(), http.StatusBadRequest)
			return
		}
		h.writeError(w, "Render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := scanResponse{
		Name:   doc.Name,
		Width:  doc.Width,
		Height: doc.Height,
		Data:   base64.StdEncoding.EncodeToString(doc.Data),
	}

	if requestID := r.FormValue("request_id"); requestID != "" {
		att, err := h.archiveFor(requestID).Add(r.Context(), doc.Name, attachments.TypeScannedDocument, doc.Data, "image/jpeg")
		if err != nil {
			h.writeError(w, "Unable to archive scan: "+err.Error(), http.StatusBadGateway)
			return
		}
		resp.URL = att.URL
	}

	h.writeJSON(w, resp)
}

// sessionFromForm rebuilds the view transform the user composed on screen.
// The transform arrives as absolute values, not deltas, so each field maps
// through one transition from the initial state.
func sessionFromForm(r *http.Request) capture.Session {
	sess := capture.NewSession(capture.DocumentScaleBounds)
	sess = sess.WithScale(formFloat(r, "scale", 1.0))
	sess = sess.WithPan(formFloat(r, "pan_x", 0), formFloat(r, "pan_y", 0))
	sess = sess.RotatedBy(formInt(r, "rotation", 0))
	switch capture.Mode(r.FormValue("filter")) {
	case capture.FilterDocument:
		sess = sess.WithFilter(capture.FilterDocument)
	case capture.FilterBlackAndWhite:
		sess = sess.WithFilter(capture.FilterBlackAndWhite)
	}
	return sess
}

func formInt(r *http.Request, key string, def int) int {
	if v := r.FormValue(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func formFloat(r *http.Request, key string, def float64) float64 {
	if v := r.FormValue(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}
