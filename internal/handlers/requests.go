package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/workshoplabs/inspekt/internal/attachments"
	"github.com/workshoplabs/inspekt/internal/report"
	"github.com/workshoplabs/inspekt/internal/storage"
)

// HandleRequests routes everything under /api/requests/:
//
//	GET    /api/requests/{id}/attachments        list the archive
//	POST   /api/requests/{id}/attachments        upload an attachment
//	DELETE /api/requests/{id}/attachments/{name} remove one
//	POST   /api/requests/{id}/report             compose the report PDF
func (h *Handler) HandleRequests(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/requests/")
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || parts[0] == "" {
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}
	requestID := parts[0]

	switch parts[1] {
	case "attachments":
		if len(parts) == 3 && parts[2] != "" {
			h.handleAttachmentDetail(w, r, requestID, parts[2])
			return
		}
		h.handleAttachments(w, r, requestID)
	case "report":
		h.handleReport(w, r, requestID)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) handleAttachments(w http.ResponseWriter, r *http.Request, requestID string) {
	ar := h.archiveFor(requestID)

	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, ar.Items())
	case http.MethodPost:
		h.handleAttachmentUpload(w, r, requestID)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleAttachmentUpload(w http.ResponseWriter, r *http.Request, requestID string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.writeError(w, "Unable to read file", http.StatusBadRequest)
		return
	}

	typ, err := parseAttachmentType(r.FormValue("type"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	att, err := h.archiveFor(requestID).Add(r.Context(), header.Filename, typ, data, contentType)
	if err != nil {
		h.writeError(w, "Unable to archive attachment: "+err.Error(), http.StatusBadGateway)
		return
	}
	h.writeJSON(w, att)
}

func (h *Handler) handleAttachmentDetail(w http.ResponseWriter, r *http.Request, requestID, name string) {
	if r.Method != http.MethodDelete {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.archiveFor(requestID).Delete(r.Context(), name); err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseAttachmentType(s string) (attachments.Type, error) {
	switch attachments.Type(s) {
	case attachments.TypeManualPaper, attachments.TypeScannedDocument,
		attachments.TypePhoto, attachments.TypeInternalDraft:
		return attachments.Type(s), nil
	case "":
		return attachments.TypePhoto, nil
	default:
		return "", fmt.Errorf("unknown attachment type %q", s)
	}
}

// shareResponse is returned when the caller asks for a shareable report
// instead of raw PDF bytes.
type shareResponse struct {
	URL      string `json:"url"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

// handleReport composes the PDF from the posted report model plus the
// request's client-facing attachments. With ?share=whatsapp the PDF is
// uploaded and a wa.me link for the client's phone is returned instead of
// the bytes.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request, requestID string) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rpt report.Report
	if err := json.NewDecoder(r.Body).Decode(&rpt); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if rpt.RequestID == "" {
		rpt.RequestID = requestID
	}
	if rpt.Direction == "" {
		rpt.Direction = report.DirectionLTR
	}

	pdfData, err := h.compositor.Compose(r.Context(), &rpt, h.archiveFor(requestID).Items())
	if err != nil {
		h.writeError(w, "Unable to compose report: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("share") != "whatsapp" {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "report_"+requestID+".pdf"))
		if _, err := w.Write(pdfData); err != nil {
			h.writeError(w, "Unable to write PDF", http.StatusInternalServerError)
		}
		return
	}

	url, err := h.store.Upload(r.Context(), "report_"+requestID+".pdf", pdfData, "application/pdf")
	if err != nil {
		h.writeError(w, "Unable to upload report: "+err.Error(), http.StatusBadGateway)
		return
	}

	resp := shareResponse{URL: url}
	if rpt.Client.Phone != "" {
		link, err := storage.WhatsAppLink(rpt.Client.Phone, "Your inspection report: "+url)
		if err != nil {
			h.writeError(w, "Invalid client phone: "+err.Error(), http.StatusBadRequest)
			return
		}
		resp.WhatsApp = link
	}
	h.writeJSON(w, resp)
}
