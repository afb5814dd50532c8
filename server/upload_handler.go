package server

import (
	"io"
	"net/http"

	"trackdesk/core/media"
	"trackdesk/logger"
)

const maxUploadSize = 200 << 20

// readUpload reads the multipart "file" part of r.
func readUpload(w http.ResponseWriter, r *http.Request) (media.File, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return media.File{}, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file")
		return media.File{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return media.File{}, false
	}
	return media.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

// UploadHandler hosts one file and answers with its source URL.
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if h.uploads == nil {
		writeError(w, http.StatusServiceUnavailable, "Media storage is not configured")
		return
	}
	f, ok := readUpload(w, r)
	if !ok {
		return
	}

	url, err := h.uploads.Upload(r.Context(), f)
	if err != nil {
		logger.Error("[Upload] upload failed", logger.String("file", f.Name), logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, "Upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"source_url": url})
}
