package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/PaperSplit/internal/services"
)

// DocumentUploader is the part of the document service the upload route uses.
type DocumentUploader interface {
	UploadAndSubmit(ctx context.Context, filename string, data io.Reader) (string, error)
}

var _ DocumentUploader = (*services.DocumentService)(nil)

type DocumentHandler struct {
	docs      DocumentUploader
	maxUpload int64
	logger    zerolog.Logger
}

func NewDocumentHandler(docs DocumentUploader, maxUpload int64, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, maxUpload: maxUpload, logger: logger}
}

// UploadDocument accepts a multipart "file" field and answers with the task handle.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeErrorMsg(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeErrorMsg(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	taskID, err := h.docs.UploadAndSubmit(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"task_id": taskID})
}
