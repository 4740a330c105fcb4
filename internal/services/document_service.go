package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/PaperSplit/internal/core"
	"github.com/markdave123-py/PaperSplit/internal/core/extraction_engine"
	objectclient "github.com/markdave123-py/PaperSplit/internal/core/object-client"
	"github.com/markdave123-py/PaperSplit/internal/core/render"
	"github.com/markdave123-py/PaperSplit/internal/models"
)

const pdfMime = "application/pdf"

// MsgOnlyPDF is returned to clients for any upload that is not a PDF.
const MsgOnlyPDF = "Only PDF files are allowed"

var pdfMagic = []byte("%PDF-")

// PageCounter reports the page count of a PDF.
type PageCounter func(rs io.ReadSeeker) (int, error)

// DocumentService validates uploads, stores them and hands them to the task manager.
type DocumentService struct {
	storage objectclient.ObjectClient
	tasks   extraction_engine.TaskRunner
	pages   PageCounter
	logger  zerolog.Logger
}

func NewDocumentService(storage objectclient.ObjectClient, tasks extraction_engine.TaskRunner, logger zerolog.Logger) *DocumentService {
	return &DocumentService{storage: storage, tasks: tasks, pages: render.PageCount, logger: logger}
}

// UploadAndSubmit stores the upload under a fresh token and submits it for
// processing. It returns the task handle.
func (s *DocumentService) UploadAndSubmit(ctx context.Context, filename string, data io.Reader) (string, error) {
	name := displayName(filename)
	if docconv.MimeTypeByExtension(name) != pdfMime {
		return "", core.InputError(MsgOnlyPDF, nil)
	}

	body, err := io.ReadAll(data)
	if err != nil {
		return "", core.InputError("failed to read upload", err)
	}
	if err := s.validate(name, body); err != nil {
		return "", err
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	key := s.objectKey(token, name)

	stored, err := s.storage.UploadFile(ctx, objectclient.BucketUploads, key, bytes.NewReader(body), pdfMime)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	doc := models.Document{ID: token, FileName: name, StoredPath: stored}
	id, err := s.tasks.Submit(ctx, doc)
	if err != nil {
		if derr := s.storage.DeleteFile(ctx, objectclient.BucketUploads, key); derr != nil {
			s.logger.Warn().Err(derr).Str("key", key).Msg("remove rejected upload")
		}
		return "", err
	}

	s.logger.Info().Str("task", id).Str("file", name).Int("bytes", len(body)).Msg("upload accepted")
	return id, nil
}

func (s *DocumentService) validate(name string, body []byte) error {
	if !bytes.HasPrefix(body, pdfMagic) {
		return core.InputError(MsgOnlyPDF, nil)
	}
	if s.pages == nil {
		return nil
	}

	// pdfcpu is stricter than MuPDF, so a parse failure here is not fatal.
	n, err := s.pages(bytes.NewReader(body))
	if err != nil {
		s.logger.Warn().Err(err).Str("file", name).Msg("page count unavailable, accepting upload")
		return nil
	}
	if n == 0 {
		return core.InputError("PDF has no pages", nil)
	}
	return nil
}

// objectKey gives every upload a flat, collision-free name in the uploads
// bucket. Long client names are cut so the key stays a valid file name.
func (s *DocumentService) objectKey(token, name string) string {
	return token + "_" + core.TruncateName(strings.ReplaceAll(name, " ", "_"), core.MaxNameBytes)
}

// displayName drops any client-side directory from the name.
func displayName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
