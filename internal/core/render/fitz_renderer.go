// Package render opens stored PDFs with MuPDF (go-fitz) and produces one
// core.Page per page: the native text layer, a PNG raster and the images
// embedded in the page's content stream (pdfcpu).
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/PaperSplit/internal/core"
	objectclient "github.com/markdave123-py/PaperSplit/internal/core/object-client"
	"github.com/markdave123-py/PaperSplit/internal/models"
)

// FitzRenderer implements core.PageRenderer.
type FitzRenderer struct {
	objects objectclient.ObjectClient
	dpi     float64
	logger  zerolog.Logger
}

var _ core.PageRenderer = (*FitzRenderer)(nil)

func NewFitzRenderer(objects objectclient.ObjectClient, dpi float64, logger zerolog.Logger) *FitzRenderer {
	return &FitzRenderer{objects: objects, dpi: dpi, logger: logger}
}

// Open opens the document once for the whole pipeline run.
func (r *FitzRenderer) Open(ctx context.Context, doc models.Document) (core.PageSource, error) {
	if _, err := os.Stat(doc.StoredPath); err != nil {
		return nil, core.RenderError("stored document not accessible", err)
	}

	fd, err := fitz.New(doc.StoredPath)
	if err != nil {
		return nil, core.RenderError("failed to open PDF", err)
	}

	src := &fitzSource{
		doc:    fd,
		meta:   doc,
		stem:   fileStem(doc.FileName),
		r:      r,
		logger: r.logger.With().Str("document", doc.ID).Logger(),
	}

	// MuPDF is more forgiving than pdfcpu. When pdfcpu cannot parse the file,
	// pages still render but carry no embedded images.
	pctx, err := readImageContext(doc.StoredPath)
	if err != nil {
		src.logger.Warn().Err(err).Msg("embedded image extraction unavailable for document")
	}
	src.images = pctx

	return src, nil
}

type fitzSource struct {
	doc    *fitz.Document
	images *model.Context
	meta   models.Document
	stem   string
	r      *FitzRenderer
	logger zerolog.Logger

	// A page render abandoned after a timeout may still be inside MuPDF when
	// the pipeline closes the source. The document is freed once the last
	// in-flight call returns.
	mu       sync.Mutex
	inflight int
	closing  bool
	closeErr error
}

var errSourceClosed = errors.New("document already closed")

const maxStemBytes = 120

func (s *fitzSource) withDoc(fn func(d *fitz.Document) error) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return errSourceClosed
	}
	s.inflight++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight--
		if s.closing && s.inflight == 0 {
			s.closeErr = s.doc.Close()
		}
		s.mu.Unlock()
	}()
	return fn(s.doc)
}

func (s *fitzSource) PageCount() int {
	n := 0
	_ = s.withDoc(func(d *fitz.Document) error {
		n = d.NumPage()
		return nil
	})
	return n
}

func (s *fitzSource) RenderPage(ctx context.Context, pageNr int) (*core.Page, error) {
	if pageNr < 1 || pageNr > s.PageCount() {
		return nil, core.RenderError(fmt.Sprintf("page %d out of range", pageNr), nil)
	}
	idx := pageNr - 1

	var (
		text string
		img  image.Image
	)
	err := s.withDoc(func(d *fitz.Document) error {
		var err error
		if text, err = d.Text(idx); err != nil {
			return core.RenderError(fmt.Sprintf("failed to extract text of page %d", pageNr), err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if img, err = d.ImageDPI(idx, s.r.dpi); err != nil {
			return core.RenderError(fmt.Sprintf("failed to rasterize page %d", pageNr), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, core.RenderError(fmt.Sprintf("failed to encode page %d as PNG", pageNr), err)
	}

	rasterPath, err := s.r.objects.UploadFile(ctx, objectclient.BucketImages, RasterName(s.meta.ID, s.stem, pageNr), bytes.NewReader(buf.Bytes()), "image/png")
	if err != nil {
		return nil, core.RenderError(fmt.Sprintf("failed to save raster of page %d", pageNr), err)
	}

	embedded, err := s.embeddedImages(ctx, pageNr)
	if err != nil {
		return nil, err
	}

	return &core.Page{
		Number:     pageNr,
		NativeText: text,
		RasterPNG:  buf.Bytes(),
		RasterPath: rasterPath,
		Images:     embedded,
	}, nil
}

func (s *fitzSource) embeddedImages(ctx context.Context, pageNr int) ([]core.EmbeddedImage, error) {
	if s.images == nil {
		return nil, nil
	}

	raw, err := pageImages(s.images, pageNr)
	if err != nil {
		s.logger.Warn().Err(err).Int("page", pageNr).Msg("skipping embedded images")
		return nil, nil
	}

	out := make([]core.EmbeddedImage, 0, len(raw))
	for i, img := range raw {
		name := EmbeddedName(s.meta.ID, s.stem, pageNr, i, img.Ext)
		p, err := s.r.objects.UploadFile(ctx, objectclient.BucketImages, name, bytes.NewReader(img.Data), "image/"+img.Ext)
		if err != nil {
			return nil, core.RenderError(fmt.Sprintf("failed to save image %d of page %d", i, pageNr), err)
		}
		img.Path = p
		out = append(out, img)
	}
	return out, nil
}

func (s *fitzSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return s.closeErr
	}
	s.closing = true
	if s.inflight == 0 {
		s.closeErr = s.doc.Close()
	}
	return s.closeErr
}

// RasterName is the image-bucket key of a page raster. The upload token
// keeps names from concurrent jobs apart.
func RasterName(token, stem string, pageNr int) string {
	return fmt.Sprintf("%s_%s_p%d.png", token, stem, pageNr)
}

// EmbeddedName is the image-bucket key of the i-th embedded image of a page.
func EmbeddedName(token, stem string, pageNr, i int, ext string) string {
	return fmt.Sprintf("%s_%s_p%d_%d.%s", token, stem, pageNr, i, ext)
}

// fileStem strips directories and the extension and replaces characters that
// do not belong in a flat file name. The result is capped in length since
// page and image suffixes are appended to it.
func fileStem(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.Map(func(r rune) rune {
		switch r {
		case '/', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, stem)
	if stem == "" || stem == "." || stem == ".." {
		return "document"
	}
	return core.TruncateName(stem, maxStemBytes)
}
