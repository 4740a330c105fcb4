package core

import (
	"context"

	"github.com/markdave123-py/PaperSplit/internal/models"
)

// EmbeddedImage is one raster image found in a page's content stream.
type EmbeddedImage struct {
	Data []byte
	Ext  string
	Path string // where the image was persisted
}

// Page is the rendered form of one PDF page. It lives only while the
// pipeline works on that page.
type Page struct {
	Number     int // 1-based
	NativeText string
	RasterPNG  []byte
	RasterPath string
	Images     []EmbeddedImage
}

// ImageRefs lists the persisted image paths of the page: embedded images in
// extraction order, then the full-page raster.
func (p *Page) ImageRefs() []string {
	refs := make([]string, 0, len(p.Images)+1)
	for _, img := range p.Images {
		refs = append(refs, img.Path)
	}
	return append(refs, p.RasterPath)
}

// PageSource is an opened document. Pages are rendered one at a time and the
// source must be closed when the pipeline is done with it.
type PageSource interface {
	PageCount() int
	RenderPage(ctx context.Context, pageNr int) (*Page, error)
	Close() error
}

// PageRenderer opens stored documents for rendering.
type PageRenderer interface {
	Open(ctx context.Context, doc models.Document) (PageSource, error)
}

// TextRecognizer runs OCR over an encoded image under the given language profile.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte, langs []string) (string, error)
}

// TextFuser merges a page's native text layer with its recognized text.
type TextFuser interface {
	Fuse(ctx context.Context, page *Page) string
}

// Chunk is one split of fused page text with its inline equations.
type Chunk struct {
	Text      string
	Equations []string
}

// Segmenter splits fused page text into question-like chunks.
type Segmenter interface {
	Split(text string) []Chunk
}

// Classifier labels a chunk of text. Implementations must be pure.
type Classifier interface {
	Classify(text string) models.QuestionType
}
