package extraction_engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/PaperSplit/internal/core"
	"github.com/markdave123-py/PaperSplit/internal/models"
)

// Pipeline runs one document through render → fuse → split → classify and
// hands the segments to the result writer.
type Pipeline struct {
	renderer    core.PageRenderer
	fuser       core.TextFuser
	segmenter   core.Segmenter
	classifier  core.Classifier
	writer      core.ResultWriter
	pageTimeout time.Duration
	logger      zerolog.Logger
}

func NewPipeline(
	renderer core.PageRenderer,
	fuser core.TextFuser,
	segmenter core.Segmenter,
	classifier core.Classifier,
	writer core.ResultWriter,
	pageTimeout time.Duration,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		renderer:    renderer,
		fuser:       fuser,
		segmenter:   segmenter,
		classifier:  classifier,
		writer:      writer,
		pageTimeout: pageTimeout,
		logger:      logger,
	}
}

// Process extracts the document and stores the result table for jobID.
func (p *Pipeline) Process(ctx context.Context, jobID string, doc models.Document, progress ProgressFunc) (string, error) {
	segments, err := p.Extract(ctx, doc, progress)
	if err != nil {
		return "", err
	}
	return p.writer.WriteResult(ctx, jobID, segments)
}

// Extract returns the segments of every page in page order, then split order.
// Pages are handled strictly one after another; progress runs after each.
func (p *Pipeline) Extract(ctx context.Context, doc models.Document, progress ProgressFunc) ([]models.Segment, error) {
	src, err := p.renderer.Open(ctx, doc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			p.logger.Warn().Err(cerr).Str("document", doc.ID).Msg("close document")
		}
	}()

	total := src.PageCount()
	p.logger.Debug().Str("document", doc.ID).Int("pages", total).Msg("document opened")

	var segments []models.Segment
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := p.renderPage(ctx, src, n)
		if err != nil {
			return nil, err
		}

		text := p.fuser.Fuse(ctx, page)
		segments = append(segments, p.segmentsOf(doc, page, text)...)

		if progress != nil {
			progress(n, total)
		}
	}
	return segments, nil
}

func (p *Pipeline) renderPage(ctx context.Context, src core.PageSource, n int) (*core.Page, error) {
	page, err := core.RunWithTimeout(ctx, p.pageTimeout, func(ctx context.Context) (*core.Page, error) {
		return src.RenderPage(ctx, n)
	})
	if err == nil {
		return page, nil
	}
	// Shutdown is not a render failure.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if core.KindOf(err) == core.KindInternal {
		msg := fmt.Sprintf("page %d failed to render", n)
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("page %d did not render within %s", n, p.pageTimeout)
		}
		err = core.RenderError(msg, err)
	}
	return nil, err
}

func (p *Pipeline) segmentsOf(doc models.Document, page *core.Page, text string) []models.Segment {
	chunks := p.segmenter.Split(text)
	if len(chunks) == 0 {
		return nil
	}

	refs := page.ImageRefs()
	out := make([]models.Segment, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, models.Segment{
			SourceFile:      doc.FileName,
			Page:            page.Number,
			RawText:         c.Text,
			QuestionType:    p.classifier.Classify(c.Text),
			InlineEquations: c.Equations,
			LocalImages:     append([]string(nil), refs...),
		})
	}
	return out
}
