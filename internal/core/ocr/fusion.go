package ocr

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/PaperSplit/internal/core"
)

// Fuser combines the native text layer of a page with OCR output. Scanned
// pages have no text layer, and OCR alone is noisier on pages that do.
type Fuser struct {
	recognizer core.TextRecognizer
	primary    []string
	fallback   []string
	timeout    time.Duration
	logger     zerolog.Logger
}

var _ core.TextFuser = (*Fuser)(nil)

// NewFuser builds a Fuser. timeout bounds each recognition attempt; zero
// disables the bound.
func NewFuser(rec core.TextRecognizer, primary, fallback []string, timeout time.Duration, logger zerolog.Logger) *Fuser {
	return &Fuser{
		recognizer: rec,
		primary:    primary,
		fallback:   fallback,
		timeout:    timeout,
		logger:     logger,
	}
}

// Fuse never fails: when recognition fails under both profiles the OCR
// contribution is empty.
func (f *Fuser) Fuse(ctx context.Context, page *core.Page) string {
	recognized := f.Recognize(ctx, page)
	return strings.TrimSpace(page.NativeText + "\n" + recognized)
}

// Recognize tries the primary profile, then the fallback once.
func (f *Fuser) Recognize(ctx context.Context, page *core.Page) string {
	if len(page.RasterPNG) == 0 {
		return ""
	}

	text, err := f.attempt(ctx, page.RasterPNG, f.primary)
	if err == nil {
		return text
	}
	f.logger.Warn().Err(err).
		Int("page", page.Number).
		Strs("langs", f.primary).
		Msg("ocr failed, retrying with fallback profile")

	if len(f.fallback) == 0 {
		return ""
	}
	text, err = f.attempt(ctx, page.RasterPNG, f.fallback)
	if err == nil {
		return text
	}

	rerr := core.RecognitionError("ocr failed under all profiles", err)
	f.logger.Warn().Err(rerr).
		Int("page", page.Number).
		Strs("langs", f.fallback).
		Msg("continuing without ocr text")
	return ""
}

func (f *Fuser) attempt(ctx context.Context, img []byte, langs []string) (string, error) {
	return core.RunWithTimeout(ctx, f.timeout, func(ctx context.Context) (string, error) {
		return f.recognizer.Recognize(ctx, img, langs)
	})
}
