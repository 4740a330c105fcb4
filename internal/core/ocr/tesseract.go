package ocr

import (
	"context"
	"fmt"
	"strconv"

	"github.com/otiai10/gosseract/v2"

	"github.com/markdave123-py/PaperSplit/internal/core"
)

// TesseractRecognizer runs Tesseract through gosseract. A client is created
// per call because gosseract clients are not safe for concurrent use.
type TesseractRecognizer struct {
	dpi           int
	clientFactory func() *gosseract.Client
}

var _ core.TextRecognizer = (*TesseractRecognizer)(nil)

func NewTesseractRecognizer(dpi int) *TesseractRecognizer {
	return &TesseractRecognizer{dpi: dpi, clientFactory: gosseract.NewClient}
}

func (r *TesseractRecognizer) Recognize(ctx context.Context, image []byte, langs []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := r.clientFactory()
	defer c.Close()

	if len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if r.dpi > 0 {
		if err := c.SetVariable("user_defined_dpi", strconv.Itoa(r.dpi)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
