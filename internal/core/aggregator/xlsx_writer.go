// Package aggregator turns classified segments into the downloadable xlsx table.
package aggregator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/markdave123-py/PaperSplit/internal/core"
	objectclient "github.com/markdave123-py/PaperSplit/internal/core/object-client"
	"github.com/markdave123-py/PaperSplit/internal/models"
)

const (
	SheetName   = "Sheet1"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Columns is the header row, in output order. A cell holds at most
// excelize.TotalCellChars characters; longer values are cut by excelize and
// Encode logs a warning for each one.
var Columns = []string{"source_file", "page", "raw_text", "question_type", "inline_equations", "local_images"}

const listSep = ";"

// XLSXWriter implements core.ResultWriter on top of an object store.
type XLSXWriter struct {
	objects objectclient.ObjectClient
	logger  zerolog.Logger
}

var _ core.ResultWriter = (*XLSXWriter)(nil)

func NewXLSXWriter(objects objectclient.ObjectClient, logger zerolog.Logger) *XLSXWriter {
	return &XLSXWriter{objects: objects, logger: logger}
}

// ResultName is the outputs-bucket key of a job's table.
func ResultName(jobID string) string {
	return fmt.Sprintf("result_%s.xlsx", jobID)
}

// WriteResult encodes the segments and stores them under ResultName(jobID).
// The object store publishes the file atomically.
func (w *XLSXWriter) WriteResult(ctx context.Context, jobID string, segments []models.Segment) (string, error) {
	var buf bytes.Buffer
	if err := w.Encode(&buf, segments); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", core.AggregationError("result write cancelled", err)
	}

	loc, err := w.objects.UploadFile(ctx, objectclient.BucketOutputs, ResultName(jobID), &buf, ContentType)
	if err != nil {
		return "", core.AggregationError("failed to store result table", err)
	}
	return loc, nil
}

// Encode writes one header row and one row per segment. An empty segment list
// yields a header-only workbook.
func (w *XLSXWriter) Encode(out io.Writer, segments []models.Segment) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return core.AggregationError("failed to open sheet", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return core.AggregationError("failed to write header", err)
	}

	for i, seg := range segments {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return core.AggregationError("failed to address row", err)
		}
		values := row(seg)
		w.warnTruncated(i+2, seg, values)
		if err := sw.SetRow(cell, values); err != nil {
			return core.AggregationError(fmt.Sprintf("failed to write row %d", i+2), err)
		}
	}

	if err := sw.Flush(); err != nil {
		return core.AggregationError("failed to flush sheet", err)
	}
	if err := f.Write(out); err != nil {
		return core.AggregationError("failed to serialize workbook", err)
	}
	return nil
}

func (w *XLSXWriter) warnTruncated(rowNr int, seg models.Segment, values []interface{}) {
	for col, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if n := utf8.RuneCountInString(s); n > excelize.TotalCellChars {
			w.logger.Warn().
				Str("source_file", seg.SourceFile).
				Int("page", seg.Page).
				Int("row", rowNr).
				Str("column", Columns[col]).
				Int("chars", n).
				Int("limit", excelize.TotalCellChars).
				Msg("cell exceeds xlsx limit and is truncated")
		}
	}
}

func row(seg models.Segment) []interface{} {
	return []interface{}{
		seg.SourceFile,
		seg.Page,
		seg.RawText,
		string(seg.QuestionType),
		strings.Join(seg.InlineEquations, listSep),
		strings.Join(seg.LocalImages, listSep),
	}
}
